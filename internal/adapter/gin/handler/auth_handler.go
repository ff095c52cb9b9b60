package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"travel-account-service/internal/audit"
	"travel-account-service/internal/auth/provider"
	"travel-account-service/internal/auth/session"
	"travel-account-service/internal/usecase/signin"
	"travel-account-service/pkg/security"
)

// stateCookieName carries the pending challenge between the sign-in
// redirect and the provider callback.
const stateCookieName = "travel_auth_state"

// stateCookieMaxAge bounds how long a challenge stays redeemable.
const stateCookieMaxAge = 15 * 60

// AuthHandler handles the external sign-in flow: challenge redirect,
// provider callback and sign-out.
type AuthHandler struct {
	providers    *provider.Registry
	orchestrator *signin.Orchestrator
	sessions     *session.Manager
	audit        *audit.Recorder
	log          *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(
	providers *provider.Registry,
	orchestrator *signin.Orchestrator,
	sessions *session.Manager,
	rec *audit.Recorder,
	log *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		providers:    providers,
		orchestrator: orchestrator,
		sessions:     sessions,
		audit:        rec,
		log:          log,
	}
}

// challengeState is the payload of the state cookie. The provider's
// callback does not identify the provider, so the cookie carries it.
type challengeState struct {
	State      string `json:"state"`
	Provider   string `json:"provider"`
	ReturnURL  string `json:"returnUrl,omitempty"`
	Persistent bool   `json:"persistent,omitempty"`
}

func encodeState(s challengeState) string {
	raw, _ := json.Marshal(s)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeState(encoded string) (challengeState, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return challengeState{}, false
	}
	var s challengeState
	if err := json.Unmarshal(raw, &s); err != nil || s.State == "" || s.Provider == "" {
		return challengeState{}, false
	}
	return s, true
}

// SignIn handles POST /auth/sign-in/:provider. It stores the challenge in a
// cookie and redirects the browser to the provider's authorization URL.
func (h *AuthHandler) SignIn(c *gin.Context) {
	name := c.Param("provider")
	p := h.providers.Get(name)
	if p == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_provider",
			Message: "no such sign-in provider",
		})
		return
	}

	state := challengeState{
		State:      uuid.New().String(),
		Provider:   name,
		ReturnURL:  security.SafeReturnURL(c.PostForm("returnUrl"), "/"),
		Persistent: c.PostForm("persistent") == "true",
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, encodeState(state), stateCookieMaxAge, "/", "", false, true)

	h.log.Info("sign-in challenge issued", zap.String("provider", name))
	c.Redirect(http.StatusFound, p.AuthCodeURL(state.State))
}

// Callback handles GET /auth/callback, the provider's redirect back. It
// rebuilds the callback from the state cookie and query parameters, runs it
// through the orchestrator and maps the outcome onto the HTTP response.
func (h *AuthHandler) Callback(c *gin.Context) {
	cb := h.buildCallback(c)

	result, err := h.orchestrator.HandleCallback(c.Request.Context(), cb)
	if err != nil {
		h.log.Error("callback handling failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "sign-in failed",
		})
		return
	}

	// The challenge is spent whatever the outcome.
	c.SetCookie(stateCookieName, "", -1, "/", "", false, true)

	switch result.Status {
	case signin.StatusSignedIn, signin.StatusCreated:
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, result.SessionToken,
			h.sessions.MaxAge(cb != nil && cb.Persistent), "/", "", false, true)

		returnURL := "/"
		if cb != nil {
			returnURL = security.SafeReturnURL(cbReturnURL(c), "/")
		}
		c.Redirect(http.StatusFound, returnURL)

	case signin.StatusSignInRequired:
		c.Redirect(http.StatusFound, "/")

	case signin.StatusRejected:
		c.JSON(http.StatusConflict, gin.H{
			"error":             "sign_in_rejected",
			"alreadyRegistered": result.AlreadyRegistered,
			"messages":          result.Messages,
		})

	case signin.StatusLockedOut:
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "locked_out",
			Message: "account is temporarily locked, try again later",
		})

	default:
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "provider_error",
			Message: "sign-in failed",
		})
	}
}

// buildCallback assembles the orchestrator input. A missing or mismatched
// state cookie yields nil: the challenge was lost, not attacked, and the
// user is re-prompted.
func (h *AuthHandler) buildCallback(c *gin.Context) *signin.Callback {
	encoded, err := c.Cookie(stateCookieName)
	if err != nil || encoded == "" {
		return nil
	}
	state, ok := decodeState(encoded)
	if !ok || c.Query("state") != state.State {
		return nil
	}

	p := h.providers.Get(state.Provider)
	if p == nil {
		return nil
	}

	cb := &signin.Callback{
		ProviderName:        p.Name(),
		ProviderDisplayName: p.DisplayName(),
		Persistent:          state.Persistent,
	}

	if remoteErr := c.Query("error"); remoteErr != "" {
		cb.RemoteError = remoteErr
		return cb
	}

	key, claims, err := p.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.log.Warn("code exchange failed", zap.String("provider", p.Name()), zap.Error(err))
		cb.RemoteError = "code exchange failed"
		return cb
	}

	cb.ProviderKey = key
	cb.Claims = signin.Claims{
		Email:     claims.Email,
		GivenName: claims.GivenName,
		Surname:   claims.Surname,
	}
	return cb
}

// cbReturnURL re-reads the return URL from the state cookie. Called before
// the cookie is cleared from the response takes effect client-side.
func cbReturnURL(c *gin.Context) string {
	encoded, err := c.Cookie(stateCookieName)
	if err != nil {
		return "/"
	}
	state, ok := decodeState(encoded)
	if !ok {
		return "/"
	}
	return state.ReturnURL
}

// SignOut handles POST /auth/sign-out. It clears the session cookie; an
// absent or invalid session is not an error.
func (h *AuthHandler) SignOut(c *gin.Context) {
	if token, err := c.Cookie(session.CookieName); err == nil && token != "" {
		if userID, err := h.sessions.Verify(token); err == nil {
			h.audit.SignedOut(userID)
		}
	}

	c.SetCookie(session.CookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}
