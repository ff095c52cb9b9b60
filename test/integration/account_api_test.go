package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"travel-account-service/internal/adapter/cache"
	"travel-account-service/internal/adapter/db/docstore"
	ginhandler "travel-account-service/internal/adapter/gin/handler"
	ginrouter "travel-account-service/internal/adapter/gin/router"
	"travel-account-service/internal/adapter/lockout"
	"travel-account-service/internal/adapter/repository/cached"
	"travel-account-service/internal/audit"
	"travel-account-service/internal/auth/provider"
	"travel-account-service/internal/auth/session"
	"travel-account-service/internal/docstore/redisstore"
	domain "travel-account-service/internal/domain/user"
	"travel-account-service/internal/usecase/account"
	"travel-account-service/internal/usecase/signin"
)

// AccountAPISuite exercises the HTTP surface end to end over the full
// repository stack (docstore + cache decorator) backed by miniredis.
type AccountAPISuite struct {
	suite.Suite

	router   *gin.Engine
	repo     domain.Repository
	sessions *session.Manager
}

func TestAccountAPISuite(t *testing.T) {
	suite.Run(t, new(AccountAPISuite))
}

func (s *AccountAPISuite) SetupTest() {
	mr := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { _ = client.Close() })

	log := zaptest.NewLogger(s.T())

	store := redisstore.New(client, "users", func() *domain.User { return &domain.User{} }, log)
	userCache := cache.NewRedisUserCache(client, 5*time.Minute, log)
	s.repo = cached.NewCachedUserRepository(docstore.NewUserRepo(store, log), userCache, log)

	s.sessions = session.NewManager(session.Config{
		Secret:        "integration-test-secret",
		TTL:           time.Hour,
		PersistentTTL: 24 * time.Hour,
		Issuer:        "travel-account-service",
	}, log)

	lock := lockout.NewRedisLockout(client, lockout.Config{
		MaxFailures: 5, WindowSeconds: 60, Enabled: true,
	}, log)

	rec := audit.NewRecorder(log)
	orchestrator := signin.New(s.repo, s.sessions, lock, rec, log)
	accountUC := account.New(s.repo, rec, log)

	providers := provider.NewRegistry(
		provider.NewAmazon("client-id", "client-secret", "http://localhost/auth/callback"),
	)

	authHandler := ginhandler.NewAuthHandler(providers, orchestrator, s.sessions, rec, log)
	accountHandler := ginhandler.NewAccountHandler(accountUC, log)

	s.router = ginrouter.SetupRouter(authHandler, accountHandler, s.sessions, client, log)
}

// seedUser creates an account and returns its id and a session cookie.
func (s *AccountAPISuite) seedUser(email string, logins ...domain.ExternalLogin) (string, *http.Cookie) {
	u := &domain.User{UserName: email, Email: email, Logins: logins}
	id, err := s.repo.Create(context.Background(), u)
	s.Require().NoError(err)

	token, err := s.sessions.SignIn(context.Background(), id, false)
	s.Require().NoError(err)

	return id, &http.Cookie{Name: session.CookieName, Value: token}
}

func (s *AccountAPISuite) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AccountAPISuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *AccountAPISuite) TestGetAccountRequiresSession() {
	w := s.do(http.MethodGet, "/v1/account", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AccountAPISuite) TestGetAccountRejectsTamperedSession() {
	_, cookie := s.seedUser("a@b.com", domain.ExternalLogin{ProviderName: "amazon", ProviderKey: "abc"})
	cookie.Value += "tampered"

	w := s.do(http.MethodGet, "/v1/account", nil, cookie)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AccountAPISuite) TestGetAccount() {
	id, cookie := s.seedUser("a@b.com", domain.ExternalLogin{ProviderName: "amazon", ProviderKey: "abc"})

	w := s.do(http.MethodGet, "/v1/account", nil, cookie)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp account.GetAccountResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(id, resp.ID)
	s.Equal("a@b.com", resp.Email)
	s.Len(resp.Logins, 1)
}

func (s *AccountAPISuite) TestUpdateProfile() {
	_, cookie := s.seedUser("a@b.com", domain.ExternalLogin{ProviderName: "amazon", ProviderKey: "abc"})

	w := s.do(http.MethodPut, "/v1/account", gin.H{
		"userName":  "John.Smith",
		"givenName": "John",
		"surname":   "Smith",
	}, cookie)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp account.GetAccountResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("John.Smith", resp.UserName)
	s.Equal("John", resp.GivenName)
}

func (s *AccountAPISuite) TestUpdateFavorites() {
	_, cookie := s.seedUser("a@b.com", domain.ExternalLogin{ProviderName: "amazon", ProviderKey: "abc"})

	w := s.do(http.MethodPut, "/v1/account/favorites", gin.H{
		"favoriteLines": []string{"victoria", "northern"},
	}, cookie)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp account.GetAccountResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal([]string{"victoria", "northern"}, resp.FavoriteLines)
}

func (s *AccountAPISuite) TestUpdateFavoritesRejectsInvalidLine() {
	_, cookie := s.seedUser("a@b.com", domain.ExternalLogin{ProviderName: "amazon", ProviderKey: "abc"})

	w := s.do(http.MethodPut, "/v1/account/favorites", gin.H{
		"favoriteLines": []string{"Not A Line!"},
	}, cookie)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AccountAPISuite) TestLinkAndUnlinkLogin() {
	_, cookie := s.seedUser("a@b.com", domain.ExternalLogin{ProviderName: "amazon", ProviderKey: "abc"})

	w := s.do(http.MethodPost, "/v1/account/logins", gin.H{
		"provider":    "google",
		"providerKey": "sub-9",
	}, cookie)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp account.GetAccountResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Logins, 2)

	w = s.do(http.MethodDelete, "/v1/account/logins/google/sub-9", nil, cookie)
	s.Require().Equal(http.StatusOK, w.Code)

	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Logins, 1)
}

func (s *AccountAPISuite) TestUnlinkLastLoginRejected() {
	_, cookie := s.seedUser("a@b.com", domain.ExternalLogin{ProviderName: "amazon", ProviderKey: "abc"})

	w := s.do(http.MethodDelete, "/v1/account/logins/amazon/abc", nil, cookie)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AccountAPISuite) TestLinkLoginHeldByAnotherAccountConflicts() {
	s.seedUser("other@b.com", domain.ExternalLogin{ProviderName: "google", ProviderKey: "sub-9"})
	_, cookie := s.seedUser("a@b.com", domain.ExternalLogin{ProviderName: "amazon", ProviderKey: "abc"})

	w := s.do(http.MethodPost, "/v1/account/logins", gin.H{
		"provider":    "google",
		"providerKey": "sub-9",
	}, cookie)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *AccountAPISuite) TestGenerateAccessToken() {
	_, cookie := s.seedUser("a@b.com", domain.ExternalLogin{ProviderName: "amazon", ProviderKey: "abc"})

	w := s.do(http.MethodPost, "/v1/account/access-token", nil, cookie)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp account.AccessTokenResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.NotEmpty(resp.AccessToken)
}

func (s *AccountAPISuite) TestDeleteAccount() {
	id, cookie := s.seedUser("a@b.com", domain.ExternalLogin{ProviderName: "amazon", ProviderKey: "abc"})

	w := s.do(http.MethodDelete, "/v1/account", nil, cookie)
	s.Require().Equal(http.StatusNoContent, w.Code)

	u, err := s.repo.FindByID(context.Background(), id)
	s.Require().NoError(err)
	s.Nil(u)

	// The session is still cryptographically valid but the account is gone.
	w = s.do(http.MethodGet, "/v1/account", nil, cookie)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AccountAPISuite) TestSignInChallengeRedirectsToProvider() {
	w := s.do(http.MethodPost, "/auth/sign-in/amazon", nil, nil)

	s.Require().Equal(http.StatusFound, w.Code)
	s.Contains(w.Header().Get("Location"), "https://www.amazon.com/ap/oa")

	var stateCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "travel_auth_state" {
			stateCookie = c
		}
	}
	s.NotNil(stateCookie)
}

func (s *AccountAPISuite) TestSignInUnknownProvider() {
	w := s.do(http.MethodPost, "/auth/sign-in/myspace", nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *AccountAPISuite) TestCallbackWithoutStateRepromptsSignIn() {
	w := s.do(http.MethodGet, "/auth/callback?code=xyz&state=unknown", nil, nil)

	s.Require().Equal(http.StatusFound, w.Code)
	s.Equal("/", w.Header().Get("Location"))
}

func (s *AccountAPISuite) TestSignOutClearsSession() {
	_, cookie := s.seedUser("a@b.com", domain.ExternalLogin{ProviderName: "amazon", ProviderKey: "abc"})

	w := s.do(http.MethodPost, "/auth/sign-out", nil, cookie)
	s.Require().Equal(http.StatusNoContent, w.Code)

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	s.True(cleared)
}
