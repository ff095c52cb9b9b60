package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"travel-account-service/internal/adapter/gin/middleware"
	"travel-account-service/internal/auth/session"
	"travel-account-service/internal/usecase/account"
	apperrors "travel-account-service/pkg/errors"
)

// AccountHandler handles HTTP requests for account management
type AccountHandler struct {
	uc  account.Usecase
	log *zap.Logger
}

// NewAccountHandler creates a new AccountHandler instance
func NewAccountHandler(uc account.Usecase, log *zap.Logger) *AccountHandler {
	return &AccountHandler{uc: uc, log: log}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// UpdateProfileRequest represents the HTTP request body for updating profile fields
type UpdateProfileRequest struct {
	UserName  string `json:"userName" binding:"omitempty,min=3,max=100"`
	GivenName string `json:"givenName" binding:"omitempty,max=100"`
	Surname   string `json:"surname" binding:"omitempty,max=100"`
}

// UpdateFavoritesRequest represents the HTTP request body for replacing favourite lines
type UpdateFavoritesRequest struct {
	FavoriteLines []string `json:"favoriteLines" binding:"required"`
}

// LinkLoginRequest represents the HTTP request body for linking an external login
type LinkLoginRequest struct {
	ProviderName        string `json:"provider" binding:"required"`
	ProviderKey         string `json:"providerKey" binding:"required"`
	ProviderDisplayName string `json:"providerDisplayName"`
}

// GetAccount handles GET /v1/account
func (h *AccountHandler) GetAccount(c *gin.Context) {
	resp, err := h.uc.GetAccount(c.Request.Context(), account.GetAccountRequest{
		UserID: middleware.UserID(c),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateProfile handles PUT /v1/account
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.uc.UpdateProfile(c.Request.Context(), account.UpdateProfileRequest{
		UserID:    middleware.UserID(c),
		UserName:  req.UserName,
		GivenName: req.GivenName,
		Surname:   req.Surname,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateFavorites handles PUT /v1/account/favorites
func (h *AccountHandler) UpdateFavorites(c *gin.Context) {
	var req UpdateFavoritesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.uc.UpdateFavorites(c.Request.Context(), account.UpdateFavoritesRequest{
		UserID:        middleware.UserID(c),
		FavoriteLines: req.FavoriteLines,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LinkLogin handles POST /v1/account/logins
func (h *AccountHandler) LinkLogin(c *gin.Context) {
	var req LinkLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	resp, err := h.uc.LinkLogin(c.Request.Context(), account.LinkLoginRequest{
		UserID:              middleware.UserID(c),
		ProviderName:        req.ProviderName,
		ProviderKey:         req.ProviderKey,
		ProviderDisplayName: req.ProviderDisplayName,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UnlinkLogin handles DELETE /v1/account/logins/:provider/:key
func (h *AccountHandler) UnlinkLogin(c *gin.Context) {
	resp, err := h.uc.UnlinkLogin(c.Request.Context(), account.UnlinkLoginRequest{
		UserID:       middleware.UserID(c),
		ProviderName: c.Param("provider"),
		ProviderKey:  c.Param("key"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateAccessToken handles POST /v1/account/access-token
func (h *AccountHandler) GenerateAccessToken(c *gin.Context) {
	resp, err := h.uc.GenerateAccessToken(c.Request.Context(), account.GetAccountRequest{
		UserID: middleware.UserID(c),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteAccount handles DELETE /v1/account. The session cookie is cleared
// alongside the account.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	err := h.uc.DeleteAccount(c.Request.Context(), account.DeleteAccountRequest{
		UserID: middleware.UserID(c),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.SetCookie(session.CookieName, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (h *AccountHandler) badRequest(c *gin.Context, err error) {
	h.log.Warn("invalid request body", zap.Error(err))
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}

// handleError maps application errors onto HTTP status codes. Anything
// without a known kind collapses to a generic 500 so internals never leak.
func (h *AccountHandler) handleError(c *gin.Context, err error) {
	status := apperrors.StatusFor(err)

	message := "request failed"
	var statuser apperrors.HTTPStatuser
	if errors.As(err, &statuser) {
		message = err.Error()
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("account request failed", zap.Int("status", status), zap.Error(err))
		message = "internal server error"
	}

	c.JSON(status, ErrorResponse{
		Error:   errorCode(status),
		Message: message,
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusPreconditionFailed:
		return "concurrency_conflict"
	case http.StatusServiceUnavailable:
		return "store_unavailable"
	default:
		return "internal_error"
	}
}
