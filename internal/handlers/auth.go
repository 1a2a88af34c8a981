package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/auth"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/middleware"
	apperrors "github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/errors"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/response"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/validator"
)

// AuthHandler exposes admin session endpoints.
type AuthHandler struct {
	svc          *auth.Service
	cookieMaxAge int
	secureCookie bool
}

// NewAuthHandler constructs the handler. cookieMaxAge is in seconds and
// should match the session lifetime.
func NewAuthHandler(svc *auth.Service, cookieMaxAge int, secureCookie bool) *AuthHandler {
	if cookieMaxAge <= 0 {
		cookieMaxAge = int(auth.DefaultSessionTTL.Seconds())
	}
	return &AuthHandler{svc: svc, cookieMaxAge: cookieMaxAge, secureCookie: secureCookie}
}

type loginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

type loginResponse struct {
	Admin     any    `json:"admin"`
	CSRFToken string `json:"csrf_token"`
}

// Login authenticates the admin and issues the session cookie. All credential
// failures share one generic message; only lockout and rate limiting are
// reported distinctly.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	result, err := h.svc.Login(c.Request.Context(), auth.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.Error(c, mapLoginError(err))
		return
	}

	h.setSessionCookie(c, result.Session.Token, h.cookieMaxAge)

	response.Success(c, http.StatusOK, loginResponse{
		Admin:     result.Profile,
		CSRFToken: result.Session.CSRFToken,
	})
}

// Logout deactivates the current session and clears the cookie. It succeeds
// even without a valid session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookieName); err == nil && token != "" {
		if err := h.svc.Logout(c.Request.Context(), token); err != nil {
			response.Error(c, err)
			return
		}
	}

	h.setSessionCookie(c, "", -1)
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// Me returns the authenticated admin's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"admin":      identity.Admin,
		"expires_at": identity.Session.ExpiresAt,
	})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookieName, value, maxAge, "/", "", h.secureCookie, true)
}

// mapLoginError collapses service outcomes to their client-facing errors.
// Disabled accounts deliberately share the invalid-credentials message.
func mapLoginError(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrAccountDisabled):
		return apperrors.ErrInvalidCredentials
	case errors.Is(err, auth.ErrAccountLocked):
		return apperrors.ErrAccountLocked
	case errors.Is(err, auth.ErrRateLimited):
		return apperrors.ErrRateLimit
	default:
		return err
	}
}
