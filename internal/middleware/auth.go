package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/auth"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/errors"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/response"
)

const (
	// SessionCookieName carries the opaque session token for browser clients.
	SessionCookieName = "portfolio_session"

	CtxIdentityKey = "authIdentity"
	CtxAdminIDKey  = "adminID"
)

// SessionAuth validates the session token from the cookie or an Authorization
// bearer header and attaches the identity to the request context. All
// validation failures collapse to 401.
func SessionAuth(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		identity, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxIdentityKey, identity)
		c.Set(CtxAdminIDKey, identity.Admin.ID)

		c.Next()
	}
}

// RequireRole allows the request only when the authenticated admin's role
// satisfies the required role. It must run after SessionAuth.
func RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !auth.HasRole(identity.Admin.Role, required) {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentIdentity extracts the authenticated identity set by SessionAuth.
func CurrentIdentity(c *gin.Context) (*auth.Identity, bool) {
	value, exists := c.Get(CtxIdentityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*auth.Identity)
	return identity, ok && identity != nil
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	authz := c.GetHeader("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}

	return ""
}
