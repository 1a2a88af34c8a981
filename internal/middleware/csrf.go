package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/internal/auth"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/errors"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/logger"
	"github.com/EL-HOUSS-BRAHIM/My-Portfolio-sub002/pkg/response"
)

// CSRFHeaderName is the header clients must present for unsafe HTTP methods.
const CSRFHeaderName = "X-CSRF-Token"

var unsafeMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// CSRF protects cookie-authenticated admin routes. Each session carries its
// own token, issued at login; mutating requests must echo it in the
// X-CSRF-Token header, and safe requests receive it back in the same header.
// It must run after SessionAuth.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method == http.MethodOptions {
			c.Next()
			return
		}

		identity, ok := CurrentIdentity(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		if isUnsafeMethod(method) {
			headerToken := strings.TrimSpace(c.GetHeader(CSRFHeaderName))
			if !auth.VerifyCSRF(identity.Session, headerToken) {
				logger.WithModule("csrf").Warn("csrf validation failed",
					// token contents are never logged
					zap.String("method", method),
					zap.String("path", c.FullPath()),
					zap.String("admin_id", identity.Admin.ID),
				)
				response.Error(c, errors.ErrCSRFInvalid)
				c.Abort()
				return
			}
		} else {
			c.Header(CSRFHeaderName, identity.Session.CSRFToken)
		}

		c.Next()
	}
}

func isUnsafeMethod(method string) bool {
	_, ok := unsafeMethods[method]
	return ok
}
