package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/authz"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

// Authorize admits the request only when the policy lets the caller's role
// perform op. It must run after JWT.
func Authorize(policy *authz.Policy, op authz.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !policy.Allows(op, principal.Role) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
