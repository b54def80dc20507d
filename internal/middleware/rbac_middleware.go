package middleware

import (
	"go-emptrack/internal/shared/apperror"
	"go-emptrack/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// RBACService is satisfied by anything that can decide role/resource/action.
type RBACService interface {
	Enforce(role, resource, action string) (bool, error)
}

// RBACAuthorize must run after AuthMiddleware. A denial is reported as 401,
// the same as a missing token.
func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			response.Abort(c, apperror.ErrUnauthorized)
			return
		}

		allowed, err := service.Enforce(role, resource, action)
		if err != nil {
			response.Abort(c, apperror.ErrInternal)
			return
		}

		if !allowed {
			response.Abort(c, apperror.ErrUnauthorized)
			return
		}
		c.Next()
	}
}
