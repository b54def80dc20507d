package middleware

import (
	"strings"

	"go-emptrack/internal/shared/apperror"
	"go-emptrack/internal/shared/contextutil"
	"go-emptrack/internal/shared/response"
	"go-emptrack/internal/token"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by AuthMiddleware.
const (
	ContextSubjectID = "subject_id"
	ContextRole      = "role"
	ContextEmail     = "email"
)

// AuthMiddleware accepts only "Authorization: Bearer <token>". Every failure
// gets the same 401 so callers cannot tell a missing token from an expired one.
func AuthMiddleware(tokens token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		raw = strings.TrimSpace(raw)
		if !found || raw == "" {
			response.Abort(c, apperror.ErrUnauthorized)
			return
		}

		claims, ok := tokens.Verify(raw)
		if !ok {
			response.Abort(c, apperror.ErrUnauthorized)
			return
		}

		c.Set(ContextSubjectID, claims.SubjectID())
		c.Set(ContextRole, claims.Role)
		c.Set(ContextEmail, claims.Email)

		ctx := contextutil.WithSubject(c.Request.Context(), claims.SubjectID(), claims.Role)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RoleMiddleware lets through only the listed roles.
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !hasRole(c.GetString(ContextRole), allowedRoles) {
			response.Abort(c, apperror.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// SelfOrRoles allows the listed roles, or an employee whose token subject
// equals the path parameter. It runs before any lookup and never reads the body.
func SelfOrRoles(param string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if hasRole(role, allowedRoles) {
			c.Next()
			return
		}

		subjectID := c.GetString(ContextSubjectID)
		if role == token.RoleEmployee && subjectID != "" && subjectID == c.Param(param) {
			c.Next()
			return
		}

		response.Abort(c, apperror.ErrUnauthorized)
	}
}

func hasRole(role string, allowed []string) bool {
	if role == "" {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
