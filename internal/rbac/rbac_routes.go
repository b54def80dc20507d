package rbac

import (
	"go-emptrack/internal/middleware"
	"go-emptrack/internal/token"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, tokens token.Service) {
	group := r.Group("/rbac")
	group.Use(middleware.AuthMiddleware(tokens), middleware.RoleMiddleware(token.RoleAdmin, token.RoleEmployee))
	{
		group.GET("/permissions", handler.Permissions)
	}
}
