package auth

import (
	"go-emptrack/internal/middleware"
	"go-emptrack/internal/token"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, tokens token.Service) {
	auth := r.Group("/auth")
	{
		auth.GET("/me", middleware.AuthMiddleware(tokens), middleware.RateLimitByUser(2, 5), handler.Me)
		auth.POST("/login", middleware.RateLimitByIP(0.2, 5), handler.Login)
		auth.POST("/register", middleware.RateLimitByIP(0.1, 3), handler.Register)
	}
}
