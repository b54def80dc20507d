package upload

import (
	"go-emptrack/internal/middleware"
	"go-emptrack/internal/rbac"
	"go-emptrack/internal/token"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, tokens token.Service, rbacService rbac.Service) {
	r.POST("/upload",
		middleware.AuthMiddleware(tokens),
		middleware.RateLimitByUser(0.5, 5),
		middleware.RBACAuthorize(rbacService, rbac.ResourceUpload, rbac.ActionCreate),
		handler.Upload,
	)
}
