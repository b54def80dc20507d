package employee

import (
	"go-emptrack/internal/middleware"
	"go-emptrack/internal/rbac"
	"go-emptrack/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	tokens token.Service,
	rbacService rbac.Service,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	employees := r.Group("/employees")
	employees.Use(middleware.AuthMiddleware(tokens))
	employees.Use(middleware.ContextLogger(logger))
	{
		employees.GET("",
			middleware.RateLimitByUser(5, 20),
			middleware.RBACAuthorize(rbacService, rbac.ResourceEmployee, rbac.ActionList),
			handler.GetAll,
		)

		employees.GET("/export",
			middleware.RateLimitByUser(0.2, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceEmployee, rbac.ActionExport),
			handler.Export,
		)

		employees.GET("/search",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, rbac.ResourceEmployee, rbac.ActionSearch),
			handler.Search,
		)

		employees.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.SelfOrRoles("id", token.RoleAdmin),
			handler.GetById,
		)

		employees.POST("",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, rbac.ResourceEmployee, rbac.ActionCreate),
			middleware.Idempotency(rdb),
			handler.Create,
		)

		employees.PUT("/:id",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, rbac.ResourceEmployee, rbac.ActionUpdate),
			handler.Update,
		)

		employees.DELETE("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, rbac.ResourceEmployee, rbac.ActionDelete),
			handler.Delete,
		)
	}
}
