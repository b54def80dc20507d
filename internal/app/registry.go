package app

import (
	"net/http"

	"go-emptrack/internal/auth"
	"go-emptrack/internal/employee"
	"go-emptrack/internal/messaging/kafka"
	"go-emptrack/internal/middleware"
	"go-emptrack/internal/rbac"
	"go-emptrack/internal/rbac/infra"
	"go-emptrack/internal/search"
	"go-emptrack/internal/shared/response"
	"go-emptrack/internal/token"
	"go-emptrack/internal/upload"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func registerModules(router *gin.Engine, deps Deps) error {
	cfg, logger := deps.Config, deps.Logger

	router.Use(middleware.RequestID())

	// --- Repositories ---
	adminRepo := auth.NewAdminRepository(deps.DB)
	employeeRepo := employee.NewRepository(deps.DB)
	outboxRepo := kafka.NewOutboxRepository(deps.DB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbac.DefaultPolicy(), enforcer, logger)
	if err := rbacService.LoadPolicy(); err != nil {
		return err
	}

	// --- Services ---
	var searcher employee.Searcher
	if deps.Search != nil {
		searcher = search.NewEmployeeIndex(deps.Search, cfg.ES.Index, logger)
	}

	tokens := token.NewService(cfg.JWTSecret)
	photoService := upload.NewService(upload.NewLocalStore(cfg.UploadDir), logger)
	authService := auth.NewService(deps.DB, adminRepo, employeeRepo, outboxRepo, tokens, deps.Redis, logger)
	employeeService := employee.NewServiceWithOutbox(deps.DB, employeeRepo, outboxRepo, deps.Redis, searcher, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, logger)
	employeeHandler := employee.NewHandler(employeeService, photoService, logger)
	uploadHandler := upload.NewHandler(photoService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	// --- Routes Registration ---
	router.GET("/health", func(c *gin.Context) {
		if err := pingDB(c.Request.Context(), deps.DB); err != nil {
			logger.Error("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"}, nil)
	})
	router.Static("/uploads", cfg.UploadDir)

	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, tokens)
		employee.RegisterRoutes(api, employeeHandler, tokens, rbacService, deps.Redis, logger)
		upload.RegisterRoutes(api, uploadHandler, tokens, rbacService)
		rbac.RegisterRoutes(api, rbacHandler, tokens)
	}

	return nil
}
