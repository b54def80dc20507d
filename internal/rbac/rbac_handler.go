package rbac

import (
	"net/http"

	"go-emptrack/internal/middleware"
	"go-emptrack/internal/shared/apperror"
	"go-emptrack/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("rbac.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.handler")
	}
	return &Handler{service: service, logger: l}
}

// Permissions lists what the caller's role may do, for clients that hide
// actions the API would refuse anyway.
func (h *Handler) Permissions(c *gin.Context) {
	role := c.GetString(middleware.ContextRole)
	if role == "" {
		response.FromError(c, apperror.ErrUnauthorized)
		return
	}

	perms, err := h.service.PermissionsFor(role)
	if err != nil {
		h.logger.Error("list permissions failed", zap.String("role", role), zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, PermissionsResponse{
		Role:        role,
		Permissions: perms,
	}, nil)
}
