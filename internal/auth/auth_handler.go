package auth

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

func NewHandler(s Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("auth.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.handler")
	}
	return &Handler{service: s, logger: l}
}

func (ctrl *Handler) writeError(c *gin.Context, err error) {
	httpErr := response.FromError(c, err)
	ctrl.logger.Info("auth request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
}

func (ctrl *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.MapValidationError(err))
		return
	}

	res, err := ctrl.service.Login(c.Request.Context(), req)
	if err != nil {
		ctrl.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, nil)
}

func (ctrl *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.MapValidationError(err))
		return
	}

	res, err := ctrl.service.Register(c.Request.Context(), req)
	if err != nil {
		ctrl.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, res, nil)
}

// Me echoes the identity carried by the verified token; it does not touch
// the store.
func (ctrl *Handler) Me(c *gin.Context) {
	subjectID := c.GetString(middleware.ContextSubjectID)
	if subjectID == "" {
		response.FromError(c, apperror.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, MeResponse{
		ID:    subjectID,
		Role:  c.GetString(middleware.ContextRole),
		Email: c.GetString(middleware.ContextEmail),
	}, nil)
}
