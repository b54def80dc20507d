package upload

import (
	"errors"
	"net/http"
	"strings"

	"go-emptrack/internal/shared/response"
	uploaderrors "go-emptrack/internal/upload/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for boundaries and part headers around a
// photo of exactly MaxPhotoSize bytes.
const multipartOverhead = 1 << 20

type UploadResponse struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("upload.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("upload.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	httpErr := response.FromError(c, err)
	h.logger.Warn("upload request failed",
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
}

func (h *Handler) Upload(c *gin.Context) {
	limit := int64(MaxPhotoSize + multipartOverhead)
	if c.Request.ContentLength > limit {
		h.writeError(c, uploaderrors.ErrFileTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	file, err := c.FormFile("photo")
	if err != nil {
		if isBodyTooLarge(err) {
			h.writeError(c, uploaderrors.ErrFileTooLarge)
			return
		}
		h.writeError(c, uploaderrors.ErrNoFile)
		return
	}

	url, err := h.service.Save(c.Request.Context(), file)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, UploadResponse{URL: url, Message: "File uploaded successfully"}, nil)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
