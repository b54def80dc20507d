package middleware

import (
	"go-emptrack/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextLogger attaches a request-scoped logger carrying the request id and,
// once authenticated, the subject and role. Mount it after RequestID and
// AuthMiddleware.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		meta := contextutil.ExtractMetadata(ctx)
		if meta.RequestID == "" {
			meta.RequestID = c.GetString("request_id")
		}

		reqLogger := logger.With(
			zap.String("request_id", meta.RequestID),
			zap.String("subject_id", meta.SubjectID),
			zap.String("role", meta.Role),
		)

		c.Request = c.Request.WithContext(contextutil.WithLogger(ctx, reqLogger))
		c.Next()
	}
}
