package contextutil

import (
	"context"

	"go.uber.org/zap"
)

// contextKey keeps our keys from colliding with other packages.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	subjectIDKey contextKey = "subject_id"
	roleKey      contextKey = "role"
	loggerKey    contextKey = "logger"
)

func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, requestIDKey, rid)
}

func GetRequestID(ctx context.Context) string {
	if rid, ok := ctx.Value(requestIDKey).(string); ok {
		return rid
	}
	return ""
}

// WithSubject stores the authenticated subject id and role.
func WithSubject(ctx context.Context, subjectID, role string) context.Context {
	ctx = context.WithValue(ctx, subjectIDKey, subjectID)
	return context.WithValue(ctx, roleKey, role)
}

func GetSubjectID(ctx context.Context) string {
	if sid, ok := ctx.Value(subjectIDKey).(string); ok {
		return sid
	}
	return ""
}

func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey).(string); ok {
		return role
	}
	return ""
}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger returns the request-scoped logger, falling back to defaultLogger
// and finally to a no-op logger so callers never get nil.
func GetLogger(ctx context.Context, defaultLogger *zap.Logger) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
			return l
		}
	}

	if defaultLogger != nil {
		return defaultLogger
	}

	return zap.NewNop()
}

type Metadata struct {
	RequestID string
	SubjectID string
	Role      string
}

func ExtractMetadata(ctx context.Context) Metadata {
	return Metadata{
		RequestID: GetRequestID(ctx),
		SubjectID: GetSubjectID(ctx),
		Role:      GetRole(ctx),
	}
}
