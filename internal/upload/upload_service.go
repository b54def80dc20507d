package upload

import (
	"context"
	"fmt"
	"mime/multipart"
	"regexp"
	"strconv"
	"strings"
	"time"

	uploaderrors "go-emptrack/internal/upload/errors"

	"go.uber.org/zap"
)

// MaxPhotoSize is the largest photo accepted, in bytes.
const MaxPhotoSize = 5 << 20

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

//go:generate mockgen -source=upload_service.go -destination=mock/upload_service_mock.go -package=mock
type Service interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	// Remove deletes a photo previously returned by Save.
	Remove(ctx context.Context, url string) error
}

type service struct {
	store  BlobStore
	now    func() time.Time
	logger *zap.Logger
}

func NewService(store BlobStore, logger ...*zap.Logger) Service {
	l := zap.L().Named("upload.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("upload.service")
	}
	return &service{store: store, now: time.Now, logger: l}
}

// Validate checks the multipart header only; nothing is read or written.
func Validate(file *multipart.FileHeader) error {
	if file == nil {
		return uploaderrors.ErrNoFile
	}
	if file.Size > MaxPhotoSize {
		return uploaderrors.ErrFileTooLarge
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return uploaderrors.ErrInvalidFileType
	}
	return nil
}

// SanitizeFilename drops everything but letters, digits, dots and dashes.
func SanitizeFilename(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "")
}

func (s *service) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := Validate(file); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + SanitizeFilename(file.Filename)
	url, err := s.store.Put(ctx, name, src)
	if err != nil {
		s.logger.Error("store photo failed", zap.String("name", name), zap.Error(err))
		return "", err
	}

	s.logger.Info("photo stored", zap.String("url", url), zap.Int64("size", file.Size))
	return url, nil
}

func (s *service) Remove(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	if err := s.store.Delete(ctx, url); err != nil {
		s.logger.Error("remove photo failed", zap.String("url", url), zap.Error(err))
		return err
	}
	s.logger.Info("photo removed", zap.String("url", url))
	return nil
}
