package uploaderrors

import (
	"go-emptrack/internal/shared/apperror"
	"net/http"
)

var (
	ErrNoFile = apperror.New(
		"NO_FILE",
		"No file uploaded",
		http.StatusBadRequest,
	)
	ErrFileTooLarge = apperror.New(
		"FILE_TOO_LARGE",
		"File size too large. Max 5MB allowed",
		http.StatusBadRequest,
	)
	ErrInvalidFileType = apperror.New(
		"INVALID_FILE_TYPE",
		"Only image files are allowed",
		http.StatusBadRequest,
	)
)
