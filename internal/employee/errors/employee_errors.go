package employeeerrors

import (
	"go-emptrack/internal/shared/apperror"
	"net/http"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrEmployeeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee with the same email already exists",
		http.StatusBadRequest,
	)
	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidEmail = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid email format",
		http.StatusBadRequest,
	)
	ErrMissingRequiredFields = apperror.New(
		apperror.CodeInvalidInput,
		"Name, email and phone are required",
		http.StatusBadRequest,
	)
	ErrSearchUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"Search is not configured",
		http.StatusServiceUnavailable,
	)
	ErrEmptySearchQuery = apperror.New(
		apperror.CodeInvalidInput,
		"Search query is required",
		http.StatusBadRequest,
	)
)
