package autherrors

import (
	"go-emptrack/internal/shared/apperror"
	"net/http"
)

var (
	// Login
	ErrAdminNotFound = apperror.New(
		"ADMIN_NOT_FOUND",
		"Admin not found",
		http.StatusUnauthorized,
	)
	ErrEmployeeUnknown = apperror.New(
		"EMPLOYEE_NOT_FOUND",
		"Employee not found, please contact your admin",
		http.StatusUnauthorized,
	)
	ErrNotRegistered = apperror.New(
		"NOT_REGISTERED",
		"Please register first",
		http.StatusUnauthorized,
	)
	ErrInvalidCredentials = apperror.New(
		"INVALID_CREDENTIALS",
		"Invalid password",
		http.StatusUnauthorized,
	)
	ErrInvalidRole = apperror.New(
		apperror.CodeInvalidInput,
		"Role must be admin or employee",
		http.StatusBadRequest,
	)

	// Registration
	ErrMaxAdminsReached = apperror.New(
		"MAX_ADMINS_REACHED",
		"Maximum number of admins reached",
		http.StatusForbidden,
	)
	ErrAdminAlreadyExists = apperror.New(
		"ADMIN_ALREADY_EXISTS",
		"Admin with this email already exists",
		http.StatusBadRequest,
	)
	ErrEmployeeNotProvisioned = apperror.New(
		"EMPLOYEE_NOT_PROVISIONED",
		"Employee not found, please contact your admin first",
		http.StatusBadRequest,
	)
	ErrAlreadyRegistered = apperror.New(
		"ALREADY_REGISTERED",
		"Employee already registered, please login instead",
		http.StatusBadRequest,
	)
	ErrPasswordTooLong = apperror.New(
		apperror.CodeValidation,
		"Password must be at most 72 bytes",
		http.StatusBadRequest,
	)
	ErrRegistrationInProgress = apperror.New(
		apperror.CodeConflict,
		"Another admin registration is in progress, please retry",
		http.StatusConflict,
	)

	ErrTokenGenerationFailed = apperror.New(
		apperror.CodeInternalError,
		"Failed to generate token",
		http.StatusInternalServerError,
	)
)
