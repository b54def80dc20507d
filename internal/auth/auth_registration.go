package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	autherrors "go-emptrack/internal/auth/errors"
	"go-emptrack/internal/employee"
	"go-emptrack/internal/events"
	"go-emptrack/internal/messaging/kafka"
	"go-emptrack/internal/shared/apperror"
	"go-emptrack/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	AdminRegistrationLockKey = "auth:admin-registration:lock"
	adminRegistrationLockTTL = 10 * time.Second
)

func (s *service) registerAdmin(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	email := employee.NormalizeEmail(req.Email)

	release, err := s.lockAdminRegistration(ctx)
	if err != nil {
		return RegisterResponse{}, err
	}
	defer release()

	// Ceiling first: a full house reports the ceiling even for a known email.
	count, err := s.admins.Count(ctx)
	if err != nil {
		s.logger.Error("count admins failed", zap.String("request_id", rid), zap.Error(err))
		return RegisterResponse{}, internalError(err)
	}
	if count >= MaxAdmins {
		s.logger.Warn("admin registration refused, ceiling reached", zap.Int64("current", count))
		return RegisterResponse{}, ceilingError(count)
	}

	if _, err := s.admins.FindByEmail(ctx, email); err == nil {
		return RegisterResponse{}, autherrors.ErrAdminAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("admin lookup failed", zap.String("request_id", rid), zap.Error(err))
		return RegisterResponse{}, internalError(err)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return RegisterResponse{}, err
	}

	admin := &Admin{ID: uuid.New(), Email: email, PasswordHash: string(hash)}
	inserted, err := s.admins.CreateWithinCeiling(ctx, admin, MaxAdmins)
	if err != nil {
		if isUniqueViolation(err) {
			return RegisterResponse{}, autherrors.ErrAdminAlreadyExists
		}
		s.logger.Error("create admin failed", zap.String("request_id", rid), zap.Error(err))
		return RegisterResponse{}, internalError(err)
	}
	if !inserted {
		s.logger.Warn("admin registration lost ceiling race", zap.String("request_id", rid))
		return RegisterResponse{}, ceilingError(MaxAdmins)
	}

	s.logger.Info("admin registered", zap.String("request_id", rid), zap.String("admin_id", admin.ID.String()))
	return RegisterResponse{Message: "Admin registered successfully"}, nil
}

func (s *service) registerEmployee(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	email := employee.NormalizeEmail(req.Email)

	empl, err := s.employees.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RegisterResponse{}, autherrors.ErrEmployeeNotProvisioned
		}
		s.logger.Error("employee lookup failed", zap.String("request_id", rid), zap.Error(err))
		return RegisterResponse{}, internalError(err)
	}
	if empl.IsRegistered() {
		return RegisterResponse{}, autherrors.ErrAlreadyRegistered
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return RegisterResponse{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.employees.WithTx(tx).SetPasswordIfEmpty(ctx, email, string(hash))
		if err != nil {
			return err
		}
		if !ok {
			// Someone registered between our read and the update.
			return autherrors.ErrAlreadyRegistered
		}

		empl.PasswordHash = string(hash)
		return s.enqueueRegistered(ctx, tx, *empl)
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return RegisterResponse{}, err
		}
		s.logger.Error("employee registration failed", zap.String("request_id", rid), zap.Error(err))
		return RegisterResponse{}, internalError(err)
	}

	employee.InvalidateRosterCache(ctx, s.rdb, s.logger)
	s.logger.Info("employee registered", zap.String("request_id", rid), zap.String("employee_id", empl.ID.String()))
	return RegisterResponse{Message: "Registration successful, you can now log in"}, nil
}

func (s *service) enqueueRegistered(ctx context.Context, tx *gorm.DB, empl employee.Employee) error {
	if s.outbox == nil {
		return nil
	}

	snapshot := empl.Snapshot()
	event, err := kafka.NewEmployeeOutboxEvent(events.EmployeeLifecycleEvent{
		EventType:  events.EmployeeRegistered,
		RequestID:  contextutil.GetRequestID(ctx),
		EmployeeID: empl.ID.String(),
		Employee:   &snapshot,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, event)
}

// lockAdminRegistration serialises admin registration across API instances
// when Redis is available. The conditional insert still guards the ceiling
// without it.
func (s *service) lockAdminRegistration(ctx context.Context) (func(), error) {
	noop := func() {}
	if s.rdb == nil {
		return noop, nil
	}

	acquired, err := s.rdb.SetNX(ctx, AdminRegistrationLockKey, "locked", adminRegistrationLockTTL).Result()
	if err != nil {
		s.logger.Warn("admin registration lock unavailable", zap.Error(err))
		return noop, nil
	}
	if !acquired {
		return noop, autherrors.ErrRegistrationInProgress
	}

	return func() {
		if err := s.rdb.Del(context.WithoutCancel(ctx), AdminRegistrationLockKey).Err(); err != nil {
			s.logger.Warn("admin registration lock release failed", zap.Error(err))
		}
	}, nil
}

// hashPassword reports an over-long password as a validation error; the
// binding's max tag counts runes, not bytes.
func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, autherrors.ErrPasswordTooLong
	}
	if err != nil {
		return nil, internalError(err)
	}
	return hash, nil
}

func ceilingError(current int64) *apperror.AppError {
	return autherrors.ErrMaxAdminsReached.WithDetails(map[string]int64{
		"current": current,
		"max":     MaxAdmins,
	})
}

func internalError(err error) *apperror.AppError {
	return apperror.Wrap(err, apperror.CodeInternalError, "Registration failed", http.StatusInternalServerError)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
