package auth

import (
	"context"
	"errors"
	"net/http"

	autherrors "go-emptrack/internal/auth/errors"
	"go-emptrack/internal/employee"
	"go-emptrack/internal/messaging/kafka"
	"go-emptrack/internal/shared/apperror"
	"go-emptrack/internal/token"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BcryptCost is the work factor for every stored password.
const BcryptCost = 12

//go:generate mockgen -source=auth_service.go -destination=mock/auth_service_mock.go -package=mock
type Service interface {
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error)
}

type service struct {
	db        *gorm.DB
	admins    AdminRepository
	employees employee.Repository
	outbox    kafka.OutboxRepository
	tokens    token.Service
	rdb       *redis.Client
	logger    *zap.Logger
}

// NewService wires the login and registration flows. outboxRepo and rdb may
// be nil.
func NewService(
	db *gorm.DB,
	admins AdminRepository,
	employees employee.Repository,
	outboxRepo kafka.OutboxRepository,
	tokens token.Service,
	rdb *redis.Client,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{
		db:        db,
		admins:    admins,
		employees: employees,
		outbox:    outboxRepo,
		tokens:    tokens,
		rdb:       rdb,
		logger:    l,
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	email := employee.NormalizeEmail(req.Email)

	var (
		subjectID string
		hash      string
	)

	switch req.Role {
	case token.RoleAdmin:
		admin, err := s.admins.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return LoginResponse{}, autherrors.ErrAdminNotFound
			}
			s.logger.Error("login admin lookup failed", zap.Error(err))
			return LoginResponse{}, apperror.Wrap(err, apperror.CodeInternalError, "Login failed", http.StatusInternalServerError)
		}
		subjectID, hash = admin.ID.String(), admin.PasswordHash

	case token.RoleEmployee:
		empl, err := s.employees.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return LoginResponse{}, autherrors.ErrEmployeeUnknown
			}
			s.logger.Error("login employee lookup failed", zap.Error(err))
			return LoginResponse{}, apperror.Wrap(err, apperror.CodeInternalError, "Login failed", http.StatusInternalServerError)
		}
		if !empl.IsRegistered() {
			return LoginResponse{}, autherrors.ErrNotRegistered
		}
		subjectID, hash = empl.ID.String(), empl.PasswordHash

	default:
		return LoginResponse{}, autherrors.ErrInvalidRole
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		s.logger.Info("login rejected", zap.String("role", req.Role), zap.String("reason", "password mismatch"))
		return LoginResponse{}, autherrors.ErrInvalidCredentials
	}

	signed, err := s.tokens.Issue(subjectID, req.Role, email)
	if err != nil {
		s.logger.Error("issue token failed", zap.Error(err))
		return LoginResponse{}, autherrors.ErrTokenGenerationFailed
	}

	s.logger.Info("login success", zap.String("role", req.Role), zap.String("subject_id", subjectID))
	return LoginResponse{Token: signed, Role: req.Role, ID: subjectID}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	switch req.Role {
	case token.RoleAdmin:
		return s.registerAdmin(ctx, req)
	case token.RoleEmployee:
		return s.registerEmployee(ctx, req)
	default:
		return RegisterResponse{}, autherrors.ErrInvalidRole
	}
}
