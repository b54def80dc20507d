package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go-emptrack/internal/auth"
	autherrors "go-emptrack/internal/auth/errors"
	authMock "go-emptrack/internal/auth/mock"
	"go-emptrack/internal/employee"
	employeeMock "go-emptrack/internal/employee/mock"
	"go-emptrack/internal/events"
	"go-emptrack/internal/messaging/kafka"
	kafkaMock "go-emptrack/internal/messaging/kafka/mock"
	"go-emptrack/internal/shared/apperror"
	"go-emptrack/internal/token"
	tokenMock "go-emptrack/internal/token/mock"

	"github.com/glebarez/sqlite"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type authDeps struct {
	service   auth.Service
	admins    *authMock.MockAdminRepository
	employees *employeeMock.MockRepository
	outbox    *kafkaMock.MockOutboxRepository
	tokens    *tokenMock.MockService
	redismock redismock.ClientMock
}

func setupAuthService(t *testing.T) *authDeps {
	ctrl := gomock.NewController(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// every pooled connection to :memory: would otherwise get its own database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	rdb, redisMock := redismock.NewClientMock()

	deps := &authDeps{
		admins:    authMock.NewMockAdminRepository(ctrl),
		employees: employeeMock.NewMockRepository(ctrl),
		outbox:    kafkaMock.NewMockOutboxRepository(ctrl),
		tokens:    tokenMock.NewMockService(ctrl),
		redismock: redisMock,
	}
	deps.service = auth.NewService(db, deps.admins, deps.employees, deps.outbox, deps.tokens, rdb)

	t.Cleanup(func() {
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
	return deps
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("admin success", func(t *testing.T) {
		deps := setupAuthService(t)
		admin := &auth.Admin{ID: uuid.New(), Email: "a@x.com", PasswordHash: mustHash(t, "pw")}

		deps.admins.EXPECT().FindByEmail(ctx, "a@x.com").Return(admin, nil)
		deps.tokens.EXPECT().Issue(admin.ID.String(), token.RoleAdmin, "a@x.com").Return("signed", nil)

		resp, err := deps.service.Login(ctx, auth.LoginRequest{Email: " A@X.com", Password: "pw", Role: token.RoleAdmin})

		require.NoError(t, err)
		assert.Equal(t, auth.LoginResponse{Token: "signed", Role: token.RoleAdmin, ID: admin.ID.String()}, resp)
	})

	t.Run("admin not found", func(t *testing.T) {
		deps := setupAuthService(t)
		deps.admins.EXPECT().FindByEmail(ctx, "a@x.com").Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Login(ctx, auth.LoginRequest{Email: "a@x.com", Password: "pw", Role: token.RoleAdmin})

		assert.ErrorIs(t, err, autherrors.ErrAdminNotFound)
	})

	t.Run("admin wrong password", func(t *testing.T) {
		deps := setupAuthService(t)
		deps.admins.EXPECT().
			FindByEmail(ctx, "a@x.com").
			Return(&auth.Admin{ID: uuid.New(), PasswordHash: mustHash(t, "pw")}, nil)

		_, err := deps.service.Login(ctx, auth.LoginRequest{Email: "a@x.com", Password: "nope", Role: token.RoleAdmin})

		assert.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	})

	t.Run("employee unknown", func(t *testing.T) {
		deps := setupAuthService(t)
		deps.employees.EXPECT().FindByEmail(ctx, "jo@x.com").Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Login(ctx, auth.LoginRequest{Email: "jo@x.com", Password: "pw", Role: token.RoleEmployee})

		assert.ErrorIs(t, err, autherrors.ErrEmployeeUnknown)
	})

	t.Run("employee not registered never reaches bcrypt", func(t *testing.T) {
		deps := setupAuthService(t)
		deps.employees.EXPECT().
			FindByEmail(ctx, "jo@x.com").
			Return(&employee.Employee{ID: uuid.New(), Email: "jo@x.com"}, nil)

		_, err := deps.service.Login(ctx, auth.LoginRequest{Email: "jo@x.com", Password: "", Role: token.RoleEmployee})

		assert.ErrorIs(t, err, autherrors.ErrNotRegistered)
	})

	t.Run("employee success", func(t *testing.T) {
		deps := setupAuthService(t)
		empl := &employee.Employee{ID: uuid.New(), Email: "jo@x.com", PasswordHash: mustHash(t, "pw")}

		deps.employees.EXPECT().FindByEmail(ctx, "jo@x.com").Return(empl, nil)
		deps.tokens.EXPECT().Issue(empl.ID.String(), token.RoleEmployee, "jo@x.com").Return("signed", nil)

		resp, err := deps.service.Login(ctx, auth.LoginRequest{Email: "jo@x.com", Password: "pw", Role: token.RoleEmployee})

		require.NoError(t, err)
		assert.Equal(t, empl.ID.String(), resp.ID)
		assert.Equal(t, token.RoleEmployee, resp.Role)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		deps := setupAuthService(t)
		deps.employees.EXPECT().FindByEmail(ctx, "jo@x.com").Return(nil, errors.New("connection reset"))

		_, err := deps.service.Login(ctx, auth.LoginRequest{Email: "jo@x.com", Password: "pw", Role: token.RoleEmployee})

		assert.Equal(t, 500, apperror.ToHTTP(err).Status)
	})

	t.Run("unknown role", func(t *testing.T) {
		deps := setupAuthService(t)

		_, err := deps.service.Login(ctx, auth.LoginRequest{Email: "jo@x.com", Password: "pw", Role: "root"})

		assert.ErrorIs(t, err, autherrors.ErrInvalidRole)
	})
}

func expectAdminLock(m redismock.ClientMock) {
	m.ExpectSetNX(auth.AdminRegistrationLockKey, "locked", 10*time.Second).SetVal(true)
}

func TestService_RegisterAdmin(t *testing.T) {
	ctx := context.Background()
	req := auth.RegisterRequest{Email: "C@x.com", Password: "pw", Role: token.RoleAdmin}

	t.Run("success", func(t *testing.T) {
		deps := setupAuthService(t)
		expectAdminLock(deps.redismock)
		deps.admins.EXPECT().Count(ctx).Return(int64(1), nil)
		deps.admins.EXPECT().FindByEmail(ctx, "c@x.com").Return(nil, gorm.ErrRecordNotFound)
		deps.admins.EXPECT().
			CreateWithinCeiling(ctx, gomock.Any(), auth.MaxAdmins).
			DoAndReturn(func(ctx context.Context, a *auth.Admin, ceiling int) (bool, error) {
				assert.Equal(t, "c@x.com", a.Email)
				cost, err := bcrypt.Cost([]byte(a.PasswordHash))
				require.NoError(t, err)
				assert.Equal(t, auth.BcryptCost, cost)
				return true, nil
			})
		deps.redismock.ExpectDel(auth.AdminRegistrationLockKey).SetVal(1)

		resp, err := deps.service.Register(ctx, req)

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Message)
	})

	t.Run("ceiling reached reports counts", func(t *testing.T) {
		deps := setupAuthService(t)
		expectAdminLock(deps.redismock)
		deps.admins.EXPECT().Count(ctx).Return(int64(2), nil)
		deps.redismock.ExpectDel(auth.AdminRegistrationLockKey).SetVal(1)

		_, err := deps.service.Register(ctx, req)

		require.ErrorIs(t, err, autherrors.ErrMaxAdminsReached)
		httpErr := apperror.ToHTTP(err)
		assert.Equal(t, 403, httpErr.Status)
		assert.Equal(t, map[string]int64{"current": 2, "max": 2}, httpErr.Details)
	})

	t.Run("ceiling checked before duplicate", func(t *testing.T) {
		deps := setupAuthService(t)
		expectAdminLock(deps.redismock)
		deps.admins.EXPECT().Count(ctx).Return(int64(2), nil)
		deps.admins.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Times(0)
		deps.redismock.ExpectDel(auth.AdminRegistrationLockKey).SetVal(1)

		_, err := deps.service.Register(ctx, req)

		assert.ErrorIs(t, err, autherrors.ErrMaxAdminsReached)
	})

	t.Run("duplicate email", func(t *testing.T) {
		deps := setupAuthService(t)
		expectAdminLock(deps.redismock)
		deps.admins.EXPECT().Count(ctx).Return(int64(1), nil)
		deps.admins.EXPECT().FindByEmail(ctx, "c@x.com").Return(&auth.Admin{ID: uuid.New()}, nil)
		deps.redismock.ExpectDel(auth.AdminRegistrationLockKey).SetVal(1)

		_, err := deps.service.Register(ctx, req)

		assert.ErrorIs(t, err, autherrors.ErrAdminAlreadyExists)
	})

	t.Run("conditional insert lost the race", func(t *testing.T) {
		deps := setupAuthService(t)
		expectAdminLock(deps.redismock)
		deps.admins.EXPECT().Count(ctx).Return(int64(1), nil)
		deps.admins.EXPECT().FindByEmail(ctx, "c@x.com").Return(nil, gorm.ErrRecordNotFound)
		deps.admins.EXPECT().CreateWithinCeiling(ctx, gomock.Any(), auth.MaxAdmins).Return(false, nil)
		deps.redismock.ExpectDel(auth.AdminRegistrationLockKey).SetVal(1)

		_, err := deps.service.Register(ctx, req)

		assert.ErrorIs(t, err, autherrors.ErrMaxAdminsReached)
	})

	t.Run("registration already in progress", func(t *testing.T) {
		deps := setupAuthService(t)
		deps.redismock.ExpectSetNX(auth.AdminRegistrationLockKey, "locked", 10*time.Second).SetVal(false)

		_, err := deps.service.Register(ctx, req)

		assert.ErrorIs(t, err, autherrors.ErrRegistrationInProgress)
	})

	t.Run("password over 72 bytes is a validation error", func(t *testing.T) {
		deps := setupAuthService(t)
		expectAdminLock(deps.redismock)
		deps.admins.EXPECT().Count(ctx).Return(int64(0), nil)
		deps.admins.EXPECT().FindByEmail(ctx, "c@x.com").Return(nil, gorm.ErrRecordNotFound)
		deps.admins.EXPECT().CreateWithinCeiling(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		deps.redismock.ExpectDel(auth.AdminRegistrationLockKey).SetVal(1)

		// 40 runes pass the binding's max=72, 80 bytes do not fit bcrypt.
		long := auth.RegisterRequest{Email: "C@x.com", Password: strings.Repeat("é", 40), Role: token.RoleAdmin}
		_, err := deps.service.Register(ctx, long)

		require.ErrorIs(t, err, autherrors.ErrPasswordTooLong)
		httpErr := apperror.ToHTTP(err)
		assert.Equal(t, 400, httpErr.Status)
		assert.Equal(t, apperror.CodeValidation, httpErr.Code)
	})

	t.Run("redis down falls back to conditional insert", func(t *testing.T) {
		deps := setupAuthService(t)
		deps.redismock.ExpectSetNX(auth.AdminRegistrationLockKey, "locked", 10*time.Second).SetErr(errors.New("dial tcp: refused"))
		deps.admins.EXPECT().Count(ctx).Return(int64(0), nil)
		deps.admins.EXPECT().FindByEmail(ctx, "c@x.com").Return(nil, gorm.ErrRecordNotFound)
		deps.admins.EXPECT().CreateWithinCeiling(ctx, gomock.Any(), auth.MaxAdmins).Return(true, nil)

		_, err := deps.service.Register(ctx, req)

		assert.NoError(t, err)
	})
}

func TestService_RegisterEmployee(t *testing.T) {
	ctx := context.Background()
	req := auth.RegisterRequest{Email: "Jo@x.com", Password: "pw", Role: token.RoleEmployee}

	t.Run("not provisioned creates nothing", func(t *testing.T) {
		deps := setupAuthService(t)
		deps.employees.EXPECT().FindByEmail(ctx, "jo@x.com").Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Register(ctx, req)

		assert.ErrorIs(t, err, autherrors.ErrEmployeeNotProvisioned)
	})

	t.Run("already registered keeps hash", func(t *testing.T) {
		deps := setupAuthService(t)
		deps.employees.EXPECT().
			FindByEmail(ctx, "jo@x.com").
			Return(&employee.Employee{ID: uuid.New(), PasswordHash: "existing"}, nil)
		deps.employees.EXPECT().SetPasswordIfEmpty(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := deps.service.Register(ctx, req)

		assert.ErrorIs(t, err, autherrors.ErrAlreadyRegistered)
	})

	t.Run("success queues registered event", func(t *testing.T) {
		deps := setupAuthService(t)
		empl := &employee.Employee{ID: uuid.New(), Email: "jo@x.com", Name: "Jo"}

		deps.employees.EXPECT().FindByEmail(ctx, "jo@x.com").Return(empl, nil)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.employees.EXPECT().
			SetPasswordIfEmpty(ctx, "jo@x.com", gomock.Any()).
			DoAndReturn(func(ctx context.Context, email, hash string) (bool, error) {
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("pw")))
				return true, nil
			})
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(ctx context.Context, ev kafka.OutboxEvent) error {
				assert.Equal(t, events.EmployeeRegistered, ev.EventType)
				assert.Equal(t, empl.ID.String(), ev.AggregateID)
				assert.NotContains(t, string(ev.Payload), "$2a$")
				return nil
			})
		deps.redismock.ExpectDel(employee.RosterCacheKey).SetVal(1)

		resp, err := deps.service.Register(ctx, req)

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Message)
	})

	t.Run("password over 72 bytes keeps the employee unregistered", func(t *testing.T) {
		deps := setupAuthService(t)
		deps.employees.EXPECT().FindByEmail(ctx, "jo@x.com").Return(&employee.Employee{ID: uuid.New()}, nil)
		deps.employees.EXPECT().SetPasswordIfEmpty(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		long := auth.RegisterRequest{Email: "Jo@x.com", Password: strings.Repeat("a", 73), Role: token.RoleEmployee}
		_, err := deps.service.Register(ctx, long)

		assert.ErrorIs(t, err, autherrors.ErrPasswordTooLong)
	})

	t.Run("concurrent registration loses conditional update", func(t *testing.T) {
		deps := setupAuthService(t)

		deps.employees.EXPECT().FindByEmail(ctx, "jo@x.com").Return(&employee.Employee{ID: uuid.New()}, nil)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.employees.EXPECT().SetPasswordIfEmpty(ctx, "jo@x.com", gomock.Any()).Return(false, nil)

		_, err := deps.service.Register(ctx, req)

		assert.ErrorIs(t, err, autherrors.ErrAlreadyRegistered)
	})
}
