package employee

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	employeeerrors "go-emptrack/internal/employee/errors"
	"go-emptrack/internal/events"
	"go-emptrack/internal/messaging/kafka"
	"go-emptrack/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	RosterCacheKey = "employees:roster"
	rosterCacheTTL = 10 * time.Minute
	searchLimit    = 50
)

// InvalidateRosterCache drops the cached roster. Failures are logged only;
// the cache expires on its own.
func InvalidateRosterCache(ctx context.Context, rdb *redis.Client, logger *zap.Logger) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, RosterCacheKey).Err(); err != nil && logger != nil {
		logger.Error("failed to invalidate employee roster cache",
			zap.Error(err),
			zap.String("key", RosterCacheKey),
		)
	}
}

// Searcher resolves a free-text query to employee ids, best match first.
type Searcher interface {
	SearchIDs(ctx context.Context, query string, limit int) ([]string, error)
}

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]EmployeeResponse, error)
}

type service struct {
	db       *gorm.DB
	repo     Repository
	outbox   kafka.OutboxRepository
	rdb      *redis.Client
	searcher Searcher
	sf       *singleflight.Group
	logger   *zap.Logger
}

func NewService(db *gorm.DB, repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	return NewServiceWithOutbox(db, repo, nil, rdb, nil, logger...)
}

// NewServiceWithOutbox wires lifecycle events and search. outboxRepo and
// searcher may be nil.
func NewServiceWithOutbox(
	db *gorm.DB,
	repo Repository,
	outboxRepo kafka.OutboxRepository,
	rdb *redis.Client,
	searcher Searcher,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		outbox:   outboxRepo,
		rdb:      rdb,
		searcher: searcher,
		sf:       &singleflight.Group{},
		logger:   l,
	}
}

func (s *service) Create(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("email", req.Email),
	)

	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)
	phone := strings.TrimSpace(req.Phone)
	if name == "" || email == "" || phone == "" {
		return EmployeeResponse{}, employeeerrors.ErrMissingRequiredFields
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		s.logger.Warn("create employee invalid date_of_birth", zap.String("date_of_birth", req.DateOfBirth))
		return EmployeeResponse{}, employeeerrors.ErrInvalidDate
	}
	doj, err := parseDate(req.DateOfJoining)
	if err != nil {
		s.logger.Warn("create employee invalid date_of_joining", zap.String("date_of_joining", req.DateOfJoining))
		return EmployeeResponse{}, employeeerrors.ErrInvalidDate
	}

	empl := &Employee{
		ID:             uuid.New(),
		Name:           name,
		Email:          email,
		Phone:          phone,
		AlternatePhone: strings.TrimSpace(req.AlternatePhone),
		DateOfBirth:    dob,
		DateOfJoining:  doj,
		BloodGroup:     req.BloodGroup,
		Gender:         req.Gender,
		Experience:     strings.TrimSpace(req.Experience),
		Designation:    strings.TrimSpace(req.Designation),
		Address:        strings.TrimSpace(req.Address),
		Photo:          strings.TrimSpace(req.Photo),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		if _, err := qtx.FindByEmail(ctx, email); err == nil {
			return employeeerrors.ErrEmployeeAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := qtx.Create(ctx, empl); err != nil {
			return err
		}
		return s.enqueue(ctx, tx, events.EmployeeCreated, *empl)
	})
	if err != nil {
		s.logger.Error("create employee failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	InvalidateRosterCache(ctx, s.rdb, s.logger)
	s.logger.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
	)

	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, RosterCacheKey).Result(); err == nil {
			var resp []EmployeeResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// Concurrent cache misses share one query.
	v, err, _ := s.sf.Do(RosterCacheKey, func() (interface{}, error) {
		empls, err := s.repo.FindAll(ctx)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := mapToListResponse(empls)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, RosterCacheKey, jsonData, rosterCacheTTL).Err(); err != nil {
					s.logger.Warn("cache employee roster failed", zap.Error(err))
				}
			}
		}

		return resp, nil
	})
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, err
	}

	return v.([]EmployeeResponse), nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested", zap.String("employee_id", id))

	empID, err := uuid.Parse(id)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	empl, err := s.repo.FindByID(ctx, empID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("get employee by id failed", zap.Error(err))
		}
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	return mapToResponse(*empl), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update employee requested",
		zap.String("request_id", rid),
		zap.String("employee_id", id),
	)

	empID, err := uuid.Parse(id)
	if err != nil {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound
	}

	var updated Employee
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		qtx := s.repo.WithTx(tx)

		empl, err := qtx.FindByID(ctx, empID)
		if err != nil {
			return err
		}

		if req.Email != nil {
			email := NormalizeEmail(*req.Email)
			if email != empl.Email {
				if _, err := qtx.FindByEmail(ctx, email); err == nil {
					return employeeerrors.ErrEmployeeAlreadyExists
				} else if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
			}
		}

		if err := applyUpdate(empl, req); err != nil {
			return err
		}

		if err := qtx.Update(ctx, empl); err != nil {
			return err
		}
		updated = *empl
		return s.enqueue(ctx, tx, events.EmployeeUpdated, *empl)
	})
	if err != nil {
		s.logger.Warn("update employee failed", zap.String("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	InvalidateRosterCache(ctx, s.rdb, s.logger)
	s.logger.Info("update employee success", zap.String("employee_id", id))

	return mapToResponse(updated), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete employee requested",
		zap.String("request_id", rid),
		zap.String("employee_id", id),
	)

	empID, err := uuid.Parse(id)
	if err != nil {
		return employeeerrors.ErrEmployeeNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).Delete(ctx, empID)
		if err != nil {
			return err
		}
		return s.enqueue(ctx, tx, events.EmployeeDeleted, *deleted)
	})
	if err != nil {
		s.logger.Warn("delete employee failed", zap.String("employee_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}

	InvalidateRosterCache(ctx, s.rdb, s.logger)
	s.logger.Info("delete employee success", zap.String("employee_id", id))
	return nil
}

// Search asks the index for ids and then reads the records from the store, so
// stale index entries for deleted employees are dropped.
func (s *service) Search(ctx context.Context, query string) ([]EmployeeResponse, error) {
	if s.searcher == nil {
		return nil, employeeerrors.ErrSearchUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, employeeerrors.ErrEmptySearchQuery
	}

	ids, err := s.searcher.SearchIDs(ctx, query, searchLimit)
	if err != nil {
		s.logger.Error("search employees failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}

	uuids := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if parsed, err := uuid.Parse(id); err == nil {
			uuids = append(uuids, parsed)
		}
	}

	empls, err := s.repo.FindByIDs(ctx, uuids)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	byID := make(map[uuid.UUID]Employee, len(empls))
	for _, e := range empls {
		byID[e.ID] = e
	}
	resp := make([]EmployeeResponse, 0, len(empls))
	for _, id := range uuids {
		if e, ok := byID[id]; ok {
			resp = append(resp, mapToResponse(e))
		}
	}
	return resp, nil
}

func (s *service) enqueue(ctx context.Context, tx *gorm.DB, eventType string, empl Employee) error {
	if s.outbox == nil {
		return nil
	}

	snapshot := empl.Snapshot()
	event, err := kafka.NewEmployeeOutboxEvent(events.EmployeeLifecycleEvent{
		EventType:  eventType,
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

func applyUpdate(empl *Employee, req UpdateEmployeeRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return employeeerrors.ErrMissingRequiredFields
		}
		empl.Name = name
	}
	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if email == "" {
			return employeeerrors.ErrMissingRequiredFields
		}
		empl.Email = email
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return employeeerrors.ErrMissingRequiredFields
		}
		empl.Phone = phone
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate(*req.DateOfBirth)
		if err != nil {
			return employeeerrors.ErrInvalidDate
		}
		empl.DateOfBirth = dob
	}
	if req.DateOfJoining != nil {
		doj, err := parseDate(*req.DateOfJoining)
		if err != nil {
			return employeeerrors.ErrInvalidDate
		}
		empl.DateOfJoining = doj
	}
	setTrimmed(&empl.AlternatePhone, req.AlternatePhone)
	setTrimmed(&empl.BloodGroup, req.BloodGroup)
	setTrimmed(&empl.Gender, req.Gender)
	setTrimmed(&empl.Experience, req.Experience)
	setTrimmed(&empl.Designation, req.Designation)
	setTrimmed(&empl.Address, req.Address)
	setTrimmed(&empl.Photo, req.Photo)
	return nil
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func mapToResponse(empl Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:             empl.ID.String(),
		Name:           empl.Name,
		Email:          empl.Email,
		Phone:          empl.Phone,
		AlternatePhone: empl.AlternatePhone,
		DateOfBirth:    formatDate(empl.DateOfBirth),
		DateOfJoining:  formatDate(empl.DateOfJoining),
		BloodGroup:     empl.BloodGroup,
		Gender:         empl.Gender,
		Experience:     empl.Experience,
		Designation:    empl.Designation,
		Address:        empl.Address,
		Photo:          empl.Photo,
		Registered:     empl.IsRegistered(),
	}
	if !empl.CreatedAt.IsZero() {
		resp.CreatedAt = empl.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !empl.UpdatedAt.IsZero() {
		resp.UpdatedAt = empl.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func mapToListResponse(empls []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, 0, len(empls))
	for _, e := range empls {
		res = append(res, mapToResponse(e))
	}
	return res
}
