package rbac

import (
	"sync"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

type Service interface {
	LoadPolicy() error
	Enforce(role, resource, action string) (bool, error)
	PermissionsFor(role string) ([]PermissionResponse, error)
}

type service struct {
	source   PolicySource
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	logger   *zap.Logger
}

func NewService(source PolicySource, enforcer *casbin.Enforcer, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{
		source:   source,
		enforcer: enforcer,
		logger:   l,
	}
}

func (s *service) LoadPolicy() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enforcer.ClearPolicy()

	rows, err := s.source.GetRolePermissions()
	if err != nil {
		return err
	}

	for _, rp := range rows {
		if _, err := s.enforcer.AddPolicy(rp.Role, rp.Resource, rp.Action); err != nil {
			return err
		}
	}

	s.logger.Info("rbac policy loaded", zap.Int("role_permissions", len(rows)))
	return nil
}

func (s *service) Enforce(role, resource, action string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(role, resource, action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("role", role),
			zap.String("resource", resource),
			zap.String("action", action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("role", role),
		zap.String("resource", resource),
		zap.String("action", action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}

func (s *service) PermissionsFor(role string) ([]PermissionResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.enforcer.GetFilteredPolicy(0, role)
	if err != nil {
		return nil, err
	}

	perms := make([]PermissionResponse, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		perms = append(perms, PermissionResponse{Resource: row[1], Action: row[2]})
	}
	return perms, nil
}
