package app

import (
	"context"
	"errors"

	"go-emptrack/internal/auth"
	"go-emptrack/internal/config"
	"go-emptrack/internal/employee"
	"go-emptrack/internal/messaging/kafka"
	"go-emptrack/internal/shared/connection"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the shared handles every module is built from. Redis and Search
// are optional.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Search *elasticsearch.Client
	Logger *zap.Logger
}

// Migrate creates or updates the tables this service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&auth.Admin{}, &employee.Employee{}, &kafka.OutboxEvent{})
}

// BuildApp connects the infrastructure named in cfg, migrates the schema and
// mounts every module on router. The returned func releases the connections.
func BuildApp(router *gin.Engine, cfg *config.Config, logger *zap.Logger) (func(), error) {
	log := logger.Named("app")

	db, err := connection.ConnectGORMWithRetry(cfg.DB, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	closers := []func(){func() { _ = sqlDB.Close() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if err := Migrate(db); err != nil {
		cleanup()
		return nil, err
	}

	deps := Deps{Config: cfg, DB: db, Logger: logger}

	if cfg.RedisAddr != "" {
		rdb, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5, logger)
		if err != nil {
			cleanup()
			return nil, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		deps.Redis = rdb
	} else {
		log.Info("REDIS_ADDR not set, running without cache and locks")
	}

	es, err := connection.NewElasticsearchClient(cfg.ES, logger)
	switch {
	case err == nil:
		deps.Search = es
	case errors.Is(err, connection.ErrElasticsearchNotConfigured):
		log.Info("ES_URL not set, employee search disabled")
	default:
		log.Warn("elasticsearch unavailable, employee search disabled", zap.Error(err))
	}

	if err := registerModules(router, deps); err != nil {
		cleanup()
		return nil, err
	}
	return cleanup, nil
}

// NewRouter builds a fully wired engine from already-open handles.
func NewRouter(deps Deps) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	if err := registerModules(router, deps); err != nil {
		return nil, err
	}
	return router, nil
}

func pingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
