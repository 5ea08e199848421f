// Package app assembles the record store, audit fan-out and controllers
// from configuration for the server and the admin commands.
package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/suteetoe/bizledger/internal/audit"
	"github.com/suteetoe/bizledger/internal/controller"
	"github.com/suteetoe/bizledger/internal/store"
	"github.com/suteetoe/bizledger/pkg/config"
	"github.com/suteetoe/bizledger/pkg/database"
	"github.com/suteetoe/bizledger/pkg/logger"
	"go.uber.org/zap"
)

// ServiceName names the service in logs, metrics and default resource names
const ServiceName = "bizledger"

// Version is set at build time
var Version = "dev"

// LoadConfig loads configuration and initializes the global logger
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(ServiceName)
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: ServiceName,
	}); err != nil {
		return nil, errors.Wrap(err, "init logger")
	}
	return cfg, nil
}

// App holds the wired dependencies
type App struct {
	Config      *config.Config
	Store       *store.Store
	Controllers *controller.Controllers
	sink        *audit.NATSSink
}

// New opens the configured backend and builds the controllers. With
// migrate set, the postgres schema is migrated before use.
func New(ctx context.Context, cfg *config.Config, migrate bool) (*App, error) {
	log := logger.GetLogger()

	backend, err := OpenBackend(ctx, cfg, migrate)
	if err != nil {
		return nil, err
	}

	var opts []store.Option
	a := &App{Config: cfg}
	if cfg.NATS.URL != "" {
		sink, err := audit.Connect(audit.Config{
			URL:           cfg.NATS.URL,
			Name:          ServiceName,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
		})
		if err != nil {
			_ = backend.Close(ctx)
			return nil, errors.Wrap(err, "connect audit sink")
		}
		a.sink = sink
		opts = append(opts, store.WithAuditSink(sink))
		log.Info("Audit fan-out enabled", zap.String("subject_prefix", cfg.NATS.SubjectPrefix))
	}

	a.Store = store.New(backend, opts...)
	a.Controllers = controller.New(a.Store, controller.Options{})
	return a, nil
}

// OpenBackend connects the record backend selected by STORE_DRIVER
func OpenBackend(ctx context.Context, cfg *config.Config, migrate bool) (store.Backend, error) {
	log := logger.GetLogger()

	switch cfg.Store.Driver {
	case config.DriverMemory:
		log.Warn("Using in-memory record store, data is lost on exit")
		return store.NewMemoryBackend(), nil

	case config.DriverRedis:
		b, err := store.NewRedisBackend(ctx, store.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			PoolSize:  cfg.Redis.PoolSize,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Redis record store connected", zap.String("addr", cfg.Redis.Addr))
		return b, nil

	case config.DriverMongo:
		b, err := store.NewMongoBackend(ctx, store.MongoConfig{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Mongo record store connected", zap.String("database", cfg.Mongo.Database))
		return b, nil

	case config.DriverPostgres:
		db, err := database.InitDB(&cfg.DB)
		if err != nil {
			return nil, errors.Wrap(err, "connect postgres")
		}
		b := store.NewGormBackend(db)
		if migrate {
			if err := database.MigrateModels(b.Models()...); err != nil {
				_ = b.Close(ctx)
				return nil, err
			}
			log.Info("Database migrations completed")
		}
		return b, nil
	}
	return nil, errors.Errorf("unsupported store driver %q", cfg.Store.Driver)
}

// Close shuts the audit sink and the backend down
func (a *App) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			logger.GetLogger().Warn("Failed to drain audit sink", zap.Error(err))
		}
	}
	return a.Store.Close(ctx)
}
