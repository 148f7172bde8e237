// Package app builds the clients and services shared by the api, worker and
// limsctl binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-lims/internal/config"
	"github.com/noah-isme/backend-lims/internal/db"
	"github.com/noah-isme/backend-lims/internal/events"
	"github.com/noah-isme/backend-lims/internal/invoice"
	"github.com/noah-isme/backend-lims/internal/lock"
	"github.com/noah-isme/backend-lims/internal/obs"
	"github.com/noah-isme/backend-lims/internal/report"
	"github.com/noah-isme/backend-lims/internal/repo"
)

// InvoiceQueue is the asynq queue carrying invoicing tasks.
const InvoiceQueue = "invoices"

// Dependencies enumerates core services shared across modules.
type Dependencies struct {
	Config    *config.Config
	Logger    zerolog.Logger
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Validator *validator.Validate
	Tasks     *asynq.Client
	Events    *events.Bus

	closers []func(context.Context) error
}

// New connects to Postgres and Redis and initialises observability for service.
func New(ctx context.Context, cfg *config.Config, service string) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().
		Str("env", cfg.AppEnv).
		Str("service", service).
		Logger()
	d := &Dependencies{Config: cfg, Logger: logger, Validator: validator.New()}

	if cfg.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)
	}
	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   service,
			Endpoint:      cfg.OTLPEndpoint,
			Exporter:      cfg.TracingExporter,
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			d.closers = append(d.closers, shutdown)
		}
	}

	pool, err := newPool(ctx, cfg.DatabaseURL, service)
	if err != nil {
		d.Close(ctx)
		return nil, err
	}
	d.DB = pool
	d.closers = append(d.closers, func(context.Context) error { pool.Close(); return nil })

	rdb, err := newRedis(ctx, cfg, logger)
	if err != nil {
		d.Close(ctx)
		return nil, err
	}
	d.Redis = rdb
	d.closers = append(d.closers, func(context.Context) error { return rdb.Close() })

	d.Tasks = asynq.NewClient(d.RedisConnOpt())
	d.closers = append(d.closers, func(context.Context) error { return d.Tasks.Close() })

	d.Events = &events.Bus{
		Store: events.PGStore{DB: pool},
		Notifiers: []events.Notifier{
			events.LogNotifier{Logger: obs.Component(logger, "events")},
			events.RedisPublisher{R: rdb},
		},
	}
	return d, nil
}

func newPool(ctx context.Context, databaseURL, service string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = service

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func newRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// RedisConnOpt returns the asynq connection settings matching the Redis client.
func (d *Dependencies) RedisConnOpt() asynq.RedisClientOpt {
	opts := d.Redis.Options()
	return asynq.RedisClientOpt{
		Network:   opts.Network,
		Addr:      opts.Addr,
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}
}

// Close releases clients in reverse order of creation.
func (d *Dependencies) Close(ctx context.Context) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](ctx); err != nil {
			d.Logger.Error().Err(err).Msg("close dependency")
		}
	}
	d.closers = nil
}

// Migrate applies pending schema migrations.
func (d *Dependencies) Migrate() error {
	version, err := db.MigrateUp(d.Config.DatabaseURL)
	if err != nil {
		return err
	}
	d.Logger.Info().Uint("version", version).Msg("schema migrated")
	return nil
}

// Orders returns the order repository.
func (d *Dependencies) Orders() repo.OrderRepo { return repo.OrderRepo{DB: d.DB} }

// InvoiceManager wires the ad hoc invoicing manager.
func (d *Dependencies) InvoiceManager() *invoice.Manager {
	return &invoice.Manager{
		Store:    invoice.PGStore{DB: d.DB},
		Locker:   lock.Locker{R: d.Redis},
		Events:   d.Events,
		Logger:   obs.Component(d.Logger, "invoice"),
		Location: d.Config.Location,
		Category: d.Config.InvoiceCategory,
		LockTTL:  d.Config.InvoiceLockTTL,
	}
}

// InvoiceTasks wires the bulk invoicing queue.
func (d *Dependencies) InvoiceTasks() invoice.TaskQueue {
	return invoice.TaskQueue{Client: d.Tasks, Queue: InvoiceQueue, UniqueFor: d.Config.IdempotencyTTL}
}

// ReportService wires the samples-received report with its cache.
func (d *Dependencies) ReportService() *report.Service {
	return &report.Service{
		Source: repo.SampleRepo{DB: d.DB},
		Cache:  report.NewCache(d.Redis, d.Config.ReportCacheTTL),
		Logger: obs.Component(d.Logger, "report"),
	}
}
