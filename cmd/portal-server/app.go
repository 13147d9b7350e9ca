package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/healthhub/portal/internal/config"
	"github.com/healthhub/portal/internal/domain/appointment"
	"github.com/healthhub/portal/internal/domain/billing"
	"github.com/healthhub/portal/internal/domain/dashboard"
	"github.com/healthhub/portal/internal/domain/identity"
	"github.com/healthhub/portal/internal/domain/records"
	"github.com/healthhub/portal/internal/domain/reminder"
	"github.com/healthhub/portal/internal/platform/cache"
	"github.com/healthhub/portal/internal/platform/db"
	"github.com/healthhub/portal/internal/platform/events"
)

// app holds the services shared by the server and the CLI commands.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	loc    *time.Location
	pool   *pgxpool.Pool
	pub    events.Publisher

	resolver     *identity.Resolver
	appointments *appointment.Service
	bills        *billing.Service
	records      *records.Service
	aggregator   *dashboard.Aggregator
	reminders    *reminder.Job

	closers []func()
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// loadConfig reads and validates the configuration and builds the logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, logger, nil
}

func eventsConfig(cfg *config.Config) events.Config {
	return events.Config{
		Driver:       cfg.EventsDriver,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
		MQTT: events.MQTTConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Topic:    cfg.MQTTTopic,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		},
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a.loc = loc

	pool, err := db.NewPool(ctx, db.PoolConfig{
		URL:              cfg.DatabaseURL,
		Schema:           cfg.DBSchema,
		MaxConns:         cfg.DBMaxConns,
		MinConns:         cfg.DBMinConns,
		StatementTimeout: cfg.DBStatementTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.pool = pool
	a.closers = append(a.closers, pool.Close)

	pub, err := events.New(eventsConfig(cfg), logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("events: %w", err)
	}
	a.pub = pub
	a.closers = append(a.closers, func() {
		if err := pub.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing event publisher")
		}
	})

	var kv cache.KVStore = cache.NewMemoryKV()
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		kv = cache.NewRedisKVStore(client)
		a.closers = append(a.closers, func() { _ = client.Close() })
	}

	a.resolver = identity.NewResolver(
		identity.NewProfileRepoPG(pool),
		identity.NewSpecializationRepoPG(pool),
		logger,
	).WithCache(kv, cfg.ProfileCacheTTL)

	a.appointments = appointment.NewService(appointment.NewRepoPG(pool), pub, logger).WithClock(time.Now, loc)
	a.bills = billing.NewService(billing.NewRepoPG(pool), pub, logger).WithClock(time.Now, loc)
	a.records = records.NewService(records.NewRepoPG(pool), a.appointments, pub, logger)
	a.aggregator = dashboard.NewAggregator(a.appointments, a.records, a.bills, a.resolver).WithClock(time.Now, loc)
	a.reminders = reminder.NewJob(a.appointments, pub, logger).WithClock(time.Now, loc)

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
