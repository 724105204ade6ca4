// Package app wires configuration into the running object graph shared by the
// CLI commands and the HTTP server.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/vibeoracle/internal/collector"
	"github.com/sawpanic/vibeoracle/internal/config"
	"github.com/sawpanic/vibeoracle/internal/domain/candidate"
	"github.com/sawpanic/vibeoracle/internal/events"
	"github.com/sawpanic/vibeoracle/internal/metrics"
	"github.com/sawpanic/vibeoracle/internal/persistence/sqlrepo"
	"github.com/sawpanic/vibeoracle/internal/quota"
	"github.com/sawpanic/vibeoracle/internal/ranking"
	"github.com/sawpanic/vibeoracle/internal/score/weights"
	"github.com/sawpanic/vibeoracle/internal/session"
	"github.com/sawpanic/vibeoracle/internal/sinks"
)

// App owns every long-lived dependency. Close releases them in reverse order.
type App struct {
	Config    *config.Config
	Metrics   *metrics.Registry
	Registry  *candidate.Registry
	Founders  *candidate.FounderTable
	Engine    *ranking.Engine
	Collector *collector.Collector
	Store     quota.Store
	Sinks     *sinks.Fanout
	History   *sqlrepo.Repo
	Sessions  *session.Manager

	closers []func() error
}

// New builds the graph described by cfg. Optional backends that are enabled
// must be reachable.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:    cfg,
		Metrics:   metrics.NewRegistry(),
		Collector: collector.New(),
	}

	if err := a.loadReference(); err != nil {
		return nil, err
	}

	sched := weights.DefaultScheduler()
	if cfg.Scoring.WeightsFile != "" {
		s, err := weights.LoadFile(cfg.Scoring.WeightsFile)
		if err != nil {
			return nil, err
		}
		sched = s
	}
	a.Engine = ranking.NewEngine(a.Registry, a.Founders,
		ranking.WithWeights(sched),
		ranking.WithParallelism(cfg.Scoring.Parallelism),
		ranking.WithObserver(a.Metrics),
	)

	if err := a.openQuotaStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openSinks(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Sessions = session.NewManager(a.NewSession, cfg.Server.SessionIdleTTL, a.Metrics)

	log.Info().
		Int("candidates", a.Registry.Len()).
		Str("quota_backend", cfg.Quota.Backend).
		Int("quota_limit", cfg.Quota.Limit).
		Int("sinks", a.Sinks.Len()).
		Msg("Application initialized")
	return a, nil
}

func (a *App) loadReference() error {
	if a.Config.Scoring.RegistryFile == "" {
		a.Registry, a.Founders = candidate.DefaultRegistry(), candidate.DefaultFounders()
		return nil
	}
	reg, founders, err := candidate.LoadFile(a.Config.Scoring.RegistryFile)
	if err != nil {
		return err
	}
	a.Registry, a.Founders = reg, founders
	return nil
}

func (a *App) openQuotaStore(ctx context.Context) error {
	if a.Config.Quota.Backend != config.BackendRedis {
		a.Store = quota.NewMemoryStore()
		return nil
	}

	rc := a.Config.Quota.Redis
	client := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	a.closers = append(a.closers, client.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis at %s: %w", rc.Addr, err)
	}

	a.Store = quota.NewRedisStore(client, rc.KeyPrefix, rc.TTL)
	log.Info().Str("addr", rc.Addr).Msg("Quota store connected to redis")
	return nil
}

func (a *App) openSinks(ctx context.Context) error {
	cfg := a.Config
	breaker := sinks.BreakerConfig{
		MaxRequests:         cfg.Breaker.MaxRequests,
		Interval:            cfg.Breaker.Interval,
		Timeout:             cfg.Breaker.Timeout,
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
	}

	var guarded []sinks.Sink
	if cfg.History.Enabled {
		db, err := sqlrepo.Open(ctx, cfg.History.Driver, cfg.History.DSN, cfg.History.MaxOpenConns)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Close)

		a.History = sqlrepo.New(db, cfg.History.QueryTimeout)
		if err := a.History.Migrate(ctx); err != nil {
			return err
		}
		guarded = append(guarded, sinks.Guard(sinks.History{Repo: a.History}, breaker, a.Metrics))
	}

	if cfg.Events.Enabled {
		pub, err := events.NewKafkaPublisher(events.Config{
			Brokers:      cfg.Events.Brokers,
			Topic:        cfg.Events.Topic,
			WriteTimeout: cfg.Events.WriteTimeout,
		})
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pub.Close)
		guarded = append(guarded, sinks.Guard(pub, breaker, a.Metrics))
	}

	a.Sinks = sinks.NewFanout(a.Metrics, cfg.Breaker.SinkTimeout, guarded...)
	return nil
}

// NewSession builds a session with its own quota scope over the shared
// engine, store and sinks.
func (a *App) NewSession(id string) *session.Session {
	return session.New(id, a.Engine, a.Quota(id),
		session.WithSinks(a.Sinks),
		session.WithMetrics(a.Metrics),
	)
}

// Quota returns the reroll quota for one session scope.
func (a *App) Quota(scope string) *quota.Quota {
	return quota.New(a.Store,
		quota.WithLimit(a.Config.Quota.Limit),
		quota.WithScope(scope),
		quota.WithDailyReset(a.Config.Quota.DailyReset, a.Config.QuotaLocation()),
	)
}

// Close releases backends in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Failed to close backend")
			if first == nil {
				first = err
			}
		}
	}
	a.closers = nil
	return first
}
