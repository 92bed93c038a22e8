// Package app assembles the route dependencies from configuration.
package app

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/experiment-server/internal/config"
	"github.com/iliyamo/experiment-server/internal/database"
	"github.com/iliyamo/experiment-server/internal/docs"
	"github.com/iliyamo/experiment-server/internal/handler"
	"github.com/iliyamo/experiment-server/internal/health"
	"github.com/iliyamo/experiment-server/internal/middleware"
	"github.com/iliyamo/experiment-server/internal/router"
	"github.com/iliyamo/experiment-server/internal/service"
)

// App owns the long-lived clients behind the route table.
type App struct {
	Deps *router.Deps

	closers []func() error
}

// Build wires every component named by cfg.  Optional backends (Redis,
// MySQL, RabbitMQ) are only touched when configured.
func Build(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
	}

	probes, err := a.probes(cfg, rdb)
	if err != nil {
		a.Close()
		return nil, err
	}
	registry, err := health.NewRegistry(probes...)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("health probes registered", "probes", registry.Names())

	healthHandler := &handler.HealthHandler{Registry: registry}
	if cfg.Health.EventsEnabled {
		healthHandler.Notifier = service.NewHealthPublisher(cfg.RabbitMQ.URL, cfg.Health.EventsQueue, cfg.Health.EventsTimeout)
		logger.Info("health events enabled", "queue", cfg.Health.EventsQueue)
	}

	deps := &router.Deps{
		Docs:        cfg.Docs,
		DocsHandler: handler.NewDocsHandler(docs.NewReader(), logger),
		Health:      healthHandler,
		Swagger:     handler.CachedMount(cfg.Static.SwaggerRoot, cfg.Static.MaxAge),
		Webjars:     handler.UncachedMount(cfg.Static.WebjarsRoot),
		Logger:      logger,
	}
	if rdb != nil && cfg.Cache.Enabled {
		deps.DocsCache = middleware.NewRedisCache(cfg.Cache, rdb)
		logger.Info("api-docs cache enabled", "ttl", cfg.Cache.TTL)
	}
	a.Deps = deps
	return a, nil
}

func (a *App) probes(cfg config.Config, rdb *redis.Client) ([]health.Probe, error) {
	timeout := cfg.Health.ProbeTimeout
	probes := health.Builtin(timeout)

	if rdb != nil {
		probes = append(probes, health.RedisProbe(rdb, timeout))
	}
	if cfg.Database.Enabled() {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("mysql probe: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		probes = append(probes, health.MySQLProbe(db, timeout))
	}
	if cfg.RabbitMQ.URL != "" {
		probes = append(probes, health.RabbitMQProbe(cfg.RabbitMQ.URL, timeout))
	}
	if cfg.Health.SystemProbes {
		probes = append(probes,
			health.MemoryProbe(cfg.Health.MemoryMaxPercent, timeout),
			health.LoadProbe(cfg.Health.LoadMaxPerCPU, timeout),
		)
	}
	return probes, nil
}

// Close releases the backend clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close backend", "error", err)
		}
	}
	a.closers = nil
}
