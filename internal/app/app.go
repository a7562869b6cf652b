// Package app assembles the server from a Config: backend, registry,
// resources, caches and routes.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"RestyAPI/internal/auth"
	"RestyAPI/internal/cache"
	"RestyAPI/internal/config"
	"RestyAPI/internal/db"
	"RestyAPI/internal/handler"
	"RestyAPI/internal/logger"
	"RestyAPI/internal/metrics"
	"RestyAPI/internal/model"
	"RestyAPI/internal/query"
	"RestyAPI/internal/resource"
	"RestyAPI/internal/router"

	"github.com/golang-migrate/migrate/v4"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Handler  http.Handler
	Registry *model.Registry
	Metrics  *metrics.Metrics

	backend db.Backend
	redis   *redis.Client
}

// New opens the configured backend and mounts every resource in
// cfg.DescriptorsDir.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	reg, err := model.LoadRegistry(cfg.DescriptorsDir)
	if err != nil {
		return nil, err
	}

	a := &App{Registry: reg, Metrics: metrics.New()}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	if a.backend, err = OpenBackend(ctx, cfg); err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := Migrate(a.backend, cfg, false); err != nil {
			return nil, err
		}
	}
	if err := a.backend.Ping(ctx); err != nil {
		return nil, fmt.Errorf("backend ping: %w", err)
	}

	exec := query.NewExecutor(a.backend,
		query.WithSlowQuery(cfg.SlowQuery),
		query.WithMetrics(a.Metrics),
	)
	entries, err := resource.FromRegistry(reg, exec)
	if err != nil {
		return nil, err
	}

	opts := []router.Option{
		router.WithCORS(cfg.CORS),
		router.WithMetrics(a.Metrics),
	}
	if cfg.Auth.Enabled {
		v, err := auth.NewJWTValidator(cfg.Auth.JWT)
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		opts = append(opts, router.WithHook(v.Hook()))
	}
	rt := router.New(cfg.BasePath, opts...)

	for _, e := range entries {
		c, err := a.cacheFor(ctx, cfg, e)
		if err != nil {
			return nil, err
		}
		if err := rt.Register(handler.New(e.Name, e.Resource, c)); err != nil {
			return nil, err
		}
		logger.Info("resource_registered", map[string]any{
			"name":   e.Name,
			"kind":   e.Definition.EffectiveKind(),
			"cached": c != nil,
		})
	}

	a.Handler = rt.Handler()
	ok = true
	return a, nil
}

// cacheFor returns nil for resources that do not enable caching.
func (a *App) cacheFor(ctx context.Context, cfg *config.Config, e resource.Entry) (*cache.Cache, error) {
	spec := e.Definition.Cache
	if spec == nil {
		return nil, nil
	}
	ttl := cfg.Cache.TTL
	if spec.TTLSec > 0 {
		ttl = time.Duration(spec.TTLSec) * time.Second
	}
	size := cfg.Cache.MaxKeys
	if spec.Size > 0 {
		size = spec.Size
	}

	var store cache.Store = cache.NewMemoryStore()
	if cfg.Cache.RedisAddr != "" {
		if a.redis == nil {
			a.redis = db.InitRedis(cfg.Cache.RedisAddr)
			if err := db.PingRedis(ctx, a.redis); err != nil {
				return nil, fmt.Errorf("redis ping: %w", err)
			}
		}
		store = cache.NewRedisStore(a.redis, "restyapi:"+e.Name+":")
		// entries from a previous run were computed against older data
		if err := store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("redis clear %q: %w", e.Name, err)
		}
	}
	return cache.New(e.Name, store, ttl, size, cache.WithMetrics(a.Metrics)), nil
}

func (a *App) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.backend != nil {
		a.backend.Close()
	}
}

// OpenBackend connects to the database named by cfg.Backend.
func OpenBackend(ctx context.Context, cfg *config.Config) (db.Backend, error) {
	switch cfg.Backend {
	case "postgres":
		pg, err := db.InitPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("postgres_connected", nil)
		return pg, nil
	case "sqlite":
		s, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("sqlite_opened", map[string]any{"path": cfg.SQLitePath})
		return s, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Migrate applies cfg.MigrationsDir to backend. For SQLite the migrator
// shares the open handle, so it is left open on purpose.
func Migrate(backend db.Backend, cfg *config.Config, down bool) error {
	var (
		m   *migrate.Migrate
		err error
	)
	switch b := backend.(type) {
	case *db.SQLite:
		m, err = db.NewSQLiteMigrator(b, cfg.MigrationsDir)
	default:
		m, err = db.NewPostgresMigrator(cfg.PostgresDSN, cfg.MigrationsDir)
		if err == nil {
			defer func() { _, _ = m.Close() }()
		}
	}
	if err != nil {
		return err
	}
	return db.ApplyMigrations(m, down)
}
