package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	redis "github.com/go-redis/redis/v8"
	"github.com/leeforge/captchakit/captcha"
	"github.com/leeforge/captchakit/http/handler"
	"github.com/leeforge/captchakit/locale"
	"github.com/leeforge/captchakit/logging"
	"github.com/leeforge/captchakit/metrics"
	limiter "github.com/leeforge/captchakit/middleware"
	"github.com/leeforge/captchakit/redis_client"
	"github.com/leeforge/captchakit/render"
	"github.com/leeforge/captchakit/session"
	"go.uber.org/zap"
)

// App owns the server and the infrastructure behind it.
type App struct {
	cfg     *AppConfig
	logger  logging.Logger
	service *captcha.Service
	limiter *limiter.RateLimiter
	server  *http.Server

	memory *session.MemoryStore
	redis  *redis.Client
	stop   chan struct{}
}

// newApp wires stores, the captcha service and the router. Any error here is
// a startup failure.
func newApp(ctx context.Context, cfg *AppConfig, logger logging.Logger) (*App, error) {
	app := &App{cfg: cfg, logger: logger, stop: make(chan struct{})}

	store, err := app.openStore(ctx)
	if err != nil {
		return nil, err
	}

	catalog, err := locale.NewCatalog(cfg.Riddles.Fallback)
	if err == nil {
		err = catalog.LoadBuiltin()
	}
	if err != nil {
		app.closeStores()
		return nil, err
	}
	if cfg.Riddles.Path != "" {
		if err := catalog.LoadDir(cfg.Riddles.Path); err != nil {
			app.closeStores()
			return nil, fmt.Errorf("load riddles from %s: %w", cfg.Riddles.Path, err)
		}
	}

	groups, err := cfg.groups()
	if err != nil {
		app.closeStores()
		return nil, err
	}

	collector := metrics.NewCollector()
	app.service, err = captcha.NewService(groups, store,
		captcha.WithRendererFactory(captcha.StyleImage, render.NewImageRenderer),
		captcha.WithRiddleSource(catalog),
		captcha.WithMetrics(collector),
		captcha.WithLogger(logger),
	)
	if err != nil {
		app.closeStores()
		return nil, err
	}

	app.limiter = limiter.NewRateLimiter(cfg.RateLimit, limiter.SessionOrIP, collector)
	app.server = &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.NewRouter(handler.RouterConfig{
			Service: app.service,
			Logger:  logger,
			Session: session.CookieOptions{
				Name:   cfg.Session.CookieName,
				Secret: cfg.Session.Secret,
				MaxAge: cfg.Session.TTL,
				Secure: cfg.Session.Secure,
			},
			IssueLimiter: app.limiter,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("captcha service ready",
		zap.Strings("groups", app.service.Groups()),
		zap.Strings("locales", catalog.Locales()),
		zap.String("session_driver", cfg.Session.Driver),
	)
	return app, nil
}

func (a *App) openStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.Session.Driver {
	case driverRedis:
		client, err := redis_client.NewRedis(ctx, a.cfg.Redis, a.logger.Named("redis"))
		if err != nil {
			return nil, err
		}
		a.redis = client
		return session.NewRedisStore(client, a.cfg.Session.RedisPrefix, a.cfg.Session.TTL), nil
	default:
		a.memory = session.NewMemoryStore(a.cfg.Session.TTL, a.cfg.Session.Cleanup)
		return a.memory, nil
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	go a.limiter.Run(a.stop, a.cfg.RateLimit.IdleTTL)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.Shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	return a.Shutdown(context.Background())
}

// Shutdown drains the server, then closes the stores.
func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	select {
	case <-a.stop:
	default:
		close(a.stop)
	}

	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("http server shutdown failed", zap.Error(err))
	}
	a.closeStores()

	a.logger.Info("shutdown completed")
	return err
}

func (a *App) closeStores() {
	if a.memory != nil {
		_ = a.memory.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
