// Package app assembles the API process from its configuration: store,
// cache, token services, audit sink, uploader and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/activity"
	"github.com/iliyamo/special-academy-api/internal/cache"
	"github.com/iliyamo/special-academy-api/internal/config"
	"github.com/iliyamo/special-academy-api/internal/handler"
	"github.com/iliyamo/special-academy-api/internal/model"
	"github.com/iliyamo/special-academy-api/internal/queue"
	"github.com/iliyamo/special-academy-api/internal/repository"
	"github.com/iliyamo/special-academy-api/internal/router"
	"github.com/iliyamo/special-academy-api/internal/service"
	"github.com/iliyamo/special-academy-api/internal/upload"
)

// App owns every long-lived resource of the API process.
type App struct {
	cfg config.Config
	log *zap.Logger

	Store    *repository.Store
	Auth     *service.AuthService
	Echo     *echo.Echo
	sink     activity.Sink
	pub      *queue.Publisher
	rdb      *redis.Client
	memCache *cache.MemoryStore

	consumerWG sync.WaitGroup
	stop       context.CancelFunc
}

// New connects the backends and builds the router. Redis is optional: when
// it is unreachable the rate limiter is skipped and the cache falls back to
// memory.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, log: log, Store: store}

	if cfg.Redis.Enabled {
		rdb, err := config.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable; rate limiting disabled", zap.String("addr", cfg.Redis.Address()), zap.Error(err))
		} else {
			a.rdb = rdb
		}
	}

	respCache := a.buildCache()

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	a.Auth = service.NewAuthService(store.Users, tokens, cfg.BcryptCost, cfg.AllowAdminSignup)

	a.sink = a.buildSink()
	act := activity.NewLogger(a.sink, log)

	up, err := upload.New(cfg.Upload, log)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	if cfg.AdminEmail != "" {
		if err := a.seedAdmin(ctx); err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
	}

	a.Echo = router.New(router.Deps{
		Config:  cfg,
		Log:     log,
		Tokens:  tokens,
		Users:   store.Users,
		Cache:   respCache,
		Redis:   a.rdb,
		Auth:    handler.NewAuthHandler(a.Auth, act, cfg.StoreTimeout, log),
		Content: handler.NewContentHandler(store, up, act, cfg.StoreTimeout, log),
		People:  handler.NewUserHandler(store.Users, a.Auth, act, cfg.StoreTimeout, log),
		Admin:   handler.NewAdminHandler(store, act, cfg.StoreTimeout, log),
	})
	return a, nil
}

func (a *App) buildCache() cache.Store {
	if !a.cfg.Cache.Enabled {
		return nil
	}
	if a.cfg.Cache.Backend == "redis" {
		if a.rdb != nil {
			return cache.NewRedisStore(a.rdb)
		}
		a.log.Warn("CACHE_BACKEND=redis without a redis connection; using memory cache")
	}
	a.memCache = cache.NewMemoryStore()
	a.memCache.StartJanitor(a.cfg.Cache.SweepInterval)
	return a.memCache
}

func (a *App) buildSink() activity.Sink {
	ac := a.cfg.Activity
	opts := activity.WorkerOptions{
		Name:         ac.Sink,
		Workers:      ac.Workers,
		Buffer:       ac.Buffer,
		WriteTimeout: ac.WriteTimeout,
	}
	if ac.Sink != "amqp" {
		return activity.NewWorkerSink(activity.StoreWriter(a.Store.ActivityLogs), opts, a.log)
	}

	a.pub = queue.NewPublisher(ac.RabbitURL, ac.Queue, a.log)
	if ac.Consumer {
		ctx, cancel := context.WithCancel(context.Background())
		a.stop = cancel
		a.consumerWG.Add(1)
		go func() {
			defer a.consumerWG.Done()
			err := queue.StartActivityConsumer(ctx, consumerOptions(a.cfg), a.Store.ActivityLogs, a.log)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("activity consumer stopped", zap.Error(err))
			}
		}()
	}
	return activity.NewWorkerSink(activity.PublishWriter(a.pub), opts, a.log)
}

func (a *App) seedAdmin(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.StoreTimeout)
	defer cancel()
	u, created, err := a.Auth.SeedAdmin(ctx, a.cfg.AdminEmail, a.cfg.AdminPassword, a.cfg.AdminFullName)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		a.log.Info("admin account created", zap.String("email", u.Email))
	} else if u.Role != model.RoleAdmin {
		a.log.Warn("ADMIN_EMAIL belongs to a non-admin account", zap.String("email", u.Email))
	}
	return nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully within
// ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.Echo,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", a.cfg.Env), zap.String("store", a.cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = a.Close(context.Background())
			return err
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("http shutdown", zap.Error(err))
	}
	return a.Close(shutdownCtx)
}

// Close drains the audit sink before releasing the broker and the store so
// that queued records still have somewhere to go.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.sink != nil {
		if err := a.sink.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("activity sink: %w", err))
		}
	}
	if a.stop != nil {
		a.stop()
		a.consumerWG.Wait()
	}
	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if a.memCache != nil {
		_ = a.memCache.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if err := a.Store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	return errors.Join(errs...)
}

// RunConsumer runs only the RabbitMQ activity consumer until ctx is done.
func RunConsumer(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = store.Close(closeCtx)
	}()

	err = queue.StartActivityConsumer(ctx, consumerOptions(cfg), store.ActivityLogs, log)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SeedAdmin creates the configured administrator and exits.
func SeedAdmin(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if cfg.AdminEmail == "" {
		return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}
	store, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(context.Background()) }()

	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	a := &App{cfg: cfg, log: log, Store: store, Auth: service.NewAuthService(store.Users, tokens, cfg.BcryptCost, false)}
	return a.seedAdmin(ctx)
}

func consumerOptions(cfg config.Config) queue.ConsumerOptions {
	return queue.ConsumerOptions{
		URL:          cfg.Activity.RabbitURL,
		Queue:        cfg.Activity.Queue,
		WriteTimeout: cfg.Activity.WriteTimeout,
	}
}
