package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/appbox-io/appbox/internal/app"
	"github.com/appbox-io/appbox/internal/auth"
	"github.com/appbox-io/appbox/internal/builds"
	"github.com/appbox-io/appbox/internal/observability"
	"github.com/appbox-io/appbox/internal/platform/cache"
	"github.com/appbox-io/appbox/internal/platform/db"
	"github.com/appbox-io/appbox/internal/security"
	"github.com/appbox-io/appbox/internal/storage"
	"github.com/appbox-io/appbox/internal/token"
	"github.com/appbox-io/appbox/internal/users"
	"github.com/appbox-io/appbox/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokens, err := token.NewManager(token.Config{
		Secret:     []byte(cfg.TokenSecret),
		Issuer:     cfg.TokenIssuer,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		logger.Error("init token manager", slog.Any("error", err))
		os.Exit(1)
	}

	hierarchy, err := security.DefaultHierarchy()
	if err != nil {
		logger.Error("init role hierarchy", slog.Any("error", err))
		os.Exit(1)
	}
	engine := security.NewEngine(hierarchy)

	metrics := observability.NewMetrics()
	authenticator := security.Authenticator{Codec: tokens, Logger: logger, Metrics: metrics}
	guard := security.Guard{Engine: engine, Logger: logger, Metrics: metrics}

	store := storage.NewClient(cfg.StoreURL)
	if err := store.Ping(ctx); err != nil {
		logger.Warn("object store ping", slog.Any("error", err))
	}

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, store, cfg.StoreBucket)
	usersHandler := users.NewHandler(logger, usersService)

	refreshStore := auth.NewRefreshStore(redisClient, cfg.RefreshTokenTTL)
	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(usersRepo, tokens, refreshStore, authRepo, logger)
	authHandler := auth.NewHandler(logger, authService)

	buildsHandler := builds.NewHandler(logger, store, cfg.StoreBuildBucket)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	queue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, queue, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Authenticator: authenticator,
		Guard:         guard,
		AuthHandler:   authHandler,
		UsersHandler:  usersHandler,
		BuildsHandler: buildsHandler,
		JobsHandler:   jobsHandler,
		Metrics:       metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
