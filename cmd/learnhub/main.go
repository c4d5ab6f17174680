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

	"github.com/learnhub/learnhub/internal/app"
	"github.com/learnhub/learnhub/internal/audit"
	audithttp "github.com/learnhub/learnhub/internal/audit/http"
	"github.com/learnhub/learnhub/internal/auth"
	"github.com/learnhub/learnhub/internal/authors"
	"github.com/learnhub/learnhub/internal/courses"
	"github.com/learnhub/learnhub/internal/lessons"
	"github.com/learnhub/learnhub/internal/observability"
	"github.com/learnhub/learnhub/internal/payments"
	"github.com/learnhub/learnhub/internal/platform/cache"
	"github.com/learnhub/learnhub/internal/platform/db"
	"github.com/learnhub/learnhub/internal/rbac"
	"github.com/learnhub/learnhub/internal/shared"
	"github.com/learnhub/learnhub/internal/users"
	"github.com/learnhub/learnhub/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, MinConns: cfg.PGMinConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	guard := rbac.Middleware{Logger: logger}
	auditLog := shared.NewAuditLogger(dbpool)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, jobClient, auditLog, metrics, logger)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	if err != nil {
		logger.Error("init token manager", slog.Any("error", err))
		os.Exit(1)
	}
	refreshStore := auth.NewRefreshStore(redisClient, cfg.RefreshTokenTTL)
	authService := auth.NewService(usersRepo, tokens, refreshStore)
	authenticator := auth.NewAuthenticator(tokens, usersRepo, logger)

	authorsService := authors.NewService(authors.NewRepository(dbpool), auditLog, metrics, logger)

	catalog := cache.NewVersioned(redisClient, "courses:catalog", cfg.CatalogCacheTTL)
	coursesService := courses.NewService(courses.NewRepository(dbpool), catalog, auditLog, metrics, logger)

	lessonsService := lessons.NewService(lessons.NewRepository(dbpool), metrics, logger)

	provider, err := payments.NewProvider(cfg.PaymentProvider)
	if err != nil {
		logger.Error("init payment provider", slog.Any("error", err))
		os.Exit(1)
	}
	paymentsService := payments.NewService(payments.Config{
		Repo:        payments.NewRepository(dbpool),
		Provider:    provider,
		Queue:       jobClient,
		Idempotency: shared.NewIdempotencyStore(dbpool),
		Observer:    metrics,
		Logger:      logger,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Metrics:        metrics,
		Authenticator:  authenticator,
		AuthHandler:    auth.NewHandler(logger, authService, cfg.LoginRateLimit),
		UsersHandler:   users.NewHandler(logger, usersService, guard),
		RolesHandler:   rbac.NewRolesHandler(guard),
		AuthorsHandler: authors.NewHandler(logger, authorsService, guard),
		CoursesHandler: courses.NewHandler(logger, coursesService),
		LessonsHandler: lessons.NewHandler(logger, lessonsService),
		PaymentHandler: payments.NewHandler(logger, paymentsService),
		JobHandler:     jobs.NewHandler(inspector, logger),
		AuditHandler:   audithttp.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool)), guard),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
