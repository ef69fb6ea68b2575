package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/noah-isme/univ-portal-api/api/swagger"
	"github.com/noah-isme/univ-portal-api/internal/handler"
	"github.com/noah-isme/univ-portal-api/internal/repository"
	"github.com/noah-isme/univ-portal-api/internal/service"
	"github.com/noah-isme/univ-portal-api/pkg/cache"
	"github.com/noah-isme/univ-portal-api/pkg/config"
	"github.com/noah-isme/univ-portal-api/pkg/database"
	"github.com/noah-isme/univ-portal-api/pkg/jobs"
	"github.com/noah-isme/univ-portal-api/pkg/logger"
)

// @title University Portal API
// @version 0.1.0
// @description Academic calendar and course enrollment engine
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Calendar.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("calendar cache disabled, redis unavailable", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, "univ:")
	defer cacheRepo.Close() //nolint:errcheck

	validate := service.NewValidator()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Calendar.CacheTTL, logr, redisClient != nil)

	years := service.NewAcademicYearService(
		repository.NewAcademicYearRepository(db), validate, logr,
		service.WithCalendarCache(cacheSvc, cfg.Calendar.CacheTTL),
	)
	enrollments := service.NewEnrollmentService(
		repository.NewEnrollmentRepository(db),
		repository.NewStudentRepository(db),
		repository.NewCourseRepository(db),
		years, validate, logr,
		service.WithEnrollmentMetrics(metrics),
	)

	var notifications *service.NotificationService
	if cfg.Notifications.Enabled {
		notifications = service.NewNotificationService(repository.NewNotificationRepository(db), jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
		}, logr)
	}

	dependencies := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		dependencies["redis"] = handler.PingerFunc(cacheRepo.Ping)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Config:        cfg,
		Logger:        logr,
		Tokens:        service.NewTokenService(cfg.JWT.Secret),
		Metrics:       metrics,
		AcademicYears: handler.NewAcademicYearHandler(years),
		Enrollments:   handler.NewEnrollmentHandler(enrollments, notifications, logr),
		System:        handler.NewMetricsHandler(metrics, dependencies, logr),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if notifications != nil {
		notifications.Start(context.WithoutCancel(ctx))
	}

	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logr.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if notifications != nil {
			notifications.Stop(shutdownCtx)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logr.Error("server stopped with error", zap.Error(err))
	}
}
