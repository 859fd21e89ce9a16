package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/metime/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/metime/internal/adapters/handler/http"
	"github.com/comitanigiacomo/metime/internal/adapters/repository"
	"github.com/comitanigiacomo/metime/internal/config"
	"github.com/comitanigiacomo/metime/internal/core/domain"
	"github.com/comitanigiacomo/metime/internal/core/services"
	"github.com/comitanigiacomo/metime/internal/core/workers"
	"github.com/comitanigiacomo/metime/internal/logger"
	"github.com/comitanigiacomo/metime/internal/metrics"
)

type app struct {
	router *gin.Engine
	repo   domain.HabitRepository
	worker *workers.StreakWorker
	redis  *redis.Client
}

// newApp wires storage, services and the HTTP router. The streak worker is
// started on ctx and seeded with every stored habit.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	fileRepo, err := repository.NewJSONFileHabitRepository(cfg.Storage.DataFile, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	log.Info("habit store ready", zap.String("path", fileRepo.Path()))

	var (
		repo domain.HabitRepository = fileRepo
		rdb  *redis.Client
	)
	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedisClient(ctx, cache.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Warn("redis unavailable, running without cache and rate limiting", zap.Error(err))
		} else {
			repo = repository.NewCachedHabitRepository(fileRepo, rdb, log, repository.DefaultCacheTTL)
			log.Info("redis connected", zap.String("addr", cfg.Redis.Host+":"+cfg.Redis.Port))
		}
	}

	recorder := metrics.NewRecorder()
	worker := workers.NewStreakWorker(repo, recorder, log, time.Now, cfg.Worker.QueueSize)
	worker.Start(ctx)

	habits, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	for _, h := range habits {
		worker.Enqueue(h.Name)
	}

	habitService := services.NewHabitService(repo, worker, time.Now)
	analyticsService := services.NewAnalyticsService(repo, time.Now, cfg.Analytics.StrugglingWindow, recorder)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		HabitHandler:     adapterHTTP.NewHabitHandler(habitService),
		AnalyticsHandler: adapterHTTP.NewAnalyticsHandler(analyticsService),
		Redis:            rdb,
		Logger:           log,
		RateLimit:        cfg.RateLimit.Requests,
		StartTime:        time.Now(),
	})

	return &app{router: router, repo: repo, worker: worker, redis: rdb}, nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Critical: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Server.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Critical: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}
	if a.redis != nil {
		defer a.redis.Close()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("MeTime running", zap.String("addr", "http://localhost:"+cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("critical server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("stop signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
		return
	}

	log.Info("server stopped gracefully")
}
