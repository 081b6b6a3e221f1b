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

	"staffledger/backend/internal/cache"
	"staffledger/backend/internal/config"
	"staffledger/backend/internal/events"
	"staffledger/backend/internal/events/kafka"
	"staffledger/backend/internal/httpapi"
	"staffledger/backend/internal/service"
	"staffledger/backend/internal/store"
	"staffledger/backend/internal/store/memory"
	"staffledger/backend/internal/store/postgres"
)

const minSecretLength = 32

func main() {
	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("[server] invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error

	repo, userStore, closeRepo := buildRepository(ctx, cfg)
	if closeRepo != nil {
		closers = append(closers, closeRepo)
	}

	dashboardCache, closeCache := buildDashboardCache(ctx, cfg)
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	publisher, closePublisher := buildPublisher(cfg)
	if closePublisher != nil {
		closers = append(closers, closePublisher)
	}

	svc := service.New(
		repo,
		dashboardCache,
		publisher,
		time.Duration(cfg.DashboardCacheTTLSeconds)*time.Second,
		time.Duration(cfg.RecomputeDebounceMillis)*time.Millisecond,
	)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, userStore)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("[server] listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] listen failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[server] shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] WARN: graceful shutdown failed: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("[server] WARN: close failed: %v", err)
		}
	}
	log.Println("[server] stopped")
}

func buildRepository(ctx context.Context, cfg config.Config) (store.Repository, httpapi.UserStore, func() error) {
	if cfg.DatabaseURL == "" {
		log.Println("[server] DATABASE_URL not set, using seeded in-memory store")
		mem := memory.NewSeeded()
		return mem, mem, nil
	}

	pg, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[server] postgres connection failed: %v", err)
	}
	log.Println("[server] connected to postgres")
	return pg, pg, pg.Close
}

func buildDashboardCache(ctx context.Context, cfg config.Config) (cache.DashboardCache, func() error) {
	if cfg.RedisAddr == "" {
		return cache.NoopDashboardCache{}, nil
	}

	redisCache := cache.NewRedisDashboardCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		log.Printf("[server] WARN: redis unreachable, dashboard caching disabled: %v", err)
		_ = redisCache.Close()
		return cache.NoopDashboardCache{}, nil
	}
	log.Printf("[server] dashboard cache on redis %s", cfg.RedisAddr)
	return redisCache, redisCache.Close
}

func buildPublisher(cfg config.Config) (events.Publisher, func() error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NoopPublisher{}, nil
	}

	publisher := kafka.NewPublisher(cfg.KafkaBrokers)
	log.Printf("[server] publishing payment events to kafka %v", cfg.KafkaBrokers)
	return publisher, publisher.Close
}

// validateSecurityConfig refuses to boot with a production store but a
// development-grade signing secret.
func validateSecurityConfig(cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return nil
	}
	if cfg.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required when DATABASE_URL is set")
	}
	if len(cfg.AuthSecret) < minSecretLength {
		return fmt.Errorf("AUTH_SECRET must be at least %d characters", minSecretLength)
	}
	return nil
}
