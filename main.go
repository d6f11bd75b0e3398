package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"plansync-api/api"
	"plansync-api/config"
	"plansync-api/storage"
	"plansync-api/sync"
)

func main() {
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))

	logger := log.New()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	store, err := storage.New(logger, cfg.DBAddress)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
	defer rc.Close()
	deduper := api.NewRedisDeduper(rc, cfg.DedupeTTL)

	reconciler := sync.New(store, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "Idempotency-Key"},
	}))

	api.Register(e, store, reconciler, deduper, logger)

	go func() {
		if err := e.Start(cfg.Address); err != nil {
			logger.Infof("server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
