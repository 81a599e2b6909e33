package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/onboard-api/internal/config"
	matchingHandler "github.com/jwalitptl/onboard-api/internal/handler/matching"
	promHandler "github.com/jwalitptl/onboard-api/internal/handler/prometheus"
	"github.com/jwalitptl/onboard-api/internal/repository/postgres"
	"github.com/jwalitptl/onboard-api/internal/router"
	matchingService "github.com/jwalitptl/onboard-api/internal/service/matching"
	"github.com/jwalitptl/onboard-api/pkg/logger"
	"github.com/jwalitptl/onboard-api/pkg/messaging"
	"github.com/jwalitptl/onboard-api/pkg/messaging/redis"
	"github.com/jwalitptl/onboard-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	availabilityRepo := postgres.NewAvailabilityRepository(db)

	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redis.NewRedisBroker(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, appLogger.Zerolog())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer broker.Close()
	}

	m := metrics.New("onboard")

	matchingSvc := matchingService.NewService(availabilityRepo, matchingService.Config{
		WindowDays:      cfg.Matcher.WindowDays,
		CacheTTL:        cfg.Matcher.CacheTTL,
		DefaultTimezone: cfg.Matcher.DefaultTimezone,
	}, broker, m)

	matchingH := matchingHandler.NewHandler(matchingSvc)

	r := router.New(matchingH, promHandler.New(), router.Config{
		RateLimit:      rate.Limit(cfg.Server.RatePerSecond),
		RateBurst:      cfg.Server.RateBurst,
		MetricsEnabled: cfg.Server.MetricsEnabled,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
