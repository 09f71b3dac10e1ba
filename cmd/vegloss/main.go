package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/vegloss-service/internal/adapter/geoengine"
	httpadapter "github.com/couchcryptid/vegloss-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/vegloss-service/internal/adapter/kafka"
	"github.com/couchcryptid/vegloss-service/internal/adapter/mapbox"
	redisadapter "github.com/couchcryptid/vegloss-service/internal/adapter/redis"
	"github.com/couchcryptid/vegloss-service/internal/analysis"
	"github.com/couchcryptid/vegloss-service/internal/config"
	"github.com/couchcryptid/vegloss-service/internal/domain"
	"github.com/couchcryptid/vegloss-service/internal/observability"
	"github.com/couchcryptid/vegloss-service/internal/render"
	"github.com/joho/godotenv"
)

// startupCheckTimeout bounds the initial analytics project lookup.
const startupCheckTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The analytics service is mandatory: refuse to start without it.
	client := geoengine.NewClient(cfg.GeoEngineURL, cfg.GeoEngineProject, cfg.GeoEngineToken, cfg.GeoEngineTimeout, metrics, logger)
	checkCtx, cancelCheck := context.WithTimeout(ctx, startupCheckTimeout)
	err = client.CheckReadiness(checkCtx)
	cancelCheck()
	if err != nil {
		logger.Error("analytics service initialization failed", "url", cfg.GeoEngineURL, "project", cfg.GeoEngineProject, "error", err)
		os.Exit(1)
	}
	logger.Info("analytics service initialized", "project", cfg.GeoEngineProject)

	var analyzer domain.Analyzer = geoengine.NewBreaker(client, geoengine.BreakerSettings{
		FailureThreshold: cfg.BreakerFailureThreshold,
		OpenTimeout:      cfg.BreakerOpenTimeout,
	}, metrics, logger)

	// Shared tile cache (optional, REDIS_ADDR).
	var closers []func() error
	if cfg.RedisAddr != "" {
		rdb, err := redisadapter.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("redis unavailable", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		closers = append(closers, rdb.Close)
		analyzer = redisadapter.NewTileCache(analyzer, rdb, cfg.RedisTTL, metrics, logger)
		logger.Info("tile cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
	} else {
		logger.Info("tile cache disabled")
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		mb := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(mb, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Analysis events (feature-flagged via KAFKA_ENABLED).
	var publisher domain.Publisher
	if cfg.KafkaEnabled {
		p := kafkaadapter.NewPublisher(cfg, metrics, logger)
		closers = append(closers, p.Close)
		publisher = p
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	renderer, err := render.New()
	if err != nil {
		logger.Error("failed to load templates", "error", err)
		os.Exit(1)
	}

	svc := analysis.New(analyzer, geocoder, publisher, logger, metrics)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:               cfg.HTTPAddr,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
		WriteTimeout:       cfg.GeoEngineTimeout + 30*time.Second,
	}, svc, renderer, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
