package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"virezo-server/internal/adapter/repo"
	"virezo-server/internal/generation"
	"virezo-server/internal/http/handlers"
	"virezo-server/internal/http/httpapi"
	"virezo-server/internal/infra"
	"virezo-server/internal/infra/geoip"
	"virezo-server/internal/middleware"
	"virezo-server/internal/providers/veo"
	"virezo-server/internal/registry"
	"virezo-server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer pool.Close()

	store, cleanup, err := newRegistry(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: registry setup failed")
	}
	defer cleanup()

	uploader, err := storage.NewUploader(ctx, cfg.VeoOutputBucket)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: storage setup failed")
	}

	veoClient, err := veo.NewClient(ctx, veo.Options{
		Project: cfg.GoogleProject,
		Region:  cfg.GoogleRegion,
		Model:   cfg.VeoModel,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: veo client setup failed")
	}
	logger.Info().Str("model", veoClient.Model()).Str("region", cfg.GoogleRegion).Msg("api: veo client ready")

	orchestrator, err := generation.NewOrchestrator(generation.Options{
		Registry:    store,
		Uploader:    uploader,
		Video:       veoClient,
		Credits:     repo.NewCreditRepository(pool),
		Activity:    repo.NewActivityRepository(pool),
		Logger:      &logger,
		OutputURI:   fmt.Sprintf("gs://%s/outputs/", cfg.VeoOutputBucket),
		CreditCost:  cfg.VideoCreditCost,
		SampleCount: cfg.VeoSampleCount,
		AspectRatio: cfg.VeoAspectRatio,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: orchestrator setup failed")
	}

	app := handlers.NewApp(orchestrator, store, logger)
	router := httpapi.NewRouter(app, httpapi.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   newCountryLookup(cfg, logger),
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: shutdown failed")
	}
	logger.Info().Msg("api: stopped")
}

// newRegistry prefers Redis when configured so operation state survives a
// restart; otherwise it falls back to the in-process store.
func newRegistry(ctx context.Context, cfg *infra.Config, logger infra.Logger) (registry.Store, func(), error) {
	if cfg.RedisAddr != "" {
		redisStore, err := registry.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, registry.DefaultRetention)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("api: using redis operation registry")
		return redisStore, func() { _ = redisStore.Close() }, nil
	}
	memStore := registry.NewMemory(registry.DefaultRetention)
	return memStore, memStore.Stop, nil
}

func newCountryLookup(cfg *infra.Config, logger infra.Logger) middleware.CountryLookup {
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip resolver unavailable")
		return nil
	}
	if resolver == nil {
		return nil
	}
	return resolver.CountryCode
}
