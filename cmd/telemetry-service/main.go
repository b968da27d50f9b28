package main

import (
	"context"
	"fmt"
	"os"

	"telemetry-service/internal/auth"
	"telemetry-service/internal/cache"
	"telemetry-service/internal/config"
	"telemetry-service/internal/db"
	httphandler "telemetry-service/internal/http"
	"telemetry-service/internal/http/middleware"
	"telemetry-service/internal/logger"
	"telemetry-service/internal/repository"
	"telemetry-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	var live service.LiveStore
	if cfg.Redis.Enabled() {
		liveCache, err := cache.New(context.Background(), cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		live = liveCache
	} else {
		log.Warn().Msg("redis not configured, live cache disabled")
	}

	deviceRepo := repository.NewDeviceRepository(database)
	geofenceRepo := repository.NewGeofenceRepository(database)
	pingRepo := repository.NewPingRepository(database)
	tripRepo := repository.NewTripRepository(database)
	alertRepo := repository.NewFuelAlertRepository(database)

	tracker := service.NewTripTracker(tripRepo, pingRepo, geofenceRepo, cfg.Telemetry, log)
	detector := service.NewFuelDetector(alertRepo, pingRepo, cfg.Telemetry, log)
	ingress := service.NewIngressService(deviceRepo, pingRepo, tracker, detector, live, cfg.Telemetry, log)
	queries := service.NewQueryService(pingRepo, tripRepo, alertRepo, live, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(ingress, queries, log)
	router := httphandler.NewRouter(
		handler,
		func(ctx context.Context) error { return db.HealthCheck(ctx, database) },
		middleware.Auth(tokenParser),
		middleware.DeviceAuth(cfg.Auth.IngestAPIKey),
		cfg.Environment,
	)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting telemetry service")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
