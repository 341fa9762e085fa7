package main

import (
	"fmt"
	"os"

	"plate-service/internal/auth"
	"plate-service/internal/client"
	"plate-service/internal/config"
	"plate-service/internal/db"
	httphandler "plate-service/internal/http"
	"plate-service/internal/http/middleware"
	"plate-service/internal/logger"
	"plate-service/internal/plate"
	"plate-service/internal/repository"
	"plate-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	extractor := plate.NewExtractor(
		plate.WithMaxInputLength(cfg.Plate.MaxInputLength),
		plate.WithDedupPolicy(cfg.Plate.DedupPolicy),
		plate.WithLogger(appLogger.With().Str("component", "plate").Logger()),
	)

	readingRepo := repository.NewPlateReadingRepository(database)
	vehicleRepo := repository.NewVehicleRepository(database)
	ocrClient := client.NewOCRClient(cfg)
	if !ocrClient.Configured() {
		appLogger.Warn().Msg("OCR_SERVICE_URL not set, image readings are disabled")
	}

	plateService := service.NewPlateService(extractor, readingRepo, vehicleRepo, ocrClient, appLogger)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(plateService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, appLogger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().
		Str("addr", addr).
		Str("dedup_policy", string(cfg.Plate.DedupPolicy)).
		Msg("starting plate service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
