package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/i474232898/crop-advisor/internal/advisor"
	httpapi "github.com/i474232898/crop-advisor/internal/api/http"
	"github.com/i474232898/crop-advisor/internal/config"
	"github.com/i474232898/crop-advisor/internal/crop"
	"github.com/i474232898/crop-advisor/internal/geo"
	"github.com/i474232898/crop-advisor/internal/report"
	"github.com/i474232898/crop-advisor/internal/report/providers"
	"github.com/i474232898/crop-advisor/internal/scheduler"
	"github.com/i474232898/crop-advisor/internal/store"
	"github.com/i474232898/crop-advisor/internal/stream"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Climate: NASA POWER first, precipitation gaps from Open-Meteo, then Meteostat
	// over the whole calendar month.
	reconciler := report.NewReconciler(
		providers.NewNASAPower(httpClient),
		[]report.PrecipitationFallback{
			{Provider: providers.NewOpenMeteoArchive(httpClient)},
			{Provider: providers.NewMeteostat(httpClient, cfg.MeteostatAPIKey), FullMonth: true},
		},
		cfg.MaxYearsBack,
	)
	assembler := report.NewAssembler(
		reconciler,
		providers.NewOpenWeather(httpClient, cfg.OpenWeatherAPIKey),
		providers.NewSoilGrids(httpClient),
		providers.NewOpenTopoData(httpClient),
	)

	// Reference crop data; recommendations are disabled without it.
	dataset, err := crop.LoadDir(cfg.DatasetDir)
	if err != nil {
		log.Printf("ERROR: failed to load crop dataset from %s: %v", cfg.DatasetDir, err)
	} else {
		log.Printf("INFO: loaded %d crop reference rows from %s", dataset.Len(), cfg.DatasetDir)
	}

	// Optional snapshot stream.
	var sink advisor.Sink
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		publisher := stream.NewPublisher(redisClient, cfg.Redis.Stream)
		defer publisher.Close()
		sink = publisher
	}

	// In-memory store with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Core service orchestrating report assembly, store and scoring.
	service := advisor.NewService(assembler, memStore, dataset, cfg.Scoring, sink)

	// Scheduler that periodically surveys the configured sites.
	sched := scheduler.New(cfg.Sites, cfg.FetchInterval, service)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "crop-advisor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          2 * time.Minute,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "crop-advisor",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service, geo.NewResolver(cfg.GeocoderAPIKey))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
