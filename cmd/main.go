package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"mise/internal/api"
	"mise/internal/config"
	"mise/internal/database"
	"mise/internal/kitchen"
	"mise/internal/logger"
	"mise/internal/models"
	"mise/internal/monitoring"
	"mise/internal/prep"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	// Initialize context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *metricsPort != 0 {
		cfg.MetricsConfig.Port = *metricsPort
	}

	log := logger.New(logger.ParseLevel(cfg.LogLevel), os.Stderr)
	if log.GetLevel() < logger.LevelVerbose {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	store, err := database.Open(cfg.Database.Driver, cfg.Database.URL, log)
	if err != nil {
		log.Error("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	defaultKitchen := models.Kitchen{ID: cfg.Kitchen.DefaultID, Name: "Main kitchen", Timezone: cfg.Kitchen.Timezone}
	if cfg.Database.Seed {
		if err := store.Seed(ctx, defaultKitchen, time.Now()); err != nil {
			log.Error("Failed to seed database: %v", err)
			os.Exit(1)
		}
	}

	// Initialize metrics collector
	metrics := monitoring.NewMetrics(nil)

	// Live event hub
	hub := api.NewHub(log)
	go hub.Run(ctx)

	loc, _ := cfg.Location() // checked by config.Validate
	service := kitchen.NewService(store, kitchen.Options{
		Location: loc,
		Forecast: prep.Forecast{
			Window:          cfg.ForecastWindow(),
			DefaultQuantity: cfg.Forecast.DefaultQuantity,
		},
		Recorder:  metrics,
		Publisher: hub,
		Logger:    log,
	})
	if _, err := service.EnsureKitchen(ctx, defaultKitchen.ID, defaultKitchen.Name, defaultKitchen.Timezone); err != nil {
		log.Error("Failed to create kitchen %s: %v", defaultKitchen.ID, err)
		os.Exit(1)
	}

	// Initialize API server
	srv := api.NewServer(service, hub, api.Options{
		AuthSecret: cfg.Auth.Secret,
		Monitor:    metrics.Monitor(),
		Logger:     log,
	})
	if cfg.Auth.Secret == "" {
		log.Warn("No auth secret configured, write endpoints are open")
	}

	// Start metrics server
	var metricsServer *http.Server
	if cfg.MetricsConfig.Enabled {
		metricsServer = startMetricsServer(cfg.MetricsConfig.Port, cfg.MetricsConfig.Path, metrics, log)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("API server shutdown error: %v", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Error("Metrics server shutdown error: %v", err)
			}
		}

		cancel() // stops the live hub
	}()

	// Start server
	log.Info("Starting API server on port %d", cfg.Port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Error("API server error: %v", err)
		os.Exit(1)
	}
}

func startMetricsServer(port int, path string, metrics *monitoring.Metrics, log *logger.Logger) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET(path, gin.WrapH(metrics.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	go func() {
		log.Info("Starting metrics server on port %d", port)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("Metrics server error: %v", err)
		}
	}()
	return metricsServer
}
