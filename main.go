package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/khabaroff/hook-expose/src/config"
	"github.com/khabaroff/hook-expose/src/database"
	"github.com/khabaroff/hook-expose/src/events"
	"github.com/khabaroff/hook-expose/src/handlers"
	"github.com/khabaroff/hook-expose/src/logging"
	"github.com/khabaroff/hook-expose/src/middleware"
	"github.com/khabaroff/hook-expose/src/repositories"
	"github.com/khabaroff/hook-expose/src/services"
	"github.com/rs/zerolog/log"
)

// app holds everything wired at startup
type app struct {
	health        repositories.HealthChecker
	webhooks      *services.WebhookService
	settings      *services.SettingsService
	delivery      *services.DeliveryService
	subscriptions *services.SubscriptionService
	bus           *events.Dispatcher
	close         func()
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize structured logging
	logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer a.close()

	if len(os.Args) > 1 {
		code := runCommand(a, os.Args[1:])
		a.close()
		os.Exit(code)
	}

	serve(cfg, a)
}

// runCommand handles CLI subcommands and returns the process exit code
func runCommand(a *app, args []string) int {
	switch args[0] {
	case "uninstall":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := services.NewUninstallService(a.webhooks, a.settings).Uninstall(ctx); err != nil {
			log.Error().Err(err).Msg("uninstall failed")
			return 1
		}
		log.Info().Msg("all webhooks and settings deleted")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\nusage: hook-expose [uninstall]\n", args[0])
		return 2
	}
}

func newApp(cfg *config.Config) (*app, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, health, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("config store ready")

	// Initialize encryption (optional, empty key disables)
	encryptor, err := services.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("failed to initialize encryption: %w", err)
	}
	if encryptor != nil {
		log.Info().Msg("webhook secret encryption enabled (AES-256-GCM)")
	}

	a := &app{
		health:   health,
		webhooks: services.NewWebhookService(store),
		settings: services.NewSettingsServiceWithEncryption(store, encryptor),
		bus:      events.NewDispatcher(),
		close:    closeStore,
	}

	a.delivery = services.NewDeliveryService(
		a.webhooks,
		a.settings,
		services.NewHTTPPoster(cfg.DeliveryTimeout),
		logging.NewOperationalLogger(),
	)
	a.delivery.SetSignDeliveries(cfg.SignDeliveries)
	a.subscriptions = services.NewSubscriptionService(a.webhooks, a.bus, a.delivery)

	return a, nil
}

// openStore connects the configured config store backend
func openStore(ctx context.Context, cfg *config.Config) (repositories.OptionRepository, repositories.HealthChecker, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		repo := repositories.NewMemoryOptionRepository()
		return repo, repo, func() {}, nil

	case config.StoreSQLite:
		repo, err := repositories.NewSQLiteOptionRepository(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return repo, repo, func() { _ = repo.Close() }, nil

	case config.StorePostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repositories.NewPostgresOptionRepository(db.GetPool()), db, db.Close, nil

	default:
		repo := repositories.NewFileOptionRepository(cfg.StorePath)
		return repo, repo, func() {}, nil
	}
}

func serve(cfg *config.Config, a *app) {
	log.Info().
		Int("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Msg("starting server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := a.webhooks.EnsureInitialized(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize webhooks")
	}
	if err := a.settings.EnsureInitialized(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize settings")
	}
	if _, err := a.subscriptions.Activate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to activate webhook subscriptions")
	}
	cancel()
	log.Info().Strs("events", a.bus.Events()).Msg("listening for events")

	router := setupRouter(cfg, a)

	// Create HTTP server with timeouts (G112: protect from Slowloris attack).
	// WriteTimeout is left generous: event requests wait for every delivery.
	srv := &http.Server{
		Addr:              ":" + formatPort(cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server shut down successfully")
}

func setupRouter(cfg *config.Config, a *app) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	healthHandler := handlers.NewHealthHandler(a.health, cfg.StoreDriver)
	webhookHandler := handlers.NewWebhookHandler(a.webhooks)
	settingsHandler := handlers.NewSettingsHandler(a.settings)
	subscriptionHandler := handlers.NewSubscriptionHandler(a.subscriptions)
	eventHandler := handlers.NewEventHandler(a.bus)

	// Health check endpoints
	router.GET("/health", healthHandler.HandleHealth)
	router.GET("/ready", healthHandler.HandleReady)
	router.GET("/info", healthHandler.HandleInfo)

	// Host event ingress
	router.POST("/events/:event",
		middleware.NewIPRateLimitingMiddleware(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.EventsRateLimitPerMinute,
		}),
		middleware.EventSignatureMiddleware(cfg.EventSecret, cfg.EnableEventSignatureVerification),
		eventHandler.HandleFire)

	// Admin API
	admin := router.Group("/admin")
	{
		admin.GET("/webhooks", webhookHandler.HandleList)
		admin.POST("/webhooks", webhookHandler.HandleCreate)
		admin.GET("/webhooks/:slug", webhookHandler.HandleGet)
		admin.PATCH("/webhooks/:slug", webhookHandler.HandleUpdate)
		admin.DELETE("/webhooks/:slug", webhookHandler.HandleDelete)

		admin.GET("/settings", settingsHandler.HandleGet)
		admin.PUT("/settings", settingsHandler.HandleUpdate)

		admin.GET("/subscriptions", subscriptionHandler.HandleList)
		admin.POST("/subscriptions/reload", subscriptionHandler.HandleReload)
	}

	return router
}

// corsConfig allows the comma-separated origins in allowed; empty allows none
func corsConfig(allowed string) cors.Config {
	origins := map[string]bool{}
	for _, o := range strings.Split(allowed, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = true
		}
	}

	return cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return origins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader, middleware.EventSignatureHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func formatPort(port int) string {
	return fmt.Sprintf("%d", port)
}
