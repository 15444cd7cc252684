package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"oustaa/internal/config"
	"oustaa/internal/handlers"
	"oustaa/internal/middleware"
	"oustaa/internal/observability"
	"oustaa/internal/services"
	"oustaa/internal/session"
	"oustaa/internal/utils"
	"oustaa/pkg/database"
	"oustaa/pkg/logger"
	"oustaa/pkg/websocket"
	"oustaa/routes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	infra, err := connectInfrastructure(cfg, log)
	if err != nil {
		return err
	}
	defer infra.close(log)

	if infra.mongo != nil && cfg.Database.AutoMigrate {
		if err := database.NewMigrator(infra.mongo.Database, log).Up(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	engine, hub, relay, err := buildServer(ctx, cfg, infra, log)
	if err != nil {
		return err
	}

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)
	go func() {
		if err := relay.Run(hubCtx); err != nil {
			log.WithError(err).Error("Realtime relay stopped")
		}
	}()

	server := &http.Server{
		Addr:              cfg.App.Address(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	stopHub()

	log.Info("Server exited")
	return nil
}

func buildServer(ctx context.Context, cfg *config.Config, infra *infrastructure, log *logger.Logger) (*gin.Engine, *websocket.Hub, *websocket.Relay, error) {
	repos := infra.repositories(cfg)

	mapsProvider, err := newMapsProvider(cfg.Maps)
	if err != nil {
		return nil, nil, nil, err
	}
	storageProvider, err := newStorageProvider(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create storage provider: %w", err)
	}

	tokens := utils.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.JWTAccessTokenTTL, cfg.Security.JWTRefreshTokenTTL)
	notifier := services.NewNotifier(infra.broker, infra.publisher, log)

	currency := cfg.Payment.Currency
	if currency == "" {
		currency = cfg.App.Currency
	}

	walletService := services.NewWalletService(repos.profiles, repos.transactions, newPaymentProvider(cfg.Payment), notifier, services.WalletOptions{
		DefaultSettlementAmount: cfg.Ride.DefaultSettlementAmount,
		Retries:                 cfg.Ride.SettlementRetries,
		Currency:                currency,
		MinTopUp:                cfg.Payment.MinTopUp,
		MaxTopUp:                cfg.Payment.MaxTopUp,
	}, log)

	rideService := services.NewRideService(repos.profiles, repos.rides, repos.transactor, walletService, notifier, services.RideOptions{
		Fare: utils.FareSchedule{
			BaseFare:        cfg.Ride.BaseFare,
			PerKilometer:    cfg.Ride.PerKilometer,
			Step:            cfg.Ride.PriceStep,
			AverageSpeedKMH: cfg.Ride.AverageSpeedKMH,
		},
		NearbyRadiusKM: cfg.Ride.NearbyRadiusKM,
	}, log)

	profileService := services.NewProfileService(repos.profiles, repos.rides, storageProvider, notifier, services.ProfileOptions{
		LocationUpdateInterval: cfg.Ride.LocationUpdateInterval,
		MaxAvatarSize:          cfg.Storage.MaxAvatarSize,
	}, log)

	authService := services.NewAuthService(repos.profiles, tokens, services.AuthOptions{
		PasswordMinLength: cfg.Security.PasswordMinLength,
		BcryptCost:        cfg.Security.BcryptCost,
	}, log)

	assistantService := services.NewAssistantService(newLLMProvider(cfg.Assistant), repos.conversations, services.AssistantOptions{
		DefaultModel:   cfg.Assistant.DefaultModel,
		Models:         cfg.Assistant.Models,
		HistoryLimit:   cfg.Assistant.HistoryLimit,
		SystemPrompt:   cfg.Assistant.SystemPrompt,
		RequestTimeout: cfg.Assistant.RequestTimeout,
	}, log)

	ratingService := services.NewRatingService(repos.ratings, repos.rides, repos.profiles, notifier, cfg.Ride.SettlementRetries, log)
	chatService := services.NewChatService(repos.messages, repos.rides, repos.profiles, notifier, log)
	mapService := services.NewMapService(mapsProvider, infra.cache, log)

	sessions := session.NewManager(tokens, repos.profiles, infra.broker, log)

	hub := websocket.NewHub(log)
	hub.OnConnect = observability.WebsocketConnections.Inc
	hub.OnDisconnect = observability.WebsocketConnections.Dec

	realtimeHandler := handlers.NewRealtimeHandler(sessions, repos.rides, profileService, log)
	realtimeHandler.Bind(websocket.NewHandler(hub, websocket.Config{
		ReadBufferSize:   cfg.WebSocket.ReadBufferSize,
		WriteBufferSize:  cfg.WebSocket.WriteBufferSize,
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		PingInterval:     cfg.WebSocket.PingInterval,
		PongTimeout:      cfg.WebSocket.PongTimeout,
		MaxMessageSize:   cfg.WebSocket.MaxMessageSize,
		AllowedOrigins:   cfg.WebSocket.AllowedOrigins,
	}, realtimeHandler))

	checks := map[string]handlers.HealthCheck{}
	if infra.mongo != nil {
		checks["mongodb"] = infra.mongo.Ping
	}
	if infra.redis != nil {
		checks["redis"] = infra.redis.Ping
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	utils.RegisterGinValidators()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	engine.Use(
		middleware.RequestIDMiddleware(),
		middleware.RecoveryMiddleware(log),
		middleware.LoggingMiddleware(log),
		middleware.MetricsMiddleware(),
		middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins),
	)

	routes.Setup(engine, &routes.Handlers{
		Auth:      handlers.NewAuthHandler(authService),
		Profile:   handlers.NewProfileHandler(profileService),
		Ride:      handlers.NewRideHandler(rideService, cfg.Ride.NearbyRadiusKM),
		Wallet:    handlers.NewWalletHandler(walletService),
		Rating:    handlers.NewRatingHandler(ratingService),
		Chat:      handlers.NewChatHandler(chatService),
		Assistant: handlers.NewAssistantHandler(assistantService),
		Map:       handlers.NewMapHandler(mapService),
		Health:    handlers.NewHealthHandler(cfg.App.Version, checks),
		Realtime:  realtimeHandler,
	}, sessions, cfg.WebSocket.Path)

	if cfg.Storage.Provider == config.StorageProviderLocal {
		if err := serveLocalUploads(engine, cfg.Storage.Local); err != nil {
			return nil, nil, nil, err
		}
	}

	return engine, hub, websocket.NewRelay(hub, infra.broker, log), nil
}

// serveLocalUploads mounts the local storage directory under the path of its
// public base URL.
func serveLocalUploads(engine *gin.Engine, local *config.LocalStorageConfig) error {
	base, err := url.Parse(local.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid local storage url: %w", err)
	}

	mount := strings.TrimSuffix(base.Path, "/")
	if mount == "" {
		return fmt.Errorf("local storage url %q must include a path", local.BaseURL)
	}
	engine.Static(mount, local.BasePath)
	return nil
}
