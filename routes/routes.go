package routes

import (
	"oustaa/internal/handlers"
	"oustaa/internal/middleware"
	"oustaa/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Profile   *handlers.ProfileHandler
	Ride      *handlers.RideHandler
	Wallet    *handlers.WalletHandler
	Rating    *handlers.RatingHandler
	Chat      *handlers.ChatHandler
	Assistant *handlers.AssistantHandler
	Map       *handlers.MapHandler
	Health    *handlers.HealthHandler
	Realtime  *handlers.RealtimeHandler
}

// Setup mounts every route on engine. Global middleware is installed by the
// caller.
func Setup(engine *gin.Engine, h *Handlers, sessions *session.Manager, wsPath string) {
	if wsPath == "" {
		wsPath = "/ws"
	}

	engine.GET("/health", h.Health.Live)
	engine.GET("/ready", h.Health.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET(wsPath, h.Realtime.Connect)

	v1 := engine.Group("/api/v1")
	auth := middleware.AuthRequired(sessions)

	SetupAuthRoutes(v1, h.Auth)
	SetupWebhookRoutes(v1, h.Wallet)
	SetupProfileRoutes(v1, h.Profile, auth)
	SetupRideRoutes(v1, h, auth)
	SetupWalletRoutes(v1, h.Wallet, auth)
	SetupAssistantRoutes(v1, h.Assistant, auth)
	SetupMapRoutes(v1, h.Map, auth)
}

func SetupAuthRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.SignUp)
		authRoutes.POST("/signin", authHandler.SignIn)
		authRoutes.POST("/refresh", authHandler.Refresh)
	}
}

// SetupWebhookRoutes registers provider callbacks. They are authenticated by
// signature, not by bearer token.
func SetupWebhookRoutes(r *gin.RouterGroup, walletHandler *handlers.WalletHandler) {
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/stripe", walletHandler.PaymentWebhook)
	}
}

func SetupProfileRoutes(r *gin.RouterGroup, profileHandler *handlers.ProfileHandler, auth gin.HandlerFunc) {
	profile := r.Group("/profile")
	profile.Use(auth)
	{
		profile.GET("", profileHandler.GetProfile)
		profile.PATCH("", profileHandler.UpdateProfile)
		profile.PUT("/location", profileHandler.UpdateLocation)
		profile.POST("/avatar", profileHandler.UploadAvatar)
		profile.PUT("/availability", middleware.DriverRequired(), profileHandler.SetAvailability)
	}
}

func SetupRideRoutes(r *gin.RouterGroup, h *Handlers, auth gin.HandlerFunc) {
	r.POST("/rides/estimate", h.Ride.EstimateFare)

	rides := r.Group("/rides")
	rides.Use(auth)
	{
		rides.POST("", middleware.RiderRequired(), h.Ride.CreateRide)
		rides.GET("", h.Ride.ListRides)
		rides.GET("/active", h.Ride.GetActiveRide)
		rides.GET("/nearby-drivers", h.Ride.NearbyDrivers)
		rides.GET("/pending", middleware.DriverRequired(), h.Ride.ListPendingRides)

		rides.GET("/:id", h.Ride.GetRide)
		rides.POST("/:id/accept", middleware.DriverRequired(), h.Ride.AcceptRide)
		rides.PUT("/:id/status", h.Ride.UpdateRideStatus)

		rides.POST("/:id/ratings", h.Rating.RateRide)

		rides.GET("/:id/messages", h.Chat.ListMessages)
		rides.POST("/:id/messages", h.Chat.SendMessage)
	}
}

func SetupWalletRoutes(r *gin.RouterGroup, walletHandler *handlers.WalletHandler, auth gin.HandlerFunc) {
	wallet := r.Group("/wallet")
	wallet.Use(auth)
	{
		wallet.GET("", walletHandler.GetWallet)
		wallet.POST("/topup", walletHandler.TopUp)
	}
}

func SetupAssistantRoutes(r *gin.RouterGroup, assistantHandler *handlers.AssistantHandler, auth gin.HandlerFunc) {
	assistant := r.Group("/assistant")
	assistant.Use(auth)
	{
		assistant.POST("/ask", assistantHandler.Ask)
		assistant.GET("/models", assistantHandler.Models)
		assistant.POST("/clear", assistantHandler.Clear)
	}
}

func SetupMapRoutes(r *gin.RouterGroup, mapHandler *handlers.MapHandler, auth gin.HandlerFunc) {
	maps := r.Group("/maps")
	maps.Use(auth)
	{
		maps.GET("/search", mapHandler.Search)
		maps.GET("/reverse", mapHandler.ReverseGeocode)
		maps.POST("/route", mapHandler.Route)
	}
}
