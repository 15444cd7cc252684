package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"oustaa/internal/middleware"
	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/repositories/memory"
	"oustaa/internal/services"
	"oustaa/internal/session"
	"oustaa/internal/utils"
	"oustaa/pkg/cache"
	"oustaa/pkg/events"
	"oustaa/pkg/logger"
	"oustaa/pkg/maps"
	"oustaa/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	tripoliPickup      = models.Coordinates{Latitude: 32.8872, Longitude: 13.1913}
	tripoliDestination = models.Coordinates{Latitude: 32.8900, Longitude: 13.2000}
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.RegisterGinValidators()
}

type apiEnv struct {
	router       *gin.Engine
	tokens       *utils.TokenIssuer
	profiles     interfaces.ProfileRepository
	rides        interfaces.RideRepository
	transactions interfaces.TransactionRepository
	wallet       services.WalletService
	profileSvc   services.ProfileService
	sessions     *session.Manager
	maps         *mockMapsProvider
}

type mockMapsProvider struct {
	mock.Mock
}

func (m *mockMapsProvider) SearchPlaces(ctx context.Context, request *maps.PlaceSearchRequest) ([]maps.Place, error) {
	args := m.Called(ctx, request)
	places, _ := args.Get(0).([]maps.Place)
	return places, args.Error(1)
}

func (m *mockMapsProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	args := m.Called(ctx, lat, lng)
	return args.String(0), args.Error(1)
}

func (m *mockMapsProvider) GetRoute(ctx context.Context, request *maps.RouteRequest) (*maps.Route, error) {
	args := m.Called(ctx, request)
	route, _ := args.Get(0).(*maps.Route)
	return route, args.Error(1)
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	log := logger.NewNop()
	store := memory.NewStore()

	env := &apiEnv{
		tokens:       utils.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour),
		profiles:     memory.NewProfileRepository(store),
		rides:        memory.NewRideRepository(store),
		transactions: memory.NewTransactionRepository(store),
		maps:         &mockMapsProvider{},
	}

	broker := cache.NewMemoryBroker()
	notifier := services.NewNotifier(broker, events.NoopPublisher{}, log)

	avatars, err := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	env.wallet = services.NewWalletService(env.profiles, env.transactions, nil, notifier, services.WalletOptions{
		DefaultSettlementAmount: 10,
		Retries:                 3,
		Currency:                "lyd",
	}, log)
	rideSvc := services.NewRideService(env.profiles, env.rides, memory.NewTransactor(store), env.wallet, notifier, services.RideOptions{
		Fare:           utils.DefaultFareSchedule,
		NearbyRadiusKM: 5,
	}, log)
	env.profileSvc = services.NewProfileService(env.profiles, env.rides, avatars, notifier, services.ProfileOptions{
		LocationUpdateInterval: time.Minute,
		MaxAvatarSize:          utils.MaxImageSize,
	}, log)
	authSvc := services.NewAuthService(env.profiles, env.tokens, services.AuthOptions{PasswordMinLength: 6, BcryptCost: 4}, log)
	ratingSvc := services.NewRatingService(memory.NewRatingRepository(store), env.rides, env.profiles, notifier, 3, log)
	chatSvc := services.NewChatService(memory.NewRideMessageRepository(store), env.rides, env.profiles, notifier, log)
	mapSvc := services.NewMapService(env.maps, nil, log)
	env.sessions = session.NewManager(env.tokens, env.profiles, broker, log)

	authHandler := NewAuthHandler(authSvc)
	profileHandler := NewProfileHandler(env.profileSvc)
	rideHandler := NewRideHandler(rideSvc, 5)
	walletHandler := NewWalletHandler(env.wallet)
	ratingHandler := NewRatingHandler(ratingSvc)
	chatHandler := NewChatHandler(chatSvc)
	mapHandler := NewMapHandler(mapSvc)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/auth/signup", authHandler.SignUp)
	v1.POST("/auth/signin", authHandler.SignIn)
	v1.POST("/auth/refresh", authHandler.Refresh)
	v1.POST("/rides/estimate", rideHandler.EstimateFare)
	v1.POST("/webhooks/stripe", walletHandler.PaymentWebhook)

	authed := v1.Group("")
	authed.Use(middleware.AuthRequired(env.sessions))
	authed.GET("/profile", profileHandler.GetProfile)
	authed.PATCH("/profile", profileHandler.UpdateProfile)
	authed.PUT("/profile/location", profileHandler.UpdateLocation)
	authed.POST("/profile/avatar", profileHandler.UploadAvatar)
	authed.PUT("/profile/availability", middleware.DriverRequired(), profileHandler.SetAvailability)
	authed.POST("/rides", middleware.RiderRequired(), rideHandler.CreateRide)
	authed.GET("/rides", rideHandler.ListRides)
	authed.GET("/rides/active", rideHandler.GetActiveRide)
	authed.GET("/rides/nearby-drivers", rideHandler.NearbyDrivers)
	authed.GET("/rides/pending", middleware.DriverRequired(), rideHandler.ListPendingRides)
	authed.GET("/rides/:id", rideHandler.GetRide)
	authed.POST("/rides/:id/accept", middleware.DriverRequired(), rideHandler.AcceptRide)
	authed.PUT("/rides/:id/status", rideHandler.UpdateRideStatus)
	authed.POST("/rides/:id/ratings", ratingHandler.RateRide)
	authed.GET("/rides/:id/messages", chatHandler.ListMessages)
	authed.POST("/rides/:id/messages", chatHandler.SendMessage)
	authed.GET("/wallet", walletHandler.GetWallet)
	authed.POST("/wallet/topup", walletHandler.TopUp)
	authed.GET("/maps/search", mapHandler.Search)
	authed.GET("/maps/reverse", mapHandler.ReverseGeocode)
	authed.POST("/maps/route", mapHandler.Route)

	env.router = r
	return env
}

// account creates a profile directly and returns it with an access token.
func (e *apiEnv) account(t *testing.T, email string, userType models.UserType) (*models.Profile, string) {
	t.Helper()
	profile := &models.Profile{Email: email, FullName: "User " + email, UserType: userType}
	require.NoError(t, e.profiles.Create(context.Background(), profile))

	pair, err := e.tokens.GenerateTokenPair(profile.ID, string(userType), email)
	require.NoError(t, err)
	return profile, pair.AccessToken
}

func (e *apiEnv) fund(t *testing.T, profile *models.Profile, amount float64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.transactions.Create(ctx, &models.Transaction{
		UserID:    profile.ID,
		Amount:    amount,
		Type:      models.TransactionTypeWalletTopUp,
		Reference: "seed-" + profile.ID.Hex(),
	}))
	_, err := e.wallet.RecomputeBalance(ctx, profile.ID)
	require.NoError(t, err)
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *utils.APIError `json:"error"`
	Meta   *utils.Meta     `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data interface{}) *envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	if data != nil && len(body.Data) > 0 {
		require.NoError(t, json.Unmarshal(body.Data, data))
	}
	return &body
}
