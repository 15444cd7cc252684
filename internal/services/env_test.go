package services

import (
	"context"
	"testing"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/repositories/memory"
	"oustaa/pkg/cache"
	"oustaa/pkg/events"
	"oustaa/pkg/logger"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	tripoliPickup      = models.Coordinates{Latitude: 32.8872, Longitude: 13.1913}
	tripoliDestination = models.Coordinates{Latitude: 32.8900, Longitude: 13.2000}
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, stream events.Stream, event events.Event) error {
	args := m.Called(ctx, stream, event)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}

type testEnv struct {
	store         *memory.Store
	profiles      interfaces.ProfileRepository
	rides         interfaces.RideRepository
	transactions  interfaces.TransactionRepository
	ratings       interfaces.RatingRepository
	messages      interfaces.RideMessageRepository
	conversations interfaces.ConversationRepository
	transactor    interfaces.Transactor
	broker        *cache.MemoryBroker
	notifier      Notifier
	log           *logger.Logger

	wallet     WalletService
	rideSvc    RideService
	ratingSvc  RatingService
	chatSvc    ChatService
	profileSvc ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	env := &testEnv{
		store:         store,
		profiles:      memory.NewProfileRepository(store),
		rides:         memory.NewRideRepository(store),
		transactions:  memory.NewTransactionRepository(store),
		ratings:       memory.NewRatingRepository(store),
		messages:      memory.NewRideMessageRepository(store),
		conversations: memory.NewConversationRepository(store),
		transactor:    memory.NewTransactor(store),
		broker:        cache.NewMemoryBroker(),
		log:           logger.NewNop(),
	}
	env.notifier = NewNotifier(env.broker, events.NoopPublisher{}, env.log)

	env.wallet = NewWalletService(env.profiles, env.transactions, nil, env.notifier, WalletOptions{
		DefaultSettlementAmount: 10,
		Retries:                 3,
		Currency:                "lyd",
	}, env.log)
	env.rideSvc = NewRideService(env.profiles, env.rides, env.transactor, env.wallet, env.notifier, RideOptions{
		NearbyRadiusKM: 5,
	}, env.log)
	env.ratingSvc = NewRatingService(env.ratings, env.rides, env.profiles, env.notifier, 3, env.log)
	env.chatSvc = NewChatService(env.messages, env.rides, env.profiles, env.notifier, env.log)
	env.profileSvc = NewProfileService(env.profiles, env.rides, nil, env.notifier, ProfileOptions{
		LocationUpdateInterval: time.Minute,
	}, env.log)
	return env
}

func (e *testEnv) rider(t *testing.T, email string, balance float64) *models.Profile {
	t.Helper()
	profile := &models.Profile{Email: email, FullName: "Rider " + email, UserType: models.UserTypeRider}
	require.NoError(t, e.profiles.Create(context.Background(), profile))
	if balance != 0 {
		e.fund(t, profile, balance)
	}
	return profile
}

func (e *testEnv) driver(t *testing.T, email string, position *models.Coordinates) *models.Profile {
	t.Helper()
	ctx := context.Background()
	profile := &models.Profile{
		Email:    email,
		FullName: "Driver " + email,
		UserType: models.UserTypeDriver,
		CarModel: "Hyundai Elantra",
		CarPlate: "5-123456",
	}
	require.NoError(t, e.profiles.Create(ctx, profile))
	if position != nil {
		require.NoError(t, e.profiles.UpdateLocation(ctx, profile.ID, *position, time.Now()))
		require.NoError(t, e.profiles.SetAvailability(ctx, profile.ID, true))
	}
	return profile
}

// fund seeds the ledger with a top-up and refreshes the balance from it.
func (e *testEnv) fund(t *testing.T, profile *models.Profile, amount float64) {
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

func (e *testEnv) reload(t *testing.T, profile *models.Profile) *models.Profile {
	t.Helper()
	fresh, err := e.profiles.GetByID(context.Background(), profile.ID)
	require.NoError(t, err)
	return fresh
}

// completedRide drives a ride for rider with driver through to completion.
func (e *testEnv) completedRide(t *testing.T, rider, driver *models.Profile) *models.Ride {
	t.Helper()
	ctx := context.Background()

	ride, err := e.rideSvc.CreateRide(ctx, rider.ID, &CreateRideRequest{Pickup: tripoliPickup, Destination: tripoliDestination})
	require.NoError(t, err)
	if ride.Status == models.RideStatusPending {
		_, err = e.rideSvc.AcceptRide(ctx, driver.ID, ride.ID)
		require.NoError(t, err)
	}
	_, err = e.rideSvc.UpdateRideStatus(ctx, driver.ID, ride.ID, models.RideStatusInProgress)
	require.NoError(t, err)
	ride, err = e.rideSvc.UpdateRideStatus(ctx, driver.ID, ride.ID, models.RideStatusCompleted)
	require.NoError(t, err)
	return ride
}
