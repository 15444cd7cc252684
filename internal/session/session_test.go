package session

import (
	"context"
	"testing"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/memory"
	"oustaa/internal/utils"
	"oustaa/pkg/cache"
	"oustaa/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	manager *Manager
	tokens  *utils.TokenIssuer
	broker  *cache.MemoryBroker
	profile *models.Profile
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	profiles := memory.NewProfileRepository(memory.NewStore())
	profile := &models.Profile{Email: "rider@oustaa.ly", FullName: "Salma", UserType: models.UserTypeRider}
	require.NoError(t, profiles.Create(context.Background(), profile))

	tokens := utils.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	broker := cache.NewMemoryBroker()

	return &fixture{
		manager: NewManager(tokens, profiles, broker, logger.NewNop()),
		tokens:  tokens,
		broker:  broker,
		profile: profile,
	}
}

func (f *fixture) accessToken(t *testing.T, id primitive.ObjectID) string {
	t.Helper()
	pair, err := f.tokens.GenerateTokenPair(id, string(models.UserTypeRider), "rider@oustaa.ly")
	require.NoError(t, err)
	return pair.AccessToken
}

func TestOpenReady(t *testing.T) {
	f := newFixture(t)

	s, err := f.manager.Open(context.Background(), f.accessToken(t, f.profile.ID))
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, "Salma", s.Profile().FullName)
	assert.Equal(t, models.UserTypeRider, s.UserType())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, StateClosed, s.State())
}

func TestOpenRejectsBadToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Open(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, utils.UnauthorizedError(""))

	pair, err := f.tokens.GenerateTokenPair(f.profile.ID, "rider", "rider@oustaa.ly")
	require.NoError(t, err)
	_, err = f.manager.Open(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, utils.UnauthorizedError(""))
}

func TestOpenUnknownProfile(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Open(context.Background(), f.accessToken(t, primitive.NewObjectID()))
	assert.ErrorIs(t, err, utils.UnauthorizedError(""))
}

func TestWatchAppliesProfileUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.manager.Open(ctx, f.accessToken(t, f.profile.ID))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Watch(ctx))
	assert.ErrorIs(t, s.Watch(ctx), ErrAlreadyWatch)

	updated := *f.profile
	updated.WalletBalance = 13.5
	updated.Version = 1
	require.NoError(t, f.broker.Publish(ctx, utils.ChannelProfileUpdates+f.profile.ID.Hex(), &updated))

	require.Eventually(t, func() bool {
		return s.Profile().WalletBalance == 13.5
	}, time.Second, 10*time.Millisecond)

	stale := *f.profile
	stale.WalletBalance = 1
	stale.Version = 0
	require.NoError(t, f.broker.Publish(ctx, utils.ChannelProfileUpdates+f.profile.ID.Hex(), &stale))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 13.5, s.Profile().WalletBalance)
}

func TestWatchAfterClose(t *testing.T) {
	f := newFixture(t)

	s, err := f.manager.Open(context.Background(), f.accessToken(t, f.profile.ID))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Watch(context.Background()), ErrClosed)
}
