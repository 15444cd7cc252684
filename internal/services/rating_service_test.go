package services

import (
	"context"
	"testing"

	"oustaa/internal/models"
	"oustaa/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRateRide_AveragesReceivedRatings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	driver := env.driver(t, "driver@oustaa.ly", nil)
	first := env.rider(t, "first@oustaa.ly", 20)
	second := env.rider(t, "second@oustaa.ly", 20)

	rideA := env.completedRide(t, first, driver)
	rideB := env.completedRide(t, second, driver)

	rating, err := env.ratingSvc.RateRide(ctx, first.ID, rideA.ID, &RateRideRequest{Rating: 5, Comment: "  smooth  "})
	require.NoError(t, err)
	assert.Equal(t, driver.ID, rating.RatedID)
	assert.Equal(t, "smooth", rating.Comment)

	_, err = env.ratingSvc.RateRide(ctx, second.ID, rideB.ID, &RateRideRequest{RatedID: &driver.ID, Rating: 4})
	require.NoError(t, err)

	stored := env.reload(t, driver)
	require.NotNil(t, stored.Rating)
	assert.Equal(t, 4.5, *stored.Rating)

	// The driver rates back; the rider's own rating is independent.
	_, err = env.ratingSvc.RateRide(ctx, driver.ID, rideA.ID, &RateRideRequest{Rating: 3})
	require.NoError(t, err)
	require.NotNil(t, env.reload(t, first).Rating)
	assert.Equal(t, 3.0, *env.reload(t, first).Rating)
	assert.Equal(t, 4.5, *env.reload(t, driver).Rating)
}

func TestRateRide_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	driver := env.driver(t, "driver@oustaa.ly", nil)
	rider := env.rider(t, "rider@oustaa.ly", 20)
	stranger := env.rider(t, "stranger@oustaa.ly", 0)
	ride := env.completedRide(t, rider, driver)

	_, err := env.ratingSvc.RateRide(ctx, rider.ID, ride.ID, &RateRideRequest{Rating: 6})
	assert.ErrorIs(t, err, utils.ValidationError("", nil))

	_, err = env.ratingSvc.RateRide(ctx, rider.ID, ride.ID, &RateRideRequest{Rating: 0})
	assert.ErrorIs(t, err, utils.ValidationError("", nil))

	_, err = env.ratingSvc.RateRide(ctx, stranger.ID, ride.ID, &RateRideRequest{Rating: 5})
	assert.ErrorIs(t, err, utils.ForbiddenError(""))

	_, err = env.ratingSvc.RateRide(ctx, rider.ID, ride.ID, &RateRideRequest{RatedID: &rider.ID, Rating: 5})
	assert.ErrorIs(t, err, utils.ValidationError("", nil))

	_, err = env.ratingSvc.RateRide(ctx, rider.ID, primitive.NewObjectID(), &RateRideRequest{Rating: 5})
	assert.ErrorIs(t, err, utils.NotFoundError(""))

	_, err = env.ratingSvc.RateRide(ctx, rider.ID, ride.ID, &RateRideRequest{Rating: 5})
	require.NoError(t, err)
	_, err = env.ratingSvc.RateRide(ctx, rider.ID, ride.ID, &RateRideRequest{Rating: 1})
	assert.ErrorIs(t, err, utils.ConflictError(utils.CodeAlreadyRated, ""))
	assert.Equal(t, 5.0, *env.reload(t, driver).Rating)

	open, err := env.rideSvc.CreateRide(ctx, rider.ID, &CreateRideRequest{Pickup: tripoliPickup, Destination: tripoliDestination})
	require.NoError(t, err)
	_, err = env.rideSvc.AcceptRide(ctx, driver.ID, open.ID)
	require.NoError(t, err)
	_, err = env.ratingSvc.RateRide(ctx, rider.ID, open.ID, &RateRideRequest{Rating: 5})
	assert.ErrorIs(t, err, utils.ValidationError("", nil))
}

func TestRecomputeRating_SkipsWithoutRatings(t *testing.T) {
	env := newTestEnv(t)
	driver := env.driver(t, "driver@oustaa.ly", nil)

	profile, err := env.ratingSvc.RecomputeRating(context.Background(), driver.ID)
	require.NoError(t, err)
	assert.Nil(t, profile.Rating)
	assert.Equal(t, driver.Version, env.reload(t, driver).Version)
	assert.Equal(t, models.UserTypeDriver, profile.UserType)
}
