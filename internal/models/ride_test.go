package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRideStatusTransitions(t *testing.T) {
	tests := []struct {
		from RideStatus
		to   RideStatus
		want bool
	}{
		{RideStatusPending, RideStatusAccepted, true},
		{RideStatusPending, RideStatusCancelled, true},
		{RideStatusPending, RideStatusInProgress, false},
		{RideStatusPending, RideStatusCompleted, false},
		{RideStatusAccepted, RideStatusInProgress, true},
		{RideStatusAccepted, RideStatusCancelled, true},
		{RideStatusAccepted, RideStatusCompleted, false},
		{RideStatusInProgress, RideStatusCompleted, true},
		{RideStatusInProgress, RideStatusCancelled, true},
		{RideStatusInProgress, RideStatusPending, false},
		{RideStatusCompleted, RideStatusCancelled, false},
		{RideStatusCancelled, RideStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTerminalStatusesHaveNoSuccessors(t *testing.T) {
	for _, status := range []RideStatus{RideStatusCompleted, RideStatusCancelled} {
		assert.True(t, status.IsTerminal())
		assert.Empty(t, status.NextStatuses())
	}
	assert.ElementsMatch(t, []RideStatus{RideStatusAccepted, RideStatusCancelled}, RideStatusPending.NextStatuses())
	assert.False(t, RideStatus("arrived").IsValid())
}

func TestRideParticipants(t *testing.T) {
	rider := primitive.NewObjectID()
	driver := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	ride := &Ride{RiderID: rider}
	_, ok := ride.Counterpart(rider)
	assert.False(t, ok, "no counterpart before a driver is assigned")

	ride.DriverID = &driver
	assert.True(t, ride.IsParticipant(rider))
	assert.True(t, ride.IsParticipant(driver))
	assert.False(t, ride.IsParticipant(stranger))

	other, ok := ride.Counterpart(rider)
	require.True(t, ok)
	assert.Equal(t, driver, other)

	other, ok = ride.Counterpart(driver)
	require.True(t, ok)
	assert.Equal(t, rider, other)
}

func TestSettlementAmountFallback(t *testing.T) {
	ride := &Ride{}
	assert.Equal(t, 10.0, ride.SettlementAmount(10))

	price := 6.5
	ride.Price = &price
	assert.Equal(t, 6.5, ride.SettlementAmount(10))
}

func TestRideDetailsJSONFlattensRide(t *testing.T) {
	details := &RideDetails{
		Ride:  &Ride{ID: primitive.NewObjectID(), Status: RideStatusPending},
		Rider: &ProfileSummary{FullName: "Salem"},
	}

	raw, err := json.Marshal(details)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "pending", decoded["status"])
	assert.Equal(t, "Salem", decoded["rider"].(map[string]interface{})["full_name"])
	assert.Nil(t, decoded["driver"])
}
