package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideStatus string

const (
	RideStatusPending    RideStatus = "pending"
	RideStatusAccepted   RideStatus = "accepted"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
)

var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusPending:    {RideStatusAccepted, RideStatusCancelled},
	RideStatusAccepted:   {RideStatusInProgress, RideStatusCancelled},
	RideStatusInProgress: {RideStatusCompleted, RideStatusCancelled},
	RideStatusCompleted:  {},
	RideStatusCancelled:  {},
}

func (s RideStatus) IsValid() bool {
	_, ok := rideTransitions[s]
	return ok
}

func (s RideStatus) IsTerminal() bool {
	return s == RideStatusCompleted || s == RideStatusCancelled
}

func (s RideStatus) IsActive() bool {
	return s.IsValid() && !s.IsTerminal()
}

func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	for _, allowed := range rideTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s in one step.
func (s RideStatus) NextStatuses() []RideStatus {
	next := rideTransitions[s]
	out := make([]RideStatus, len(next))
	copy(out, next)
	return out
}

func ActiveRideStatuses() []RideStatus {
	return []RideStatus{RideStatusPending, RideStatusAccepted, RideStatusInProgress}
}

type Ride struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	RiderID            primitive.ObjectID  `json:"rider_id" bson:"rider_id"`
	DriverID           *primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	Pickup             Coordinates         `json:"pickup" bson:"pickup"`
	Destination        Coordinates         `json:"destination" bson:"destination"`
	PickupAddress      string              `json:"pickup_address" bson:"pickup_address"`
	DestinationAddress string              `json:"destination_address" bson:"destination_address"`
	DistanceKM         float64             `json:"distance_km" bson:"distance_km"`
	DurationMinutes    int                 `json:"duration_minutes" bson:"duration_minutes"`
	Price              *float64            `json:"price" bson:"price"`
	Status             RideStatus          `json:"status" bson:"status"`
	AcceptedAt         *time.Time          `json:"accepted_at,omitempty" bson:"accepted_at,omitempty"`
	StartedAt          *time.Time          `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CancelledAt        *time.Time          `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancelledBy        *primitive.ObjectID `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
	CreatedAt          time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" bson:"updated_at"`
}

func (r *Ride) IsRider(userID primitive.ObjectID) bool {
	return r.RiderID == userID
}

func (r *Ride) IsDriver(userID primitive.ObjectID) bool {
	return r.DriverID != nil && *r.DriverID == userID
}

func (r *Ride) IsParticipant(userID primitive.ObjectID) bool {
	return r.IsRider(userID) || r.IsDriver(userID)
}

// Counterpart returns the other participant of the ride for userID.
func (r *Ride) Counterpart(userID primitive.ObjectID) (primitive.ObjectID, bool) {
	switch {
	case r.IsRider(userID) && r.DriverID != nil:
		return *r.DriverID, true
	case r.IsDriver(userID):
		return r.RiderID, true
	}
	return primitive.NilObjectID, false
}

// SettlementAmount is the ride price, or fallback when no price was recorded.
func (r *Ride) SettlementAmount(fallback float64) float64 {
	if r.Price == nil {
		return fallback
	}
	return *r.Price
}

// RideStatusChange describes the fields written by a status transition.
type RideStatusChange struct {
	From        RideStatus
	To          RideStatus
	At          time.Time
	CancelledBy *primitive.ObjectID
}

type RideDetails struct {
	*Ride
	Rider  *ProfileSummary `json:"rider"`
	Driver *ProfileSummary `json:"driver"`
}

type FareEstimate struct {
	DistanceKM      float64 `json:"distance_km"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
}

type RideFilter struct {
	UserID   primitive.ObjectID
	UserType UserType
	Statuses []RideStatus
}
