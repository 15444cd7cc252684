package interfaces

import (
	"context"

	"oustaa/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideMessageRepository interface {
	Create(ctx context.Context, message *models.RideMessage) error
	// ListByRide returns messages oldest first.
	ListByRide(ctx context.Context, rideID primitive.ObjectID, limit int) ([]*models.RideMessage, error)
}
