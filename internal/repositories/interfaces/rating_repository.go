package interfaces

import (
	"context"

	"oustaa/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RatingRepository interface {
	Create(ctx context.Context, rating *models.Rating) error
	GetByRideAndRater(ctx context.Context, rideID, raterID primitive.ObjectID) (*models.Rating, error)
	// AverageForUser returns the mean of all ratings received and their count.
	AverageForUser(ctx context.Context, ratedID primitive.ObjectID) (float64, int64, error)
}
