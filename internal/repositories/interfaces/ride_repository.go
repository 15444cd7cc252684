package interfaces

import (
	"context"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)

	// AssignDriver moves a pending ride to accepted. It fails with
	// ErrStatusConflict when the ride is no longer pending.
	AssignDriver(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error
	// TransitionStatus applies change only if the ride is still in change.From.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, change models.RideStatusChange) error

	List(ctx context.Context, filter models.RideFilter, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	FindActiveForUser(ctx context.Context, userID primitive.ObjectID, userType models.UserType) (*models.Ride, error)
	ListPending(ctx context.Context, limit int) ([]*models.Ride, error)
}
