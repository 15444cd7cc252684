package interfaces

import (
	"context"
	"time"

	"oustaa/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DerivedFields are overwritten only under a version guard.
type DerivedFields struct {
	WalletBalance *float64
	Rating        *float64
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Profile, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Profile, error)

	UpdateLocation(ctx context.Context, id primitive.ObjectID, position models.Coordinates, at time.Time) error
	SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error
	// ListAvailableDrivers returns available drivers with a known position.
	ListAvailableDrivers(ctx context.Context) ([]*models.Profile, error)

	UpdateDerived(ctx context.Context, id primitive.ObjectID, expectedVersion int64, fields DerivedFields) error
}
