package interfaces

import (
	"context"

	"oustaa/internal/models"
	"oustaa/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	SumByUser(ctx context.Context, userID primitive.ObjectID) (float64, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error)
	ExistsForRide(ctx context.Context, rideID primitive.ObjectID, txType models.TransactionType) (bool, error)
	ExistsByReference(ctx context.Context, reference string) (bool, error)
}
