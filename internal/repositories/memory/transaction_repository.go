package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type transactionRepository struct {
	store *Store
}

func NewTransactionRepository(store *Store) interfaces.TransactionRepository {
	return &transactionRepository{store: store}
}

func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.transactions {
		if transaction.RideID != nil && existing.RideID != nil &&
			*existing.RideID == *transaction.RideID &&
			existing.UserID == transaction.UserID &&
			existing.Type == transaction.Type {
			return fmt.Errorf("failed to create transaction: %w", interfaces.ErrDuplicate)
		}
		if transaction.Reference != "" && existing.Reference == transaction.Reference {
			return fmt.Errorf("failed to create transaction: %w", interfaces.ErrDuplicate)
		}
	}

	transaction.ID = primitive.NewObjectID()
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now()
	}
	r.store.transactions = append(r.store.transactions, *transaction)
	return nil
}

func (r *transactionRepository) SumByUser(ctx context.Context, userID primitive.ObjectID) (float64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var total float64
	for _, tx := range r.store.transactions {
		if tx.UserID == userID {
			total += tx.Amount
		}
	}
	return total, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Transaction, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	transactions := make([]*models.Transaction, 0)
	for _, tx := range r.store.transactions {
		if tx.UserID == userID {
			t := tx
			transactions = append(transactions, &t)
		}
	}

	ascending := params != nil && params.Order == "asc"
	sort.SliceStable(transactions, func(i, j int) bool {
		if ascending {
			return transactions[i].CreatedAt.Before(transactions[j].CreatedAt)
		}
		return transactions[i].CreatedAt.After(transactions[j].CreatedAt)
	})

	return paginate(transactions, params), int64(len(transactions)), nil
}

func (r *transactionRepository) ExistsForRide(ctx context.Context, rideID primitive.ObjectID, txType models.TransactionType) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, tx := range r.store.transactions {
		if tx.RideID != nil && *tx.RideID == rideID && tx.Type == txType {
			return true, nil
		}
	}
	return false, nil
}

func (r *transactionRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, tx := range r.store.transactions {
		if tx.Reference == reference {
			return true, nil
		}
	}
	return false, nil
}
