package memory

import (
	"context"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type rideMessageRepository struct {
	store *Store
}

func NewRideMessageRepository(store *Store) interfaces.RideMessageRepository {
	return &rideMessageRepository{store: store}
}

func (r *rideMessageRepository) Create(ctx context.Context, message *models.RideMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()

	stored := *message
	stored.Sender = nil
	r.store.rideMessages = append(r.store.rideMessages, stored)
	return nil
}

// ListByRide relies on insertion order, which matches creation order.
func (r *rideMessageRepository) ListByRide(ctx context.Context, rideID primitive.ObjectID, limit int) ([]*models.RideMessage, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	messages := make([]*models.RideMessage, 0)
	for _, message := range r.store.rideMessages {
		if message.RideID != rideID {
			continue
		}
		m := message
		messages = append(messages, &m)
		if limit > 0 && len(messages) == limit {
			break
		}
	}
	return messages, nil
}
