package memory

import (
	"context"
	"fmt"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ratingRepository struct {
	store *Store
}

func NewRatingRepository(store *Store) interfaces.RatingRepository {
	return &ratingRepository{store: store}
}

func (r *ratingRepository) Create(ctx context.Context, rating *models.Rating) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.ratings {
		if existing.RideID == rating.RideID && existing.RaterID == rating.RaterID {
			return fmt.Errorf("failed to create rating: %w", interfaces.ErrDuplicate)
		}
	}

	rating.ID = primitive.NewObjectID()
	rating.CreatedAt = time.Now()
	r.store.ratings = append(r.store.ratings, *rating)
	return nil
}

func (r *ratingRepository) GetByRideAndRater(ctx context.Context, rideID, raterID primitive.ObjectID) (*models.Rating, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, rating := range r.store.ratings {
		if rating.RideID == rideID && rating.RaterID == raterID {
			rt := rating
			return &rt, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *ratingRepository) AverageForUser(ctx context.Context, ratedID primitive.ObjectID) (float64, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var sum, count int64
	for _, rating := range r.store.ratings {
		if rating.RatedID == ratedID {
			sum += int64(rating.Rating)
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}
