package memory

import (
	"context"
	"sort"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type rideRepository struct {
	store *Store
}

func NewRideRepository(store *Store) interfaces.RideRepository {
	return &rideRepository{store: store}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	ride.ID = primitive.NewObjectID()
	ride.CreatedAt = now
	ride.UpdatedAt = now
	r.store.rides[ride.ID] = *ride
	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ride, ok := r.store.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &ride, nil
}

func (r *rideRepository) AssignDriver(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ride, ok := r.store.rides[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if ride.Status != models.RideStatusPending {
		return interfaces.ErrStatusConflict
	}

	ride.DriverID = &driverID
	ride.Status = models.RideStatusAccepted
	ride.AcceptedAt = &at
	ride.UpdatedAt = at
	r.store.rides[id] = ride
	return nil
}

func (r *rideRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, change models.RideStatusChange) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ride, ok := r.store.rides[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if ride.Status != change.From {
		return interfaces.ErrStatusConflict
	}

	at := change.At
	ride.Status = change.To
	ride.UpdatedAt = at
	switch change.To {
	case models.RideStatusAccepted:
		ride.AcceptedAt = &at
	case models.RideStatusInProgress:
		ride.StartedAt = &at
	case models.RideStatusCompleted:
		ride.CompletedAt = &at
	case models.RideStatusCancelled:
		ride.CancelledAt = &at
		ride.CancelledBy = change.CancelledBy
	}
	r.store.rides[id] = ride
	return nil
}

func (r *rideRepository) matchingRides(match func(models.Ride) bool) []*models.Ride {
	rides := make([]*models.Ride, 0)
	for _, ride := range r.store.rides {
		if match(ride) {
			rd := ride
			rides = append(rides, &rd)
		}
	}
	return rides
}

func belongsTo(ride models.Ride, userID primitive.ObjectID, userType models.UserType) bool {
	if userType == models.UserTypeDriver {
		return ride.DriverID != nil && *ride.DriverID == userID
	}
	return ride.RiderID == userID
}

func (r *rideRepository) List(ctx context.Context, filter models.RideFilter, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rides := r.matchingRides(func(ride models.Ride) bool {
		if !belongsTo(ride, filter.UserID, filter.UserType) {
			return false
		}
		if len(filter.Statuses) == 0 {
			return true
		}
		for _, status := range filter.Statuses {
			if ride.Status == status {
				return true
			}
		}
		return false
	})

	sortByCreatedAt(rides, params != nil && params.Order == "asc")
	return paginate(rides, params), int64(len(rides)), nil
}

func (r *rideRepository) FindActiveForUser(ctx context.Context, userID primitive.ObjectID, userType models.UserType) (*models.Ride, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rides := r.matchingRides(func(ride models.Ride) bool {
		return belongsTo(ride, userID, userType) && ride.Status.IsActive()
	})
	if len(rides) == 0 {
		return nil, interfaces.ErrNotFound
	}

	sortByCreatedAt(rides, false)
	return rides[0], nil
}

func (r *rideRepository) ListPending(ctx context.Context, limit int) ([]*models.Ride, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rides := r.matchingRides(func(ride models.Ride) bool {
		return ride.Status == models.RideStatusPending
	})

	sortByCreatedAt(rides, true)
	if limit > 0 && len(rides) > limit {
		rides = rides[:limit]
	}
	return rides, nil
}

func sortByCreatedAt(rides []*models.Ride, ascending bool) {
	sort.SliceStable(rides, func(i, j int) bool {
		if rides[i].CreatedAt.Equal(rides[j].CreatedAt) {
			if ascending {
				return rides[i].ID.Hex() < rides[j].ID.Hex()
			}
			return rides[i].ID.Hex() > rides[j].ID.Hex()
		}
		if ascending {
			return rides[i].CreatedAt.Before(rides[j].CreatedAt)
		}
		return rides[i].CreatedAt.After(rides[j].CreatedAt)
	})
}

func paginate[T any](items []T, params *utils.PaginationParams) []T {
	if params == nil {
		return items
	}
	start := params.GetSkip()
	if start >= len(items) {
		return []T{}
	}
	end := start + params.GetLimit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
