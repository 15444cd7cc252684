package mongodb

import (
	"context"
	"fmt"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"
	"oustaa/pkg/cache"
	"oustaa/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rideRepository struct {
	collection *mongo.Collection
	cache      cache.Cache
	cacheTTL   time.Duration
}

// NewRideRepository returns a ride repository. Active rides are cached when
// rideCache is non-nil.
func NewRideRepository(db *mongo.Database, rideCache cache.Cache, cacheTTL time.Duration) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection(database.CollectionRides),
		cache:      rideCache,
		cacheTTL:   cacheTTL,
	}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	now := time.Now()
	ride.ID = primitive.NewObjectID()
	ride.CreatedAt = now
	ride.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, ride); err != nil {
		return translateError(err, "create ride")
	}

	r.cacheRide(ctx, ride)
	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	if ride := r.getRideFromCache(ctx, id); ride != nil {
		return ride, nil
	}

	var ride models.Ride
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride); err != nil {
		return nil, translateError(err, "get ride")
	}

	r.cacheRide(ctx, &ride)
	return &ride, nil
}

func (r *rideRepository) AssignDriver(ctx context.Context, id, driverID primitive.ObjectID, at time.Time) error {
	filter := bson.M{"_id": id, "status": models.RideStatusPending}
	update := bson.M{"$set": bson.M{
		"driver_id":   driverID,
		"status":      models.RideStatusAccepted,
		"accepted_at": at,
		"updated_at":  at,
	}}

	return r.conditionalUpdate(ctx, id, filter, update, "assign driver")
}

func (r *rideRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, change models.RideStatusChange) error {
	set := bson.M{
		"status":     change.To,
		"updated_at": change.At,
	}

	switch change.To {
	case models.RideStatusAccepted:
		set["accepted_at"] = change.At
	case models.RideStatusInProgress:
		set["started_at"] = change.At
	case models.RideStatusCompleted:
		set["completed_at"] = change.At
	case models.RideStatusCancelled:
		set["cancelled_at"] = change.At
		if change.CancelledBy != nil {
			set["cancelled_by"] = *change.CancelledBy
		}
	}

	filter := bson.M{"_id": id, "status": change.From}
	return r.conditionalUpdate(ctx, id, filter, bson.M{"$set": set}, "update ride status")
}

func (r *rideRepository) conditionalUpdate(ctx context.Context, id primitive.ObjectID, filter, update bson.M, action string) error {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return translateError(err, action)
	}

	r.invalidateRideCache(ctx, id)

	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("failed to check ride: %w", err)
		}
		if count == 0 {
			return interfaces.ErrNotFound
		}
		return interfaces.ErrStatusConflict
	}

	return nil
}

func (r *rideRepository) List(ctx context.Context, filter models.RideFilter, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	query := bson.M{}
	if filter.UserType == models.UserTypeDriver {
		query["driver_id"] = filter.UserID
	} else {
		query["rider_id"] = filter.UserID
	}

	switch len(filter.Statuses) {
	case 0:
	case 1:
		query["status"] = filter.Statuses[0]
	default:
		query["status"] = bson.M{"$in": filter.Statuses}
	}

	return r.findRidesWithFilter(ctx, query, params)
}

func (r *rideRepository) FindActiveForUser(ctx context.Context, userID primitive.ObjectID, userType models.UserType) (*models.Ride, error) {
	query := bson.M{"status": bson.M{"$in": models.ActiveRideStatuses()}}
	if userType == models.UserTypeDriver {
		query["driver_id"] = userID
	} else {
		query["rider_id"] = userID
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var ride models.Ride
	if err := r.collection.FindOne(ctx, query, opts).Decode(&ride); err != nil {
		return nil, translateError(err, "get active ride")
	}
	return &ride, nil
}

func (r *rideRepository) ListPending(ctx context.Context, limit int) ([]*models.Ride, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"status": models.RideStatusPending}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find pending rides: %w", err)
	}

	return decodeAll[models.Ride](ctx, cursor)
}

func (r *rideRepository) findRidesWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find rides: %w", err)
	}

	rides, err := decodeAll[models.Ride](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return rides, total, nil
}

func rideCacheKey(id primitive.ObjectID) string {
	return utils.CacheRidePrefix + id.Hex()
}

func (r *rideRepository) cacheRide(ctx context.Context, ride *models.Ride) {
	if r.cache == nil || !ride.Status.IsActive() {
		return
	}
	// Writes inside a transaction are not visible until commit.
	if mongo.SessionFromContext(ctx) != nil {
		return
	}
	_ = r.cache.Set(ctx, rideCacheKey(ride.ID), ride, r.cacheTTL)
}

func (r *rideRepository) getRideFromCache(ctx context.Context, id primitive.ObjectID) *models.Ride {
	if r.cache == nil || mongo.SessionFromContext(ctx) != nil {
		return nil
	}

	var ride models.Ride
	if err := r.cache.Get(ctx, rideCacheKey(id), &ride); err != nil {
		return nil
	}

	return &ride
}

// invalidateRideCache drops the cached ride once the write is visible to
// other readers, so a read racing an open transaction cannot re-cache the
// old document.
func (r *rideRepository) invalidateRideCache(ctx context.Context, id primitive.ObjectID) {
	if r.cache == nil {
		return
	}
	interfaces.AfterCommit(ctx, func(ctx context.Context) {
		_ = r.cache.Delete(ctx, rideCacheKey(id))
	})
}
