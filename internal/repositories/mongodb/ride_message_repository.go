package mongodb

import (
	"context"
	"fmt"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rideMessageRepository struct {
	collection *mongo.Collection
}

func NewRideMessageRepository(db *mongo.Database) interfaces.RideMessageRepository {
	return &rideMessageRepository{
		collection: db.Collection(database.CollectionRideMessages),
	}
}

func (r *rideMessageRepository) Create(ctx context.Context, message *models.RideMessage) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, message)
	return translateError(err, "create ride message")
}

func (r *rideMessageRepository) ListByRide(ctx context.Context, rideID primitive.ObjectID, limit int) ([]*models.RideMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{"ride_id": rideID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find ride messages: %w", err)
	}

	return decodeAll[models.RideMessage](ctx, cursor)
}
