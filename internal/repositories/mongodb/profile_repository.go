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

type profileRepository struct {
	collection *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) interfaces.ProfileRepository {
	return &profileRepository{
		collection: db.Collection(database.CollectionProfiles),
	}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	now := time.Now()
	profile.ID = primitive.NewObjectID()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, profile)
	return translateError(err, "create profile")
}

func (r *profileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *profileRepository) findOne(ctx context.Context, filter bson.M) (*models.Profile, error) {
	var profile models.Profile
	if err := r.collection.FindOne(ctx, filter).Decode(&profile); err != nil {
		return nil, translateError(err, "get profile")
	}
	return &profile, nil
}

func (r *profileRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Profile, error) {
	result := make(map[primitive.ObjectID]*models.Profile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}

	profiles, err := decodeAll[models.Profile](ctx, cursor)
	if err != nil {
		return nil, err
	}

	for _, profile := range profiles {
		result[profile.ID] = profile
	}
	return result, nil
}

func (r *profileRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Profile, error) {
	set := bson.M{"updated_at": time.Now()}
	for k, v := range updates {
		set[k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var profile models.Profile
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&profile)
	if err != nil {
		return nil, translateError(err, "update profile")
	}
	return &profile, nil
}

func (r *profileRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, position models.Coordinates, at time.Time) error {
	return r.updateOne(ctx, id, bson.M{
		"latitude":            position.Latitude,
		"longitude":           position.Longitude,
		"location_updated_at": at,
	}, "update location")
}

func (r *profileRepository) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	return r.updateOne(ctx, id, bson.M{"available": available}, "update availability")
}

func (r *profileRepository) updateOne(ctx context.Context, id primitive.ObjectID, set bson.M, action string) error {
	set["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return translateError(err, action)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *profileRepository) ListAvailableDrivers(ctx context.Context) ([]*models.Profile, error) {
	filter := bson.M{
		"user_type": models.UserTypeDriver,
		"available": true,
		"latitude":  bson.M{"$ne": nil},
		"longitude": bson.M{"$ne": nil},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find available drivers: %w", err)
	}

	return decodeAll[models.Profile](ctx, cursor)
}

func (r *profileRepository) UpdateDerived(ctx context.Context, id primitive.ObjectID, expectedVersion int64, fields interfaces.DerivedFields) error {
	set := bson.M{"updated_at": time.Now()}
	if fields.WalletBalance != nil {
		set["wallet_balance"] = *fields.WalletBalance
	}
	if fields.Rating != nil {
		set["rating"] = *fields.Rating
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "version": expectedVersion},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return translateError(err, "update derived profile fields")
	}

	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("failed to check profile: %w", err)
		}
		if count == 0 {
			return interfaces.ErrNotFound
		}
		return interfaces.ErrVersionConflict
	}

	return nil
}
