package memory

import (
	"context"
	"fmt"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type profileRepository struct {
	store *Store
}

func NewProfileRepository(store *Store) interfaces.ProfileRepository {
	return &profileRepository{store: store}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.profiles {
		if existing.Email == profile.Email {
			return fmt.Errorf("failed to create profile: %w", interfaces.ErrDuplicate)
		}
	}

	now := time.Now()
	profile.ID = primitive.NewObjectID()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	r.store.profiles[profile.ID] = *profile
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	profile, ok := r.store.profiles[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return &profile, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, profile := range r.store.profiles {
		if profile.Email == email {
			p := profile
			return &p, nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *profileRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make(map[primitive.ObjectID]*models.Profile, len(ids))
	for _, id := range ids {
		if profile, ok := r.store.profiles[id]; ok {
			p := profile
			result[id] = &p
		}
	}
	return result, nil
}

func (r *profileRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Profile, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	profile, ok := r.store.profiles[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}

	for key, value := range updates {
		if err := applyProfileField(&profile, key, value); err != nil {
			return nil, err
		}
	}
	profile.UpdatedAt = time.Now()
	r.store.profiles[id] = profile
	return &profile, nil
}

func applyProfileField(profile *models.Profile, key string, value interface{}) error {
	str, ok := value.(string)
	if !ok {
		return fmt.Errorf("profile field %q must be a string", key)
	}

	switch key {
	case "full_name":
		profile.FullName = str
	case "phone":
		profile.Phone = str
	case "car_model":
		profile.CarModel = str
	case "car_plate":
		profile.CarPlate = str
	case "avatar_url":
		profile.AvatarURL = str
	case "avatar_key":
		profile.AvatarKey = str
	default:
		return fmt.Errorf("unsupported profile field %q", key)
	}
	return nil
}

func (r *profileRepository) UpdateLocation(ctx context.Context, id primitive.ObjectID, position models.Coordinates, at time.Time) error {
	return r.mutate(id, func(p *models.Profile) {
		lat, lng := position.Latitude, position.Longitude
		p.Latitude = &lat
		p.Longitude = &lng
		p.LocationUpdatedAt = &at
	})
}

func (r *profileRepository) SetAvailability(ctx context.Context, id primitive.ObjectID, available bool) error {
	return r.mutate(id, func(p *models.Profile) {
		p.Available = available
	})
}

func (r *profileRepository) mutate(id primitive.ObjectID, fn func(p *models.Profile)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	profile, ok := r.store.profiles[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	fn(&profile)
	profile.UpdatedAt = time.Now()
	r.store.profiles[id] = profile
	return nil
}

func (r *profileRepository) ListAvailableDrivers(ctx context.Context) ([]*models.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	drivers := make([]*models.Profile, 0)
	for _, profile := range r.store.profiles {
		if profile.UserType == models.UserTypeDriver && profile.Available && profile.HasLocation() {
			p := profile
			drivers = append(drivers, &p)
		}
	}
	return drivers, nil
}

func (r *profileRepository) UpdateDerived(ctx context.Context, id primitive.ObjectID, expectedVersion int64, fields interfaces.DerivedFields) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	profile, ok := r.store.profiles[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if profile.Version != expectedVersion {
		return interfaces.ErrVersionConflict
	}

	if fields.WalletBalance != nil {
		profile.WalletBalance = *fields.WalletBalance
	}
	if fields.Rating != nil {
		rating := *fields.Rating
		profile.Rating = &rating
	}
	profile.Version++
	profile.UpdatedAt = time.Now()
	r.store.profiles[id] = profile
	return nil
}
