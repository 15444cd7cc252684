package services

import (
	"context"
	"errors"
	"math"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultDerivedRetries = 3

// updateDerived re-reads the profile, computes the new derived fields and
// writes them under the profile version. A concurrent writer forces a fresh
// read; after retries attempts the conflict is reported to the caller.
func updateDerived(
	ctx context.Context,
	profiles interfaces.ProfileRepository,
	userID primitive.ObjectID,
	retries int,
	compute func(ctx context.Context, profile *models.Profile) (interfaces.DerivedFields, bool, error),
) (*models.Profile, error) {
	if retries <= 0 {
		retries = defaultDerivedRetries
	}

	for attempt := 0; attempt < retries; attempt++ {
		profile, err := profiles.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}

		fields, ok, err := compute(ctx, profile)
		if err != nil {
			return nil, err
		}
		if !ok {
			return profile, nil
		}

		err = profiles.UpdateDerived(ctx, userID, profile.Version, fields)
		if err == nil {
			if fields.WalletBalance != nil {
				profile.WalletBalance = *fields.WalletBalance
			}
			if fields.Rating != nil {
				profile.Rating = fields.Rating
			}
			profile.Version++
			return profile, nil
		}
		if !errors.Is(err, interfaces.ErrVersionConflict) {
			return nil, err
		}
	}

	return nil, utils.ConflictError(utils.CodeVersionConflict, utils.ErrVersionConflict).Wrap(interfaces.ErrVersionConflict)
}

func roundCents(value float64) float64 {
	return math.Round(value*100) / 100
}
