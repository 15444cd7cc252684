package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"
	"oustaa/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RatingService interface {
	RateRide(ctx context.Context, raterID, rideID primitive.ObjectID, request *RateRideRequest) (*models.Rating, error)
	RecomputeRating(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
}

type RateRideRequest struct {
	RatedID *primitive.ObjectID `json:"rated_id"`
	Rating  int                 `json:"rating" validate:"required,min=1,max=5"`
	Comment string              `json:"comment" validate:"max=500"`
}

type ratingService struct {
	ratingRepo  interfaces.RatingRepository
	rideRepo    interfaces.RideRepository
	profileRepo interfaces.ProfileRepository
	notifier    Notifier
	retries     int
	logger      *logger.Logger
	now         func() time.Time
}

func NewRatingService(
	ratingRepo interfaces.RatingRepository,
	rideRepo interfaces.RideRepository,
	profileRepo interfaces.ProfileRepository,
	notifier Notifier,
	retries int,
	logger *logger.Logger,
) RatingService {
	return &ratingService{
		ratingRepo:  ratingRepo,
		rideRepo:    rideRepo,
		profileRepo: profileRepo,
		notifier:    notifier,
		retries:     retries,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *ratingService) RateRide(ctx context.Context, raterID, rideID primitive.ObjectID, request *RateRideRequest) (*models.Rating, error) {
	if request.Rating < models.MinRating || request.Rating > models.MaxRating {
		return nil, utils.ValidationError(utils.ErrValidationFailed, map[string]string{"rating": "must be between 1 and 5"})
	}
	if err := utils.ValidateStruct(request); err != nil {
		return nil, utils.ValidationError(utils.ErrValidationFailed, utils.ValidationDetails(err))
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFoundError("ride")
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	if !ride.IsParticipant(raterID) {
		return nil, utils.ForbiddenError("only ride participants can rate this ride")
	}
	if ride.Status != models.RideStatusCompleted {
		return nil, utils.ValidationError("only completed rides can be rated", nil)
	}

	counterpart, ok := ride.Counterpart(raterID)
	if !ok {
		return nil, utils.ValidationError("ride has no one to rate", nil)
	}
	if request.RatedID != nil && *request.RatedID != counterpart {
		return nil, utils.ValidationError("rated user must be the other ride participant", map[string]string{
			"rated_id": "must be the other ride participant",
		})
	}

	rating := &models.Rating{
		RideID:    rideID,
		RaterID:   raterID,
		RatedID:   counterpart,
		Rating:    request.Rating,
		Comment:   strings.TrimSpace(request.Comment),
		CreatedAt: s.now().UTC(),
	}
	if err := s.ratingRepo.Create(ctx, rating); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, utils.ConflictError(utils.CodeAlreadyRated, "ride already rated")
		}
		return nil, fmt.Errorf("failed to create rating: %w", err)
	}

	profile, err := s.RecomputeRating(ctx, counterpart)
	if err != nil {
		// The rating is stored; the average catches up on the next recompute.
		s.logger.WithUserID(counterpart).WithError(err).Error("Failed to recompute rating")
	} else {
		s.notifier.ProfileUpdated(ctx, profile)
	}

	s.logger.LogRideEvent(rideID, utils.EventRatingSubmitted, map[string]interface{}{
		"rater_id": raterID.Hex(),
		"rated_id": counterpart.Hex(),
		"rating":   request.Rating,
	})
	s.notifier.UserEvent(ctx, counterpart, utils.EventRatingSubmitted, rating)
	return rating, nil
}

// RecomputeRating sets the profile rating to the mean of received ratings.
// Profiles with no ratings keep a nil rating.
func (s *ratingService) RecomputeRating(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	profile, err := updateDerived(ctx, s.profileRepo, userID, s.retries,
		func(ctx context.Context, _ *models.Profile) (interfaces.DerivedFields, bool, error) {
			average, count, err := s.ratingRepo.AverageForUser(ctx, userID)
			if err != nil {
				return interfaces.DerivedFields{}, false, fmt.Errorf("failed to average ratings: %w", err)
			}
			if count == 0 {
				return interfaces.DerivedFields{}, false, nil
			}
			return interfaces.DerivedFields{Rating: &average}, true, nil
		})
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFoundError("profile")
		}
		return nil, err
	}
	return profile, nil
}
