package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"
	"oustaa/pkg/logger"
	"oustaa/pkg/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProfileService interface {
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, request *UpdateProfileRequest) (*models.Profile, error)
	UpdateLocation(ctx context.Context, userID primitive.ObjectID, position models.Coordinates) error
	SetAvailability(ctx context.Context, userID primitive.ObjectID, available bool) (*models.Profile, error)
	UploadAvatar(ctx context.Context, userID primitive.ObjectID, upload *AvatarUpload) (*models.Profile, error)
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	CarModel *string `json:"car_model" validate:"omitempty,max=64"`
	CarPlate *string `json:"car_plate" validate:"omitempty,max=32"`
}

type AvatarUpload struct {
	Reader   io.Reader
	Size     int64
	Filename string
}

type ProfileOptions struct {
	LocationUpdateInterval time.Duration
	MaxAvatarSize          int64
}

type profileService struct {
	profileRepo interfaces.ProfileRepository
	rideRepo    interfaces.RideRepository
	storage     storage.StorageProvider
	notifier    Notifier
	opts        ProfileOptions
	logger      *logger.Logger
	now         func() time.Time
}

func NewProfileService(
	profileRepo interfaces.ProfileRepository,
	rideRepo interfaces.RideRepository,
	storageProvider storage.StorageProvider,
	notifier Notifier,
	opts ProfileOptions,
	logger *logger.Logger,
) ProfileService {
	if opts.MaxAvatarSize <= 0 {
		opts.MaxAvatarSize = utils.MaxImageSize
	}
	return &profileService{
		profileRepo: profileRepo,
		rideRepo:    rideRepo,
		storage:     storageProvider,
		notifier:    notifier,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFoundError("profile")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, request *UpdateProfileRequest) (*models.Profile, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, utils.ValidationError(utils.ErrValidationFailed, utils.ValidationDetails(err))
	}

	current, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if request.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*request.FullName)
	}
	if request.Phone != nil {
		updates["phone"] = strings.TrimSpace(*request.Phone)
	}
	if request.CarModel != nil || request.CarPlate != nil {
		if !current.IsDriver() {
			return nil, utils.ValidationError("car details can only be set by drivers", nil)
		}
		if request.CarModel != nil {
			updates["car_model"] = strings.TrimSpace(*request.CarModel)
		}
		if request.CarPlate != nil {
			updates["car_plate"] = strings.TrimSpace(*request.CarPlate)
		}
	}
	if len(updates) == 0 {
		return current, nil
	}

	profile, err := s.profileRepo.Update(ctx, userID, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.notifier.ProfileUpdated(ctx, profile)
	return profile, nil
}

// UpdateLocation stores the caller's position. Pushes arriving faster than
// half the client interval are rejected so a misbehaving client cannot flood
// the event stream.
func (s *profileService) UpdateLocation(ctx context.Context, userID primitive.ObjectID, position models.Coordinates) error {
	if !position.IsValid() {
		return utils.ValidationError("invalid coordinates", map[string]string{"position": "must be a valid latitude and longitude"})
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	if minGap := s.opts.LocationUpdateInterval / 2; minGap > 0 && profile.LocationUpdatedAt != nil {
		if now.Sub(*profile.LocationUpdatedAt) < minGap {
			return utils.TooManyRequestsError("location updates are too frequent")
		}
	}

	if err := s.profileRepo.UpdateLocation(ctx, userID, position, now); err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}

	if !profile.IsDriver() {
		return nil
	}

	var activeRideID *primitive.ObjectID
	ride, err := s.rideRepo.FindActiveForUser(ctx, userID, models.UserTypeDriver)
	switch {
	case err == nil:
		activeRideID = &ride.ID
	case !errors.Is(err, interfaces.ErrNotFound):
		s.logger.WithUserID(userID).WithError(err).Warn("Failed to look up active ride for location update")
	}

	s.notifier.DriverLocation(ctx, &models.DriverLocation{
		DriverID:  userID.Hex(),
		Position:  position,
		Available: profile.Available,
		Timestamp: now,
	}, activeRideID)
	return nil
}

func (s *profileService) SetAvailability(ctx context.Context, userID primitive.ObjectID, available bool) (*models.Profile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.IsDriver() {
		return nil, utils.ForbiddenError("only drivers can change availability")
	}

	if err := s.profileRepo.SetAvailability(ctx, userID, available); err != nil {
		return nil, fmt.Errorf("failed to set availability: %w", err)
	}
	profile.Available = available

	s.logger.WithUserID(userID).WithField("available", available).Info("Driver availability changed")
	s.notifier.UserEvent(ctx, userID, utils.EventDriverAvailability, map[string]bool{"available": available})
	s.notifier.ProfileUpdated(ctx, profile)
	return profile, nil
}

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

func (s *profileService) UploadAvatar(ctx context.Context, userID primitive.ObjectID, upload *AvatarUpload) (*models.Profile, error) {
	if s.storage == nil {
		return nil, utils.UnavailableError("file storage is not configured")
	}
	if upload == nil || upload.Reader == nil {
		return nil, utils.ValidationError("avatar file is required", nil)
	}
	if upload.Size > s.opts.MaxAvatarSize {
		return nil, utils.ValidationError("avatar is too large", map[string]string{
			"avatar": fmt.Sprintf("must be at most %d bytes", s.opts.MaxAvatarSize),
		})
	}

	current, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFoundError("profile")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(upload.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	head = head[:n]

	contentType, err := utils.DetectImageContentType(head)
	if err != nil {
		return nil, utils.ValidationError("unsupported avatar format", map[string]string{"avatar": err.Error()})
	}

	key := fmt.Sprintf("avatars/%s/%s%s", userID.Hex(), uuid.NewString(), avatarExtensions[contentType])
	uploaded, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          key,
		Reader:       io.MultiReader(bytes.NewReader(head), upload.Reader),
		ContentType:  contentType,
		Size:         upload.Size,
		Metadata:     map[string]string{"user_id": userID.Hex()},
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return nil, utils.UpstreamError("failed to store avatar", err)
	}

	profile, err := s.profileRepo.Update(ctx, userID, map[string]interface{}{
		"avatar_url": uploaded.URL,
		"avatar_key": key,
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFoundError("profile")
		}
		return nil, fmt.Errorf("failed to save avatar url: %w", err)
	}

	if current.AvatarKey != "" {
		if err := s.storage.Delete(ctx, current.AvatarKey); err != nil {
			s.logger.WithUserID(userID).WithError(err).WithField("key", current.AvatarKey).Warn("Failed to delete previous avatar")
		}
	}

	s.logger.WithUserID(userID).WithField("key", key).Info("Avatar uploaded")
	s.notifier.ProfileUpdated(ctx, profile)
	return profile, nil
}
