package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/observability"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"
	"oustaa/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideService interface {
	EstimateFare(ctx context.Context, request *EstimateFareRequest) (*models.FareEstimate, error)
	CreateRide(ctx context.Context, riderID primitive.ObjectID, request *CreateRideRequest) (*models.Ride, error)
	NearbyDrivers(ctx context.Context, point models.Coordinates, radiusKM float64) ([]*models.NearbyDriver, error)
	AcceptRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error)
	UpdateRideStatus(ctx context.Context, userID, rideID primitive.ObjectID, status models.RideStatus) (*models.Ride, error)
	GetRideDetails(ctx context.Context, userID, rideID primitive.ObjectID) (*models.RideDetails, error)
	ListUserRides(ctx context.Context, userID primitive.ObjectID, statuses []models.RideStatus, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	GetActiveRide(ctx context.Context, userID primitive.ObjectID) (*models.Ride, error)
	ListPendingRides(ctx context.Context, driverID primitive.ObjectID, limit int) ([]*models.Ride, error)
}

type EstimateFareRequest struct {
	Pickup      models.Coordinates `json:"pickup" validate:"required"`
	Destination models.Coordinates `json:"destination" validate:"required"`
}

type CreateRideRequest struct {
	Pickup             models.Coordinates `json:"pickup" validate:"required"`
	Destination        models.Coordinates `json:"destination" validate:"required"`
	PickupAddress      string             `json:"pickup_address" validate:"max=255"`
	DestinationAddress string             `json:"destination_address" validate:"max=255"`
}

type RideOptions struct {
	Fare           utils.FareSchedule
	NearbyRadiusKM float64
}

type rideService struct {
	profileRepo interfaces.ProfileRepository
	rideRepo    interfaces.RideRepository
	transactor  interfaces.Transactor
	wallet      WalletService
	notifier    Notifier
	opts        RideOptions
	logger      *logger.Logger

	now      func() time.Time
	randIntn func(n int) int
}

var rideStatusEvents = map[models.RideStatus]string{
	models.RideStatusAccepted:   utils.EventRideAccepted,
	models.RideStatusInProgress: utils.EventRideStarted,
	models.RideStatusCompleted:  utils.EventRideCompleted,
	models.RideStatusCancelled:  utils.EventRideCancelled,
}

func NewRideService(
	profileRepo interfaces.ProfileRepository,
	rideRepo interfaces.RideRepository,
	transactor interfaces.Transactor,
	wallet WalletService,
	notifier Notifier,
	opts RideOptions,
	logger *logger.Logger,
) RideService {
	if opts.Fare == (utils.FareSchedule{}) {
		opts.Fare = utils.DefaultFareSchedule
	}
	if opts.NearbyRadiusKM <= 0 {
		opts.NearbyRadiusKM = 5
	}
	return &rideService{
		profileRepo: profileRepo,
		rideRepo:    rideRepo,
		transactor:  transactor,
		wallet:      wallet,
		notifier:    notifier,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
		randIntn:    rand.Intn,
	}
}

func validateTrip(pickup, destination models.Coordinates) error {
	details := make(map[string]string)
	if !pickup.IsValid() {
		details["pickup"] = "must be a valid latitude and longitude"
	}
	if !destination.IsValid() {
		details["destination"] = "must be a valid latitude and longitude"
	}
	if len(details) > 0 {
		return utils.ValidationError("invalid coordinates", details)
	}
	return nil
}

func (s *rideService) estimate(pickup, destination models.Coordinates) *models.FareEstimate {
	distance := utils.CalculateDistance(pickup.Latitude, pickup.Longitude, destination.Latitude, destination.Longitude)
	return &models.FareEstimate{
		DistanceKM:      distance,
		Price:           s.opts.Fare.Price(distance),
		DurationMinutes: s.opts.Fare.Duration(distance),
	}
}

func (s *rideService) EstimateFare(ctx context.Context, request *EstimateFareRequest) (*models.FareEstimate, error) {
	if err := validateTrip(request.Pickup, request.Destination); err != nil {
		return nil, err
	}
	return s.estimate(request.Pickup, request.Destination), nil
}

func (s *rideService) CreateRide(ctx context.Context, riderID primitive.ObjectID, request *CreateRideRequest) (*models.Ride, error) {
	if err := utils.ValidateStruct(request); err != nil {
		return nil, utils.ValidationError(utils.ErrValidationFailed, utils.ValidationDetails(err))
	}
	if err := validateTrip(request.Pickup, request.Destination); err != nil {
		return nil, err
	}

	rider, err := s.getProfile(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if !rider.IsRider() {
		return nil, utils.ForbiddenError("only riders can request rides")
	}

	fare := s.estimate(request.Pickup, request.Destination)
	if rider.WalletBalance < fare.Price {
		observability.RidesCreatedTotal.WithLabelValues("insufficient_balance").Inc()
		return nil, utils.InsufficientBalanceError()
	}

	drivers, err := s.NearbyDrivers(ctx, request.Pickup, s.opts.NearbyRadiusKM)
	if err != nil {
		return nil, err
	}
	observability.NearbyDrivers.Observe(float64(len(drivers)))

	now := s.now().UTC()
	price := fare.Price
	ride := &models.Ride{
		RiderID:            riderID,
		Pickup:             request.Pickup,
		Destination:        request.Destination,
		PickupAddress:      request.PickupAddress,
		DestinationAddress: request.DestinationAddress,
		DistanceKM:         fare.DistanceKM,
		DurationMinutes:    fare.DurationMinutes,
		Price:              &price,
		Status:             models.RideStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("failed to create ride: %w", err)
	}

	s.logger.LogRideEvent(ride.ID, utils.EventRideRequested, map[string]interface{}{
		"rider_id":       riderID.Hex(),
		"price":          price,
		"nearby_drivers": len(drivers),
	})
	s.notifier.RideEvent(ctx, ride, utils.EventRideRequested, nil)

	if len(drivers) == 0 {
		observability.RidesCreatedTotal.WithLabelValues("pending").Inc()
		return ride, nil
	}

	chosen := drivers[s.randIntn(len(drivers))].Profile
	if err := s.rideRepo.AssignDriver(ctx, ride.ID, chosen.ID, now); err != nil {
		if errors.Is(err, interfaces.ErrStatusConflict) {
			// A driver accepted between insert and assignment.
			observability.RidesCreatedTotal.WithLabelValues("pending").Inc()
			return s.getRide(ctx, ride.ID)
		}
		// The ride is stored; it stays pending for drivers to accept.
		s.logger.WithRideID(ride.ID).WithError(err).WithField("driver_id", chosen.ID.Hex()).Warn("Failed to assign driver")
		observability.RidesCreatedTotal.WithLabelValues("pending").Inc()
		return s.getRide(ctx, ride.ID)
	}

	ride.DriverID = &chosen.ID
	ride.Status = models.RideStatusAccepted
	ride.AcceptedAt = &now
	ride.UpdatedAt = now

	observability.RidesCreatedTotal.WithLabelValues("assigned").Inc()
	observability.RideTransitionsTotal.WithLabelValues(string(models.RideStatusAccepted)).Inc()
	s.logger.LogRideEvent(ride.ID, utils.EventRideAccepted, map[string]interface{}{"driver_id": chosen.ID.Hex()})
	s.notifier.RideEvent(ctx, ride, utils.EventRideAccepted, nil)
	return ride, nil
}

// NearbyDrivers returns available drivers within radiusKM of point, nearest
// first. A driver exactly on the radius is included.
func (s *rideService) NearbyDrivers(ctx context.Context, point models.Coordinates, radiusKM float64) ([]*models.NearbyDriver, error) {
	if radiusKM <= 0 {
		radiusKM = s.opts.NearbyRadiusKM
	}

	candidates, err := s.profileRepo.ListAvailableDrivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list available drivers: %w", err)
	}

	nearby := make([]*models.NearbyDriver, 0, len(candidates))
	for _, driver := range candidates {
		position, ok := driver.Position()
		if !ok {
			continue
		}
		distance := utils.CalculateDistance(point.Latitude, point.Longitude, position.Latitude, position.Longitude)
		if distance <= radiusKM {
			nearby = append(nearby, &models.NearbyDriver{Profile: driver, DistanceKM: distance})
		}
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKM < nearby[j].DistanceKM
	})
	return nearby, nil
}

func (s *rideService) AcceptRide(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error) {
	driver, err := s.getProfile(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !driver.IsDriver() {
		return nil, utils.ForbiddenError("only drivers can accept rides")
	}

	if err := s.rideRepo.AssignDriver(ctx, rideID, driverID, s.now().UTC()); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrNotFound):
			return nil, utils.NotFoundError("ride")
		case errors.Is(err, interfaces.ErrStatusConflict):
			return nil, utils.ConflictError(utils.CodeRideNotPending, utils.ErrRideNotPending)
		}
		return nil, fmt.Errorf("failed to accept ride: %w", err)
	}

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	observability.RideTransitionsTotal.WithLabelValues(string(models.RideStatusAccepted)).Inc()
	s.logger.LogRideEvent(rideID, utils.EventRideAccepted, map[string]interface{}{"driver_id": driverID.Hex()})
	s.notifier.RideEvent(ctx, ride, utils.EventRideAccepted, nil)
	return ride, nil
}

func (s *rideService) UpdateRideStatus(ctx context.Context, userID, rideID primitive.ObjectID, status models.RideStatus) (*models.Ride, error) {
	if !status.IsValid() {
		return nil, utils.ValidationError("invalid ride status", map[string]string{"status": "unknown status"})
	}
	if status == models.RideStatusAccepted {
		return s.AcceptRide(ctx, userID, rideID)
	}

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if !ride.Status.CanTransitionTo(status) {
		return nil, utils.ConflictError(utils.CodeInvalidTransition,
			fmt.Sprintf("cannot change ride status from %s to %s", ride.Status, status))
	}

	switch status {
	case models.RideStatusInProgress, models.RideStatusCompleted:
		if !ride.IsDriver(userID) {
			return nil, utils.ForbiddenError("only the assigned driver can update this ride")
		}
	case models.RideStatusCancelled:
		if !ride.IsParticipant(userID) {
			return nil, utils.ForbiddenError("only ride participants can cancel this ride")
		}
	}

	change := models.RideStatusChange{From: ride.Status, To: status, At: s.now().UTC()}
	if status == models.RideStatusCancelled {
		change.CancelledBy = &userID
	}

	var settlement *Settlement
	if status == models.RideStatusCompleted {
		err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			if err := s.rideRepo.TransitionStatus(txCtx, rideID, change); err != nil {
				return err
			}
			completed, err := s.rideRepo.GetByID(txCtx, rideID)
			if err != nil {
				return err
			}
			settlement, err = s.wallet.SettleRide(txCtx, completed)
			return err
		})
		if err != nil {
			observability.SettlementsTotal.WithLabelValues("failed").Inc()
		}
	} else {
		err = s.rideRepo.TransitionStatus(ctx, rideID, change)
	}
	if err != nil {
		if errors.Is(err, interfaces.ErrStatusConflict) {
			return nil, utils.ConflictError(utils.CodeInvalidTransition, "ride status changed concurrently")
		}
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("failed to update ride status: %w", err)
	}

	updated, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	eventType := rideStatusEvents[status]
	observability.RideTransitionsTotal.WithLabelValues(string(status)).Inc()
	s.logger.LogRideEvent(rideID, eventType, map[string]interface{}{
		"from":    change.From,
		"to":      status,
		"user_id": userID.Hex(),
	})
	s.notifier.RideEvent(ctx, updated, eventType, nil)

	if settlement != nil && !settlement.Skipped {
		s.notifier.UserEvent(ctx, updated.RiderID, utils.EventWalletUpdated, map[string]float64{"balance": settlement.RiderBalance})
		s.notifier.UserEvent(ctx, *updated.DriverID, utils.EventWalletUpdated, map[string]float64{"balance": settlement.DriverBalance})
		s.notifier.ProfileUpdated(ctx, settlement.Rider)
		s.notifier.ProfileUpdated(ctx, settlement.Driver)
	}
	return updated, nil
}

// GetRideDetails is visible to the ride participants and, while the ride is
// still pending, to any driver.
func (s *rideService) GetRideDetails(ctx context.Context, userID, rideID primitive.ObjectID) (*models.RideDetails, error) {
	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if !ride.IsParticipant(userID) {
		viewer, err := s.getProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !(viewer.IsDriver() && ride.Status == models.RideStatusPending) {
			return nil, utils.ForbiddenError("not a participant of this ride")
		}
	}

	ids := []primitive.ObjectID{ride.RiderID}
	if ride.DriverID != nil {
		ids = append(ids, *ride.DriverID)
	}
	profiles, err := s.profileRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load ride participants: %w", err)
	}

	details := &models.RideDetails{Ride: ride, Rider: profiles[ride.RiderID].Summary()}
	if ride.DriverID != nil {
		details.Driver = profiles[*ride.DriverID].Summary()
	}
	return details, nil
}

func (s *rideService) ListUserRides(ctx context.Context, userID primitive.ObjectID, statuses []models.RideStatus, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	for _, status := range statuses {
		if !status.IsValid() {
			return nil, 0, utils.ValidationError("invalid ride status", map[string]string{"status": string(status)})
		}
	}

	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = utils.DefaultPagination()
	}
	params.Normalize()

	rides, total, err := s.rideRepo.List(ctx, models.RideFilter{
		UserID:   userID,
		UserType: profile.UserType,
		Statuses: statuses,
	}, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}
	return rides, total, nil
}

// GetActiveRide returns nil when the user has no ride in progress.
func (s *rideService) GetActiveRide(ctx context.Context, userID primitive.ObjectID) (*models.Ride, error) {
	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.FindActiveForUser(ctx, userID, profile.UserType)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active ride: %w", err)
	}
	return ride, nil
}

func (s *rideService) ListPendingRides(ctx context.Context, driverID primitive.ObjectID, limit int) ([]*models.Ride, error) {
	driver, err := s.getProfile(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if !driver.IsDriver() {
		return nil, utils.ForbiddenError("only drivers can browse pending rides")
	}
	if limit <= 0 || limit > utils.MaxPageSize {
		limit = utils.DefaultPageSize
	}

	rides, err := s.rideRepo.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending rides: %w", err)
	}
	return rides, nil
}

func (s *rideService) getProfile(ctx context.Context, id primitive.ObjectID) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFoundError("profile")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *rideService) getRide(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFoundError("ride")
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	return ride, nil
}
