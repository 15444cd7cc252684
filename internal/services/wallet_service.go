package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/observability"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"
	"oustaa/pkg/logger"
	"oustaa/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WalletService interface {
	// SettleRide writes the ledger pair for a completed ride and refreshes
	// both balances. It is a no-op when the ride was already settled.
	SettleRide(ctx context.Context, ride *models.Ride) (*Settlement, error)
	RecomputeBalance(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error)
	GetWallet(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) (*models.Wallet, int64, error)
	TopUp(ctx context.Context, userID primitive.ObjectID, amount float64) (*models.TopUpIntent, error)
	HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error
}

type Settlement struct {
	RideID        primitive.ObjectID `json:"ride_id"`
	Amount        float64            `json:"amount"`
	RiderBalance  float64            `json:"rider_balance"`
	DriverBalance float64            `json:"driver_balance"`
	Skipped       bool               `json:"skipped"`

	Rider  *models.Profile `json:"-"`
	Driver *models.Profile `json:"-"`
}

type WalletOptions struct {
	DefaultSettlementAmount float64
	Retries                 int
	Currency                string
	MinTopUp                float64
	MaxTopUp                float64
}

type walletService struct {
	profileRepo     interfaces.ProfileRepository
	transactionRepo interfaces.TransactionRepository
	provider        payment.PaymentProvider
	notifier        Notifier
	opts            WalletOptions
	logger          *logger.Logger
	now             func() time.Time
}

func NewWalletService(
	profileRepo interfaces.ProfileRepository,
	transactionRepo interfaces.TransactionRepository,
	provider payment.PaymentProvider,
	notifier Notifier,
	opts WalletOptions,
	logger *logger.Logger,
) WalletService {
	if opts.DefaultSettlementAmount <= 0 {
		opts.DefaultSettlementAmount = 10
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	return &walletService{
		profileRepo:     profileRepo,
		transactionRepo: transactionRepo,
		provider:        provider,
		notifier:        notifier,
		opts:            opts,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *walletService) SettleRide(ctx context.Context, ride *models.Ride) (*Settlement, error) {
	if ride.DriverID == nil {
		return nil, fmt.Errorf("ride %s has no driver to settle with", ride.ID.Hex())
	}

	settled, err := s.transactionRepo.ExistsForRide(ctx, ride.ID, models.TransactionTypeRidePayment)
	if err != nil {
		return nil, fmt.Errorf("failed to check settlement: %w", err)
	}
	if settled {
		observability.SettlementsTotal.WithLabelValues("skipped").Inc()
		s.logger.WithRideID(ride.ID).Info("Ride already settled")
		return &Settlement{RideID: ride.ID, Skipped: true}, nil
	}

	amount := ride.SettlementAmount(s.opts.DefaultSettlementAmount)
	now := s.now().UTC()
	rideID := ride.ID

	entries := []*models.Transaction{
		{
			UserID:      ride.RiderID,
			RideID:      &rideID,
			Amount:      -amount,
			Type:        models.TransactionTypeRidePayment,
			Description: "Ride payment",
			CreatedAt:   now,
		},
		{
			UserID:      *ride.DriverID,
			RideID:      &rideID,
			Amount:      amount,
			Type:        models.TransactionTypeRideEarning,
			Description: "Ride earning",
			CreatedAt:   now,
		},
	}
	for _, entry := range entries {
		if err := s.transactionRepo.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to record %s: %w", entry.Type, err)
		}
	}

	rider, err := s.RecomputeBalance(ctx, ride.RiderID)
	if err != nil {
		return nil, err
	}
	driver, err := s.RecomputeBalance(ctx, *ride.DriverID)
	if err != nil {
		return nil, err
	}

	observability.SettlementsTotal.WithLabelValues("settled").Inc()
	s.logger.LogRideEvent(ride.ID, utils.EventRideSettled, map[string]interface{}{
		"amount":         amount,
		"rider_balance":  rider.WalletBalance,
		"driver_balance": driver.WalletBalance,
	})

	return &Settlement{
		RideID:        ride.ID,
		Amount:        amount,
		RiderBalance:  rider.WalletBalance,
		DriverBalance: driver.WalletBalance,
		Rider:         rider,
		Driver:        driver,
	}, nil
}

// RecomputeBalance sets the wallet balance to the ledger sum, rounded to cents.
func (s *walletService) RecomputeBalance(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	profile, err := updateDerived(ctx, s.profileRepo, userID, s.opts.Retries,
		func(ctx context.Context, _ *models.Profile) (interfaces.DerivedFields, bool, error) {
			sum, err := s.transactionRepo.SumByUser(ctx, userID)
			if err != nil {
				return interfaces.DerivedFields{}, false, fmt.Errorf("failed to sum ledger: %w", err)
			}
			balance := roundCents(sum)
			return interfaces.DerivedFields{WalletBalance: &balance}, true, nil
		})
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFoundError("profile")
		}
		return nil, err
	}
	return profile, nil
}

func (s *walletService) GetWallet(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) (*models.Wallet, int64, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, 0, utils.NotFoundError("profile")
		}
		return nil, 0, fmt.Errorf("failed to get profile: %w", err)
	}

	transactions, total, err := s.transactionRepo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &models.Wallet{
		UserID:       userID,
		Balance:      profile.WalletBalance,
		Currency:     s.opts.Currency,
		Transactions: transactions,
	}, total, nil
}

func (s *walletService) TopUp(ctx context.Context, userID primitive.ObjectID, amount float64) (*models.TopUpIntent, error) {
	if s.provider == nil {
		return nil, utils.UnavailableError("wallet top-ups are not enabled")
	}
	if amount < s.opts.MinTopUp || (s.opts.MaxTopUp > 0 && amount > s.opts.MaxTopUp) {
		return nil, utils.ValidationError("invalid top-up amount", map[string]string{
			"amount": fmt.Sprintf("must be between %.2f and %.2f", s.opts.MinTopUp, s.opts.MaxTopUp),
		})
	}

	intent, err := s.provider.CreateTopUpIntent(ctx, &payment.TopUpRequest{
		UserID:      userID.Hex(),
		Amount:      amount,
		Currency:    s.opts.Currency,
		Description: "Wallet top-up",
	})
	if err != nil {
		s.logger.WithUserID(userID).WithError(err).Error("Failed to create top-up intent")
		return nil, utils.UpstreamError("payment provider unavailable", err)
	}

	s.logger.LogPaymentEvent(userID, "topup_intent_created", amount, intent.IntentID)
	return &models.TopUpIntent{
		IntentID:     intent.IntentID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	}, nil
}

// HandlePaymentWebhook credits the wallet for a succeeded payment intent.
// Redelivered events are recognised by the intent id and ignored.
func (s *walletService) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.provider == nil {
		return utils.UnavailableError("wallet top-ups are not enabled")
	}

	event, err := s.provider.ValidateWebhook(ctx, payload, signature)
	if err != nil {
		return utils.ValidationError("invalid webhook", nil).Wrap(err)
	}
	if event.EventType != payment.EventPaymentSucceeded {
		return nil
	}

	userID, err := primitive.ObjectIDFromHex(event.UserID())
	if err != nil {
		return utils.ValidationError("webhook is missing a valid user_id", nil)
	}

	exists, err := s.transactionRepo.ExistsByReference(ctx, event.IntentID)
	if err != nil {
		return fmt.Errorf("failed to check top-up reference: %w", err)
	}
	if exists {
		return nil
	}

	err = s.transactionRepo.Create(ctx, &models.Transaction{
		UserID:      userID,
		Amount:      event.Amount,
		Type:        models.TransactionTypeWalletTopUp,
		Description: "Wallet top-up",
		Reference:   event.IntentID,
		CreatedAt:   s.now().UTC(),
	})
	if errors.Is(err, interfaces.ErrDuplicate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record top-up: %w", err)
	}

	profile, err := s.RecomputeBalance(ctx, userID)
	if err != nil {
		return err
	}

	s.logger.LogPaymentEvent(userID, "topup_credited", event.Amount, event.IntentID)
	s.notifier.UserEvent(ctx, userID, utils.EventWalletUpdated, map[string]float64{"balance": profile.WalletBalance})
	s.notifier.ProfileUpdated(ctx, profile)
	return nil
}
