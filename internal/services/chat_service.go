package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"
	"oustaa/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatService interface {
	SendMessage(ctx context.Context, senderID, rideID primitive.ObjectID, text string) (*models.RideMessage, error)
	ListMessages(ctx context.Context, userID, rideID primitive.ObjectID, limit int) ([]*models.RideMessage, error)
}

type chatService struct {
	messageRepo interfaces.RideMessageRepository
	rideRepo    interfaces.RideRepository
	profileRepo interfaces.ProfileRepository
	notifier    Notifier
	logger      *logger.Logger
	now         func() time.Time
}

func NewChatService(
	messageRepo interfaces.RideMessageRepository,
	rideRepo interfaces.RideRepository,
	profileRepo interfaces.ProfileRepository,
	notifier Notifier,
	logger *logger.Logger,
) ChatService {
	return &chatService{
		messageRepo: messageRepo,
		rideRepo:    rideRepo,
		profileRepo: profileRepo,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *chatService) SendMessage(ctx context.Context, senderID, rideID primitive.ObjectID, text string) (*models.RideMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.ValidationError("message cannot be empty", map[string]string{"message": "is required"})
	}
	if utf8.RuneCountInString(text) > utils.MaxMessageLength {
		return nil, utils.ValidationError("message is too long", map[string]string{
			"message": fmt.Sprintf("must be at most %d characters", utils.MaxMessageLength),
		})
	}

	if _, err := s.participantRide(ctx, senderID, rideID); err != nil {
		return nil, err
	}

	message := &models.RideMessage{
		RideID:    rideID,
		SenderID:  senderID,
		Message:   text,
		CreatedAt: s.now().UTC(),
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if sender, err := s.profileRepo.GetByID(ctx, senderID); err == nil {
		message.Sender = sender.Summary()
	} else {
		s.logger.WithUserID(senderID).WithError(err).Warn("Failed to load message sender")
	}

	s.notifier.RideMessage(ctx, message)
	return message, nil
}

func (s *chatService) ListMessages(ctx context.Context, userID, rideID primitive.ObjectID, limit int) ([]*models.RideMessage, error) {
	if _, err := s.participantRide(ctx, userID, rideID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByRide(ctx, rideID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, 2)
	seen := make(map[primitive.ObjectID]bool)
	for _, message := range messages {
		if !seen[message.SenderID] {
			seen[message.SenderID] = true
			ids = append(ids, message.SenderID)
		}
	}
	if len(ids) == 0 {
		return messages, nil
	}

	senders, err := s.profileRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load message senders: %w", err)
	}
	for _, message := range messages {
		message.Sender = senders[message.SenderID].Summary()
	}
	return messages, nil
}

func (s *chatService) participantRide(ctx context.Context, userID, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NotFoundError("ride")
		}
		return nil, fmt.Errorf("failed to get ride: %w", err)
	}
	if !ride.IsParticipant(userID) {
		return nil, utils.ForbiddenError("not a participant of this ride")
	}
	return ride, nil
}
