package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"oustaa/internal/models"
	"oustaa/internal/observability"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"
	"oustaa/pkg/llm"
	"oustaa/pkg/logger"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssistantService interface {
	Ask(ctx context.Context, userID primitive.ObjectID, request *AskRequest) (*AskResponse, error)
	Models() *ModelList
	Clear(ctx context.Context, userID primitive.ObjectID, conversationID string) error
}

type AskRequest struct {
	Text           string `json:"text" validate:"required"`
	Model          string `json:"model"`
	ConversationID string `json:"conversation_id"`
}

type AskResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	Model          string `json:"model"`
}

type ModelList struct {
	Default string   `json:"default"`
	Models  []string `json:"models"`
}

type AssistantOptions struct {
	DefaultModel   string
	Models         []string
	HistoryLimit   int
	SystemPrompt   string
	RequestTimeout time.Duration
}

type assistantService struct {
	provider      llm.Provider
	conversations interfaces.ConversationRepository
	opts          AssistantOptions
	logger        *logger.Logger
	newID         func() string
}

func NewAssistantService(
	provider llm.Provider,
	conversations interfaces.ConversationRepository,
	opts AssistantOptions,
	logger *logger.Logger,
) AssistantService {
	if opts.DefaultModel == "" {
		opts.DefaultModel = "gpt-4"
	}
	if !utils.Contains(opts.Models, opts.DefaultModel) {
		opts.Models = append([]string{opts.DefaultModel}, opts.Models...)
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	return &assistantService{
		provider:      provider,
		conversations: conversations,
		opts:          opts,
		logger:        logger,
		newID:         uuid.NewString,
	}
}

func (s *assistantService) Models() *ModelList {
	models := make([]string, len(s.opts.Models))
	copy(models, s.opts.Models)
	return &ModelList{Default: s.opts.DefaultModel, Models: models}
}

// resolveModel falls back to the default for models outside the allow list.
func (s *assistantService) resolveModel(model string) string {
	if model == "" || !utils.Contains(s.opts.Models, model) {
		return s.opts.DefaultModel
	}
	return model
}

// storageKey scopes conversations to their owner so ids cannot be replayed
// across accounts.
func storageKey(userID primitive.ObjectID, conversationID string) string {
	return userID.Hex() + ":" + conversationID
}

func (s *assistantService) Ask(ctx context.Context, userID primitive.ObjectID, request *AskRequest) (*AskResponse, error) {
	if s.provider == nil {
		return nil, utils.UnavailableError("assistant is not configured")
	}

	text := strings.TrimSpace(request.Text)
	if text == "" {
		return nil, utils.ValidationError("text is required", map[string]string{"text": "is required"})
	}
	if utf8.RuneCountInString(text) > utils.MaxPromptLength {
		return nil, utils.ValidationError("text is too long", map[string]string{
			"text": fmt.Sprintf("must be at most %d characters", utils.MaxPromptLength),
		})
	}

	conversationID := strings.TrimSpace(request.ConversationID)
	if conversationID == "" {
		conversationID = s.newID()
	}
	conversation, err := s.loadConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	conversation.Messages = append(conversation.Messages, models.ConversationMessage{
		Role:    models.ConversationRoleUser,
		Content: text,
	})
	conversation.Trim(s.opts.HistoryLimit)

	model := s.resolveModel(request.Model)
	completion, err := s.complete(ctx, model, conversation.Messages)
	observability.AssistantRequestsTotal.WithLabelValues(model, observability.ResultLabel(err)).Inc()
	if err != nil {
		s.logger.WithUserID(userID).WithError(err).WithField("model", model).Error("Assistant completion failed")
		return nil, utils.UpstreamError("assistant is unavailable", err)
	}

	conversation.Messages = append(conversation.Messages, models.ConversationMessage{
		Role:    models.ConversationRoleAssistant,
		Content: completion.Content,
	})
	conversation.Trim(s.opts.HistoryLimit)

	if err := s.conversations.Save(ctx, conversation); err != nil {
		s.logger.WithUserID(userID).WithError(err).Warn("Failed to save assistant conversation")
	}

	return &AskResponse{
		Response:       completion.Content,
		ConversationID: conversationID,
		Model:          model,
	}, nil
}

func (s *assistantService) Clear(ctx context.Context, userID primitive.ObjectID, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return utils.ValidationError("conversation_id is required", map[string]string{"conversation_id": "is required"})
	}
	if err := s.conversations.Delete(ctx, storageKey(userID, conversationID)); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("failed to clear conversation: %w", err)
	}
	return nil
}

func (s *assistantService) loadConversation(ctx context.Context, userID primitive.ObjectID, conversationID string) (*models.Conversation, error) {
	key := storageKey(userID, conversationID)

	conversation, err := s.conversations.Get(ctx, key)
	if err == nil {
		return conversation, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	conversation = &models.Conversation{ID: key}
	if s.opts.SystemPrompt != "" {
		conversation.Messages = append(conversation.Messages, models.ConversationMessage{
			Role:    models.ConversationRoleSystem,
			Content: s.opts.SystemPrompt,
		})
	}
	return conversation, nil
}

func (s *assistantService) complete(ctx context.Context, model string, history []models.ConversationMessage) (*llm.CompletionResponse, error) {
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	messages := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: llm.Role(msg.Role), Content: msg.Content})
	}
	return s.provider.Complete(ctx, llm.CompletionRequest{Model: model, Messages: messages})
}
