package interfaces

import (
	"context"

	"oustaa/internal/models"
)

type ConversationRepository interface {
	Get(ctx context.Context, id string) (*models.Conversation, error)
	Save(ctx context.Context, conversation *models.Conversation) error
	Delete(ctx context.Context, id string) error
}
