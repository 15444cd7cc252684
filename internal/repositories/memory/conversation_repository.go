package memory

import (
	"context"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
)

type conversationRepository struct {
	store *Store
}

func NewConversationRepository(store *Store) interfaces.ConversationRepository {
	return &conversationRepository{store: store}
}

func (r *conversationRepository) Get(ctx context.Context, id string) (*models.Conversation, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	conversation, ok := r.store.conversations[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	conversation.Messages = append([]models.ConversationMessage(nil), conversation.Messages...)
	return &conversation, nil
}

func (r *conversationRepository) Save(ctx context.Context, conversation *models.Conversation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	conversation.UpdatedAt = time.Now()
	stored := *conversation
	stored.Messages = append([]models.ConversationMessage(nil), conversation.Messages...)
	r.store.conversations[conversation.ID] = stored
	return nil
}

func (r *conversationRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.conversations, id)
	return nil
}
