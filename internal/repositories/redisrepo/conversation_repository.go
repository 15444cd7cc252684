// Package redisrepo stores short-lived assistant state in Redis.
package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/utils"
	"oustaa/pkg/cache"
)

type conversationRepository struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewConversationRepository keeps conversations for ttl after their last
// update. A zero ttl keeps them until cleared.
func NewConversationRepository(c cache.Cache, ttl time.Duration) interfaces.ConversationRepository {
	return &conversationRepository{cache: c, ttl: ttl}
}

func conversationKey(id string) string {
	return utils.CacheConversationPrefix + id
}

func (r *conversationRepository) Get(ctx context.Context, id string) (*models.Conversation, error) {
	var conversation models.Conversation
	if err := r.cache.Get(ctx, conversationKey(id), &conversation); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conversation, nil
}

func (r *conversationRepository) Save(ctx context.Context, conversation *models.Conversation) error {
	conversation.UpdatedAt = time.Now().UTC()
	if err := r.cache.Set(ctx, conversationKey(conversation.ID), conversation, r.ttl); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) Delete(ctx context.Context, id string) error {
	if err := r.cache.Delete(ctx, conversationKey(id)); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
