package models

import "time"

type ConversationRole string

const (
	ConversationRoleSystem    ConversationRole = "system"
	ConversationRoleUser      ConversationRole = "user"
	ConversationRoleAssistant ConversationRole = "assistant"
)

type ConversationMessage struct {
	Role    ConversationRole `json:"role"`
	Content string           `json:"content"`
}

// Conversation is an assistant chat history. The first message is the
// system prompt when present.
type Conversation struct {
	ID        string                `json:"conversation_id"`
	Messages  []ConversationMessage `json:"messages"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Trim keeps the system message plus the last limit messages.
func (c *Conversation) Trim(limit int) {
	if limit <= 0 {
		return
	}
	var system []ConversationMessage
	rest := c.Messages
	if len(rest) > 0 && rest[0].Role == ConversationRoleSystem {
		system = rest[:1]
		rest = rest[1:]
	}
	if len(rest) <= limit {
		return
	}
	trimmed := make([]ConversationMessage, 0, len(system)+limit)
	trimmed = append(trimmed, system...)
	trimmed = append(trimmed, rest[len(rest)-limit:]...)
	c.Messages = trimmed
}
