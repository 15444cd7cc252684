package payment

import (
	"context"
)

const EventPaymentSucceeded = "payment_intent.succeeded"

// PaymentProvider funds wallet top-ups through an external card processor.
type PaymentProvider interface {
	CreateTopUpIntent(ctx context.Context, request *TopUpRequest) (*TopUpIntent, error)
	ValidateWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

type TopUpRequest struct {
	UserID      string  `json:"user_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
}

type TopUpIntent struct {
	IntentID     string  `json:"intent_id"`
	ClientSecret string  `json:"client_secret"`
	Status       string  `json:"status"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}

// WebhookEvent carries the fields of a payment intent event that the wallet
// needs to credit a user.
type WebhookEvent struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	IntentID  string            `json:"intent_id"`
	Amount    float64           `json:"amount"`
	Currency  string            `json:"currency"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt int64             `json:"created_at"`
}

func (e *WebhookEvent) UserID() string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata["user_id"]
}
