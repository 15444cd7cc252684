package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Wallet struct {
	UserID       primitive.ObjectID `json:"user_id"`
	Balance      float64            `json:"balance"`
	Currency     string             `json:"currency"`
	Transactions []*Transaction     `json:"transactions"`
}

// TopUpIntent is returned to the client to confirm a card payment.
type TopUpIntent struct {
	IntentID     string  `json:"intent_id"`
	ClientSecret string  `json:"client_secret"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
}
