package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionType string

const (
	TransactionTypeRidePayment TransactionType = "ride_payment"
	TransactionTypeRideEarning TransactionType = "ride_earning"
	TransactionTypeWalletTopUp TransactionType = "wallet_topup"
)

// Transaction is an append-only ledger entry. Amount is signed.
type Transaction struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID      primitive.ObjectID  `json:"user_id" bson:"user_id"`
	RideID      *primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	Amount      float64             `json:"amount" bson:"amount"`
	Type        TransactionType     `json:"type" bson:"type"`
	Description string              `json:"description" bson:"description"`
	Reference   string              `json:"reference,omitempty" bson:"reference,omitempty"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}
