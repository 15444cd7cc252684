package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideMessage struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RideID    primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	SenderID  primitive.ObjectID `json:"sender_id" bson:"sender_id"`
	Message   string             `json:"message" bson:"message"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	Sender    *ProfileSummary    `json:"sender,omitempty" bson:"-"`
}
