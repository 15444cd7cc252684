package websocket

import (
	"context"
	"encoding/json"
	"time"

	"oustaa/pkg/cache"
	"oustaa/pkg/logger"
)

// RelayPatterns are the pub/sub channels forwarded into hub rooms.
var RelayPatterns = []string{"ride_messages:*", "ride_events:*", "user_events:*"}

// Relay forwards pub/sub traffic from every instance into the local hub so
// that clients receive events regardless of which instance produced them.
type Relay struct {
	hub    *Hub
	broker cache.Broker
	logger *logger.Logger
}

func NewRelay(hub *Hub, broker cache.Broker, log *logger.Logger) *Relay {
	return &Relay{hub: hub, broker: broker, logger: log}
}

// Run blocks until ctx is cancelled or the subscription ends.
func (r *Relay) Run(ctx context.Context) error {
	sub, err := r.broker.PSubscribe(ctx, RelayPatterns...)
	if err != nil {
		return err
	}
	defer sub.Close()

	r.logger.WithField("patterns", RelayPatterns).Info("Realtime relay started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			r.Forward(msg)
		}
	}
}

// Forward delivers one pub/sub message to the room its channel maps to.
func (r *Relay) Forward(msg *cache.Message) int {
	room, ok := RoomForChannel(msg.Channel)
	if !ok {
		return 0
	}

	var out Message
	if err := json.Unmarshal(msg.Payload, &out); err != nil || out.Type == "" {
		out = Message{Type: "event"}
		if json.Valid(msg.Payload) {
			out.Data = json.RawMessage(msg.Payload)
		} else {
			out.Data, _ = json.Marshal(string(msg.Payload))
		}
	}
	out.RoomID = room
	if out.Timestamp == 0 {
		out.Timestamp = time.Now().Unix()
	}

	return r.hub.SendToRoom(room, &out)
}
