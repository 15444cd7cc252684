package websocket

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	MessageTypeWelcome        = "welcome"
	MessageTypeError          = "error"
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
	MessageTypeJoinRide       = "join_ride"
	MessageTypeLeaveRide      = "leave_ride"
	MessageTypeJoinedRide     = "joined_ride"
	MessageTypeLocationUpdate = "location_update"
)

const (
	rideRoomPrefix = "ride_"
	userRoomPrefix = "user_"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"room_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func NewMessage(messageType string, data interface{}) (*Message, error) {
	msg := &Message{Type: messageType, Timestamp: time.Now().Unix()}
	if data == nil {
		return msg, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	msg.Data = raw
	return msg, nil
}

// DecodeData unmarshals the message payload into dest.
func (m *Message) DecodeData(dest interface{}) error {
	if len(m.Data) == 0 {
		return json.Unmarshal([]byte("{}"), dest)
	}
	return json.Unmarshal(m.Data, dest)
}

func RideRoom(rideID string) string {
	return rideRoomPrefix + rideID
}

func UserRoom(userID string) string {
	return userRoomPrefix + userID
}

// RoomForChannel maps a pub/sub channel such as "ride_messages:<id>" to the
// hub room it feeds. ok is false for channels that have no room.
func RoomForChannel(channel string) (room string, ok bool) {
	prefix, id, found := strings.Cut(channel, ":")
	if !found || id == "" {
		return "", false
	}

	switch prefix {
	case "ride_messages", "ride_events":
		return RideRoom(id), true
	case "user_events":
		return UserRoom(id), true
	}
	return "", false
}
