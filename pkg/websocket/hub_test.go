package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"oustaa/pkg/cache"
	"oustaa/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case data := <-c.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHubRoomsAndDelivery(t *testing.T) {
	hub := NewHub(logger.NewNop())
	rider := NewClient(hub, nil, "rider1", "rider")
	driver := NewClient(hub, nil, "driver1", "driver")
	hub.registerClient(rider)
	hub.registerClient(driver)

	welcome := drain(t, rider)
	require.Len(t, welcome, 1)
	assert.Equal(t, MessageTypeWelcome, welcome[0].Type)
	drain(t, driver)

	hub.JoinRoom(rider, RideRoom("r1"))
	hub.JoinRoom(driver, RideRoom("r1"))
	assert.Equal(t, 2, hub.RoomSize(RideRoom("r1")))

	msg, err := NewMessage("ride_message", map[string]string{"message": "On my way"})
	require.NoError(t, err)
	assert.Equal(t, 2, hub.SendToRoom(RideRoom("r1"), msg))

	got := drain(t, rider)
	require.Len(t, got, 1)
	assert.Equal(t, "ride_message", got[0].Type)

	hub.LeaveRoom(driver, RideRoom("r1"))
	drain(t, driver)
	assert.Equal(t, 1, hub.SendToRoom(RideRoom("r1"), msg))
	assert.Empty(t, drain(t, driver))

	assert.Equal(t, 1, hub.SendToRoom(UserRoom("driver1"), msg))
}

func TestHubRemoveClientLeavesRooms(t *testing.T) {
	hub := NewHub(logger.NewNop())
	client := NewClient(hub, nil, "u1", "rider")
	hub.registerClient(client)
	hub.JoinRoom(client, RideRoom("r1"))

	hub.removeClient(client)
	hub.removeClient(client)

	assert.Zero(t, hub.ClientCount())
	assert.Zero(t, hub.RoomSize(RideRoom("r1")))
	assert.False(t, client.Send(&Message{Type: "x"}))
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(logger.NewNop())
	client := NewClient(hub, nil, "u1", "rider")
	hub.registerClient(client)

	msg := &Message{Type: "tick"}
	for i := 0; i < cap(client.send); i++ {
		hub.SendToRoom(UserRoom("u1"), msg)
	}
	assert.Zero(t, hub.ClientCount())
}

func TestRoomForChannel(t *testing.T) {
	cases := map[string]string{
		"ride_messages:abc": "ride_abc",
		"ride_events:abc":   "ride_abc",
		"user_events:u1":    "user_u1",
	}
	for channel, want := range cases {
		room, ok := RoomForChannel(channel)
		assert.True(t, ok, channel)
		assert.Equal(t, want, room)
	}

	_, ok := RoomForChannel("profile_updates:u1")
	assert.False(t, ok)
	_, ok = RoomForChannel("ride_events:")
	assert.False(t, ok)
}

func TestRelayForwardsInArrivalOrder(t *testing.T) {
	hub := NewHub(logger.NewNop())
	client := NewClient(hub, nil, "u1", "rider")
	hub.registerClient(client)
	hub.JoinRoom(client, RideRoom("r1"))
	drain(t, client)

	broker := cache.NewMemoryBroker()
	relay := NewRelay(hub, broker, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	// The relay subscribes asynchronously; publish until the first frame lands.
	require.Eventually(t, func() bool {
		_ = broker.Publish(ctx, "ride_events:r1", map[string]interface{}{"type": "warmup"})
		return len(client.send) > 0
	}, time.Second, 10*time.Millisecond)

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, broker.Publish(ctx, "ride_messages:r1", map[string]interface{}{
			"type": "ride_message",
			"data": map[string]string{"message": text},
		}))
	}

	var got []Message
	require.Eventually(t, func() bool {
		for _, msg := range drain(t, client) {
			if msg.Type == "ride_message" {
				got = append(got, msg)
			}
		}
		return len(got) == 3
	}, time.Second, 10*time.Millisecond)

	for i, text := range []string{"one", "two", "three"} {
		var data map[string]string
		require.NoError(t, got[i].DecodeData(&data))
		assert.Equal(t, text, data["message"])
		assert.Equal(t, RideRoom("r1"), got[i].RoomID)
	}

	cancel()
	assert.NoError(t, <-done)
}

type echoInbound struct{}

func (echoInbound) HandleInbound(ctx context.Context, client *Client, msg *Message) error {
	reply, _ := NewMessage("echo", map[string]string{"type": msg.Type})
	client.Send(reply)
	return nil
}

func TestHandlerServe(t *testing.T) {
	hub := NewHub(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	closed := make(chan struct{})
	handler := NewHandler(hub, Config{PongTimeout: 5 * time.Second}, echoInbound{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := handler.Serve(w, r, Identity{UserID: "u1", UserType: "rider"}, func() { close(closed) })
		assert.NoError(t, err)
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypeWelcome, msg.Type)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypePing}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MessageTypePong, msg.Type)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeJoinRide}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "echo", msg.Type)

	require.NoError(t, conn.Close())
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("onClose was not called")
	}
}
