package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"oustaa/pkg/logger"
)

// Hub tracks connected clients and their room memberships. Room membership
// is guarded by a mutex; registration runs through Run.
type Hub struct {
	clients    map[*Client]struct{}
	rooms      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	logger     *logger.Logger

	// OnConnect and OnDisconnect observe the connection count.
	OnConnect    func()
	OnDisconnect func()
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client, 64),
		logger:     log,
	}
}

// Run processes registrations until ctx is cancelled, then disconnects
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case <-ctx.Done():
			h.mutex.Lock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mutex.Unlock()

			for _, client := range clients {
				h.removeClient(client)
			}
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	h.clients[client] = struct{}{}
	h.joinRoomLocked(client, UserRoom(client.UserID))
	h.mutex.Unlock()

	if h.OnConnect != nil {
		h.OnConnect()
	}

	h.logger.WithFields(map[string]interface{}{
		"client_id": client.ID,
		"user_id":   client.UserID,
	}).Debug("WebSocket client registered")

	welcome, _ := NewMessage(MessageTypeWelcome, map[string]string{"message": "Connected successfully"})
	welcome.UserID = client.UserID
	client.Send(welcome)
}

func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}

	delete(h.clients, client)
	for roomID := range client.rooms {
		h.leaveRoomLocked(client, roomID)
	}
	client.closeSend()
	h.mutex.Unlock()

	if h.OnDisconnect != nil {
		h.OnDisconnect()
	}

	h.logger.WithField("client_id", client.ID).Debug("WebSocket client unregistered")
}

func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	h.joinRoomLocked(client, roomID)
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.leaveRoomLocked(client, roomID)
}

func (h *Hub) joinRoomLocked(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]struct{})
	}
	h.rooms[roomID][client] = struct{}{}
	client.rooms[roomID] = struct{}{}
}

func (h *Hub) leaveRoomLocked(client *Client, roomID string) {
	delete(client.rooms, roomID)

	room, exists := h.rooms[roomID]
	if !exists {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

// SendToRoom delivers msg to every client in roomID and returns how many
// clients accepted it. Clients whose buffers are full are disconnected.
func (h *Hub) SendToRoom(roomID string, msg *Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode WebSocket message")
		return 0
	}

	var slow []*Client
	delivered := 0

	h.mutex.RLock()
	for client := range h.rooms[roomID] {
		if client.trySend(data) {
			delivered++
		} else {
			slow = append(slow, client)
		}
	}
	h.mutex.RUnlock()

	for _, client := range slow {
		h.logger.WithField("client_id", client.ID).Warn("Dropping slow WebSocket client")
		h.removeClient(client)
	}

	return delivered
}

func (h *Hub) RoomSize(roomID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.rooms[roomID])
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}
