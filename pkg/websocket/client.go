package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// InboundHandler processes frames sent by a client. Returned errors are
// reported back to that client as an error frame.
type InboundHandler interface {
	HandleInbound(ctx context.Context, client *Client, msg *Message) error
}

type Client struct {
	ID       string
	UserID   string
	UserType string

	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]struct{}

	sendMu sync.RWMutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, userType string) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		UserType: userType,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		rooms:    make(map[string]struct{}),
	}
}

func (c *Client) Hub() *Hub {
	return c.hub
}

// Send queues msg for this client only. It reports false when the client
// is gone or its buffer is full.
func (c *Client) Send(msg *Message) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	return c.trySend(data)
}

func (c *Client) SendError(code, message string) bool {
	msg, _ := NewMessage(MessageTypeError, map[string]string{"code": code, "message": message})
	return c.Send(msg)
}

func (c *Client) trySend(data []byte) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump(ctx context.Context, cfg Config, inbound InboundHandler) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).WithField("client_id", c.ID).Warn("WebSocket read error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.SendError("VALIDATION_ERROR", "Malformed message")
			continue
		}
		msg.UserID = c.UserID
		msg.Timestamp = time.Now().Unix()

		if msg.Type == MessageTypePing {
			pong, _ := NewMessage(MessageTypePong, nil)
			c.Send(pong)
			continue
		}

		if inbound == nil {
			continue
		}
		if err := inbound.HandleInbound(ctx, c, &msg); err != nil {
			c.SendError(errorCode(err), err.Error())
		}
	}
}

func (c *Client) writePump(cfg Config) {
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type codedError interface {
	ErrorCode() string
}

func errorCode(err error) string {
	var coded codedError
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	return "INTERNAL_ERROR"
}
