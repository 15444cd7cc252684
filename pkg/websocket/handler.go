package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type Config struct {
	ReadBufferSize   int
	WriteBufferSize  int
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
	MaxMessageSize   int64
	AllowedOrigins   []string
}

func (c Config) withDefaults() Config {
	if c.PongTimeout <= 0 {
		c.PongTimeout = 60 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.PongTimeout {
		c.PingInterval = c.PongTimeout * 9 / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	return c
}

// Identity is the authenticated owner of a connection.
type Identity struct {
	UserID   string
	UserType string
}

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	config   Config
	inbound  InboundHandler
}

func NewHandler(hub *Hub, cfg Config, inbound InboundHandler) *Handler {
	cfg = cfg.withDefaults()

	return &Handler{
		hub:    hub,
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   cfg.ReadBufferSize,
			WriteBufferSize:  cfg.WriteBufferSize,
			HandshakeTimeout: cfg.HandshakeTimeout,
			CheckOrigin:      originChecker(cfg.AllowedOrigins),
		},
		inbound: inbound,
	}
}

// Serve upgrades the request and starts the client pumps. onClose runs once
// the connection's read side has finished.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, identity Identity, onClose func()) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := NewClient(h.hub, conn, identity.UserID, identity.UserType)
	h.hub.Register(client)

	ctx, cancel := context.WithCancel(context.Background())
	go client.writePump(h.config)
	go func() {
		defer func() {
			cancel()
			if onClose != nil {
				onClose()
			}
		}()
		client.readPump(ctx, h.config, h.inbound)
	}()

	return nil
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}
