package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/gridclash/gridclash-server/internal/game"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsEnvelope is the frame sent to connected clients. Every committed action
// produces one game_state frame for the game's subscribers.
type wsEnvelope struct {
	Type   string        `json:"type"`
	GameID string        `json:"game_id"`
	Data   game.GameView `json:"data"`
}

type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	gameID string
	userID string
}

type wsBroadcast struct {
	gameID  string
	payload []byte
}

// Hub fans committed game views out to websocket subscribers. Each client
// watches exactly one game, fixed at connect time.
type Hub struct {
	logger *zap.Logger

	clients    map[*wsClient]bool
	broadcast  chan wsBroadcast
	register   chan *wsClient
	unregister chan *wsClient

	once sync.Once
	done chan struct{}
}

// NewHub creates a hub. Run must be started before clients connect.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan wsBroadcast, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer h.once.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			if h.logger != nil {
				h.logger.Debug("websocket client connected",
					zap.String("game_id", client.gameID),
					zap.String("user_id", client.userID),
				)
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.gameID != msg.gameID {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					// Slow consumer. Drop it rather than stall the hub.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastView publishes a committed view to the game's subscribers. It is
// the engine's notification handler.
func (h *Hub) BroadcastView(gameID string, view game.GameView) {
	payload, err := json.Marshal(wsEnvelope{Type: "game_state", GameID: gameID, Data: view})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to encode game view", zap.String("game_id", gameID), zap.Error(err))
		}
		return
	}
	select {
	case h.broadcast <- wsBroadcast{gameID: gameID, payload: payload}:
	case <-h.done:
	}
}

// ServeWS upgrades the request and subscribes the client to one game.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gameID, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("websocket upgrade failed", zap.Error(err))
		}
		return
	}

	client := &wsClient{
		conn:   conn,
		send:   make(chan []byte, 256),
		gameID: gameID,
		userID: userID,
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *wsClient) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	// Clients never send frames; the read loop only detects disconnects.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
