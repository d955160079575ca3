package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"OrbitCS/entity"
)

// ConversationResetter lets connected dashboard clients discard a chat's
// active conversation.
type ConversationResetter interface {
	Reset(ctx context.Context, chatID string) (bool, error)
}

// Event represents a WebSocket event sent to dashboard clients.
type Event struct {
	Type string      `json:"type"` // "dialog_event", "conversation_reset"
	Data interface{} `json:"data"`
}

// Hub maintains the set of active WebSocket clients and broadcasts the
// dialogue transcript to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	resetter   ConversationResetter
	log        *slog.Logger
}

// NewHub creates a new Hub instance.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// SetResetter sets the handler for reset requests from clients.
func (h *Hub) SetResetter(resetter ConversationResetter) {
	h.resetter = resetter
}

// Run starts the hub's event loop. Should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish sends a dialog_event to all connected dashboard clients. It is
// the event sink the dialogue facade publishes its transcript to.
func (h *Hub) Publish(event *entity.DialogEvent) {
	h.broadcast <- &Event{
		Type: "dialog_event",
		Data: event,
	}
}

// clientEvent represents an incoming WebSocket message from a client.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// HandleClientMessage parses and dispatches an incoming message from a client.
func (h *Hub) HandleClientMessage(username string, raw []byte) {
	if h.resetter == nil {
		return
	}

	var event clientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		if h.log != nil {
			h.log.Warn("failed to parse client ws message", slog.String("error", err.Error()))
		}
		return
	}

	switch event.Type {
	case "reset_conversation":
		var data struct {
			ChatID string `json:"chat_id"`
		}
		if err := json.Unmarshal(event.Data, &data); err != nil {
			if h.log != nil {
				h.log.Warn("failed to parse reset_conversation data", slog.String("error", err.Error()))
			}
			return
		}
		if data.ChatID == "" {
			return
		}
		reset, err := h.resetter.Reset(context.Background(), data.ChatID)
		if err != nil {
			if h.log != nil {
				h.log.Error("failed to reset conversation",
					slog.String("username", username),
					slog.String("chat_id", data.ChatID),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		h.broadcast <- &Event{
			Type: "conversation_reset",
			Data: map[string]interface{}{
				"chat_id": data.ChatID,
				"reset":   reset,
				"by":      username,
			},
		}
	}
}
