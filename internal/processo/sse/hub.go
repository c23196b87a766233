package sse

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types sent to the browser.
const (
	EventRegenerate     = "documento_regenerar"
	EventProcessoUpdate = "processo_update"
)

const clientBuffer = 64

// Event represents a Server-Sent Event
type Event struct {
	EventType string `json:"event"`
	Data      string `json:"data"`
}

// Client represents a connected SSE client. A non-empty ProcessID limits the
// client to events about that process.
type Client struct {
	ID        string
	ProcessID string
	Events    chan Event
}

// NewClient creates a client with a random id and a buffered event channel.
func NewClient(processID string) *Client {
	return &Client{
		ID:        uuid.NewString(),
		ProcessID: processID,
		Events:    make(chan Event, clientBuffer),
	}
}

// Hub manages all SSE client connections
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a new client to the hub
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.logger.Debug("sse client registered", zap.String("client", client.ID), zap.String("processId", client.ProcessID), zap.Int("total", len(h.clients)))
}

// Unregister removes a client from the hub and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if client, ok := h.clients[clientID]; ok {
		close(client.Events)
		delete(h.clients, clientID)
		h.logger.Debug("sse client unregistered", zap.String("client", clientID), zap.Int("total", len(h.clients)))
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends an event about processID to every interested client. A full
// client buffer drops the event for that client.
func (h *Hub) Publish(processID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.ProcessID != "" && client.ProcessID != processID {
			continue
		}
		select {
		case client.Events <- event:
		default:
			h.logger.Warn("sse client buffer full, skipping event", zap.String("client", client.ID), zap.String("event", event.EventType))
		}
	}
}

// PublishRegenerate tells clients that the document of processID is stale.
func (h *Hub) PublishRegenerate(processID string) {
	h.Publish(processID, Event{
		EventType: EventRegenerate,
		Data:      encode(map[string]string{"processId": processID}),
	})
}

// PublishProcessoUpdate announces a created or saved record.
func (h *Hub) PublishProcessoUpdate(processID, action string) {
	h.Publish(processID, Event{
		EventType: EventProcessoUpdate,
		Data:      encode(map[string]string{"processId": processID, "action": action}),
	})
}

func encode(v map[string]string) string {
	b, _ := json.Marshal(v)
	return string(b)
}
