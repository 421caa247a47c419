package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"usercache-api/internal/cache"
)

// Client is one subscriber connection. Send must not block; it returns false
// when the message was dropped.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub fans cache events out to the clients subscribed to each store.
type Hub struct {
	logger *zap.Logger

	mu             sync.RWMutex
	storeToClients map[string]map[Client]struct{}
}

var _ cache.Notifier = (*Hub)(nil)

// NewHub returns an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:         logger.Named("realtime"),
		storeToClients: make(map[string]map[Client]struct{}),
	}
}

// Register subscribes client to events of store.
func (h *Hub) Register(store string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.storeToClients[store]; !ok {
		h.storeToClients[store] = make(map[Client]struct{})
	}
	h.storeToClients[store][client] = struct{}{}
}

// Unregister removes a client; if the store has no more clients, cleans up map.
func (h *Hub) Unregister(store string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.storeToClients[store]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.storeToClients, store)
		}
	}
}

// Subscribers returns how many clients listen to store.
func (h *Hub) Subscribers(store string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.storeToClients[store])
}

// Broadcast sends a message to all clients of a store.
func (h *Hub) Broadcast(store string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.storeToClients[store] {
		if !c.Send(message) {
			h.logger.Debug("event dropped for slow client", zap.String("store", store))
		}
	}
}

// Notify implements cache.Notifier.
func (h *Hub) Notify(ev cache.Event) {
	if h.Subscribers(ev.Store) == 0 {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encode cache event", zap.Error(err))
		return
	}
	h.Broadcast(ev.Store, payload)
}
