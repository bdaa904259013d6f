package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"nirala/internal/metrics"
)

// Hub is the process-wide registry of live connections, indexed by user and
// by subscribed conversation. A client is only written to while it is
// registered; Unregister closes its send channel under the write lock, so
// no publish can race with the close.
type Hub struct {
	mu            sync.RWMutex
	users         map[string]map[*Client]struct{}
	conversations map[string]map[*Client]struct{}
	log           zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		users:         make(map[string]map[*Client]struct{}),
		conversations: make(map[string]map[*Client]struct{}),
		log:           log.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return
	}
	set, ok := h.users[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.users[c.userID] = set
	}
	set[c] = struct{}{}
	metrics.LiveConnections.Inc()
	h.log.Debug().Str("user_id", c.userID).Int("connections", len(set)).Msg("client registered")
}

// Unregister drops c from every index and closes its send channel. Safe to
// call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregisterLocked(c)
}

func (h *Hub) unregisterLocked(c *Client) {
	if c.closed {
		return
	}
	c.closed = true

	for conversationID := range c.subscriptions {
		removeClient(h.conversations, conversationID, c)
	}
	c.subscriptions = nil
	if removeClient(h.users, c.userID, c) {
		metrics.LiveConnections.Dec()
	}
	close(c.send)
	h.log.Debug().Str("user_id", c.userID).Msg("client unregistered")
}

func removeClient(index map[string]map[*Client]struct{}, key string, c *Client) bool {
	set, ok := index[key]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(index, key)
	}
	return true
}

// Subscribe adds c to the audience of conversationID. It reports false when
// c is no longer registered.
func (h *Hub) Subscribe(c *Client, conversationID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return false
	}
	set, ok := h.conversations[conversationID]
	if !ok {
		set = make(map[*Client]struct{})
		h.conversations[conversationID] = set
	}
	set[c] = struct{}{}
	c.subscriptions[conversationID] = struct{}{}
	return true
}

func (h *Hub) Unsubscribe(c *Client, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return
	}
	removeClient(h.conversations, conversationID, c)
	delete(c.subscriptions, conversationID)
}

func (h *Hub) PublishToConversation(_ context.Context, conversationID string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	h.DeliverToConversation(conversationID, payload)
	return nil
}

func (h *Hub) PublishToUser(_ context.Context, userID string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	h.DeliverToUser(userID, payload)
	return nil
}

// DeliverToConversation hands payload to every subscriber of conversationID
// and returns how many accepted it.
func (h *Hub) DeliverToConversation(conversationID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.fanOut(h.conversations[conversationID], payload)
}

func (h *Hub) DeliverToUser(userID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.fanOut(h.users[userID], payload)
}

// SendTo queues a reply for a single client.
func (h *Hub) SendTo(c *Client, event Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error().Err(err).Str("type", event.Type).Msg("marshal reply")
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c.closed {
		return false
	}
	return h.trySend(c, payload)
}

// fanOut must be called with at least the read lock held.
func (h *Hub) fanOut(set map[*Client]struct{}, payload []byte) int {
	delivered := 0
	for c := range set {
		if h.trySend(c, payload) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) trySend(c *Client, payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		metrics.LiveEventsDropped.Inc()
		h.log.Warn().Str("user_id", c.userID).Msg("client send buffer full, dropping event")
		return false
	}
}

// ConnectionCount returns the number of registered clients of userID, or of
// every user when userID is empty.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if userID != "" {
		return len(h.users[userID])
	}
	total := 0
	for _, set := range h.users {
		total += len(set)
	}
	return total
}

func (h *Hub) SubscriberCount(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conversations[conversationID])
}

// Close unregisters every client, which ends their write pumps.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, set := range h.users {
		for c := range set {
			h.unregisterLocked(c)
		}
	}
}
