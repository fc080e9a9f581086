// Package bus fans room events out to subscribed connections.
package bus

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Event is one outbound frame.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Subscriber is a connection able to receive events. Deliver must not
// block; it reports false when the event was dropped.
type Subscriber interface {
	ID() string
	Deliver(ev Event) bool
}

// Hub tracks connections and their room subscriptions. Delivery is fire and
// forget: a slow or closed subscriber never blocks the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]Subscriber
	rooms  map[string]map[string]struct{}
	logger *logrus.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]Subscriber),
		rooms:  make(map[string]map[string]struct{}),
		logger: logger,
	}
}

// Register makes sub addressable by its ID.
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub.ID()] = sub
}

// Unregister forgets the connection and all of its room subscriptions.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, connID)
	for roomID, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Join subscribes a connection to a room.
func (h *Hub) Join(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomID] = members
	}
	members[connID] = struct{}{}
}

// Leave unsubscribes a connection from a room.
func (h *Hub) Leave(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// CloseRoom drops every subscription to the room.
func (h *Hub) CloseRoom(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}

// Members returns the connection ids subscribed to the room.
func (h *Hub) Members(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms[roomID]))
	for id := range h.rooms[roomID] {
		out = append(out, id)
	}
	return out
}

// Publish delivers ev to every subscriber of the room.
func (h *Hub) Publish(roomID string, ev Event) {
	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.rooms[roomID]))
	for id := range h.rooms[roomID] {
		if sub, ok := h.subs[id]; ok {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		if !sub.Deliver(ev) {
			h.logger.WithFields(logrus.Fields{"room": roomID, "conn": sub.ID(), "event": ev.Type}).Warn("dropped room event")
		}
	}
}

// Send delivers ev to a single connection.
func (h *Hub) Send(connID string, ev Event) {
	h.mu.RLock()
	sub, ok := h.subs[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if !sub.Deliver(ev) {
		h.logger.WithFields(logrus.Fields{"conn": connID, "event": ev.Type}).Warn("dropped direct event")
	}
}
