// Package store is the per-room session store: settings, named decks and
// per-player hands, each persisted as a whole JSON document. Backends only
// move bytes; Store owns encoding, error kinds and per-room serialization.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned by backends for a missing document.
var ErrNotFound = errors.New("document not found")

// Document categories.
const (
	CategorySettings = "settings"
	CategoryDecks    = "decks"
	CategoryHands    = "hands"
)

// Key addresses one document.
type Key struct {
	Room     string
	Category string
	Name     string
}

// Backend is a keyed whole-document byte store. Get and Put must be atomic
// per key; List returns names in ascending order.
type Backend interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Put(ctx context.Context, key Key, body []byte) error
	List(ctx context.Context, room, category string) ([]string, error)
	DeleteRoom(ctx context.Context, room string) error
	Close() error
}

// MemoryBackend keeps documents in process memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[Key][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[Key][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key Key) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), body...), nil
}

func (m *MemoryBackend) Put(_ context.Context, key Key, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = append([]byte(nil), body...)
	return nil
}

func (m *MemoryBackend) List(_ context.Context, room, category string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for k := range m.docs {
		if k.Room == room && k.Category == category {
			names = append(names, k.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryBackend) DeleteRoom(_ context.Context, room string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.docs {
		if k.Room == room {
			delete(m.docs, k)
		}
	}
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
