package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
)

// settingsName is the single document name in the settings category.
const settingsName = "settings"

// Store reads and writes typed room documents through a Backend.
type Store struct {
	backend Backend
	locks   *roomLocks
}

// New wraps a backend.
func New(backend Backend) *Store {
	return &Store{backend: backend, locks: newRoomLocks()}
}

// NewMemory returns a Store over a fresh in-memory backend.
func NewMemory() *Store {
	return New(NewMemoryBackend())
}

// Lock serializes mutations on one room. Every read-modify-write cycle over a
// room's documents must run between Lock and the returned unlock. Rooms do
// not contend with each other.
func (s *Store) Lock(room string) (unlock func()) {
	return s.locks.lock(room)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) get(ctx context.Context, key Key, what string, v any) error {
	body, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return apperrors.NotFound("%s not found", what)
	}
	if err != nil {
		return apperrors.Internal(fmt.Sprintf("read %s", what), err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("malformed %s document", what), err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, key Key, what string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return apperrors.Internal(fmt.Sprintf("encode %s", what), err)
	}
	if err := s.backend.Put(ctx, key, body); err != nil {
		return apperrors.Internal(fmt.Sprintf("write %s", what), err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, room, category string) ([]string, error) {
	names, err := s.backend.List(ctx, room, category)
	if err != nil {
		return nil, apperrors.Internal("list "+category, err)
	}
	return names, nil
}

// GetSettings returns the room's settings document.
func (s *Store) GetSettings(ctx context.Context, room string) (*models.Settings, error) {
	var st models.Settings
	if err := s.get(ctx, Key{room, CategorySettings, settingsName}, "settings for room "+room, &st); err != nil {
		return nil, err
	}
	if st.Scores == nil {
		st.Scores = models.Scores{}
	}
	return &st, nil
}

// PutSettings replaces the room's settings document.
func (s *Store) PutSettings(ctx context.Context, room string, st *models.Settings) error {
	return s.put(ctx, Key{room, CategorySettings, settingsName}, "settings for room "+room, st)
}

// GetDeck returns the named deck.
func (s *Store) GetDeck(ctx context.Context, room, name string) (*models.Deck, error) {
	var d models.Deck
	if err := s.get(ctx, Key{room, CategoryDecks, name}, fmt.Sprintf("deck %q", name), &d); err != nil {
		return nil, err
	}
	d.Name = name
	if d.Cards == nil {
		d.Cards = []models.Card{}
	}
	return &d, nil
}

// PutDeck replaces the deck stored under d.Name.
func (s *Store) PutDeck(ctx context.Context, room string, d *models.Deck) error {
	if d.Name == "" {
		return apperrors.InvalidInput("deck name is required")
	}
	if d.Cards == nil {
		d.Cards = []models.Card{}
	}
	return s.put(ctx, Key{room, CategoryDecks, d.Name}, fmt.Sprintf("deck %q", d.Name), d)
}

// ListDecks returns the room's deck names.
func (s *Store) ListDecks(ctx context.Context, room string) ([]string, error) {
	return s.list(ctx, room, CategoryDecks)
}

// UniqueDeckName returns base if no deck document uses it and it is not a
// reserved name, else the first free "base_N" for N = 1, 2, ...
func (s *Store) UniqueDeckName(ctx context.Context, room, base string) (string, error) {
	names, err := s.ListDecks(ctx, room)
	if err != nil {
		return "", err
	}
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	name := base
	for i := 1; taken[name] || models.IsReservedDeckName(name); i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return name, nil
}

// GetHand returns the hand document for username.
func (s *Store) GetHand(ctx context.Context, room, username string) (*models.Hand, error) {
	var h models.Hand
	if err := s.get(ctx, Key{room, CategoryHands, username}, fmt.Sprintf("hand for %q", username), &h); err != nil {
		return nil, err
	}
	h.Username = username
	if h.Cards == nil {
		h.Cards = []models.Card{}
	}
	return &h, nil
}

// PutHand replaces the hand document stored under h.Username.
func (s *Store) PutHand(ctx context.Context, room string, h *models.Hand) error {
	if h.Username == "" {
		return apperrors.InvalidInput("hand username is required")
	}
	if h.Cards == nil {
		h.Cards = []models.Card{}
	}
	return s.put(ctx, Key{room, CategoryHands, h.Username}, fmt.Sprintf("hand for %q", h.Username), h)
}

// ListHands returns the usernames that own a hand document.
func (s *Store) ListHands(ctx context.Context, room string) ([]string, error) {
	return s.list(ctx, room, CategoryHands)
}

// DeleteRoom drops every document of the room.
func (s *Store) DeleteRoom(ctx context.Context, room string) error {
	if err := s.backend.DeleteRoom(ctx, room); err != nil {
		return apperrors.Internal("delete room storage", err)
	}
	return nil
}
