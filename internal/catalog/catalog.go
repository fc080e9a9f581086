// Package catalog exposes the read-only deck catalog consumed by the room
// engine. Deck authoring lives elsewhere; this package only loads what the
// authoring tools wrote and serves immutable snapshots of it.
package catalog

import (
	"sort"

	"github.com/jason-s-yu/partydeck/internal/models"
)

// DeckInfo describes one catalog deck.
type DeckInfo struct {
	Name        string        `json:"deckName"`
	Description string        `json:"description,omitempty"`
	Public      bool          `json:"isPublic"`
	CardCount   int           `json:"cardCount"`
	Cards       []models.Card `json:"-"`
}

// Catalog is the accessor the engine uses for game-start deck assembly and
// chaos-mode sampling. Implementations must be safe for concurrent readers.
type Catalog interface {
	Deck(name string) (DeckInfo, bool)
	PublicDecks() []DeckInfo
	TotalPublicCards() int
	PublicCardAt(i int) (models.Card, bool)
	SamplePublic(pick func(total int) int) (models.Card, bool)
	CardData(id string) (map[string]any, bool)
}

// snapshot is an immutable view of the catalog.
type snapshot struct {
	decks       map[string]DeckInfo
	public      []DeckInfo
	publicTotal int
	data        map[string]map[string]any
}

func newSnapshot(decks []DeckInfo, data map[string]map[string]any) *snapshot {
	s := &snapshot{
		decks: make(map[string]DeckInfo, len(decks)),
		data:  data,
	}
	if s.data == nil {
		s.data = map[string]map[string]any{}
	}
	for _, d := range decks {
		d.Cards = append([]models.Card(nil), d.Cards...)
		d.CardCount = len(d.Cards)
		s.decks[d.Name] = d
		if d.Public {
			s.public = append(s.public, d)
			s.publicTotal += d.CardCount
		}
	}
	sort.Slice(s.public, func(i, j int) bool { return s.public[i].Name < s.public[j].Name })
	return s
}

func (s *snapshot) deck(name string) (DeckInfo, bool) {
	d, ok := s.decks[name]
	if !ok {
		return DeckInfo{}, false
	}
	d.Cards = append([]models.Card(nil), d.Cards...)
	return d, true
}

func (s *snapshot) publicDecks() []DeckInfo {
	out := make([]DeckInfo, len(s.public))
	for i, d := range s.public {
		d.Cards = nil
		out[i] = d
	}
	return out
}

// publicCardAt indexes the concatenation of all public decks in name order.
func (s *snapshot) publicCardAt(i int) (models.Card, bool) {
	if i < 0 || i >= s.publicTotal {
		return models.Card{}, false
	}
	for _, d := range s.public {
		if i < len(d.Cards) {
			return d.Cards[i], true
		}
		i -= len(d.Cards)
	}
	return models.Card{}, false
}

// samplePublic lets pick choose an index against this snapshot's total.
func (s *snapshot) samplePublic(pick func(total int) int) (models.Card, bool) {
	return s.publicCardAt(pick(s.publicTotal))
}

func (s *snapshot) cardData(id string) (map[string]any, bool) {
	d, ok := s.data[id]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out, true
}

// Static is a fixed in-memory catalog.
type Static struct {
	snap *snapshot
}

// NewStatic builds a catalog from the given decks.
func NewStatic(decks ...DeckInfo) *Static {
	return &Static{snap: newSnapshot(decks, nil)}
}

func (c *Static) Deck(name string) (DeckInfo, bool)         { return c.snap.deck(name) }
func (c *Static) PublicDecks() []DeckInfo                   { return c.snap.publicDecks() }
func (c *Static) TotalPublicCards() int                     { return c.snap.publicTotal }
func (c *Static) PublicCardAt(i int) (models.Card, bool)    { return c.snap.publicCardAt(i) }
func (c *Static) SamplePublic(pick func(int) int) (models.Card, bool) {
	return c.snap.samplePublic(pick)
}
func (c *Static) CardData(id string) (map[string]any, bool) { return c.snap.cardData(id) }
