package models

// Reserved deck document names.
const (
	MainDeck    = "main"
	DiscardDeck = "discard"
)

// Deck is one named draw pile stored per room.
type Deck struct {
	Name string `json:"name"`
	// Source is the catalog deck an additional deck was built from.
	Source string `json:"deckName,omitempty"`
	Cards  []Card `json:"cards"`
}

// IsReservedDeckName reports whether name is owned by the engine.
func IsReservedDeckName(name string) bool {
	return name == MainDeck || name == DiscardDeck
}

// Peek returns up to n cards from the top of the deck.
func (d *Deck) Peek(n int) []Card {
	if n < 0 {
		n = 0
	}
	if n > len(d.Cards) {
		n = len(d.Cards)
	}
	out := make([]Card, n)
	copy(out, d.Cards[:n])
	return out
}
