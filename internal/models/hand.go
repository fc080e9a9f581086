package models

// Hand is a player's private, ordered set of cards.
type Hand struct {
	Username string `json:"username"`
	IsHost   bool   `json:"isHost"`
	Cards    []Card `json:"hand"`
}

// Append adds c to the end of the hand.
func (h *Hand) Append(c Card) {
	h.Cards = append(h.Cards, c)
}

// Remove drops the first card whose ID matches id.
func (h *Hand) Remove(id string) bool {
	for i, c := range h.Cards {
		if c.ID == id {
			h.Cards = append(h.Cards[:i], h.Cards[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAt drops and returns the card at position i.
func (h *Hand) RemoveAt(i int) (Card, bool) {
	if i < 0 || i >= len(h.Cards) {
		return Card{}, false
	}
	c := h.Cards[i]
	h.Cards = append(h.Cards[:i], h.Cards[i+1:]...)
	return c, true
}
