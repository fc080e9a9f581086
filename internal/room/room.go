// Package room owns the process-wide table of active rooms and their
// lifecycle: host, join, leave, dispose and disconnect cleanup.
package room

import (
	"fmt"

	"github.com/jason-s-yu/partydeck/internal/models"
)

// Room is the in-memory state of one game session. Fields are only touched
// while the room's store lock is held (see Registry.WithRoom).
type Room struct {
	ID           string
	Players      []models.Player
	Images       []models.CanvasImage
	Messages     []models.ChatMessage
	Scores       models.Scores
	GameStarted  bool
	InfiniteMode bool
	ChaosMode    bool
	BlankCards   int

	// FaceDown maps a canvas placeholder token to the card it hides.
	FaceDown map[string]models.Card

	disposed bool
}

func newRoom(id string) *Room {
	return &Room{
		ID:       id,
		Players:  []models.Player{},
		Images:   []models.CanvasImage{},
		Messages: []models.ChatMessage{},
		Scores:   models.Scores{},
		FaceDown: map[string]models.Card{},
	}
}

// Snapshot copies the broadcastable state.
func (r *Room) Snapshot() models.RoomSnapshot {
	return models.RoomSnapshot{
		ID:           r.ID,
		Players:      append([]models.Player{}, r.Players...),
		Images:       r.ImagesCopy(),
		GameStarted:  r.GameStarted,
		Messages:     append([]models.ChatMessage{}, r.Messages...),
		Scores:       r.Scores.Clone(),
		InfiniteMode: r.InfiniteMode,
		ChaosMode:    r.ChaosMode,
		BlankCards:   r.BlankCards,
	}
}

// ImagesCopy returns a copy of the canvas safe to hand to the bus.
func (r *Room) ImagesCopy() []models.CanvasImage {
	out := make([]models.CanvasImage, len(r.Images))
	for i, img := range r.Images {
		if img.Data != nil {
			data := make(map[string]any, len(img.Data))
			for k, v := range img.Data {
				data[k] = v
			}
			img.Data = data
		}
		out[i] = img
	}
	return out
}

// Player finds a player by username.
func (r *Room) Player(username string) (models.Player, bool) {
	for _, p := range r.Players {
		if p.Username == username {
			return p, true
		}
	}
	return models.Player{}, false
}

// HasConn reports whether the connection holds a seat in the room.
func (r *Room) HasConn(connID string) bool {
	for _, p := range r.Players {
		if p.ConnID == connID {
			return true
		}
	}
	return false
}

// uniqueUsername appends 1, 2, ... to base until no player uses it.
func (r *Room) uniqueUsername(base string) string {
	name := base
	for i := 1; ; i++ {
		if _, taken := r.Player(name); !taken {
			return name
		}
		name = fmt.Sprintf("%s%d", base, i)
	}
}

// removeConn drops every seat held by connID and reports whether any was.
func (r *Room) removeConn(connID string) bool {
	kept := r.Players[:0]
	removed := false
	for _, p := range r.Players {
		if p.ConnID == connID {
			removed = true
			continue
		}
		kept = append(kept, p)
	}
	r.Players = kept
	return removed
}

// Disposable reports whether the empty-room rule applies.
func (r *Room) Disposable() bool {
	return len(r.Players) == 0 && !r.GameStarted
}
