package models

import "time"

// Player is one connection's seat in a room.
type Player struct {
	ConnID   string `json:"id"`
	Username string `json:"username"`
	IsHost   bool   `json:"isHost"`
}

// CanvasImage is a positioned entity on the room's shared canvas.
type CanvasImage struct {
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Src    string         `json:"src"`
	Card   *Card          `json:"card,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// Chat feed entry kinds.
const (
	ChatKindChat   = "chat"
	ChatKindAction = "action"
)

// ChatMessage is one entry of the room's chat feed. Kind is "chat" for
// player messages and "action" for engine log lines.
type ChatMessage struct {
	Kind     string    `json:"kind"`
	Username string    `json:"username,omitempty"`
	Text     string    `json:"text"`
	Color    string    `json:"color,omitempty"`
	Time     time.Time `json:"ts"`
}

// RoomSnapshot is the broadcast view of a room.
type RoomSnapshot struct {
	ID           string        `json:"id"`
	Players      []Player      `json:"players"`
	Images       []CanvasImage `json:"images"`
	GameStarted  bool          `json:"gameStarted"`
	Messages     []ChatMessage `json:"messages"`
	Scores       Scores        `json:"scores"`
	InfiniteMode bool          `json:"infiniteMode"`
	ChaosMode    bool          `json:"chaosMode"`
	BlankCards   int           `json:"blankCards"`
}
