package game

import "github.com/jason-s-yu/partydeck/internal/models"

// Inbound event types.
const (
	EventHostRoom             = "hostRoom"
	EventJoinRoom             = "joinRoom"
	EventJoinGame             = "joinGame"
	EventLeaveRoom            = "leaveRoom"
	EventStartGame            = "startGame"
	EventEndGame              = "endGame"
	EventDrawCard             = "drawCard"
	EventDealCard             = "dealCard"
	EventDrawCardToField      = "drawCardToField"
	EventPlayCard             = "playCard"
	EventDiscardCard          = "discardCard"
	EventShuffleInCard        = "shuffleInCard"
	EventUpdateImagePositions = "updateImagePositions"
	EventUpdateScores         = "updateScores"
	EventCreateScore          = "createScore"
	EventDeleteScore          = "deleteScore"
	EventUpdateScore          = "updateScore"
	EventStealCard            = "stealCard"
	EventChatMessage          = "chatMessage"
)

// Outbound event types.
const (
	EventRoomCreated         = "roomCreated"
	EventUpdateRoom          = "updateRoom"
	EventUpdateImages        = "updateImages"
	EventUpdateHands         = "updateHands"
	EventGameStarted         = "gameStarted"
	EventGameSettings        = "gameSettings"
	EventError               = "error"
	EventForceCloseHandPopup = "forceCloseHandPopup"
)

// Log line colors carried on action entries.
const (
	colorDraw    = "#ffcccc"
	colorDeal    = "#ffcc99"
	colorPlay    = "#ffff99"
	colorDiscard = "#cccccc"
	colorShuffle = "#ccffcc"
	colorSteal   = "#ccccff"
)

type hostRoomEvent struct {
	Username string `json:"username"`
}

type joinRoomEvent struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	IsHost   bool   `json:"isHost"`
}

// roomEvent carries only a room id (joinGame, leaveRoom, endGame).
type roomEvent struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username,omitempty"`
}

// StartGameRequest configures a game start.
type StartGameRequest struct {
	RoomID          string   `json:"roomId"`
	SelectedDecks   []string `json:"selectedDecks"`
	AdditionalDecks []string `json:"additionalDecks"`
	InfiniteMode    bool     `json:"infiniteMode"`
	ChaosMode       bool     `json:"chaosMode"`
	BlankCards      int      `json:"blankCards"`
}

// deckEvent targets one deck on behalf of a player (drawCard, dealCard,
// drawCardToField).
type deckEvent struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	DeckName string `json:"deckName"`
}

type playCardEvent struct {
	RoomID   string         `json:"roomId"`
	Username string         `json:"username"`
	Card     models.Card    `json:"card"`
	X        *float64       `json:"x,omitempty"`
	Y        *float64       `json:"y,omitempty"`
	Width    float64        `json:"width"`
	Height   float64        `json:"height"`
	Data     map[string]any `json:"data,omitempty"`
}

type discardCardEvent struct {
	RoomID   string      `json:"roomId"`
	Username string      `json:"username"`
	Card     models.Card `json:"card"`
}

// shuffleInCardEvent names the card either by reference or by the image
// source it is shown with on the canvas.
type shuffleInCardEvent struct {
	RoomID   string       `json:"roomId"`
	Card     *models.Card `json:"card,omitempty"`
	CardURL  string       `json:"cardUrl,omitempty"`
	DeckName string       `json:"deckName"`
}

type updateImagePositionsEvent struct {
	RoomID string               `json:"roomId"`
	Images []models.CanvasImage `json:"images"`
}

type updateScoresEvent struct {
	RoomID string        `json:"roomId"`
	Scores models.Scores `json:"scores"`
}

type createScoreEvent struct {
	RoomID       string `json:"roomId"`
	ScoreName    string `json:"scoreName"`
	DefaultValue int    `json:"defaultValue"`
}

type deleteScoreEvent struct {
	RoomID    string `json:"roomId"`
	ScoreName string `json:"scoreName"`
}

type updateScoreEvent struct {
	RoomID     string `json:"roomId"`
	ScoreName  string `json:"scoreName"`
	PlayerName string `json:"playerName"`
	NewValue   int    `json:"newValue"`
}

type stealCardEvent struct {
	RoomID    string `json:"roomId"`
	Thief     string `json:"thief"`
	Victim    string `json:"victim"`
	CardIndex int    `json:"cardIndex"`
}

type chatMessageEvent struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
	Text     string `json:"text"`
	Color    string `json:"color,omitempty"`
}

// RoomCreated is the payload of the roomCreated reply.
type RoomCreated struct {
	RoomID string              `json:"roomId"`
	Room   models.RoomSnapshot `json:"room"`
}

// ErrorPayload is the payload of a targeted error event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
