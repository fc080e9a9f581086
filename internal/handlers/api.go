// internal/handlers/api.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jason-s-yu/partydeck/internal/bus"
	"github.com/jason-s-yu/partydeck/internal/catalog"
	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/game"
	"github.com/jason-s-yu/partydeck/internal/middleware"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/jason-s-yu/partydeck/internal/store"
	"github.com/sirupsen/logrus"
)

// Server bundles what the HTTP and socket handlers need.
type Server struct {
	Logger  *logrus.Logger
	Engine  *game.Engine
	Store   *store.Store
	Catalog catalog.Catalog
	Hub     *bus.Hub
	WS      WSOptions
}

// Router builds the HTTP surface: the room socket plus the auxiliary
// read/write endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(s.Logger))

	r.Get("/", s.handlePing)
	r.Get("/ws", WSHandler(s.Logger, s.Hub, s.Engine, s.WS))
	r.Get("/decks", s.handleListDecks)

	r.Route("/lobbies/{roomId}", func(r chi.Router) {
		r.Get("/hands/{username}", s.handleGetHand)
		r.Post("/hands/{username}/cards", s.handleAddCard)
		r.Get("/decks", s.handleRoomDecks)
		r.Get("/decks/{deckName}/peek", s.handlePeekDeck)
		r.Get("/players", s.handlePlayers)
		r.Get("/scores", s.handleGetScores)
		r.Post("/scores", s.handleCreateScore)
		r.Put("/scores/{scoreName}", s.handleUpdateScore)
		r.Delete("/scores/{scoreName}", s.handleDeleteScore)
	})
	return r
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListDecks lists the public catalog.
func (s *Server) handleListDecks(w http.ResponseWriter, _ *http.Request) {
	decks := s.Catalog.PublicDecks()
	if decks == nil {
		decks = []catalog.DeckInfo{}
	}
	writeJSON(w, http.StatusOK, decks)
}

func (s *Server) handleGetHand(w http.ResponseWriter, r *http.Request) {
	hand, err := s.Store.GetHand(r.Context(), chi.URLParam(r, "roomId"), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hand)
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Card models.Card `json:"card"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	hand, err := s.Engine.AddCardToHand(r.Context(), chi.URLParam(r, "roomId"), chi.URLParam(r, "username"), body.Card)
	if err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "hand": hand})
}

func (s *Server) handleRoomDecks(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	names, err := s.Store.ListDecks(r.Context(), roomID)
	if err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	if len(names) == 0 {
		writeError(w, s.Logger, r, apperrors.NotFound("no decks for room %q", roomID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "decks": names})
}

// handlePeekDeck returns the first count cards of a deck, one by default.
func (s *Server) handlePeekDeck(w http.ResponseWriter, r *http.Request) {
	count := 1
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, s.Logger, r, apperrors.InvalidInput("count must be a non-negative integer"))
			return
		}
		count = n
	}
	deck, err := s.Store.GetDeck(r.Context(), chi.URLParam(r, "roomId"), chi.URLParam(r, "deckName"))
	if err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "cards": deck.Peek(count)})
}

// handlePlayers lists players by their hand documents.
func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	names, err := s.Store.ListHands(r.Context(), chi.URLParam(r, "roomId"))
	if err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "players": names})
}

func (s *Server) handleGetScores(w http.ResponseWriter, r *http.Request) {
	scores, err := s.Engine.Scores(r.Context(), chi.URLParam(r, "roomId"))
	if err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *Server) handleCreateScore(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ScoreName    string `json:"scoreName"`
		DefaultValue int    `json:"defaultValue"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	scores, err := s.Engine.CreateScore(r.Context(), chi.URLParam(r, "roomId"), body.ScoreName, body.DefaultValue)
	if err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, scores)
}

func (s *Server) handleUpdateScore(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerName string `json:"playerName"`
		NewValue   int    `json:"newValue"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	scores, err := s.Engine.UpdateScore(r.Context(), chi.URLParam(r, "roomId"), chi.URLParam(r, "scoreName"), body.PlayerName, body.NewValue)
	if err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (s *Server) handleDeleteScore(w http.ResponseWriter, r *http.Request) {
	scores, err := s.Engine.DeleteScore(r.Context(), chi.URLParam(r, "roomId"), chi.URLParam(r, "scoreName"))
	if err != nil {
		writeError(w, s.Logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}
