package game

import (
	"context"

	"github.com/jason-s-yu/partydeck/internal/catalog"
	"github.com/jason-s-yu/partydeck/internal/draw"
	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/jason-s-yu/partydeck/internal/room"
)

// startGame builds the room's documents. A started room ignores further
// starts.
func (e *Engine) startGame(ctx context.Context, _ string, req StartGameRequest) error {
	return e.inRoom(req.RoomID, func(rm *room.Room, out *outbox) error {
		if rm.GameStarted {
			e.roomLog(rm.ID, EventStartGame).Debug("game already started")
			return nil
		}
		if req.BlankCards < 0 || req.BlankCards > models.MaxBlankCards {
			return apperrors.InvalidInput("blankCards must be between 0 and %d, got %d", models.MaxBlankCards, req.BlankCards)
		}
		selected, err := e.lookupDecks(req.SelectedDecks)
		if err != nil {
			return err
		}
		additional, err := e.lookupDecks(req.AdditionalDecks)
		if err != nil {
			return err
		}

		if err := e.store.DeleteRoom(ctx, rm.ID); err != nil {
			return err
		}

		main := &models.Deck{Name: models.MainDeck, Cards: []models.Card{}}
		for _, d := range selected {
			main.Cards = append(main.Cards, d.Cards...)
		}
		draw.Shuffle(e.rng, main.Cards)
		draw.Shuffle(e.rng, main.Cards)
		if err := e.store.PutDeck(ctx, rm.ID, main); err != nil {
			return err
		}
		if err := e.store.PutDeck(ctx, rm.ID, &models.Deck{Name: models.DiscardDeck}); err != nil {
			return err
		}

		for _, d := range additional {
			name, err := e.store.UniqueDeckName(ctx, rm.ID, d.Name)
			if err != nil {
				return err
			}
			extra := &models.Deck{Name: name, Source: d.Name, Cards: append([]models.Card{}, d.Cards...)}
			draw.Shuffle(e.rng, extra.Cards)
			if err := e.store.PutDeck(ctx, rm.ID, extra); err != nil {
				return err
			}
		}

		for _, p := range rm.Players {
			if err := e.store.PutHand(ctx, rm.ID, &models.Hand{Username: p.Username, IsHost: p.IsHost}); err != nil {
				return err
			}
		}

		scores := rm.Scores.Clone()
		points := make([]models.ScoreEntry, 0, len(rm.Players))
		for _, p := range rm.Players {
			points = append(points, models.ScoreEntry{Name: p.Username, Value: 0})
		}
		scores[models.DefaultScoreSeries] = points

		settings := &models.Settings{
			InfiniteMode: req.InfiniteMode,
			ChaosMode:    req.ChaosMode,
			BlankCards:   req.BlankCards,
			Scores:       scores,
		}
		if err := e.store.PutSettings(ctx, rm.ID, settings); err != nil {
			return err
		}

		rm.GameStarted = true
		rm.InfiniteMode = req.InfiniteMode
		rm.ChaosMode = req.ChaosMode
		rm.BlankCards = req.BlankCards
		rm.Scores = scores.Clone()

		e.roomLog(rm.ID, EventStartGame).Infof("game started with %d main cards and %d extra decks", len(main.Cards), len(additional))
		out.room(EventGameSettings, settings)
		out.room(EventGameStarted, nil)
		out.room(EventUpdateRoom, rm.Snapshot())
		e.logAction(ctx, rm, out, "", EventStartGame, "The game has started", colorDeal)
		return nil
	})
}

func (e *Engine) lookupDecks(names []string) ([]catalog.DeckInfo, error) {
	out := make([]catalog.DeckInfo, 0, len(names))
	for _, name := range names {
		d, ok := e.catalog.Deck(name)
		if !ok {
			return nil, apperrors.NotFound("deck %q is not in the catalog", name)
		}
		out = append(out, d)
	}
	return out, nil
}
