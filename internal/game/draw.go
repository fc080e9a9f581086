package game

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/partydeck/internal/draw"
	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/jason-s-yu/partydeck/internal/room"
)

// Face-down placeholders are dropped here on the canvas.
const (
	fieldX      = 100
	fieldY      = 100
	fieldWidth  = 100
	fieldHeight = 100

	originalCardKey = "originalCard"
)

func drawOptions(st *models.Settings, deckName string) draw.Options {
	return draw.Options{
		MainDeck: deckName == models.MainDeck,
		Infinite: st.InfiniteMode,
		Chaos:    st.ChaosMode,
	}
}

// loadDraw reads the settings and deck a draw works against.
func (e *Engine) loadDraw(ctx context.Context, roomID, deckName string) (*models.Settings, *models.Deck, error) {
	if deckName == "" {
		return nil, nil, apperrors.InvalidInput("deckName is required")
	}
	st, err := e.store.GetSettings(ctx, roomID)
	if err != nil {
		return nil, nil, err
	}
	deck, err := e.store.GetDeck(ctx, roomID, deckName)
	if err != nil {
		return nil, nil, err
	}
	return st, deck, nil
}

// saveDraw persists the deck and the blank counter after one or more draws.
func (e *Engine) saveDraw(ctx context.Context, rm *room.Room, st *models.Settings, deck *models.Deck) error {
	if err := e.store.PutDeck(ctx, rm.ID, deck); err != nil {
		return err
	}
	if err := e.store.PutSettings(ctx, rm.ID, st); err != nil {
		return err
	}
	rm.BlankCards = st.BlankCards
	return nil
}

func (e *Engine) drawCard(ctx context.Context, _ string, ev deckEvent) error {
	return e.inRoom(ev.RoomID, func(rm *room.Room, out *outbox) error {
		st, deck, err := e.loadDraw(ctx, rm.ID, ev.DeckName)
		if err != nil {
			return err
		}
		hand, err := e.store.GetHand(ctx, rm.ID, ev.Username)
		if err != nil {
			return err
		}

		res, err := draw.Draw(e.rng, e.catalog, deck, st.BlankCards, drawOptions(st, ev.DeckName))
		if err != nil {
			return err
		}
		if res.Card == nil {
			e.logAction(ctx, rm, out, ev.Username, EventDrawCard, fmt.Sprintf("No cards left to draw from %s", ev.DeckName), colorDraw)
			return nil
		}

		// Deck first: a failed hand write can lose the card but never
		// leave it in both places.
		st.BlankCards = res.BlankCards
		if err := e.saveDraw(ctx, rm, st, deck); err != nil {
			return err
		}
		hand.Append(*res.Card)
		if err := e.store.PutHand(ctx, rm.ID, hand); err != nil {
			return err
		}
		e.logAction(ctx, rm, out, ev.Username, EventDrawCard, fmt.Sprintf("%s drew a card from %s", ev.Username, ev.DeckName), colorDraw)
		return nil
	})
}

// dealCard draws independently for every hand document in the room. Hand
// contents stay private; the room only learns that hands changed.
func (e *Engine) dealCard(ctx context.Context, _ string, ev deckEvent) error {
	return e.inRoom(ev.RoomID, func(rm *room.Room, out *outbox) error {
		st, deck, err := e.loadDraw(ctx, rm.ID, ev.DeckName)
		if err != nil {
			return err
		}
		opts := drawOptions(st, ev.DeckName)
		if !draw.Available(e.catalog, deck, st.BlankCards, opts) {
			e.logAction(ctx, rm, out, ev.Username, EventDealCard, "No cards left to deal", colorDeal)
			return nil
		}

		names, err := e.store.ListHands(ctx, rm.ID)
		if err != nil {
			return err
		}
		dealt := make([]*models.Hand, 0, len(names))
		for _, name := range names {
			hand, err := e.store.GetHand(ctx, rm.ID, name)
			if apperrors.Is(err, apperrors.CodeNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			res, err := draw.Draw(e.rng, e.catalog, deck, st.BlankCards, opts)
			if err != nil {
				return err
			}
			st.BlankCards = res.BlankCards
			if res.Card == nil {
				continue
			}
			hand.Append(*res.Card)
			dealt = append(dealt, hand)
		}

		if err := e.saveDraw(ctx, rm, st, deck); err != nil {
			return err
		}
		for _, hand := range dealt {
			if err := e.store.PutHand(ctx, rm.ID, hand); err != nil {
				return err
			}
		}
		e.logAction(ctx, rm, out, ev.Username, EventDealCard, fmt.Sprintf("%s dealt a card to each player", ev.Username), colorDeal)
		out.room(EventUpdateHands, nil)
		return nil
	})
}

// drawCardToField puts the drawn card on the canvas face down. The canvas
// only carries an opaque token; the card stays on the room until revealed.
func (e *Engine) drawCardToField(ctx context.Context, _ string, ev deckEvent) error {
	return e.inRoom(ev.RoomID, func(rm *room.Room, out *outbox) error {
		st, deck, err := e.loadDraw(ctx, rm.ID, ev.DeckName)
		if err != nil {
			return err
		}
		res, err := draw.Draw(e.rng, e.catalog, deck, st.BlankCards, drawOptions(st, ev.DeckName))
		if err != nil {
			return err
		}
		if res.Card == nil {
			e.logAction(ctx, rm, out, ev.Username, EventDrawCardToField, "No cards left to draw", colorDraw)
			return nil
		}

		st.BlankCards = res.BlankCards
		if err := e.saveDraw(ctx, rm, st, deck); err != nil {
			return err
		}

		token := e.newToken()
		rm.FaceDown[token] = *res.Card
		rm.Images = append(rm.Images, models.CanvasImage{
			X:      fieldX,
			Y:      fieldY,
			Width:  fieldWidth,
			Height: fieldHeight,
			Src:    models.FlippedSrc,
			Data:   map[string]any{originalCardKey: token},
		})
		out.room(EventUpdateImages, rm.ImagesCopy())
		e.logAction(ctx, rm, out, ev.Username, EventDrawCardToField, fmt.Sprintf("%s drew a card to the field from %s", ev.Username, ev.DeckName), colorDraw)
		return nil
	})
}
