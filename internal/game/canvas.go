package game

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/partydeck/internal/draw"
	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/jason-s-yu/partydeck/internal/room"
)

// Played cards are offset from the requested position.
const (
	defaultPlayX = 50
	defaultPlayY = 50
	playOffset   = 50
)

// faceDownToken returns the placeholder token carried by an image or by a
// client payload.
func faceDownToken(data map[string]any) string {
	token, _ := data[originalCardKey].(string)
	return token
}

// removeImage drops the first image for which match holds.
func removeImage(rm *room.Room, match func(models.CanvasImage) bool) (models.CanvasImage, bool) {
	for i, img := range rm.Images {
		if match(img) {
			rm.Images = append(rm.Images[:i], rm.Images[i+1:]...)
			return img, true
		}
	}
	return models.CanvasImage{}, false
}

func (e *Engine) playCard(ctx context.Context, _ string, ev playCardEvent) error {
	return e.inRoom(ev.RoomID, func(rm *room.Room, out *outbox) error {
		hand, err := e.store.GetHand(ctx, rm.ID, ev.Username)
		if err != nil {
			return err
		}

		card := ev.Card
		token := faceDownToken(ev.Data)
		if token != "" {
			hidden, ok := rm.FaceDown[token]
			if !ok {
				return apperrors.NotFound("face-down card %q is not on the field", token)
			}
			card = hidden
		}
		if card.IsZero() {
			return apperrors.InvalidInput("card is required")
		}

		if hand.Remove(card.ID) {
			if err := e.store.PutHand(ctx, rm.ID, hand); err != nil {
				return err
			}
		}

		var data map[string]any
		if token == "" && len(ev.Data) > 0 {
			data = make(map[string]any, len(ev.Data))
			for k, v := range ev.Data {
				data[k] = v
			}
		} else if d, ok := e.catalog.CardData(card.ID); ok {
			data = d
		}

		if token != "" {
			delete(rm.FaceDown, token)
			removeImage(rm, func(img models.CanvasImage) bool { return faceDownToken(img.Data) == token })
		}

		x, y := float64(defaultPlayX), float64(defaultPlayY)
		if ev.X != nil {
			x = *ev.X
		}
		if ev.Y != nil {
			y = *ev.Y
		}
		played := card
		rm.Images = append(rm.Images, models.CanvasImage{
			X:      x + playOffset,
			Y:      y + playOffset,
			Width:  ev.Width,
			Height: ev.Height,
			Src:    card.Src,
			Card:   &played,
			Data:   data,
		})

		out.room(EventUpdateImages, rm.ImagesCopy())
		e.logAction(ctx, rm, out, ev.Username, EventPlayCard, fmt.Sprintf("%s played a card", ev.Username), colorPlay)
		out.room(EventUpdateHands, nil)
		return nil
	})
}

// resolveCanvasCard finds the card shown at src, revealing a face-down
// placeholder if that is what sits there.
func resolveCanvasCard(rm *room.Room, src string) (models.Card, bool) {
	for _, img := range rm.Images {
		if img.Src != src {
			continue
		}
		if img.Card != nil {
			return *img.Card, true
		}
		if c, ok := rm.FaceDown[faceDownToken(img.Data)]; ok {
			return c, true
		}
	}
	return models.Card{}, false
}

// shuffleInCard returns a card to a deck and takes one matching entity off
// the canvas.
func (e *Engine) shuffleInCard(ctx context.Context, _ string, ev shuffleInCardEvent) error {
	return e.inRoom(ev.RoomID, func(rm *room.Room, out *outbox) error {
		var card models.Card
		switch {
		case ev.Card != nil && !ev.Card.IsZero():
			card = *ev.Card
		case ev.CardURL != "":
			c, ok := resolveCanvasCard(rm, ev.CardURL)
			if !ok {
				return apperrors.NotFound("no card at %q on the field", ev.CardURL)
			}
			card = c
		default:
			return apperrors.InvalidInput("card or cardUrl is required")
		}
		if ev.DeckName == "" {
			return apperrors.InvalidInput("deckName is required")
		}

		deck, err := e.store.GetDeck(ctx, rm.ID, ev.DeckName)
		if err != nil {
			return err
		}
		deck.Cards = append(deck.Cards, card)
		draw.Shuffle(e.rng, deck.Cards)
		if err := e.store.PutDeck(ctx, rm.ID, deck); err != nil {
			return err
		}

		removeImage(rm, func(img models.CanvasImage) bool {
			if img.Card != nil {
				return img.Card.ID == card.ID
			}
			token := faceDownToken(img.Data)
			if hidden, ok := rm.FaceDown[token]; ok && hidden.ID == card.ID {
				delete(rm.FaceDown, token)
				return true
			}
			return false
		})

		out.room(EventUpdateImages, rm.ImagesCopy())
		e.logAction(ctx, rm, out, "", EventShuffleInCard, fmt.Sprintf("A card was shuffled into %s", ev.DeckName), colorShuffle)
		return nil
	})
}

// updateImagePositions trusts the client layout and replaces the canvas.
// Face-down cards whose placeholder is gone from the layout are forgotten.
func (e *Engine) updateImagePositions(_ context.Context, _ string, ev updateImagePositionsEvent) error {
	return e.inRoom(ev.RoomID, func(rm *room.Room, out *outbox) error {
		images := append([]models.CanvasImage{}, ev.Images...)
		kept := make(map[string]struct{}, len(images))
		for _, img := range images {
			if token := faceDownToken(img.Data); token != "" {
				kept[token] = struct{}{}
			}
		}
		for token := range rm.FaceDown {
			if _, ok := kept[token]; !ok {
				delete(rm.FaceDown, token)
			}
		}
		rm.Images = images
		out.room(EventUpdateImages, rm.ImagesCopy())
		return nil
	})
}
