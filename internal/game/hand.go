package game

import (
	"context"
	"fmt"

	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/jason-s-yu/partydeck/internal/room"
)

func (e *Engine) discardCard(ctx context.Context, _ string, ev discardCardEvent) error {
	if ev.Card.IsZero() {
		return apperrors.InvalidInput("card is required")
	}
	return e.inRoom(ev.RoomID, func(rm *room.Room, out *outbox) error {
		hand, err := e.store.GetHand(ctx, rm.ID, ev.Username)
		if err != nil {
			return err
		}
		pile, err := e.store.GetDeck(ctx, rm.ID, models.DiscardDeck)
		if err != nil {
			return err
		}
		if !hand.Remove(ev.Card.ID) {
			return apperrors.NotFound("card %q is not in %s's hand", ev.Card.ID, ev.Username)
		}
		pile.Cards = append([]models.Card{ev.Card}, pile.Cards...)

		if err := e.store.PutDeck(ctx, rm.ID, pile); err != nil {
			return err
		}
		if err := e.store.PutHand(ctx, rm.ID, hand); err != nil {
			return err
		}
		e.logAction(ctx, rm, out, ev.Username, EventDiscardCard, fmt.Sprintf("%s discarded a card", ev.Username), colorDiscard)
		out.room(EventUpdateHands, nil)
		return nil
	})
}

// stealCard moves one card by position between hands. Anything that does
// not line up is silently ignored.
func (e *Engine) stealCard(ctx context.Context, _ string, ev stealCardEvent) error {
	return e.inRoom(ev.RoomID, func(rm *room.Room, out *outbox) error {
		if ev.Thief == ev.Victim {
			return nil
		}
		victim, err := e.store.GetHand(ctx, rm.ID, ev.Victim)
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		thief, err := e.store.GetHand(ctx, rm.ID, ev.Thief)
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		card, ok := victim.RemoveAt(ev.CardIndex)
		if !ok {
			return nil
		}
		thief.Append(card)
		if err := e.store.PutHand(ctx, rm.ID, victim); err != nil {
			return err
		}
		if err := e.store.PutHand(ctx, rm.ID, thief); err != nil {
			return err
		}

		e.logAction(ctx, rm, out, ev.Thief, EventStealCard, fmt.Sprintf("%s stole a card from %s", ev.Thief, ev.Victim), colorSteal)
		out.room(EventUpdateHands, nil)
		if p, ok := rm.Player(ev.Victim); ok {
			out.to(p.ConnID, EventForceCloseHandPopup, nil)
		}
		return nil
	})
}

// AddCardToHand appends card to an existing hand document.
func (e *Engine) AddCardToHand(ctx context.Context, roomID, username string, card models.Card) (*models.Hand, error) {
	if card.IsZero() {
		return nil, apperrors.InvalidInput("card is required")
	}
	var updated *models.Hand
	err := e.inRoom(roomID, func(rm *room.Room, out *outbox) error {
		hand, err := e.store.GetHand(ctx, rm.ID, username)
		if err != nil {
			return err
		}
		hand.Append(card)
		if err := e.store.PutHand(ctx, rm.ID, hand); err != nil {
			return err
		}
		updated = hand
		out.room(EventUpdateHands, nil)
		return nil
	})
	return updated, err
}
