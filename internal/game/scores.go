package game

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/jason-s-yu/partydeck/internal/room"
)

// mutateScores applies fn to the room's scores. Once the game started the
// settings document is the source of truth and is rewritten.
func (e *Engine) mutateScores(ctx context.Context, rm *room.Room, fn func(models.Scores) (models.Scores, error)) (models.Scores, error) {
	var st *models.Settings
	scores := rm.Scores.Clone()
	if rm.GameStarted {
		var err error
		if st, err = e.store.GetSettings(ctx, rm.ID); err != nil {
			return nil, err
		}
		scores = st.Scores.Clone()
	}

	scores, err := fn(scores)
	if err != nil {
		return nil, err
	}
	if scores == nil {
		scores = models.Scores{}
	}
	if st != nil {
		st.Scores = scores
		if err := e.store.PutSettings(ctx, rm.ID, st); err != nil {
			return nil, err
		}
	}
	rm.Scores = scores
	return scores.Clone(), nil
}

// scoreOp runs a score mutation and broadcasts the full map on success.
func (e *Engine) scoreOp(ctx context.Context, roomID, action, logText string, fn func(rm *room.Room, s models.Scores) (models.Scores, error)) (models.Scores, error) {
	var result models.Scores
	err := e.inRoom(roomID, func(rm *room.Room, out *outbox) error {
		scores, err := e.mutateScores(ctx, rm, func(s models.Scores) (models.Scores, error) { return fn(rm, s) })
		if err != nil {
			return err
		}
		result = scores
		out.room(EventUpdateScores, scores)
		if logText != "" {
			e.logAction(ctx, rm, out, "", action, logText, colorPlay)
		}
		return nil
	})
	return result, err
}

// Scores returns a copy of the room's current scores.
func (e *Engine) Scores(ctx context.Context, roomID string) (models.Scores, error) {
	var scores models.Scores
	err := e.rooms.WithRoom(roomID, func(rm *room.Room) error {
		if !rm.GameStarted {
			scores = rm.Scores.Clone()
			return nil
		}
		st, err := e.store.GetSettings(ctx, rm.ID)
		if err != nil {
			return err
		}
		scores = st.Scores.Clone()
		return nil
	})
	return scores, err
}

// CreateScore adds a series seeded with defaultValue for every player.
func (e *Engine) CreateScore(ctx context.Context, roomID, name string, defaultValue int) (models.Scores, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidInput("scoreName is required")
	}
	return e.scoreOp(ctx, roomID, EventCreateScore, fmt.Sprintf("Score %s was created", name), func(rm *room.Room, s models.Scores) (models.Scores, error) {
		if _, exists := s[name]; exists {
			return nil, apperrors.Conflict("score %q already exists", name)
		}
		entries := make([]models.ScoreEntry, 0, len(rm.Players))
		for _, p := range rm.Players {
			entries = append(entries, models.ScoreEntry{Name: p.Username, Value: defaultValue})
		}
		s[name] = entries
		return s, nil
	})
}

// DeleteScore removes a series.
func (e *Engine) DeleteScore(ctx context.Context, roomID, name string) (models.Scores, error) {
	return e.scoreOp(ctx, roomID, EventDeleteScore, fmt.Sprintf("Score %s was deleted", name), func(_ *room.Room, s models.Scores) (models.Scores, error) {
		if _, exists := s[name]; !exists {
			return nil, apperrors.NotFound("score %q does not exist", name)
		}
		delete(s, name)
		return s, nil
	})
}

// UpdateScore sets one player's value in a series.
func (e *Engine) UpdateScore(ctx context.Context, roomID, name, player string, value int) (models.Scores, error) {
	return e.scoreOp(ctx, roomID, EventUpdateScore, fmt.Sprintf("%s's %s is now %d", player, name, value), func(_ *room.Room, s models.Scores) (models.Scores, error) {
		entries, exists := s[name]
		if !exists {
			return nil, apperrors.NotFound("score %q does not exist", name)
		}
		for i := range entries {
			if entries[i].Name == player {
				entries[i].Value = value
				return s, nil
			}
		}
		return nil, apperrors.NotFound("player %q has no %s score", player, name)
	})
}

// updateScores replaces the whole map with the client's.
func (e *Engine) updateScores(ctx context.Context, _ string, ev updateScoresEvent) error {
	_, err := e.scoreOp(ctx, ev.RoomID, EventUpdateScores, "", func(_ *room.Room, _ models.Scores) (models.Scores, error) {
		return ev.Scores.Clone(), nil
	})
	return err
}

func (e *Engine) createScoreEvent(ctx context.Context, _ string, ev createScoreEvent) error {
	_, err := e.CreateScore(ctx, ev.RoomID, ev.ScoreName, ev.DefaultValue)
	return err
}

func (e *Engine) deleteScoreEvent(ctx context.Context, _ string, ev deleteScoreEvent) error {
	_, err := e.DeleteScore(ctx, ev.RoomID, ev.ScoreName)
	return err
}

func (e *Engine) updateScoreEvent(ctx context.Context, _ string, ev updateScoreEvent) error {
	_, err := e.UpdateScore(ctx, ev.RoomID, ev.ScoreName, ev.PlayerName, ev.NewValue)
	return err
}
