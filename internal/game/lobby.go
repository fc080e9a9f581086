package game

import (
	"context"
	"strings"

	"github.com/jason-s-yu/partydeck/internal/bus"
	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/jason-s-yu/partydeck/internal/room"
)

func (e *Engine) hostRoom(_ context.Context, connID string, ev hostRoomEvent) error {
	snap, err := e.rooms.Host(ev.Username, connID)
	if err != nil {
		return err
	}
	e.bus.Join(snap.ID, connID)
	e.bus.Send(connID, bus.Event{Type: EventRoomCreated, Payload: RoomCreated{RoomID: snap.ID, Room: snap}})
	return nil
}

func (e *Engine) joinRoom(_ context.Context, connID string, ev joinRoomEvent) error {
	if _, _, err := e.rooms.Join(ev.RoomID, ev.Username, connID, ev.IsHost); err != nil {
		return err
	}
	e.bus.Join(ev.RoomID, connID)
	return e.publishRoom(ev.RoomID)
}

// publishRoom broadcasts the room's current snapshot under its lock.
func (e *Engine) publishRoom(roomID string) error {
	return e.inRoom(roomID, func(rm *room.Room, out *outbox) error {
		out.room(EventUpdateRoom, rm.Snapshot())
		return nil
	})
}

// joinGame subscribes the connection to an existing room and replays the
// canvas and chat history to it alone.
func (e *Engine) joinGame(_ context.Context, connID string, ev roomEvent) error {
	return e.inRoom(ev.RoomID, func(rm *room.Room, out *outbox) error {
		e.bus.Join(rm.ID, connID)
		out.to(connID, EventUpdateImages, rm.ImagesCopy())
		out.to(connID, EventChatMessage, append([]models.ChatMessage{}, rm.Messages...))
		return nil
	})
}

func (e *Engine) leaveRoom(ctx context.Context, connID string, ev roomEvent) error {
	dep, err := e.rooms.Leave(ctx, ev.RoomID, connID)
	if err != nil {
		return err
	}
	e.bus.Leave(ev.RoomID, connID)
	e.afterDeparture(dep)
	return nil
}

// Disconnect drops connID from every room it sits in. It is safe to call
// more than once for the same connection.
func (e *Engine) Disconnect(ctx context.Context, connID string) {
	for _, dep := range e.rooms.Disconnect(ctx, connID) {
		e.bus.Leave(dep.RoomID, connID)
		e.afterDeparture(dep)
	}
}

func (e *Engine) afterDeparture(dep room.Departure) {
	if dep.Disposed {
		e.bus.CloseRoom(dep.RoomID)
		return
	}
	if err := e.publishRoom(dep.RoomID); err != nil && !apperrors.Is(err, apperrors.CodeNotFound) {
		e.roomLog(dep.RoomID, EventLeaveRoom).Warnf("publish room after departure: %v", err)
	}
}

// endGame disposes the room whatever its state.
func (e *Engine) endGame(ctx context.Context, _ string, ev roomEvent) error {
	if strings.TrimSpace(ev.RoomID) == "" {
		return apperrors.InvalidInput("room id is required")
	}
	if err := e.rooms.Dispose(ctx, ev.RoomID); err != nil {
		return err
	}
	e.bus.CloseRoom(ev.RoomID)
	e.roomLog(ev.RoomID, EventEndGame).Info("game ended")
	return nil
}

func (e *Engine) chatMessage(_ context.Context, _ string, ev chatMessageEvent) error {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return apperrors.InvalidInput("chat message is empty")
	}
	return e.inRoom(ev.RoomID, func(rm *room.Room, out *outbox) error {
		msg := models.ChatMessage{
			Kind:     models.ChatKindChat,
			Username: ev.Username,
			Text:     text,
			Color:    ev.Color,
			Time:     e.now(),
		}
		rm.Messages = append(rm.Messages, msg)
		out.room(EventChatMessage, []models.ChatMessage{msg})
		return nil
	})
}
