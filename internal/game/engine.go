// Package game is the room state machine. Inbound events are decoded by
// type, run against the room's documents under the room lock, and answered
// with broadcast or targeted events.
package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/partydeck/internal/bus"
	"github.com/jason-s-yu/partydeck/internal/catalog"
	"github.com/jason-s-yu/partydeck/internal/draw"
	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/jason-s-yu/partydeck/internal/room"
	"github.com/jason-s-yu/partydeck/internal/store"
	"github.com/sirupsen/logrus"
)

// Broadcaster delivers events to room subscribers or single connections.
// *bus.Hub satisfies it.
type Broadcaster interface {
	Join(roomID, connID string)
	Leave(roomID, connID string)
	CloseRoom(roomID string)
	Publish(roomID string, ev bus.Event)
	Send(connID string, ev bus.Event)
}

// ActionRecorder receives every room log entry. *cache.ActionQueue
// satisfies it.
type ActionRecorder interface {
	PublishRoomAction(ctx context.Context, roomID, actor, action, message string, at time.Time) error
}

type nopRecorder struct{}

func (nopRecorder) PublishRoomAction(context.Context, string, string, string, string, time.Time) error {
	return nil
}

// lockedSource guards a non-concurrent source shared by rooms running in
// parallel.
type lockedSource struct {
	mu  sync.Mutex
	src draw.Source
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.IntN(n)
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

type handlerFunc func(ctx context.Context, connID string, raw []byte) error

// Engine routes room events to their handlers.
type Engine struct {
	rooms    *room.Registry
	store    *store.Store
	catalog  catalog.Catalog
	bus      Broadcaster
	recorder ActionRecorder
	rng      draw.Source
	logger   *logrus.Logger
	now      func() time.Time
	newToken func() string

	routes map[string]handlerFunc
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRecorder publishes room log entries to r.
func WithRecorder(r ActionRecorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

// WithRand replaces the global random source, e.g. with a seeded one.
func WithRand(src draw.Source) Option {
	return func(e *Engine) {
		e.rng = &lockedSource{src: src}
	}
}

// WithClock overrides the timestamp source for log entries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires an engine over the registry, store and catalog.
func NewEngine(rooms *room.Registry, st *store.Store, cat catalog.Catalog, b Broadcaster, logger *logrus.Logger, opts ...Option) *Engine {
	e := &Engine{
		rooms:    rooms,
		store:    st,
		catalog:  cat,
		bus:      b,
		recorder: nopRecorder{},
		rng:      draw.Global{},
		logger:   logger,
		now:      time.Now,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.routes = map[string]handlerFunc{
		EventHostRoom:             handle(e.hostRoom),
		EventJoinRoom:             handle(e.joinRoom),
		EventJoinGame:             handle(e.joinGame),
		EventLeaveRoom:            handle(e.leaveRoom),
		EventEndGame:              handle(e.endGame),
		EventChatMessage:          handle(e.chatMessage),
		EventStartGame:            handle(e.startGame),
		EventDrawCard:             handle(e.drawCard),
		EventDealCard:             handle(e.dealCard),
		EventDrawCardToField:      handle(e.drawCardToField),
		EventPlayCard:             handle(e.playCard),
		EventDiscardCard:          handle(e.discardCard),
		EventShuffleInCard:        handle(e.shuffleInCard),
		EventUpdateImagePositions: handle(e.updateImagePositions),
		EventStealCard:            handle(e.stealCard),
		EventUpdateScores:         handle(e.updateScores),
		EventCreateScore:          handle(e.createScoreEvent),
		EventDeleteScore:          handle(e.deleteScoreEvent),
		EventUpdateScore:          handle(e.updateScoreEvent),
	}
	return e
}

// handle decodes the flat event object into T before calling fn.
func handle[T any](fn func(ctx context.Context, connID string, ev T) error) handlerFunc {
	return func(ctx context.Context, connID string, raw []byte) error {
		var ev T
		if err := json.Unmarshal(raw, &ev); err != nil {
			return apperrors.InvalidInput("malformed event payload: %v", err)
		}
		return fn(ctx, connID, ev)
	}
}

// Dispatch runs one inbound frame from connID. Failures are reported to
// connID only.
func (e *Engine) Dispatch(ctx context.Context, connID string, raw []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		e.reportError(connID, "", apperrors.InvalidInput("malformed event: %v", err))
		return
	}
	h, ok := e.routes[env.Type]
	if !ok {
		e.reportError(connID, env.Type, apperrors.InvalidInput("unknown event type %q", env.Type))
		return
	}
	if err := h(ctx, connID, raw); err != nil {
		e.reportError(connID, env.Type, err)
	}
}

func (e *Engine) reportError(connID, eventType string, err error) {
	code := apperrors.CodeOf(err)
	entry := e.logger.WithFields(logrus.Fields{"conn": connID, "event": eventType, "code": code})
	if code == apperrors.CodeInternal {
		entry.WithError(err).Error("event failed")
	} else {
		entry.Warnf("event rejected: %v", err)
	}
	e.bus.Send(connID, bus.Event{
		Type:    EventError,
		Payload: ErrorPayload{Code: string(code), Message: apperrors.PublicMessage(err)},
	})
}

// delivery is one queued event; an empty connID addresses the whole room.
type delivery struct {
	connID string
	ev     bus.Event
}

// outbox collects a handler's events so they go out in order, and only when
// the handler succeeded.
type outbox struct {
	items []delivery
}

func (o *outbox) room(typ string, payload any) {
	o.items = append(o.items, delivery{ev: bus.Event{Type: typ, Payload: payload}})
}

func (o *outbox) to(connID, typ string, payload any) {
	o.items = append(o.items, delivery{connID: connID, ev: bus.Event{Type: typ, Payload: payload}})
}

func (e *Engine) flush(roomID string, out *outbox) {
	for _, d := range out.items {
		if d.connID == "" {
			e.bus.Publish(roomID, d.ev)
		} else {
			e.bus.Send(d.connID, d.ev)
		}
	}
}

// inRoom runs fn under the room lock and flushes its outbox before the lock
// is released, so every room observes events in commit order.
func (e *Engine) inRoom(roomID string, fn func(rm *room.Room, out *outbox) error) error {
	return e.rooms.WithRoom(roomID, func(rm *room.Room) error {
		out := &outbox{}
		if err := fn(rm, out); err != nil {
			return err
		}
		e.flush(rm.ID, out)
		return nil
	})
}

// logAction appends an action entry to the chat feed and hands it to the
// recorder. Recorder failures are logged and otherwise ignored.
func (e *Engine) logAction(ctx context.Context, rm *room.Room, out *outbox, actor, action, text, color string) {
	msg := models.ChatMessage{
		Kind:     models.ChatKindAction,
		Username: actor,
		Text:     text,
		Color:    color,
		Time:     e.now(),
	}
	rm.Messages = append(rm.Messages, msg)
	out.room(EventChatMessage, []models.ChatMessage{msg})

	if err := e.recorder.PublishRoomAction(ctx, rm.ID, actor, action, text, msg.Time); err != nil {
		e.logger.WithFields(logrus.Fields{"room": rm.ID, "event": action}).Warnf("publish room action: %v", err)
	}
}

// roomLog returns a logger scoped to one room event.
func (e *Engine) roomLog(roomID, event string) *logrus.Entry {
	return e.logger.WithFields(logrus.Fields{"room": roomID, "event": event})
}
