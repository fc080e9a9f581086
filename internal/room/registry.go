package room

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/jason-s-yu/partydeck/internal/store"
	"github.com/sirupsen/logrus"
)

// Registry is the table of active rooms. Room mutations are serialized by
// the store's per-room lock; the registry mutex only guards the map itself
// and is never held while waiting on a room lock.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*Room
	store  *store.Store
	logger *logrus.Logger

	// NewID mints room ids.
	NewID func() string
}

// Departure describes the effect of a connection leaving one room.
type Departure struct {
	RoomID   string
	Snapshot models.RoomSnapshot
	Disposed bool
}

// NewRegistry builds an empty registry over st.
func NewRegistry(st *store.Store, logger *logrus.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		store:  st,
		logger: logger,
		NewID:  uuid.NewString,
	}
}

func (reg *Registry) lookup(id string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rm, ok := reg.rooms[id]
	return rm, ok
}

func (reg *Registry) getOrCreate(id string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	rm, ok := reg.rooms[id]
	if !ok {
		rm = newRoom(id)
		reg.rooms[id] = rm
		reg.logger.WithField("room", id).Info("room created")
	}
	return rm
}

// Exists reports whether the room is active.
func (reg *Registry) Exists(id string) bool {
	_, ok := reg.lookup(id)
	return ok
}

// IDs lists the active room ids.
func (reg *Registry) IDs() []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	ids := make([]string, 0, len(reg.rooms))
	for id := range reg.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// acquire locks an existing, live room. A room disposed while we waited is
// looked up again, since a join may have recreated it.
func (reg *Registry) acquire(id string) (*Room, func(), error) {
	for {
		rm, ok := reg.lookup(id)
		if !ok {
			return nil, nil, apperrors.NotFound("room %q does not exist", id)
		}
		unlock := reg.store.Lock(id)
		if !rm.disposed {
			return rm, unlock, nil
		}
		unlock()
	}
}

// WithRoom runs fn with the room locked. Every mutating room operation goes
// through here.
func (reg *Registry) WithRoom(id string, fn func(rm *Room) error) error {
	rm, unlock, err := reg.acquire(id)
	if err != nil {
		return err
	}
	defer unlock()
	return fn(rm)
}

// Host creates a fresh room with username as its only, hosting player.
func (reg *Registry) Host(username, connID string) (models.RoomSnapshot, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.RoomSnapshot{}, apperrors.InvalidInput("username is required")
	}

	reg.mu.Lock()
	id := reg.NewID()
	for _, taken := reg.rooms[id]; taken; _, taken = reg.rooms[id] {
		id = reg.NewID()
	}
	rm := newRoom(id)
	rm.Players = append(rm.Players, models.Player{ConnID: connID, Username: username, IsHost: true})
	reg.rooms[id] = rm
	reg.mu.Unlock()

	unlock := reg.store.Lock(id)
	defer unlock()
	reg.logger.WithFields(logrus.Fields{"room": id, "user": username}).Info("room hosted")
	return rm.Snapshot(), nil
}

// Join seats username in the room, creating the room if needed. A taken
// username gets the first free numeric suffix.
func (reg *Registry) Join(id, username, connID string, isHost bool) (models.Player, models.RoomSnapshot, error) {
	username = strings.TrimSpace(username)
	if strings.TrimSpace(id) == "" {
		return models.Player{}, models.RoomSnapshot{}, apperrors.InvalidInput("room id is required")
	}
	if username == "" {
		return models.Player{}, models.RoomSnapshot{}, apperrors.InvalidInput("username is required")
	}

	for {
		rm := reg.getOrCreate(id)
		unlock := reg.store.Lock(id)
		if rm.disposed {
			unlock()
			continue
		}
		p := models.Player{ConnID: connID, Username: rm.uniqueUsername(username), IsHost: isHost}
		rm.Players = append(rm.Players, p)
		snap := rm.Snapshot()
		unlock()

		reg.logger.WithFields(logrus.Fields{"room": id, "user": p.Username}).Info("player joined")
		return p, snap, nil
	}
}

// Leave removes connID's seat. The room is disposed when it empties before
// the game started.
func (reg *Registry) Leave(ctx context.Context, id, connID string) (Departure, error) {
	rm, unlock, err := reg.acquire(id)
	if err != nil {
		return Departure{}, err
	}
	defer unlock()
	return reg.depart(ctx, rm, connID), nil
}

// Disconnect removes connID from every room it sits in. Calling it again for
// the same connection is a no-op.
func (reg *Registry) Disconnect(ctx context.Context, connID string) []Departure {
	var out []Departure
	for _, id := range reg.IDs() {
		rm, unlock, err := reg.acquire(id)
		if err != nil {
			continue
		}
		if rm.HasConn(connID) {
			out = append(out, reg.depart(ctx, rm, connID))
		}
		unlock()
	}
	return out
}

// depart assumes the room lock is held.
func (reg *Registry) depart(ctx context.Context, rm *Room, connID string) Departure {
	rm.removeConn(connID)
	d := Departure{RoomID: rm.ID, Snapshot: rm.Snapshot()}
	if rm.Disposable() {
		reg.disposeLocked(ctx, rm)
		d.Disposed = true
	}
	return d
}

// Dispose removes the room's in-memory state and stored documents whether
// or not the room is active.
func (reg *Registry) Dispose(ctx context.Context, id string) error {
	rm, unlock, err := reg.acquire(id)
	if apperrors.Is(err, apperrors.CodeNotFound) {
		unlock := reg.store.Lock(id)
		defer unlock()
		return reg.store.DeleteRoom(ctx, id)
	}
	if err != nil {
		return err
	}
	defer unlock()
	return reg.disposeLocked(ctx, rm)
}

func (reg *Registry) disposeLocked(ctx context.Context, rm *Room) error {
	rm.disposed = true
	reg.mu.Lock()
	if reg.rooms[rm.ID] == rm {
		delete(reg.rooms, rm.ID)
	}
	reg.mu.Unlock()

	if err := reg.store.DeleteRoom(ctx, rm.ID); err != nil {
		reg.logger.WithField("room", rm.ID).Errorf("delete room storage: %v", err)
		return err
	}
	reg.logger.WithField("room", rm.ID).Info("room disposed")
	return nil
}
