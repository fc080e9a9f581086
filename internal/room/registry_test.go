package room

import (
	"context"
	"io"
	"sync"
	"testing"

	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/jason-s-yu/partydeck/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() (*Registry, *store.Store) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	st := store.NewMemory()
	return NewRegistry(st, l), st
}

func TestHostCreatesRoomWithHost(t *testing.T) {
	reg, _ := newTestRegistry()
	snap, err := reg.Host("alice", "c1")
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.True(t, reg.Exists(snap.ID))
	require.Len(t, snap.Players, 1)
	assert.Equal(t, models.Player{ConnID: "c1", Username: "alice", IsHost: true}, snap.Players[0])
	assert.False(t, snap.GameStarted)
}

func TestHostRequiresUsername(t *testing.T) {
	reg, _ := newTestRegistry()
	_, err := reg.Host("  ", "c1")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
}

func TestJoinSuffixesTakenUsernames(t *testing.T) {
	reg, _ := newTestRegistry()
	names := []string{}
	for i, conn := range []string{"c1", "c2", "c3"} {
		p, snap, err := reg.Join("r1", "Alice", conn, i == 0)
		require.NoError(t, err)
		names = append(names, p.Username)
		assert.Len(t, snap.Players, i+1)
	}
	assert.Equal(t, []string{"Alice", "Alice1", "Alice2"}, names)
}

func TestJoinValidatesInput(t *testing.T) {
	reg, _ := newTestRegistry()
	_, _, err := reg.Join("", "bob", "c1", false)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
	_, _, err = reg.Join("r1", "", "c1", false)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
	assert.False(t, reg.Exists("r1"))
}

func TestLeaveDisposesEmptyLobby(t *testing.T) {
	ctx := context.Background()
	reg, st := newTestRegistry()
	_, _, err := reg.Join("r1", "alice", "c1", true)
	require.NoError(t, err)
	require.NoError(t, st.PutHand(ctx, "r1", &models.Hand{Username: "alice"}))

	dep, err := reg.Leave(ctx, "r1", "c1")
	require.NoError(t, err)
	assert.True(t, dep.Disposed)
	assert.False(t, reg.Exists("r1"))

	hands, err := st.ListHands(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, hands)

	_, err = reg.Leave(ctx, "r1", "c1")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestStartedRoomSurvivesEmpty(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry()
	_, _, err := reg.Join("r1", "alice", "c1", true)
	require.NoError(t, err)
	require.NoError(t, reg.WithRoom("r1", func(rm *Room) error {
		rm.GameStarted = true
		return nil
	}))

	dep, err := reg.Leave(ctx, "r1", "c1")
	require.NoError(t, err)
	assert.False(t, dep.Disposed)
	assert.Empty(t, dep.Snapshot.Players)
	assert.True(t, reg.Exists("r1"))
}

func TestDisconnectIsIdempotent(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry()
	_, _, err := reg.Join("r1", "alice", "c1", true)
	require.NoError(t, err)
	_, _, err = reg.Join("r1", "bob", "c2", false)
	require.NoError(t, err)
	_, _, err = reg.Join("r2", "alice", "c1", true)
	require.NoError(t, err)

	deps := reg.Disconnect(ctx, "c1")
	require.Len(t, deps, 2)
	byRoom := map[string]Departure{}
	for _, d := range deps {
		byRoom[d.RoomID] = d
	}
	assert.False(t, byRoom["r1"].Disposed)
	assert.Equal(t, []models.Player{{ConnID: "c2", Username: "bob"}}, byRoom["r1"].Snapshot.Players)
	assert.True(t, byRoom["r2"].Disposed)

	assert.Empty(t, reg.Disconnect(ctx, "c1"))
	assert.Equal(t, []string{"r1"}, reg.IDs())
}

func TestDisposeClearsStorageForUnknownRoom(t *testing.T) {
	ctx := context.Background()
	reg, st := newTestRegistry()
	require.NoError(t, st.PutDeck(ctx, "ghost", &models.Deck{Name: models.MainDeck}))

	require.NoError(t, reg.Dispose(ctx, "ghost"))
	decks, err := st.ListDecks(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, decks)
}

func TestWithRoomMissing(t *testing.T) {
	reg, _ := newTestRegistry()
	err := reg.WithRoom("nope", func(*Room) error { return nil })
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestConcurrentJoinsGetDistinctNames(t *testing.T) {
	reg, _ := newTestRegistry()
	const n = 16
	var wg sync.WaitGroup
	names := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, _, err := reg.Join("r1", "guest", string(rune('a'+i)), false)
			if assert.NoError(t, err) {
				names <- p.Username
			}
		}(i)
	}
	wg.Wait()
	close(names)

	seen := map[string]bool{}
	for name := range names {
		assert.False(t, seen[name], "duplicate username %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, n)
}
