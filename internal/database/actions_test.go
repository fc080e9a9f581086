package database

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/partydeck/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionLogRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log, err := NewActionLog(ctx, pool)
	require.NoError(t, err)

	roomID := "room-" + uuid.NewString()
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM room_actions WHERE room_id = $1`, roomID) })

	recs := []cache.RoomActionRecord{
		{RoomID: roomID, Actor: "alice", Action: "startGame", Message: "The game has started", Timestamp: 1000},
		{RoomID: roomID, Actor: "bob", Action: "drawCard", Message: "bob drew a card from main", Timestamp: 2000},
	}
	require.NoError(t, log.WriteActions(ctx, recs))
	require.NoError(t, log.WriteActions(ctx, nil))

	got, err := log.RoomActions(ctx, roomID)
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}
