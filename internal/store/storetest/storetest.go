// Package storetest holds the conformance checks every store.Backend must pass.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/jason-s-yu/partydeck/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBackend exercises b. The backend must start empty for the room ids
// used here.
func RunBackend(t *testing.T, b store.Backend) {
	t.Helper()
	ctx := context.Background()
	room := "conformance-room"
	other := "conformance-other"
	t.Cleanup(func() {
		_ = b.DeleteRoom(ctx, room)
		_ = b.DeleteRoom(ctx, other)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := b.Get(ctx, store.Key{Room: room, Category: store.CategoryDecks, Name: "nope"})
		assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	})

	t.Run("put replaces whole document", func(t *testing.T) {
		key := store.Key{Room: room, Category: store.CategoryDecks, Name: "main"}
		require.NoError(t, b.Put(ctx, key, []byte(`{"cards":[1,2,3]}`)))
		require.NoError(t, b.Put(ctx, key, []byte(`{"cards":[]}`)))
		got, err := b.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"cards":[]}`, string(got))
	})

	t.Run("list is per room and category", func(t *testing.T) {
		for _, name := range []string{"zed", "alice", "bob"} {
			require.NoError(t, b.Put(ctx, store.Key{Room: room, Category: store.CategoryHands, Name: name}, []byte(`{}`)))
		}
		require.NoError(t, b.Put(ctx, store.Key{Room: other, Category: store.CategoryHands, Name: "carol"}, []byte(`{}`)))

		names, err := b.List(ctx, room, store.CategoryHands)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob", "zed"}, names)

		names, err = b.List(ctx, room, store.CategorySettings)
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("delete room leaves other rooms", func(t *testing.T) {
		require.NoError(t, b.DeleteRoom(ctx, room))
		names, err := b.List(ctx, room, store.CategoryHands)
		require.NoError(t, err)
		assert.Empty(t, names)
		_, err = b.Get(ctx, store.Key{Room: room, Category: store.CategoryDecks, Name: "main"})
		assert.True(t, errors.Is(err, store.ErrNotFound))

		names, err = b.List(ctx, other, store.CategoryHands)
		require.NoError(t, err)
		assert.Equal(t, []string{"carol"}, names)
	})
}
