package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/jason-s-yu/partydeck/internal/store"
	"github.com/jason-s-yu/partydeck/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendConformance(t *testing.T) {
	storetest.RunBackend(t, store.NewMemoryBackend())
}

func TestDocumentRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	_, err := s.GetSettings(ctx, "r1")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	st := &models.Settings{BlankCards: 2, Scores: models.Scores{"Points": {{Name: "alice"}}}}
	require.NoError(t, s.PutSettings(ctx, "r1", st))
	got, err := s.GetSettings(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, st, got)

	require.NoError(t, s.PutDeck(ctx, "r1", &models.Deck{Name: "discard"}))
	deck, err := s.GetDeck(ctx, "r1", "discard")
	require.NoError(t, err)
	assert.NotNil(t, deck.Cards)
	assert.Empty(t, deck.Cards)

	require.NoError(t, s.PutHand(ctx, "r1", &models.Hand{Username: "alice", IsHost: true}))
	hand, err := s.GetHand(ctx, "r1", "alice")
	require.NoError(t, err)
	assert.True(t, hand.IsHost)

	_, err = s.GetHand(ctx, "r1", "bob")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestMalformedDeckIsInvalidInput(t *testing.T) {
	ctx := context.Background()
	b := store.NewMemoryBackend()
	s := store.New(b)
	require.NoError(t, b.Put(ctx, store.Key{Room: "r1", Category: store.CategoryDecks, Name: "main"}, []byte(`{"cards":"oops"}`)))

	_, err := s.GetDeck(ctx, "r1", "main")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
}

func TestUniqueDeckName(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()

	name, err := s.UniqueDeckName(ctx, "r1", "monsters")
	require.NoError(t, err)
	assert.Equal(t, "monsters", name)

	require.NoError(t, s.PutDeck(ctx, "r1", &models.Deck{Name: "monsters"}))
	require.NoError(t, s.PutDeck(ctx, "r1", &models.Deck{Name: "monsters_1"}))
	name, err = s.UniqueDeckName(ctx, "r1", "monsters")
	require.NoError(t, err)
	assert.Equal(t, "monsters_2", name)

	require.NoError(t, s.PutDeck(ctx, "r1", &models.Deck{Name: models.MainDeck}))
	name, err = s.UniqueDeckName(ctx, "r1", models.MainDeck)
	require.NoError(t, err)
	assert.Equal(t, "main_1", name)

	name, err = s.UniqueDeckName(ctx, "r2", models.DiscardDeck)
	require.NoError(t, err)
	assert.Equal(t, "discard_1", name)
}

func TestDeleteRoom(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.PutHand(ctx, "r1", &models.Hand{Username: "alice"}))
	require.NoError(t, s.PutHand(ctx, "r2", &models.Hand{Username: "bob"}))

	require.NoError(t, s.DeleteRoom(ctx, "r1"))
	hands, err := s.ListHands(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, hands)
	hands, err = s.ListHands(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, hands)
}

// A read-modify-write under Lock must never lose an update.
func TestLockSerializesRoomUpdates(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.PutSettings(ctx, "r1", &models.Settings{}))

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock("r1")
			defer unlock()
			st, err := s.GetSettings(ctx, "r1")
			if !assert.NoError(t, err) {
				return
			}
			st.BlankCards++
			assert.NoError(t, s.PutSettings(ctx, "r1", st))
		}()
	}
	wg.Wait()

	st, err := s.GetSettings(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, workers, st.BlankCards)
}

func TestLockDoesNotBlockOtherRooms(t *testing.T) {
	s := store.NewMemory()
	unlock := s.Lock("busy")
	defer unlock()

	done := make(chan struct{})
	go func() {
		u := s.Lock("idle")
		u()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another room blocked")
	}
}
