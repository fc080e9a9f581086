package draw

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func makeDeck(n int) *models.Deck {
	d := &models.Deck{Name: models.MainDeck}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("test/%02d.png", i)
		d.Cards = append(d.Cards, models.Card{ID: id, Src: "/decks/" + id})
	}
	return d
}

type fakePopulation []models.Card

func (p fakePopulation) TotalPublicCards() int { return len(p) }
func (p fakePopulation) SamplePublic(pick func(total int) int) (models.Card, bool) {
	i := pick(len(p))
	if i < 0 || i >= len(p) {
		return models.Card{}, false
	}
	return p[i], true
}

func TestDrawWithoutReplacementExhaustsDeck(t *testing.T) {
	for _, size := range []int{1, 2, 7, 52} {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			rng := seeded(uint64(size))
			deck := makeDeck(size)
			want := []string{}
			for _, c := range deck.Cards {
				want = append(want, c.ID)
			}

			got := []string{}
			for i := 0; i < size; i++ {
				before := len(deck.Cards)
				res, err := Draw(rng, nil, deck, 0, Options{})
				require.NoError(t, err)
				require.NotNil(t, res.Card)
				assert.Equal(t, before-1, len(deck.Cards))
				got = append(got, res.Card.ID)
			}
			sort.Strings(got)
			assert.Equal(t, want, got)
			assert.Empty(t, deck.Cards)
		})
	}
}

func TestDrawEmptyNonMainDeckYieldsNothing(t *testing.T) {
	res, err := Draw(seeded(1), nil, &models.Deck{Name: "extra"}, 5, Options{})
	require.NoError(t, err)
	assert.Nil(t, res.Card)
	assert.Equal(t, 5, res.BlankCards)
}

func TestDrawEmptyMainDeckWithoutBlanksYieldsNothing(t *testing.T) {
	res, err := Draw(seeded(1), nil, &models.Deck{Name: models.MainDeck}, 0, Options{MainDeck: true})
	require.NoError(t, err)
	assert.Nil(t, res.Card)
}

func TestDrawNilDeckIsInvalidInput(t *testing.T) {
	_, err := Draw(seeded(1), nil, nil, 0, Options{})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
}

func TestInfiniteModeNeverDepletes(t *testing.T) {
	rng := seeded(7)
	deck := makeDeck(4)
	counts := map[string]int{}
	const trials = 8000
	for i := 0; i < trials; i++ {
		res, err := Draw(rng, nil, deck, 0, Options{Infinite: true})
		require.NoError(t, err)
		require.NotNil(t, res.Card)
		counts[res.Card.ID]++
		require.Len(t, deck.Cards, 4)
	}
	for id, n := range counts {
		assert.InDelta(t, 0.25, float64(n)/trials, 0.03, "card %s", id)
	}
}

func TestBlankProbabilityOnMainDeck(t *testing.T) {
	rng := seeded(42)
	const trials = 20000
	blanks := 0
	for i := 0; i < trials; i++ {
		deck := makeDeck(3)
		res, err := Draw(rng, nil, deck, 1, Options{MainDeck: true})
		require.NoError(t, err)
		require.NotNil(t, res.Card)
		if res.Blank() {
			blanks++
			assert.Equal(t, 0, res.BlankCards)
			assert.Len(t, deck.Cards, 3)
		} else {
			assert.Equal(t, 1, res.BlankCards)
			assert.Len(t, deck.Cards, 2)
		}
	}
	assert.InDelta(t, 0.25, float64(blanks)/trials, 0.02)
}

func TestInfiniteBlankKeepsCounter(t *testing.T) {
	res, err := Draw(seeded(3), nil, &models.Deck{Name: models.MainDeck}, 2, Options{MainDeck: true, Infinite: true})
	require.NoError(t, err)
	require.True(t, res.Blank())
	assert.Equal(t, 2, res.BlankCards)
}

func TestBlankCountIgnoredOffMainDeck(t *testing.T) {
	rng := seeded(9)
	for i := 0; i < 200; i++ {
		deck := makeDeck(1)
		deck.Name = "extra"
		res, err := Draw(rng, nil, deck, 100, Options{})
		require.NoError(t, err)
		require.NotNil(t, res.Card)
		assert.False(t, res.Blank())
	}
}

func TestChaosSamplesCatalogWithoutDepleting(t *testing.T) {
	pop := fakePopulation{{ID: "pub/a"}, {ID: "pub/b"}}
	rng := seeded(11)
	deck := makeDeck(2)
	seen := map[string]bool{}
	for i := 0; i < 500; i++ {
		res, err := Draw(rng, pop, deck, 0, Options{MainDeck: true, Chaos: true})
		require.NoError(t, err)
		require.NotNil(t, res.Card)
		seen[res.Card.ID] = true
	}
	assert.Equal(t, map[string]bool{"pub/a": true, "pub/b": true}, seen)
	assert.Len(t, deck.Cards, 2)
}

func TestChaosBlankProbability(t *testing.T) {
	pop := fakePopulation{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}
	rng := seeded(13)
	const trials = 20000
	blanks := 0
	for i := 0; i < trials; i++ {
		res, err := Draw(rng, pop, makeDeck(0), 1, Options{MainDeck: true, Chaos: true})
		require.NoError(t, err)
		require.NotNil(t, res.Card)
		if res.Blank() {
			blanks++
		}
		assert.Equal(t, 1, res.BlankCards)
	}
	assert.InDelta(t, 0.25, float64(blanks)/trials, 0.02)
}

func TestDrawRejectsOverflowingBlankCount(t *testing.T) {
	deck := makeDeck(10)
	_, err := Draw(seeded(1), nil, deck, math.MaxInt, Options{MainDeck: true})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
	assert.Len(t, deck.Cards, 10)

	// Off the main deck blanks do not count, so the same value is harmless.
	deck.Name = "extra"
	res, err := Draw(seeded(1), nil, deck, math.MaxInt, Options{})
	require.NoError(t, err)
	assert.NotNil(t, res.Card)
}

// countingPopulation records how often the catalog was sampled.
type countingPopulation struct {
	fakePopulation
	calls int
}

func (p *countingPopulation) SamplePublic(pick func(total int) int) (models.Card, bool) {
	p.calls++
	return p.fakePopulation.SamplePublic(pick)
}

func TestChaosSamplesCatalogOnce(t *testing.T) {
	pop := &countingPopulation{fakePopulation: fakePopulation{{ID: "pub/a"}}}
	for i := 0; i < 10; i++ {
		res, err := Draw(seeded(uint64(i)), pop, makeDeck(0), 0, Options{MainDeck: true, Chaos: true})
		require.NoError(t, err)
		require.NotNil(t, res.Card)
		assert.Equal(t, "pub/a", res.Card.ID)
	}
	assert.Equal(t, 10, pop.calls)
}

func TestChaosWithoutCatalogDrawsBlankOnly(t *testing.T) {
	res, err := Draw(seeded(3), fakePopulation{}, makeDeck(0), 2, Options{MainDeck: true, Chaos: true})
	require.NoError(t, err)
	require.NotNil(t, res.Card)
	assert.True(t, res.Blank())

	res, err = Draw(seeded(3), nil, makeDeck(0), 0, Options{MainDeck: true, Chaos: true})
	require.NoError(t, err)
	assert.Nil(t, res.Card)
}

func TestShuffleIsPermutation(t *testing.T) {
	deck := makeDeck(20)
	before := append([]models.Card(nil), deck.Cards...)
	Shuffle(seeded(5), deck.Cards)
	assert.ElementsMatch(t, before, deck.Cards)
}

func TestAvailable(t *testing.T) {
	pop := fakePopulation{{ID: "pub/a"}}
	cards := &models.Deck{Name: "main", Cards: []models.Card{{ID: "x"}}}
	empty := &models.Deck{Name: "main"}

	cases := []struct {
		name  string
		pop   Population
		deck  *models.Deck
		blank int
		opts  Options
		want  bool
	}{
		{"cards left", nil, cards, 0, Options{}, true},
		{"empty side deck", nil, empty, 3, Options{}, false},
		{"blanks on main", nil, empty, 1, Options{MainDeck: true}, true},
		{"exhausted main", nil, empty, 0, Options{MainDeck: true}, false},
		{"chaos with catalog", pop, empty, 0, Options{MainDeck: true, Chaos: true}, true},
		{"chaos without catalog", fakePopulation{}, empty, 0, Options{MainDeck: true, Chaos: true}, false},
		{"nil deck", nil, nil, 0, Options{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Available(tc.pop, tc.deck, tc.blank, tc.opts))
		})
	}
}
