// Package draw implements card selection for room decks: uniform draws with
// or without replacement, blank slots on the main deck, and chaos-mode
// sampling from the public catalog.
package draw

import (
	"math"
	"math/rand/v2"

	apperrors "github.com/jason-s-yu/partydeck/internal/errors"
	"github.com/jason-s-yu/partydeck/internal/models"
)

// Source is the randomness a draw consumes. *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
	Float64() float64
}

// Global draws from the process-wide math/rand/v2 generator, which is safe
// for concurrent use.
type Global struct{}

func (Global) IntN(n int) int   { return rand.IntN(n) }
func (Global) Float64() float64 { return rand.Float64() }

// Population is the public catalog chaos-mode samples from. SamplePublic
// calls pick once with the public card total and returns the card at the
// index pick chose, all against one view of the catalog. A negative index
// selects nothing.
type Population interface {
	TotalPublicCards() int
	SamplePublic(pick func(total int) int) (models.Card, bool)
}

// Options are the mode flags for a single draw.
type Options struct {
	MainDeck bool
	Infinite bool
	Chaos    bool
}

// Result is the outcome of one draw. Card is nil when nothing was drawn.
type Result struct {
	Card       *models.Card
	BlankCards int
}

// Blank reports whether the draw landed on a blank slot.
func (r Result) Blank() bool {
	return r.Card != nil && r.Card.IsBlank()
}

// Draw selects one card from deck, removing it unless opts.Infinite is set.
// blankCards only counts toward the population of the main deck.
func Draw(rng Source, pop Population, deck *models.Deck, blankCards int, opts Options) (Result, error) {
	if deck == nil {
		return Result{}, apperrors.InvalidInput("deck is not a card sequence")
	}
	if blankCards < 0 {
		blankCards = 0
	}
	res := Result{BlankCards: blankCards}

	if opts.MainDeck && opts.Chaos {
		return chaos(rng, pop, blankCards), nil
	}

	size := len(deck.Cards)
	population := size
	if opts.MainDeck {
		if blankCards > math.MaxInt-size {
			return Result{}, apperrors.InvalidInput("blank card count %d is out of range", blankCards)
		}
		population += blankCards
	}
	if population <= 0 {
		return res, nil
	}

	idx := rng.IntN(population)
	if idx >= size {
		blank := models.BlankCard
		res.Card = &blank
		if !opts.Infinite {
			res.BlankCards--
		}
		return res, nil
	}

	card := deck.Cards[idx]
	if !opts.Infinite {
		deck.Cards = append(deck.Cards[:idx], deck.Cards[idx+1:]...)
	}
	res.Card = &card
	return res, nil
}

// Available reports whether a draw with these arguments could yield a card.
func Available(pop Population, deck *models.Deck, blankCards int, opts Options) bool {
	if blankCards < 0 {
		blankCards = 0
	}
	if opts.MainDeck && opts.Chaos {
		return blankCards > 0 || (pop != nil && pop.TotalPublicCards() > 0)
	}
	if deck == nil {
		return false
	}
	if opts.MainDeck && blankCards > 0 {
		return true
	}
	return len(deck.Cards) > 0
}

// chaos ignores the room deck and samples the whole public catalog. Nothing
// is depleted, the blank counter included.
func chaos(rng Source, pop Population, blankCards int) Result {
	res := Result{BlankCards: blankCards}
	blank := false
	pick := func(total int) int {
		if total <= 0 {
			blank = blankCards > 0
			return -1
		}
		if rng.Float64() < float64(blankCards)/float64(total) {
			blank = true
			return -1
		}
		return rng.IntN(total)
	}

	var (
		card models.Card
		ok   bool
	)
	if pop != nil {
		card, ok = pop.SamplePublic(pick)
	} else {
		pick(0)
	}
	switch {
	case blank:
		b := models.BlankCard
		res.Card = &b
	case ok:
		res.Card = &card
	}
	return res
}

// Shuffle applies one uniform Fisher-Yates permutation in place.
func Shuffle(rng Source, cards []models.Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
