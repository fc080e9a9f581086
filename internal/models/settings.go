package models

// DefaultScoreSeries is seeded for every player when a game starts.
const DefaultScoreSeries = "Points"

// MaxBlankCards caps the blank slots a game may start with.
const MaxBlankCards = 10000

// ScoreEntry is one player's value in a score series.
type ScoreEntry struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Scores maps a series name to its ordered entries.
type Scores map[string][]ScoreEntry

// Clone returns a deep copy.
func (s Scores) Clone() Scores {
	if s == nil {
		return Scores{}
	}
	out := make(Scores, len(s))
	for name, entries := range s {
		out[name] = append([]ScoreEntry(nil), entries...)
	}
	return out
}

// Settings is the per-room game configuration document.
type Settings struct {
	InfiniteMode bool   `json:"infiniteMode"`
	ChaosMode    bool   `json:"chaosMode"`
	BlankCards   int    `json:"blankCards"`
	LogMoves     bool   `json:"logMoves"`
	Scores       Scores `json:"scores"`
}
