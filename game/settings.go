package game

import (
	"time"

	"github.com/The1Divider/Bathbot/similarity"
)

// Settings are the policy knobs of the engine. They are configuration, not
// invariants; DefaultSettings matches the shipped behavior.
type Settings struct {
	// RoundTimeout ends a round when nobody guesses correctly in time.
	RoundTimeout time.Duration

	// RequestTimeout bounds external image/hint reads against a running loop.
	RequestTimeout time.Duration

	// HistorySize is the capacity of the recently-played FIFO.
	HistorySize int

	// MinScoredCatalog is the smallest eligible catalog for which wins are
	// persisted; smaller custom setups don't pollute the leaderboard.
	MinScoredCatalog int

	// Thresholds are the base similarity cutoffs, scaled by difficulty.
	Thresholds similarity.Thresholds

	// MaxReveal is the reveal level at which the image is fully disclosed.
	MaxReveal int
}

func DefaultSettings() Settings {
	return Settings{
		RoundTimeout:     180 * time.Second,
		RequestTimeout:   time.Second,
		HistorySize:      50,
		MinScoredCatalog: 20,
		Thresholds:       similarity.Thresholds{Edit: 0.5, Gestalt: 0.6},
		MaxReveal:        8,
	}
}
