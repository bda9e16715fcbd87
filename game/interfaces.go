package game

import (
	"context"

	"github.com/The1Divider/Bathbot/domain"
)

// Catalog lists the items eligible for a session given its tag filters.
// The result must be stable for the same filters within a session's lifetime.
type Catalog interface {
	ListEligible(ctx context.Context, included, excluded domain.Tags) ([]domain.PlayableItem, error)
}

// ScoreStore persists win counts across sessions.
type ScoreStore interface {
	IncrementScore(ctx context.Context, playerID string, amount int) error
	TopScores(ctx context.Context, limit int) ([]domain.ScoreEntry, error)
}

// Renderer produces the partially revealed image for a round. Same inputs
// must produce the same bytes.
type Renderer interface {
	Render(source string, level int, effects domain.Effects) ([]byte, error)
}
