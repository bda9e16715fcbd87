package domain

// ScoreEntry is one row of the persisted win leaderboard.
type ScoreEntry struct {
	PlayerID string
	Wins     int64
}
