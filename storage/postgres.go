package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/The1Divider/Bathbot/domain"
)

// PostgresRepo backs the catalog and the persisted score ledger.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (repo *PostgresRepo) Close() {
	repo.pool.Close()
}

// ListEligible returns the items whose tag set contains every included tag
// and none of the excluded ones. Ordering is stable so the eligible set does
// not shift within a session.
func (repo *PostgresRepo) ListEligible(ctx context.Context, included, excluded domain.Tags) ([]domain.PlayableItem, error) {
	query := `SELECT id, title, image_source FROM items
		WHERE tags & $1 = $1 AND tags & $2 = 0
		ORDER BY id`

	rows, err := repo.pool.Query(ctx, query, int64(included), int64(excluded))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	defer rows.Close()

	var items []domain.PlayableItem
	for rows.Next() {
		var item domain.PlayableItem
		if err := rows.Scan(&item.ID, &item.Title, &item.ImageSource); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	return items, nil
}

// InsertItem adds an item to the catalog and returns its id.
func (repo *PostgresRepo) InsertItem(ctx context.Context, title, imageSource string, tags domain.Tags) (int64, error) {
	row := repo.pool.QueryRow(ctx,
		"INSERT INTO items(title, image_source, tags) VALUES($1, $2, $3) RETURNING id",
		title, imageSource, int64(tags))

	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	return id, nil
}

// IncrementScore adds amount to the player's persisted win count, creating
// the row on first win.
func (repo *PostgresRepo) IncrementScore(ctx context.Context, playerID string, amount int) error {
	query := `INSERT INTO game_scores(player_id, wins) VALUES($1, $2)
		ON CONFLICT (player_id) DO UPDATE SET wins = game_scores.wins + EXCLUDED.wins`

	if _, err := repo.pool.Exec(ctx, query, playerID, amount); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	return nil
}

// TopScores lists the highest win counts, ties broken by player id so the
// order is deterministic.
func (repo *PostgresRepo) TopScores(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	query := `SELECT player_id, wins FROM game_scores ORDER BY wins DESC, player_id LIMIT $1`

	rows, err := repo.pool.Query(ctx, query, limit)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	defer rows.Close()

	var entries []domain.ScoreEntry
	for rows.Next() {
		var entry domain.ScoreEntry
		if err := rows.Scan(&entry.PlayerID, &entry.Wins); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	return entries, nil
}
