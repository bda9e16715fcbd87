package storage_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/The1Divider/Bathbot/domain"
	"github.com/The1Divider/Bathbot/migrations"
	"github.com/The1Divider/Bathbot/storage"
)

var repo *storage.PostgresRepo

func TestMain(m *testing.M) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	if err := migrations.Migrate(connString); err != nil {
		panic(err)
	}

	repo, err = storage.NewPostgresRepo(ctx, connString)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	// Cleanup
	postgresContainer.Terminate(ctx)
	os.Exit(code)
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()

	var kpopEasy, kpopHard, english int64

	t.Run("InsertItem", func(t *testing.T) {
		var err error
		kpopEasy, err = repo.InsertItem(ctx, "Gee", "gee.png", domain.TagKpop|domain.TagEasy)
		require.NoError(t, err)
		assert.NotZero(t, kpopEasy)

		kpopHard, err = repo.InsertItem(ctx, "Lion Heart", "lion_heart.png", domain.TagKpop|domain.TagHard)
		require.NoError(t, err)

		english, err = repo.InsertItem(ctx, "Africa", "africa.png", domain.TagEnglish)
		require.NoError(t, err)
	})

	t.Run("ListEligible_IncludedTags", func(t *testing.T) {
		items, err := repo.ListEligible(ctx, domain.TagKpop, 0)
		require.NoError(t, err)

		require.Len(t, items, 2)
		assert.Equal(t, kpopEasy, items[0].ID, "results should be ordered by id")
		assert.Equal(t, "Gee", items[0].Title)
		assert.Equal(t, "gee.png", items[0].ImageSource)
		assert.Equal(t, kpopHard, items[1].ID)
	})

	t.Run("ListEligible_ExcludedTags", func(t *testing.T) {
		items, err := repo.ListEligible(ctx, domain.TagKpop, domain.TagHard)
		require.NoError(t, err)

		require.Len(t, items, 1)
		assert.Equal(t, kpopEasy, items[0].ID)
	})

	t.Run("ListEligible_AllTagsRequired", func(t *testing.T) {
		items, err := repo.ListEligible(ctx, domain.TagKpop|domain.TagEasy, 0)
		require.NoError(t, err)

		require.Len(t, items, 1)
		assert.Equal(t, kpopEasy, items[0].ID)
	})

	t.Run("ListEligible_NoMatch", func(t *testing.T) {
		items, err := repo.ListEligible(ctx, domain.TagKpop|domain.TagEnglish, 0)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("ListEligible_NoFilterSeesEverything", func(t *testing.T) {
		items, err := repo.ListEligible(ctx, 0, 0)
		require.NoError(t, err)

		ids := make(map[int64]bool, len(items))
		for _, item := range items {
			ids[item.ID] = true
		}
		assert.True(t, ids[kpopEasy])
		assert.True(t, ids[kpopHard])
		assert.True(t, ids[english])
	})
}

func TestScores(t *testing.T) {
	ctx := context.Background()

	t.Run("IncrementScore_CreatesRow", func(t *testing.T) {
		require.NoError(t, repo.IncrementScore(ctx, "score_alice", 3))

		entries, err := repo.TopScores(ctx, 100)
		require.NoError(t, err)
		assert.Contains(t, entries, domain.ScoreEntry{PlayerID: "score_alice", Wins: 3})
	})

	t.Run("IncrementScore_Accumulates", func(t *testing.T) {
		require.NoError(t, repo.IncrementScore(ctx, "score_alice", 2))

		entries, err := repo.TopScores(ctx, 100)
		require.NoError(t, err)
		assert.Contains(t, entries, domain.ScoreEntry{PlayerID: "score_alice", Wins: 5})
	})

	t.Run("TopScores_OrderAndLimit", func(t *testing.T) {
		require.NoError(t, repo.IncrementScore(ctx, "score_bob", 9))
		require.NoError(t, repo.IncrementScore(ctx, "score_carol", 9))

		entries, err := repo.TopScores(ctx, 3)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, "score_bob", entries[0].PlayerID, "ties broken by player id")
		assert.Equal(t, "score_carol", entries[1].PlayerID)
		assert.Equal(t, "score_alice", entries[2].PlayerID)
	})
}
