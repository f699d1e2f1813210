package assets

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRepo(t *testing.T) (Repository, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping assets integration test in short mode")
	}

	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("scribe_test"),
		tcpostgres.WithUsername("scribe"),
		tcpostgres.WithPassword("scribe"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool))

	return NewRepository(pool), ctx
}

func TestRepository_RecordAndList(t *testing.T) {
	repo, ctx := setupRepo(t)

	a := &Asset{
		Key:         "pdfs/1700000000000-doc.pdf",
		PublicURL:   "http://cdn.local/media/pdfs/1700000000000-doc.pdf",
		Category:    "pdf",
		ContentType: "application/pdf",
		Size:        5 << 20,
		Name:        "doc.pdf",
	}
	require.NoError(t, repo.Record(ctx, a))
	assert.NotZero(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	list, total, err := repo.List(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, a.Key, list[0].Key)
	assert.Equal(t, a.Size, list[0].Size)
}

func TestRepository_DeleteByKey(t *testing.T) {
	repo, ctx := setupRepo(t)

	a := &Asset{
		Key:         "audio/1700000000000-song.mp3",
		PublicURL:   "http://cdn.local/media/audio/1700000000000-song.mp3",
		Category:    "audio",
		ContentType: "audio/mpeg",
		Size:        1 << 20,
		Name:        "song.mp3",
	}
	require.NoError(t, repo.Record(ctx, a))

	require.NoError(t, repo.DeleteByKey(ctx, a.Key))
	assert.ErrorIs(t, repo.DeleteByKey(ctx, a.Key), ErrAssetNotFound)

	_, total, err := repo.List(ctx, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)
}
