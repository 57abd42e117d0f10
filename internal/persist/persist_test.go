package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/l1jgo/shipcore/internal/ai"
	"github.com/l1jgo/shipcore/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// openTestDB connects to the database named by SHIPCORE_TEST_DSN and
// migrates it. Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("SHIPCORE_TEST_DSN")
	if dsn == "" {
		t.Skip("SHIPCORE_TEST_DSN not set")
	}
	ctx := context.Background()
	db, err := NewDB(ctx, config.DatabaseConfig{
		DSN:             dsn,
		MaxOpenConns:    2,
		ConnMaxLifetime: time.Minute,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	version, err := db.RunMigrations(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, version, int64(2))
	return db
}

func TestRoutineRepoRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewRoutineRepo(db)
	name := "test-" + t.Name()
	t.Cleanup(func() { repo.Delete(context.Background(), name) })

	lib := ai.DefaultLibrary()
	digest, err := repo.Save(ctx, name, lib)
	require.NoError(t, err)
	want, err := lib.Digest()
	require.NoError(t, err)
	assert.Equal(t, want, digest)

	loaded, err := repo.Load(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, lib.Names(), loaded.Names())
	got, err := loaded.Digest()
	require.NoError(t, err)
	assert.Equal(t, digest, got)

	_, err = repo.Save(ctx, name, lib)
	require.NoError(t, err, "saving the same library twice is an upsert")

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	var found bool
	for _, r := range rows {
		if r.Name == name {
			found = true
			assert.Equal(t, lib.Len(), r.RoutineCount)
		}
	}
	assert.True(t, found)
}

func TestRoutineRepoMissing(t *testing.T) {
	db := openTestDB(t)
	lib, err := NewRoutineRepo(db).Load(context.Background(), "no-such-library")
	require.NoError(t, err)
	assert.Nil(t, lib)
}

func TestJournalWriteBatch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewJournalRepo(db)
	run := time.Now().UnixNano()

	require.NoError(t, repo.WriteBatch(ctx, run, nil))
	require.NoError(t, repo.WriteBatch(ctx, run, []JournalEntry{
		{Tick: 3, Kind: JournalDestroyed, Ship: 7, Detail: "fighter"},
		{Tick: 3, Kind: JournalDestroyed, Ship: 8, Detail: "drone"},
		{Tick: 4, Kind: JournalPlayerDown, Ship: 0},
	}))

	n, err := repo.Count(ctx, run, JournalDestroyed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = repo.Count(ctx, run, JournalPlayerDown)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
