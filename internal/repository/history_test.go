package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/summary-extractor/constants"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: DriverSQLite}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db, nil) })
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db), "migrate must be repeatable")
	require.NoError(t, HealthCheck(ctx, db, time.Second, nil))
	return db
}

func TestHistoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(openTestDB(t), nil)

	created, err := repo.Create(ctx, &Run{
		Source:      "/logs/run.txt",
		ContentHash: "abc",
		Status:      constants.RunStatusSuccess,
		RecordCount: 1,
		Records:     json.RawMessage(`[{"workflow_id":"TEST123"}]`),
		Warnings:    []string{"1 line(s) exceed the maximum length of 1000 characters"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.ProcessedAt.IsZero())
	assert.Equal(t, "default", created.Format)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "/logs/run.txt", got.Source)
	assert.Equal(t, constants.RunStatusSuccess, got.Status)
	assert.JSONEq(t, `[{"workflow_id":"TEST123"}]`, string(got.Records))
	assert.Equal(t, created.Warnings, got.Warnings)
	assert.True(t, created.ProcessedAt.Equal(got.ProcessedAt))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestHistoryRepository_GetByHashIgnoresFailures(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(openTestDB(t), nil)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, &Run{Source: "a", ContentHash: "h1", Status: constants.RunStatusFailed,
		ErrorMessage: "boom", ProcessedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	_, err = repo.GetByHash(ctx, "h1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	older, err := repo.Create(ctx, &Run{Source: "a", ContentHash: "h1", Status: constants.RunStatusSuccess, ProcessedAt: base})
	require.NoError(t, err)
	newer, err := repo.Create(ctx, &Run{Source: "b", ContentHash: "h1", Status: constants.RunStatusSuccess, ProcessedAt: base.Add(time.Minute)})
	require.NoError(t, err)

	got, err := repo.GetByHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID)
	assert.NotEqual(t, older.ID, got.ID)
}

func TestHistoryRepository_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(openTestDB(t), nil)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, &Run{
			Source:      string(rune('a' + i)),
			ContentHash: "h",
			Status:      constants.RunStatusSuccess,
			ProcessedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	runs, err := repo.List(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"e", "d", "c"}, []string{runs[0].Source, runs[1].Source, runs[2].Source})

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	lite := &DB{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestOpen_UnknownDriver(t *testing.T) {
	for _, name := range []string{"oracle", ""} {
		_, err := Open(context.Background(), Config{Driver: name}, nil)
		assert.Error(t, err, name)
	}
}

func TestOpen_DriverNameIsNormalized(t *testing.T) {
	for _, name := range []string{"SQLite", " sqlite3 "} {
		db, err := Open(context.Background(), Config{Driver: name}, nil)
		require.NoError(t, err, name)
		assert.Equal(t, DriverSQLite, db.Driver())
		Close(db, nil)
	}
}
