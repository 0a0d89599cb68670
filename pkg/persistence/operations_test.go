package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create a new database for each test.
func createTestDB(t *testing.T) (*DatabaseOperations, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), DBFileName)
	db, err := InitializeDatabase(dbPath)
	require.NoError(t, err)

	ops := NewDatabaseOperations(db)
	t.Cleanup(func() { _ = ops.Close() })
	return ops, dbPath
}

func TestSchemaVersion(t *testing.T) {
	ops, dbPath := createTestDB(t)

	version, err := GetSchemaVersion(ops.db)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	// Re-opening an initialized database is a no-op.
	db, err := InitializeDatabase(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestMigrationFromVersion1(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), DBFileName)
	db, err := InitializeDatabase(dbPath)
	require.NoError(t, err)

	// Rebuild a version 1 database by hand.
	for _, stmt := range []string{"DROP TABLE posts", "DROP TABLE runs", "DROP TABLE schema_version"} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	_, err = db.Exec(schemaV1)
	require.NoError(t, err)
	require.NoError(t, setSchemaVersion(db, 1))
	require.NoError(t, db.Close())

	db, err = InitializeDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	version, err := GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	_, err = db.Exec(`SELECT model FROM runs`)
	assert.NoError(t, err)
}

func TestRecordAndQueryRuns(t *testing.T) {
	ops, _ := createTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	skipped := &Run{ID: NewRunID(), StartedAt: base, FinishedAt: base, Outcome: "skipped", Slot: "delivery", Energy: 80}
	posted := &Run{
		ID: NewRunID(), StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Second),
		Outcome: "posted", Slot: "lunch", Attempts: 2, Source: "generated", Energy: 70, Model: "claude",
		Post: &Post{PostID: "1850", Text: "昼ごはん", Slot: "lunch", Mood: "happy", HadImage: true, PostedAt: base.Add(time.Hour)},
	}
	require.NoError(t, ops.RecordRun(ctx, skipped))
	require.NoError(t, ops.RecordRun(ctx, posted))

	runs, err := ops.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, posted.ID, runs[0].ID)
	require.NotNil(t, runs[0].Post)
	assert.Equal(t, "昼ごはん", runs[0].Post.Text)
	assert.True(t, runs[0].Post.HadImage)
	assert.Equal(t, "happy", runs[0].Post.Mood)
	assert.Equal(t, "claude", runs[0].Model)
	assert.Nil(t, runs[1].Post)

	limited, err := ops.RecentRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	counts, err := ops.OutcomeCounts(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"skipped": 1, "posted": 1}, counts)

	counts, err = ops.OutcomeCounts(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"posted": 1}, counts)
}

func TestRecordRunDuplicateRollsBack(t *testing.T) {
	ops, _ := createTestDB(t)
	ctx := context.Background()
	now := time.Now()

	first := &Run{ID: NewRunID(), StartedAt: now, FinishedAt: now, Outcome: "posted",
		Post: &Post{PostID: "dup", Text: "a", Slot: "delivery", PostedAt: now}}
	require.NoError(t, ops.RecordRun(ctx, first))

	second := &Run{ID: NewRunID(), StartedAt: now, FinishedAt: now, Outcome: "posted",
		Post: &Post{PostID: "dup", Text: "b", Slot: "delivery", PostedAt: now}}
	require.Error(t, ops.RecordRun(ctx, second))

	runs, err := ops.RecentRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
