package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tsbridge/internal/testutil"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenAndMigrate(":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	assert.Equal(t, ":memory:", store.Path())
	require.NoError(t, store.Close())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)

	_, err := store.CreateRun("/p", "tsc", "5.4.5")
	assert.ErrorContains(t, err, "database not opened")
	assert.Error(t, store.Migrate())
	_, err = store.ListRuns("", 10)
	assert.Error(t, err)
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// idempotent
	require.NoError(t, store.Migrate())
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	tests := []struct {
		name    string
		status  RunStatus
		stats   Stats
		errMsg  string
		wantErr string
	}{
		{
			name:   "succeeded",
			status: RunStatusSucceeded,
			stats:  Stats{Sources: 3, Emitted: 3, Warnings: 1},
		},
		{
			name:    "failed",
			status:  RunStatusFailed,
			stats:   Stats{Sources: 2, Errors: 4},
			errMsg:  "compilation failed for path /p: 4 diagnostic(s)",
			wantErr: "compilation failed for path /p: 4 diagnostic(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)

			run, err := store.CreateRun("/p", "tsc", "5.4.5")
			require.NoError(t, err)
			assert.NotEmpty(t, run.ID)
			assert.Equal(t, RunStatusRunning, run.Status)
			assert.Zero(t, run.Duration())

			require.NoError(t, store.CompleteRun(run.ID, tt.status, tt.stats, tt.errMsg))

			got, err := store.GetRun(run.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.stats, got.Stats)
			assert.Equal(t, tt.wantErr, got.Error)
			assert.Equal(t, "tsc", got.Compiler)
			assert.Equal(t, "5.4.5", got.CompilerVersion)
			require.NotNil(t, got.CompletedAt)
			assert.GreaterOrEqual(t, got.Duration(), time.Duration(0))
		})
	}
}

func TestSQLiteStore_UnknownRun(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun("missing")
	assert.ErrorContains(t, err, "run not found")

	err = store.CompleteRun("missing", RunStatusFailed, Stats{}, "")
	assert.ErrorContains(t, err, "run not found")
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := store.CreateRun("/a", "tsc", "5.4.5")
		require.NoError(t, err)
		ids = append(ids, run.ID)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := store.CreateRun("/b", "tsc", "5.4.5")
	require.NoError(t, err)

	runs, err := store.ListRuns("/a", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID, "newest first")
	assert.Equal(t, ids[0], runs[2].ID)

	runs, err = store.ListRuns("/a", 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = store.ListRuns("", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}

func TestSQLiteStore_FilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := OpenAndMigrate(path, nil)
	require.NoError(t, err)
	run, err := store.CreateRun("/p", "tsc", "5.4.5")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = OpenAndMigrate(path, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
}
