package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trackreplay/internal/replay/records"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "replay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMigrates(t *testing.T) {
	db := openTestDB(t)
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// A second MigrateUp is a no-op.
	require.NoError(t, db.MigrateUp())
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.db")
	db, err := Open(path)
	require.NoError(t, err)
	run, err := NewRunStore(db).Start(context.Background(), "track-reader", "MCH", "mchtracks.root", nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := NewRunStore(db).Get(context.Background(), run.RunID)
	require.NoError(t, err)
	assert.Equal(t, "MCH", got.Detector)
}

func TestRunStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	runs := NewRunStore(openTestDB(t))

	params := map[string]int{"min_nchan": 2, "min_ampl": 2}
	run, err := runs.Start(ctx, "cluster-integrator", "FV0", "o2reco_fv0.root", params)
	require.NoError(t, err)
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, StatusRunning, run.Status)

	require.NoError(t, runs.Finish(ctx, run.RunID, 3, StatusCompleted))

	got, err := runs.Get(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, 3, got.Entries)
	assert.NotZero(t, got.FinishedAt)
	assert.JSONEq(t, `{"min_nchan":2,"min_ampl":2}`, string(got.ParamsJSON))
}

func TestRunStoreNotFound(t *testing.T) {
	ctx := context.Background()
	runs := NewRunStore(openTestDB(t))

	_, err := runs.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
	assert.ErrorIs(t, runs.Finish(ctx, "missing", 0, StatusFailed), ErrRunNotFound)
}

func TestClusterStore(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	run, err := NewRunStore(db).Start(ctx, "cluster-integrator", "FV0", "in.root", nil)
	require.NoError(t, err)

	clusters := NewClusterStore(db)
	first := records.ClusterSummary{
		IR:    records.InteractionRecord{Orbit: 7, BC: 3564},
		NChan: 2, SumAmpl: 5, MeanAmpl: 2.5, StdAmpl: 0.5, MaxAmpl: 3,
	}
	second := records.ClusterSummary{IR: records.InteractionRecord{Orbit: 8}, NChan: 4, SumAmpl: 20, MeanAmpl: 5, MaxAmpl: 5}
	require.NoError(t, clusters.InsertBatch(ctx, run.RunID, 1, []records.ClusterSummary{second}))
	require.NoError(t, clusters.InsertBatch(ctx, run.RunID, 0, []records.ClusterSummary{first}))

	n, err := clusters.CountByRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := clusters.ListByRun(ctx, run.RunID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, StoredCluster{Entry: 0, Index: 0, ClusterSummary: first}, got[0])
	assert.Equal(t, 1, got[1].Entry)
	assert.Equal(t, second, got[1].ClusterSummary)

	other, err := clusters.CountByRun(ctx, "other")
	require.NoError(t, err)
	assert.Zero(t, other)
}

func TestClusterStoreRequiresRun(t *testing.T) {
	clusters := NewClusterStore(openTestDB(t))
	err := clusters.InsertBatch(context.Background(), "no-such-run", 0, []records.ClusterSummary{{NChan: 1}})
	assert.Error(t, err, "foreign key must reject unknown run")
}

func TestBundleStore(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	run, err := NewRunStore(db).Start(ctx, "track-reader", "MCH", "in.root", nil)
	require.NoError(t, err)

	bundles := NewBundleStore(db)
	require.NoError(t, bundles.InsertSizes(ctx, run.RunID, 0, map[string]int{"MCH/TRACKS/0": 4, "MCH/TRACKROFS/0": 2}))
	require.NoError(t, bundles.InsertSizes(ctx, run.RunID, 1, map[string]int{"MCH/TRACKS/0": 0}))

	got, err := bundles.SizesByRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, []StreamSize{
		{Entry: 0, Stream: "MCH/TRACKROFS/0", Count: 2},
		{Entry: 0, Stream: "MCH/TRACKS/0", Count: 4},
		{Entry: 1, Stream: "MCH/TRACKS/0", Count: 0},
	}, got)
}

func TestIsSQLiteBusy(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"database is locked", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"SQLITE_BUSY", errors.New("SQLITE_BUSY"), true},
		{"other error", errors.New("some other error"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSQLiteBusy(tt.err); got != tt.expected {
				t.Errorf("isSQLiteBusy(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestRetryOnBusy(t *testing.T) {
	ctx := context.Background()
	calls := 0
	err := retryOnBusy(ctx, func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryOnBusy(ctx, func() error {
		calls++
		return errors.New("SQLITE_BUSY")
	})
	require.Error(t, err)
	assert.Equal(t, busyRetries, calls)

	calls = 0
	plain := errors.New("constraint failed")
	assert.Equal(t, plain, retryOnBusy(ctx, func() error { calls++; return plain }))
	assert.Equal(t, 1, calls)
}

func TestRetryOnBusyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retryOnBusy(ctx, func() error {
		calls++
		cancel()
		return errors.New("database is locked")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "no retry after cancellation")
}
