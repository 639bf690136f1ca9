package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trackreplay/internal/config"
	"github.com/banshee-data/trackreplay/internal/replay/report"
	"github.com/banshee-data/trackreplay/internal/replay/storage/sqlite"
)

func TestRunSessionPersists(t *testing.T) {
	o := fv0Options(t)
	writeFV0(t, o)
	o.DBPath = filepath.Join(t.TempDir(), "replay.db")
	o.ReportDir = filepath.Join(t.TempDir(), "report")

	res, err := RunSession(context.Background(), config.WorkflowClusterIntegrator, o)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Entries)
	assert.Equal(t, 2, res.Clusters)

	db, err := sqlite.Open(o.DBPath)
	require.NoError(t, err)
	defer db.Close()

	run, err := sqlite.NewRunStore(db).Get(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, sqlite.StatusCompleted, run.Status)
	assert.Equal(t, 3, run.Entries)
	assert.Equal(t, "FV0", run.Detector)

	stored, err := sqlite.NewClusterStore(db).ListByRun(context.Background(), res.RunID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 5, stored[0].SumAmpl)
	assert.Equal(t, 1, stored[1].Entry)

	assert.FileExists(t, filepath.Join(o.ReportDir, report.HTMLFile))
	assert.FileExists(t, filepath.Join(o.ReportDir, report.PNGFile))
}

func TestRunSessionDisabledOutputSkipsDB(t *testing.T) {
	o := fv0Options(t)
	writeFV0(t, o)
	o.DisableRootOutput = true
	o.DBPath = filepath.Join(t.TempDir(), "replay.db")
	o.ReportDir = filepath.Join(t.TempDir(), "report")

	res, err := RunSession(context.Background(), config.WorkflowClusterIntegrator, o)
	require.NoError(t, err)
	assert.Empty(t, res.RunID)
	assert.Equal(t, 3, res.Entries)
	assert.Zero(t, res.Clusters)
	assert.NoFileExists(t, o.DBPath)
	assert.FileExists(t, filepath.Join(o.ReportDir, report.PNGFile), "report is independent of root output")
}

func TestRunSessionMissingInputMarksFailed(t *testing.T) {
	o := fv0Options(t)
	o.DBPath = filepath.Join(t.TempDir(), "replay.db")

	res, err := RunSession(context.Background(), config.WorkflowClusterIntegrator, o)
	require.Error(t, err)

	db, err := sqlite.Open(o.DBPath)
	require.NoError(t, err)
	defer db.Close()
	run, err := sqlite.NewRunStore(db).Get(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, sqlite.StatusFailed, run.Status)
}

func TestRunSessionUnknownWorkflow(t *testing.T) {
	o := fv0Options(t)
	o.DisableRootOutput = true
	_, err := RunSession(context.Background(), "bogus", o)
	require.Error(t, err)
}
