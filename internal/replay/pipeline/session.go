package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/trackreplay/internal/config"
	"github.com/banshee-data/trackreplay/internal/monitoring"
	"github.com/banshee-data/trackreplay/internal/replay/report"
	"github.com/banshee-data/trackreplay/internal/replay/storage/sqlite"
)

// Result summarises a completed session.
type Result struct {
	RunID    string
	Entries  int
	Clusters int
}

// RunSession builds the named workflow from o, runs it to end-of-stream and
// records the run. The database is opened only when root output is enabled.
func RunSession(ctx context.Context, workflow string, o config.Options) (Result, error) {
	var (
		res   Result
		sinks Sinks
		runs  *sqlite.RunStore
	)

	if !o.DisableRootOutput {
		db, err := sqlite.Open(o.DBPath)
		if err != nil {
			return res, err
		}
		defer db.Close()

		runs = sqlite.NewRunStore(db)
		run, err := runs.Start(ctx, workflow, o.Detector, o.Locator().Path(), o)
		if err != nil {
			return res, err
		}
		res.RunID = run.RunID
		sinks.RunID = run.RunID
		sinks.Bundles = sqlite.NewBundleStore(db)
		sinks.Clusters = sqlite.NewClusterStore(db)
	}

	var rep *report.ClusterReport
	if o.ReportDir != "" && workflow == config.WorkflowClusterIntegrator {
		rep = report.NewClusterReport(fmt.Sprintf("%s clusters (%s)", o.Detector, o.InFile))
		sinks.Report = rep
	}

	var (
		wf  *Workflow
		err error
	)
	switch workflow {
	case config.WorkflowTrackReader:
		wf, err = TrackReaderWorkflow(o, sinks)
	case config.WorkflowClusterIntegrator:
		wf, err = ClusterIntegratorWorkflow(o, sinks)
	default:
		err = fmt.Errorf("unknown workflow %q", workflow)
	}
	if err != nil {
		return res, err
	}
	defer wf.Close()

	s := NewScheduler(wf)
	runErr := s.Run(ctx)
	res.Entries = s.Entries()
	for _, st := range wf.Stages {
		if cw, ok := st.(*ClusterWriter); ok {
			res.Clusters = cw.Rows()
		}
	}

	if runs != nil {
		status := sqlite.StatusCompleted
		if runErr != nil {
			status = sqlite.StatusFailed
		}
		// The run context may already be cancelled.
		if err := runs.Finish(context.Background(), res.RunID, res.Entries, status); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return res, runErr
	}

	if rep != nil {
		if err := rep.WriteDir(o.ReportDir); err != nil {
			return res, fmt.Errorf("write report: %w", err)
		}
		monitoring.Logf("wrote report for %d clusters to %s", rep.Len(), o.ReportDir)
	}
	return res, nil
}
