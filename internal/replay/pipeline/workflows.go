package pipeline

import (
	"github.com/banshee-data/trackreplay/internal/config"
	"github.com/banshee-data/trackreplay/internal/replay/integrator"
	"github.com/banshee-data/trackreplay/internal/replay/reader"
)

// Sinks are the optional consumers a workflow may be wired to. Nil fields
// are skipped.
type Sinks struct {
	RunID    string
	Bundles  SizePersister
	Clusters ClusterPersister
	Report   SummaryRecorder
	Observer reader.Observer
}

func newReaderStage(o config.Options, sinks Sinks) *ReaderStage {
	return NewReaderStage(reader.New(reader.Options{
		Layout:       o.Layout(),
		Capabilities: o.Capabilities(),
		Locator:      o.Locator(),
		SubSpec:      o.SubSpec,
		Observer:     sinks.Observer,
	}))
}

// TrackReaderWorkflow replays a dataset and, unless root output is
// disabled, records the per-entry collection sizes.
func TrackReaderWorkflow(o config.Options, sinks Sinks) (*Workflow, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	src := newReaderStage(o, sinks)

	var downstream []Stage
	if !o.DisableRootOutput && sinks.Bundles != nil {
		downstream = append(downstream, NewBundleWriter(sinks.RunID, src.Outputs(), sinks.Bundles))
	}
	return NewWorkflow(config.WorkflowTrackReader, src, downstream...), nil
}

// ClusterIntegratorWorkflow replays a channel-data dataset through the
// noise-threshold integrator. Integrated clusters are persisted unless root
// output is disabled; the report recorder is fed regardless.
func ClusterIntegratorWorkflow(o config.Options, sinks Sinks) (*Workflow, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	ig, err := integrator.New(o.Params())
	if err != nil {
		return nil, err
	}
	src := newReaderStage(o, sinks)
	integ, err := NewIntegratorStage(ig, o.Layout(), o.SubSpec)
	if err != nil {
		return nil, err
	}
	sumOut := SummaryOutput(o.Layout(), o.SubSpec)

	downstream := []Stage{integ}
	if !o.DisableRootOutput && sinks.Clusters != nil {
		downstream = append(downstream, NewClusterWriter(sinks.RunID, sumOut, sinks.Clusters))
	}
	if sinks.Report != nil {
		downstream = append(downstream, NewReportCollector(sumOut, sinks.Report))
	}
	return NewWorkflow(config.WorkflowClusterIntegrator, src, downstream...), nil
}
