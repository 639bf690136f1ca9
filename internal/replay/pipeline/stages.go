package pipeline

import (
	"context"
	"fmt"

	"github.com/banshee-data/trackreplay/internal/replay/branch"
	"github.com/banshee-data/trackreplay/internal/replay/integrator"
	"github.com/banshee-data/trackreplay/internal/replay/reader"
	"github.com/banshee-data/trackreplay/internal/replay/records"
)

// SummaryDescription is the data description of integrated clusters.
const SummaryDescription = "CLUSTERSUM"

// SummaryOutput is the stream integrated clusters of a layout are published on.
func SummaryOutput(layout branch.Layout, subSpec uint32) records.Output {
	return records.Output{Origin: layout.Origin, Description: SummaryDescription, SubSpec: subSpec}
}

// ReaderStage adapts a reader.Reader as a workflow source.
type ReaderStage struct {
	r *reader.Reader
}

// NewReaderStage wraps r.
func NewReaderStage(r *reader.Reader) *ReaderStage {
	return &ReaderStage{r: r}
}

func (s *ReaderStage) Name() string {
	return "reader:" + s.r.Branches().Layout().Name
}

func (s *ReaderStage) Inputs() []records.Output { return nil }
func (s *ReaderStage) Outputs() []records.Output { return s.r.Outputs() }

func (s *ReaderStage) Init() error {
	if err := s.r.Init(); err != nil {
		return err
	}
	diagf("%s: %d entries, branches %v", s.Name(), s.r.Entries(), s.r.Branches().Names())
	return nil
}

func (s *ReaderStage) Run(pc *ProcessingContext) error { return s.r.Run(pc) }

func (s *ReaderStage) Close() error { return s.r.Close() }

// IntegratorStage applies the noise-threshold integrator to each entry's
// grouping and channel collections.
type IntegratorStage struct {
	ig       *integrator.Integrator
	grouping records.Output
	primary  records.Output
	out      records.Output

	intervals int
	retained  int
}

// NewIntegratorStage builds the stage for a layout whose grouping branch
// holds intervals and whose primary branch holds channel data.
func NewIntegratorStage(ig *integrator.Integrator, layout branch.Layout, subSpec uint32) (*IntegratorStage, error) {
	if layout.Grouping.Kind != records.KindROF || layout.Primary.Kind != records.KindChannel {
		return nil, fmt.Errorf("detector %s carries no channel data to integrate", layout.Name)
	}
	grouping, err := branch.OutputFor(layout, branch.RoleGrouping, subSpec)
	if err != nil {
		return nil, err
	}
	primary, err := branch.OutputFor(layout, branch.RolePrimary, subSpec)
	if err != nil {
		return nil, err
	}
	return &IntegratorStage{
		ig:       ig,
		grouping: grouping,
		primary:  primary,
		out:      SummaryOutput(layout, subSpec),
	}, nil
}

func (s *IntegratorStage) Name() string { return "integrator:" + s.out.Origin }

func (s *IntegratorStage) Inputs() []records.Output { return []records.Output{s.grouping, s.primary} }
func (s *IntegratorStage) Outputs() []records.Output { return []records.Output{s.out} }

func (s *IntegratorStage) Init() error { return nil }

func (s *IntegratorStage) Run(pc *ProcessingContext) error {
	g, _ := pc.Input(s.grouping)
	p, _ := pc.Input(s.primary)
	rofs, ok := g.(records.ROFs)
	if !ok {
		return fmt.Errorf("%s: expected %s, got %s", s.grouping, records.KindROF, g.Kind())
	}
	channels, ok := p.(records.Channels)
	if !ok {
		return fmt.Errorf("%s: expected %s, got %s", s.primary, records.KindChannel, p.Kind())
	}

	sums, err := s.ig.Integrate(rofs, channels)
	if err != nil {
		return fmt.Errorf("entry %d: %w", pc.Entry(), err)
	}
	s.intervals += len(rofs)
	s.retained += len(sums)
	return pc.Publish(s.out, records.Summaries(sums))
}

// Totals returns the number of intervals seen and retained so far.
func (s *IntegratorStage) Totals() (intervals, retained int) {
	return s.intervals, s.retained
}

func (s *IntegratorStage) EndOfStream(context.Context) error {
	p := s.ig.Params()
	diagf("%s: retained %d of %d intervals (minNChan=%d minAmpl=%d)",
		s.Name(), s.retained, s.intervals, p.MinNChan, p.MinAmpl)
	return nil
}

// SizePersister stores per-entry collection sizes.
type SizePersister interface {
	InsertSizes(ctx context.Context, runID string, entry int, sizes map[string]int) error
}

// ClusterPersister stores integrated clusters.
type ClusterPersister interface {
	InsertBatch(ctx context.Context, runID string, entry int, sums []records.ClusterSummary) error
}

// SummaryRecorder accumulates integrated clusters in memory.
type SummaryRecorder interface {
	Add(entry int, sums []records.ClusterSummary)
}

// BundleWriter persists the size of every collection the source publishes.
type BundleWriter struct {
	runID  string
	inputs []records.Output
	store  SizePersister
	rows   int
}

// NewBundleWriter subscribes to inputs and writes them under runID.
func NewBundleWriter(runID string, inputs []records.Output, store SizePersister) *BundleWriter {
	return &BundleWriter{runID: runID, inputs: inputs, store: store}
}

func (w *BundleWriter) Name() string { return "bundle-writer" }
func (w *BundleWriter) Inputs() []records.Output { return w.inputs }
func (w *BundleWriter) Outputs() []records.Output { return nil }
func (w *BundleWriter) Init() error { return nil }
func (w *BundleWriter) Rows() int { return w.rows }

func (w *BundleWriter) Run(pc *ProcessingContext) error {
	sizes := make(map[string]int, len(pc.Inputs()))
	for _, m := range pc.Inputs() {
		sizes[m.Output.String()] = m.Collection.Len()
	}
	if err := w.store.InsertSizes(pc.Context(), w.runID, pc.Entry(), sizes); err != nil {
		return err
	}
	w.rows += len(sizes)
	return nil
}

// ClusterWriter persists integrated clusters.
type ClusterWriter struct {
	runID string
	input records.Output
	store ClusterPersister
	rows  int
}

// NewClusterWriter subscribes to the summary stream input.
func NewClusterWriter(runID string, input records.Output, store ClusterPersister) *ClusterWriter {
	return &ClusterWriter{runID: runID, input: input, store: store}
}

func (w *ClusterWriter) Name() string { return "cluster-writer" }
func (w *ClusterWriter) Inputs() []records.Output { return []records.Output{w.input} }
func (w *ClusterWriter) Outputs() []records.Output { return nil }
func (w *ClusterWriter) Init() error { return nil }
func (w *ClusterWriter) Rows() int { return w.rows }

func (w *ClusterWriter) Run(pc *ProcessingContext) error {
	c, _ := pc.Input(w.input)
	sums, ok := c.(records.Summaries)
	if !ok {
		return fmt.Errorf("%s: expected %s, got %s", w.input, records.KindSummary, c.Kind())
	}
	if len(sums) == 0 {
		return nil
	}
	if err := w.store.InsertBatch(pc.Context(), w.runID, pc.Entry(), sums); err != nil {
		return err
	}
	w.rows += len(sums)
	return nil
}

func (w *ClusterWriter) EndOfStream(context.Context) error {
	diagf("%s: wrote %d clusters for run %s", w.Name(), w.rows, w.runID)
	return nil
}

// ReportCollector feeds integrated clusters to an in-memory recorder.
type ReportCollector struct {
	input records.Output
	rec   SummaryRecorder
}

// NewReportCollector subscribes rec to the summary stream input.
func NewReportCollector(input records.Output, rec SummaryRecorder) *ReportCollector {
	return &ReportCollector{input: input, rec: rec}
}

func (c *ReportCollector) Name() string { return "report" }
func (c *ReportCollector) Inputs() []records.Output { return []records.Output{c.input} }
func (c *ReportCollector) Outputs() []records.Output { return nil }
func (c *ReportCollector) Init() error { return nil }

func (c *ReportCollector) Run(pc *ProcessingContext) error {
	in, _ := pc.Input(c.input)
	sums, ok := in.(records.Summaries)
	if !ok {
		return fmt.Errorf("%s: expected %s, got %s", c.input, records.KindSummary, in.Kind())
	}
	c.rec.Add(pc.Entry(), sums)
	return nil
}
