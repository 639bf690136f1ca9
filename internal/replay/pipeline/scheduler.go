package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/trackreplay/internal/replay/records"
)

// Workflow is an ordered stage list. The first stage is the source.
type Workflow struct {
	Name   string
	Stages []Stage
}

// NewWorkflow builds a workflow from a source and its downstream stages.
func NewWorkflow(name string, source Stage, downstream ...Stage) *Workflow {
	return &Workflow{Name: name, Stages: append([]Stage{source}, downstream...)}
}

// StageNames lists the stages in run order.
func (w *Workflow) StageNames() []string {
	names := make([]string, len(w.Stages))
	for i, s := range w.Stages {
		names[i] = s.Name()
	}
	return names
}

// Close releases every stage that holds resources.
func (w *Workflow) Close() error {
	var errs []error
	for _, s := range w.Stages {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// Scheduler drives a Workflow on a single goroutine, one source entry per
// tick.
type Scheduler struct {
	wf      *Workflow
	entries int
	ended   bool
}

// NewScheduler returns a scheduler for wf.
func NewScheduler(wf *Workflow) *Scheduler {
	return &Scheduler{wf: wf}
}

// Entries is the number of entries the source has published.
func (s *Scheduler) Entries() int { return s.entries }

// Ended reports whether end-of-stream has been propagated.
func (s *Scheduler) Ended() bool { return s.ended }

// Run initialises every stage and ticks until the source signals
// end-of-stream, the context is cancelled or a stage fails. Calling Run
// again after end-of-stream is a no-op.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.ended {
		return nil
	}
	if len(s.wf.Stages) == 0 {
		return fmt.Errorf("workflow %s has no stages", s.wf.Name)
	}
	if s.entries == 0 {
		for _, st := range s.wf.Stages {
			if err := st.Init(); err != nil {
				opsf("%s: init %s failed: %v", s.wf.Name, st.Name(), err)
				return fmt.Errorf("init %s: %w", st.Name(), err)
			}
		}
		diagf("%s: running stages %v", s.wf.Name, s.wf.StageNames())
	}

	for {
		if err := ctx.Err(); err != nil {
			diagf("%s: cancelled after %d entries", s.wf.Name, s.entries)
			return err
		}
		ended, err := s.tick(ctx)
		if err != nil {
			opsf("%s: aborted at entry %d: %v", s.wf.Name, s.entries, err)
			return err
		}
		if ended {
			return nil
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) (bool, error) {
	source := s.wf.Stages[0]
	pc := newProcessingContext(ctx, s.entries, nil)
	if err := source.Run(pc); err != nil {
		return false, fmt.Errorf("stage %s: %w", source.Name(), err)
	}

	routed := pc.Published()
	if len(routed) > 0 {
		tracef("%s: entry %d published %d collections", s.wf.Name, s.entries, len(routed))
		for _, st := range s.wf.Stages[1:] {
			inputs, ok := route(st.Inputs(), routed)
			if !ok {
				continue
			}
			dpc := newProcessingContext(ctx, s.entries, inputs)
			if err := st.Run(dpc); err != nil {
				return false, fmt.Errorf("stage %s: %w", st.Name(), err)
			}
			routed = append(routed, dpc.Published()...)
		}
		s.entries++
	}

	if !pc.Ended() {
		if len(pc.Published()) == 0 {
			return false, fmt.Errorf("source %s made no progress", source.Name())
		}
		return false, nil
	}

	s.ended = true
	for _, st := range s.wf.Stages[1:] {
		if e, ok := st.(EndOfStreamer); ok {
			if err := e.EndOfStream(ctx); err != nil {
				return true, fmt.Errorf("end-of-stream %s: %w", st.Name(), err)
			}
		}
	}
	diagf("%s: end of stream after %d entries", s.wf.Name, s.entries)
	return true, nil
}

// route selects the messages a stage subscribes to. It reports false unless
// every input is present.
func route(want []records.Output, msgs []Message) ([]Message, bool) {
	if len(want) == 0 {
		return nil, false
	}
	out := make([]Message, 0, len(want))
	for _, w := range want {
		found := false
		for _, m := range msgs {
			if m.Output.Matches(w) {
				out = append(out, m)
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return out, true
}
