package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/trackreplay/internal/replay/records"
)

// ErrAfterEndOfStream is returned by Publish once the stage has signalled
// end-of-stream in the same tick.
var ErrAfterEndOfStream = errors.New("publish after end-of-stream")

// Stage is one processing step of a Workflow. A stage with no inputs is a
// source; every other stage runs on ticks where all of its inputs arrived.
type Stage interface {
	Name() string
	Inputs() []records.Output
	Outputs() []records.Output
	Init() error
	Run(pc *ProcessingContext) error
}

// EndOfStreamer is implemented by stages that need to flush or report once
// the source is exhausted. It is called exactly once per run.
type EndOfStreamer interface {
	EndOfStream(ctx context.Context) error
}

// Message is one published collection in flight.
type Message struct {
	Output     records.Output
	Collection records.Collection
}

// ProcessingContext carries one tick's routed inputs to a stage and collects
// what it publishes.
type ProcessingContext struct {
	ctx       context.Context
	entry     int
	inputs    []Message
	published []Message
	eos       bool
}

func newProcessingContext(ctx context.Context, entry int, inputs []Message) *ProcessingContext {
	return &ProcessingContext{ctx: ctx, entry: entry, inputs: inputs}
}

// Context returns the run context.
func (pc *ProcessingContext) Context() context.Context { return pc.ctx }

// Entry is the zero-based index of the entry this tick is processing.
func (pc *ProcessingContext) Entry() int { return pc.entry }

// Inputs returns the messages routed to the stage for this tick.
func (pc *ProcessingContext) Inputs() []Message { return pc.inputs }

// Input returns the collection routed under out, if any.
func (pc *ProcessingContext) Input(out records.Output) (records.Collection, bool) {
	for _, m := range pc.inputs {
		if m.Output.Matches(out) {
			return m.Collection, true
		}
	}
	return nil, false
}

// Publish hands c to every downstream stage subscribed to out.
func (pc *ProcessingContext) Publish(out records.Output, c records.Collection) error {
	if pc.eos {
		return ErrAfterEndOfStream
	}
	if c == nil {
		return fmt.Errorf("publish %s: nil collection", out)
	}
	pc.published = append(pc.published, Message{Output: out, Collection: c})
	return nil
}

// EndOfStream marks the source as exhausted.
func (pc *ProcessingContext) EndOfStream() { pc.eos = true }

// Published returns what the stage published this tick.
func (pc *ProcessingContext) Published() []Message { return pc.published }

// Ended reports whether EndOfStream was called.
func (pc *ProcessingContext) Ended() bool { return pc.eos }
