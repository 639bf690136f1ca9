package reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/trackreplay/internal/monitoring"
	"github.com/banshee-data/trackreplay/internal/replay/branch"
	"github.com/banshee-data/trackreplay/internal/replay/dataset"
	"github.com/banshee-data/trackreplay/internal/replay/records"
)

var (
	// ErrConfig reports a dataset that cannot serve the configured branch set.
	ErrConfig = errors.New("reader configuration error")
	// ErrStructure reports an entry inconsistent with the enabled branches.
	ErrStructure = errors.New("dataset structure error")
)

// Sink receives published collections.
type Sink interface {
	Publish(out records.Output, c records.Collection) error
}

// Context is what Run needs from the scheduler: a sink plus the
// end-of-stream control.
type Context interface {
	Sink
	EndOfStream()
}

// Observer is called once per emitted collection. It is advisory: its
// behaviour never affects replay.
type Observer func(name string, kind records.Kind, count int)

// Options configures a Reader once per session.
type Options struct {
	Layout       branch.Layout
	Capabilities branch.Capabilities
	Locator      dataset.Locator
	SubSpec      uint32
	Observer     Observer
}

// Reader replays a dataset in lock-step across the enabled branches.
type Reader struct {
	opts     Options
	set      branch.Set
	observer Observer

	ds      *dataset.Dataset
	next    int
	current *records.Bundle
	done    bool
}

// New builds a Reader. The branch set is fixed here and never changes.
func New(opts Options) *Reader {
	r := &Reader{
		opts: opts,
		set:  branch.Build(opts.Layout, opts.Capabilities, opts.SubSpec),
	}
	r.observer = opts.Observer
	if r.observer == nil {
		origin := opts.Layout.Origin
		r.observer = func(_ string, kind records.Kind, count int) {
			monitoring.CollectionSize(origin, count, kind.String())
		}
	}
	return r
}

// Branches returns the enabled branch set.
func (r *Reader) Branches() branch.Set { return r.set }

// Outputs returns the output identities this reader publishes.
func (r *Reader) Outputs() []records.Output { return r.set.Outputs() }

// Init opens the dataset and checks it declares every enabled branch.
func (r *Reader) Init() error {
	if !r.opts.Capabilities.Labels {
		monitoring.Logf("Not reading %s labels (%s)", r.opts.Layout.Origin, r.opts.Layout.Labels.Name)
	}

	ds, err := dataset.Open(r.opts.Locator)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if tree := ds.Header().Tree; tree != r.opts.Layout.Tree {
		ds.Close()
		return fmt.Errorf("%w: %s holds tree %q, want %q", ErrConfig, r.opts.Locator, tree, r.opts.Layout.Tree)
	}
	for _, name := range r.set.Names() {
		if !ds.HasBranch(name) {
			ds.Close()
			return fmt.Errorf("%w: %s has no branch %q", ErrConfig, r.opts.Locator, name)
		}
	}

	r.ds = ds
	r.next = 0
	monitoring.Logf("Opened %s: %d entries, branches %v", r.opts.Locator, ds.Entries(), r.set.Names())
	return nil
}

// Entries returns the number of entries in the opened dataset.
func (r *Reader) Entries() int {
	if r.ds == nil {
		return 0
	}
	return r.ds.Entries()
}

// Advance moves to the next entry and builds its bundle. It returns false
// once the dataset is exhausted.
func (r *Reader) Advance() (bool, error) {
	if r.done {
		return false, nil
	}
	if r.ds == nil {
		return false, fmt.Errorf("%w: reader not initialised", ErrConfig)
	}

	entry := r.next
	raw, err := r.ds.ReadEntry(entry)
	if errors.Is(err, io.EOF) {
		r.current = nil
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: entry %d: %w", ErrStructure, entry, err)
	}

	bundle := &records.Bundle{Entry: entry}
	for _, b := range r.set.Branches() {
		data, ok := raw[b.Name]
		if !ok {
			return false, fmt.Errorf("%w: entry %d: collection %q absent", ErrStructure, entry, b.Name)
		}
		c, err := records.DecodeCollection(b.Kind, data)
		if err != nil {
			return false, fmt.Errorf("%w: entry %d: branch %q: %w", ErrStructure, entry, b.Name, err)
		}
		bundle.Collections = append(bundle.Collections, records.NamedCollection{
			Name:       b.Name,
			Output:     b.Output,
			Collection: c,
		})
	}
	if err := verify(r.set, bundle); err != nil {
		return false, err
	}

	r.current = bundle
	r.next++
	return true, nil
}

// Current returns the bundle built by the last successful Advance, or nil
// once it has been emitted.
func (r *Reader) Current() *records.Bundle { return r.current }

// Emit publishes every collection of the current bundle to sink in branch
// order. Ownership of the bundle passes to the sink.
func (r *Reader) Emit(sink Sink) error {
	b := r.current
	if b == nil {
		return fmt.Errorf("emit: no current entry")
	}
	r.current = nil

	for _, c := range b.Collections {
		r.observe(c.Name, c.Collection.Kind(), c.Collection.Len())
		if err := sink.Publish(c.Output, c.Collection); err != nil {
			return fmt.Errorf("publish %s: %w", c.Output, err)
		}
	}
	return nil
}

func (r *Reader) observe(name string, kind records.Kind, count int) {
	defer func() {
		if p := recover(); p != nil {
			monitoring.Logf("size observer for %s panicked: %v", name, p)
		}
	}()
	r.observer(name, kind, count)
}

// Run performs one scheduling step: publish the next entry, or signal
// end-of-stream when the dataset is exhausted. After termination Run is a
// no-op.
func (r *Reader) Run(pc Context) error {
	if r.done {
		return nil
	}
	ok, err := r.Advance()
	if err != nil {
		return err
	}
	if !ok {
		r.done = true
		r.close()
		pc.EndOfStream()
		return nil
	}
	return r.Emit(pc)
}

// Done reports whether end-of-stream has been signalled.
func (r *Reader) Done() bool { return r.done }

func (r *Reader) close() {
	if r.ds != nil {
		r.ds.Close()
		r.ds = nil
	}
}

// Close releases the dataset. Safe to call more than once.
func (r *Reader) Close() error {
	r.close()
	return nil
}
