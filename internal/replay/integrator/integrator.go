package integrator

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/trackreplay/internal/replay/records"
)

var (
	// ErrInvalidParams reports a negative threshold.
	ErrInvalidParams = errors.New("invalid integrator parameters")
	// ErrMalformedRange reports an interval referencing channels outside the
	// channel collection. It indicates upstream corruption and is fatal.
	ErrMalformedRange = errors.New("malformed interval range")
)

// Params holds the noise thresholds.
type Params struct {
	MinNChan int // minimum accepted channels per interval
	MinAmpl  int // minimum amplitude per accepted channel
}

// DefaultParams returns the production thresholds.
func DefaultParams() Params {
	return Params{MinNChan: 2, MinAmpl: 2}
}

// Validate checks that both thresholds are non-negative.
func (p Params) Validate() error {
	if p.MinNChan < 0 {
		return fmt.Errorf("%w: min-NChan must be non-negative, got %d", ErrInvalidParams, p.MinNChan)
	}
	if p.MinAmpl < 0 {
		return fmt.Errorf("%w: min-Ampl must be non-negative, got %d", ErrInvalidParams, p.MinAmpl)
	}
	return nil
}

// Integrator applies Params to interval-grouped channel records. It is not
// safe for concurrent use; the scratch buffer is reset for every interval.
type Integrator struct {
	params Params
	amps   []float64
}

// New returns an Integrator for p.
func New(p Params) (*Integrator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Integrator{params: p}, nil
}

// Params returns the configured thresholds.
func (ig *Integrator) Params() Params { return ig.params }

// Integrate returns one summary per retained interval, in interval order.
// Every range is checked before any interval is reduced, so a malformed
// bundle yields no partial output.
func (ig *Integrator) Integrate(intervals []records.ROFRecord, channels []records.ChannelData) ([]records.ClusterSummary, error) {
	for i, iv := range intervals {
		if !iv.Entries.Within(len(channels)) {
			return nil, fmt.Errorf("%w: interval %d (%s) references %s of %d channels",
				ErrMalformedRange, i, iv.IR, iv.Entries, len(channels))
		}
	}

	out := make([]records.ClusterSummary, 0, len(intervals))
	for _, iv := range intervals {
		if s, ok := ig.reduce(iv, channels[iv.Entries.First:iv.Entries.End()]); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// reduce folds one interval's channels into a summary and reports whether the
// interval passes the channel-count threshold.
func (ig *Integrator) reduce(iv records.ROFRecord, channels []records.ChannelData) (records.ClusterSummary, bool) {
	ig.amps = ig.amps[:0]
	s := records.ClusterSummary{IR: iv.IR}
	for _, ch := range channels {
		if ig.params.MinAmpl > 0 && ch.Amplitude < ig.params.MinAmpl {
			continue
		}
		ig.amps = append(ig.amps, float64(ch.Amplitude))
		s.SumAmpl += ch.Amplitude
		if s.NChan == 0 || ch.Amplitude > s.MaxAmpl {
			s.MaxAmpl = ch.Amplitude
		}
		s.NChan++
	}
	if s.NChan < ig.params.MinNChan {
		return records.ClusterSummary{}, false
	}
	if s.NChan > 0 {
		s.MeanAmpl, s.StdAmpl = stat.PopMeanStdDev(ig.amps, nil)
	}
	return s, true
}
