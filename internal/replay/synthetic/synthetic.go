// Package synthetic generates replayable datasets for demos and tests.
package synthetic

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/banshee-data/trackreplay/internal/replay/branch"
	"github.com/banshee-data/trackreplay/internal/replay/dataset"
	"github.com/banshee-data/trackreplay/internal/replay/records"
)

// fv0Channels is the number of FV0 readout channels.
const fv0Channels = 48

// Generator produces structurally valid entries for a layout.
type Generator struct {
	layout branch.Layout
	set    branch.Set
	entry  int

	// Configuration
	IntervalsPerEntry int     // grouping records per entry
	RecordsPerGroup   int     // mean primary records per grouping record
	ClustersPerTrack  int     // MCH only
	NoiseAmplitude    int     // FV0 only, upper bound of noise channels
	SignalFraction    float64 // FV0 only, fraction of channels carrying signal

	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed. Equal seeds give equal
// output.
func NewGenerator(layout branch.Layout, caps branch.Capabilities, seed int64) *Generator {
	return &Generator{
		layout:            layout,
		set:               branch.Build(layout, caps, 0),
		IntervalsPerEntry: 4,
		RecordsPerGroup:   6,
		ClustersPerTrack:  8,
		NoiseAmplitude:    2,
		SignalFraction:    0.3,
		rng:               rand.New(rand.NewSource(seed)),
	}
}

// Branches lists the branch names each entry carries.
func (g *Generator) Branches() []string { return g.set.Names() }

// Next returns the next entry keyed by branch name.
func (g *Generator) Next() map[string]any {
	byRole := make(map[branch.Role]any)
	var n int
	switch g.layout.Primary.Kind {
	case records.KindChannel:
		n = g.fv0(byRole)
	default:
		n = g.mch(byRole)
	}
	if b, ok := g.set.Lookup(branch.RoleDigits); ok {
		digits := make(records.Digits, n)
		for i := range digits {
			digits[i] = records.Digit{DetID: g.entry, PadID: i, ADC: uint32(g.rng.Intn(1024)), Time: int32(g.rng.Intn(200)), NSamples: 20}
		}
		byRole[b.Role] = digits
	}
	if b, ok := g.set.Lookup(branch.RoleLabels); ok {
		labels := make(records.MCLabels, n)
		for i := range labels {
			labels[i] = records.MCLabel{TrackID: i, EventID: g.entry, Fake: g.rng.Float64() < 0.05}
		}
		byRole[b.Role] = labels
	}
	g.entry++

	out := make(map[string]any, len(byRole))
	for role, v := range byRole {
		if b, ok := g.set.Lookup(role); ok {
			out[b.Name] = v
		}
	}
	return out
}

func (g *Generator) ir(i int) records.InteractionRecord {
	return records.InteractionRecord{Orbit: uint32(g.entry), BC: uint16((i * 37) % 3564)}
}

func (g *Generator) mch(byRole map[branch.Role]any) int {
	rofs := records.ROFs{}
	tracks := records.Tracks{}
	clusters := records.Clusters{}
	for r := 0; r < g.IntervalsPerEntry; r++ {
		ir := g.ir(r)
		nt := g.rng.Intn(2*g.RecordsPerGroup + 1)
		rofs = append(rofs, records.ROFRecord{IR: ir, Entries: records.Range{First: len(tracks), Count: nt}})
		for t := 0; t < nt; t++ {
			nc := 1 + g.rng.Intn(2*g.ClustersPerTrack)
			tr := records.Track{IR: ir, Clusters: records.Range{First: len(clusters), Count: nc}, Chi2: g.rng.ExpFloat64()}
			for p := range tr.Params {
				tr.Params[p] = g.rng.NormFloat64()
			}
			tracks = append(tracks, tr)
			for c := 0; c < nc; c++ {
				z := -500 - 100*float64(c)
				clusters = append(clusters, records.Cluster{
					UID:    uint32(len(clusters)),
					DetID:  100 * (1 + c/2),
					X:      g.rng.NormFloat64() * 50,
					Y:      g.rng.NormFloat64() * 50,
					Z:      z,
					Charge: math.Abs(g.rng.NormFloat64()*200 + 500),
				})
			}
		}
	}
	byRole[branch.RoleGrouping] = rofs
	byRole[branch.RolePrimary] = tracks
	byRole[branch.RoleAssociation] = clusters
	return len(tracks)
}

func (g *Generator) fv0(byRole map[branch.Role]any) int {
	rofs := records.ROFs{}
	channels := records.Channels{}
	for r := 0; r < g.IntervalsPerEntry; r++ {
		ir := g.ir(r)
		nc := g.rng.Intn(2*g.RecordsPerGroup + 1)
		if nc > fv0Channels {
			nc = fv0Channels
		}
		rofs = append(rofs, records.ROFRecord{IR: ir, Entries: records.Range{First: len(channels), Count: nc}})
		for _, ch := range g.rng.Perm(fv0Channels)[:nc] {
			amp := g.rng.Intn(g.NoiseAmplitude + 1)
			if g.rng.Float64() < g.SignalFraction {
				amp = 3 + g.rng.Intn(60)
			}
			channels = append(channels, records.ChannelData{Channel: ch, Amplitude: amp, Time: g.rng.NormFloat64() * 0.2})
		}
	}
	byRole[branch.RoleGrouping] = rofs
	byRole[branch.RolePrimary] = channels
	return len(channels)
}

// Write generates entries entries into a new dataset at loc.
func Write(loc dataset.Locator, layout branch.Layout, caps branch.Capabilities, entries int, seed int64) error {
	g := NewGenerator(layout, caps, seed)
	w, err := dataset.Create(loc, layout.Tree, layout.Name, g.Branches())
	if err != nil {
		return err
	}
	for i := 0; i < entries; i++ {
		if err := w.WriteEntry(g.Next()); err != nil {
			w.Close()
			return fmt.Errorf("write entry %d: %w", i, err)
		}
	}
	return w.Close()
}
