// Package testutil provides shared test fixtures: builders for replay entries
// and a helper that writes them as an on-disk dataset.
package testutil

import (
	"testing"

	"github.com/banshee-data/trackreplay/internal/replay/branch"
	"github.com/banshee-data/trackreplay/internal/replay/dataset"
	"github.com/banshee-data/trackreplay/internal/replay/records"
)

// Entry maps a branch role to its records. WriteDataset resolves roles to
// branch names of the chosen layout.
type Entry map[branch.Role]any

// Interval describes one FV0 interval by the amplitudes of its channels.
type Interval struct {
	IR         records.InteractionRecord
	Amplitudes []int
}

// FV0Entry builds grouping and channel records for the given intervals. The
// channel ranges tile the channel collection in interval order.
func FV0Entry(intervals ...Interval) Entry {
	rofs := records.ROFs{}
	channels := records.Channels{}
	for _, iv := range intervals {
		rofs = append(rofs, records.ROFRecord{
			IR:      iv.IR,
			Entries: records.Range{First: len(channels), Count: len(iv.Amplitudes)},
		})
		for i, a := range iv.Amplitudes {
			channels = append(channels, records.ChannelData{Channel: i, Amplitude: a, Time: float64(iv.IR.BC)})
		}
	}
	return Entry{branch.RoleGrouping: rofs, branch.RolePrimary: channels}
}

// MCHEntry builds a deterministic track entry with nROF grouping records,
// tracksPerROF tracks each and clustersPerTrack clusters per track.
func MCHEntry(seed, nROF, tracksPerROF, clustersPerTrack int) Entry {
	rofs := records.ROFs{}
	tracks := records.Tracks{}
	clusters := records.Clusters{}
	for r := 0; r < nROF; r++ {
		rofs = append(rofs, records.ROFRecord{
			IR:      records.InteractionRecord{Orbit: uint32(seed), BC: uint16(r * 100)},
			Entries: records.Range{First: len(tracks), Count: tracksPerROF},
		})
		for t := 0; t < tracksPerROF; t++ {
			tracks = append(tracks, records.Track{
				IR:       rofs[r].IR,
				Clusters: records.Range{First: len(clusters), Count: clustersPerTrack},
				Chi2:     float64(seed + t),
			})
			for c := 0; c < clustersPerTrack; c++ {
				clusters = append(clusters, records.Cluster{
					UID:    uint32(len(clusters)),
					DetID:  100 + c,
					Charge: float64(seed*10 + c),
				})
			}
		}
	}
	return Entry{branch.RoleGrouping: rofs, branch.RolePrimary: tracks, branch.RoleAssociation: clusters}
}

// primaryLen returns the record count of the entry's primary collection.
func primaryLen(e Entry) int {
	if c, ok := e[branch.RolePrimary].(records.Collection); ok {
		return c.Len()
	}
	return 0
}

// WriteDataset writes entries as a dataset declaring every branch of layout
// enabled by caps. Digits and labels missing from an entry are synthesised,
// one per primary record, when the matching capability is set.
func WriteDataset(t testing.TB, loc dataset.Locator, layout branch.Layout, caps branch.Capabilities, entries []Entry) {
	t.Helper()

	set := branch.Build(layout, caps, 0)
	w, err := dataset.Create(loc, layout.Tree, layout.Name, set.Names())
	if err != nil {
		t.Fatalf("create dataset: %v", err)
	}
	for i, e := range entries {
		n := primaryLen(e)
		if _, ok := e[branch.RoleDigits]; caps.Digits && !ok {
			digits := make(records.Digits, n)
			for j := range digits {
				digits[j] = records.Digit{DetID: i, PadID: j, ADC: uint32(10 + j)}
			}
			e[branch.RoleDigits] = digits
		}
		if _, ok := e[branch.RoleLabels]; caps.Labels && !ok {
			labels := make(records.MCLabels, n)
			for j := range labels {
				labels[j] = records.MCLabel{TrackID: j, EventID: i}
			}
			e[branch.RoleLabels] = labels
		}

		raw := make(map[string]any, len(e))
		for role, v := range e {
			if b, ok := set.Lookup(role); ok {
				raw[b.Name] = v
			}
		}
		if err := w.WriteEntry(raw); err != nil {
			t.Fatalf("write entry %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close dataset: %v", err)
	}
}

// WriteRaw writes entries keyed directly by branch name, for fixtures that
// must violate the layout.
func WriteRaw(t testing.TB, loc dataset.Locator, layout branch.Layout, branches []string, entries []map[string]any) {
	t.Helper()

	w, err := dataset.Create(loc, layout.Tree, layout.Name, branches)
	if err != nil {
		t.Fatalf("create dataset: %v", err)
	}
	for i, e := range entries {
		if err := w.WriteEntry(e); err != nil {
			t.Fatalf("write entry %d: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close dataset: %v", err)
	}
}
