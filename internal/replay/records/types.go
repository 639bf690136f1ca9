package records

import "fmt"

// InteractionRecord is the time reference of a readout interval: an orbit
// counter and a bunch crossing within the orbit. The core never interprets it;
// it is carried unchanged from grouping records into summaries.
type InteractionRecord struct {
	Orbit uint32 `json:"orbit"`
	BC    uint16 `json:"bc"`
}

// Before reports whether ir precedes other.
func (ir InteractionRecord) Before(other InteractionRecord) bool {
	if ir.Orbit != other.Orbit {
		return ir.Orbit < other.Orbit
	}
	return ir.BC < other.BC
}

func (ir InteractionRecord) String() string {
	return fmt.Sprintf("%d/%d", ir.Orbit, ir.BC)
}

// Range is a contiguous [First, First+Count) slice of another collection.
type Range struct {
	First int `json:"first"`
	Count int `json:"count"`
}

// End returns the exclusive upper bound of the range.
func (r Range) End() int { return r.First + r.Count }

// Within reports whether the range lies inside a collection of n records.
func (r Range) Within(n int) bool {
	return r.First >= 0 && r.Count >= 0 && r.First <= n && r.Count <= n-r.First
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.First, r.End())
}

// ROFRecord is a grouping record (Interval-of-Flight). Entries references the
// primary collection of the same bundle.
type ROFRecord struct {
	IR      InteractionRecord `json:"ir"`
	Entries Range             `json:"entries"`
}

// Track is the primary record of the MCH track layout. Clusters references the
// association-range collection of the same bundle.
type Track struct {
	IR       InteractionRecord `json:"ir"`
	Clusters Range             `json:"clusters"`
	Chi2     float64           `json:"chi2"`
	Params   [5]float64        `json:"params"`
}

// Cluster is an association-range record attached to tracks.
type Cluster struct {
	UID    uint32  `json:"uid"`
	DetID  int     `json:"det_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Charge float64 `json:"charge"`
	Digits Range   `json:"digits"`
}

// Digit is an auxiliary digit record.
type Digit struct {
	DetID    int    `json:"det_id"`
	PadID    int    `json:"pad_id"`
	ADC      uint32 `json:"adc"`
	Time     int32  `json:"time"`
	NSamples uint16 `json:"n_samples"`
}

// MCLabel is a Monte-Carlo association record, positionally aligned with the
// primary collection.
type MCLabel struct {
	TrackID  int  `json:"track_id"`
	EventID  int  `json:"event_id"`
	SourceID int  `json:"source_id"`
	Fake     bool `json:"fake,omitempty"`
}

// ChannelData is a Channel Signal Entry: one channel's amplitude inside an
// interval. Membership is implied by the owning ROFRecord's range.
type ChannelData struct {
	Channel   int     `json:"channel"`
	Amplitude int     `json:"amplitude"`
	Time      float64 `json:"time"`
}

// ClusterSummary is the integrator output for one retained interval.
type ClusterSummary struct {
	IR       InteractionRecord `json:"ir"`
	NChan    int               `json:"n_chan"`
	SumAmpl  int               `json:"sum_ampl"`
	MeanAmpl float64           `json:"mean_ampl"`
	StdAmpl  float64           `json:"std_ampl"`
	MaxAmpl  int               `json:"max_ampl"`
}
