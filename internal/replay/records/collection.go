package records

// Collection is a typed record slice for one branch of one entry.
type Collection interface {
	Kind() Kind
	Len() int
}

// ROFs is a collection of grouping records.
type ROFs []ROFRecord

func (ROFs) Kind() Kind { return KindROF }
func (c ROFs) Len() int { return len(c) }

// Tracks is a collection of MCH primary records.
type Tracks []Track

func (Tracks) Kind() Kind { return KindTrack }
func (c Tracks) Len() int { return len(c) }

// Clusters is a collection of association-range records.
type Clusters []Cluster

func (Clusters) Kind() Kind { return KindCluster }
func (c Clusters) Len() int { return len(c) }

// Digits is a collection of auxiliary digits.
type Digits []Digit

func (Digits) Kind() Kind { return KindDigit }
func (c Digits) Len() int { return len(c) }

// MCLabels is a collection of Monte-Carlo association records.
type MCLabels []MCLabel

func (MCLabels) Kind() Kind { return KindLabel }
func (c MCLabels) Len() int { return len(c) }

// Channels is a collection of Channel Signal Entries.
type Channels []ChannelData

func (Channels) Kind() Kind { return KindChannel }
func (c Channels) Len() int { return len(c) }

// Summaries is the integrator output collection.
type Summaries []ClusterSummary

func (Summaries) Kind() Kind { return KindSummary }
func (c Summaries) Len() int { return len(c) }

// Ranged is implemented by collections whose records reference a contiguous
// range of another collection.
type Ranged interface {
	Collection
	RangeAt(i int) Range
}

func (c ROFs) RangeAt(i int) Range { return c[i].Entries }
func (c Tracks) RangeAt(i int) Range { return c[i].Clusters }
