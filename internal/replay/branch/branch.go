package branch

import (
	"fmt"
	"strings"

	"github.com/banshee-data/trackreplay/internal/replay/records"
)

// Role is the structural position a branch takes in a bundle.
type Role uint8

const (
	RoleGrouping Role = iota + 1
	RolePrimary
	RoleAssociation
	RoleDigits
	RoleLabels
)

func (r Role) String() string {
	switch r {
	case RoleGrouping:
		return "grouping"
	case RolePrimary:
		return "primary"
	case RoleAssociation:
		return "association"
	case RoleDigits:
		return "digits"
	case RoleLabels:
		return "labels"
	}
	return fmt.Sprintf("Role(%d)", uint8(r))
}

// Capabilities selects the optional branches of a session.
type Capabilities struct {
	Digits bool // auxiliary digits
	Labels bool // Monte-Carlo association records
}

// Def names a branch in storage and the record kind stored in it.
type Def struct {
	Name        string
	Description string
	Kind        records.Kind
}

// Layout describes the branches one detector writes. Association is optional
// per layout; Grouping and Primary are always present.
type Layout struct {
	Name        string
	Tree        string
	Origin      string
	Grouping    Def
	Primary     Def
	Association *Def
	Digits      Def
	Labels      Def
}

// MCHTracks is the muon chamber track layout.
var MCHTracks = Layout{
	Name:        "MCH",
	Tree:        "o2sim",
	Origin:      "MCH",
	Grouping:    Def{Name: "trackrofs", Description: "TRACKROFS", Kind: records.KindROF},
	Primary:     Def{Name: "tracks", Description: "TRACKS", Kind: records.KindTrack},
	Association: &Def{Name: "trackclusters", Description: "TRACKCLUSTERS", Kind: records.KindCluster},
	Digits:      Def{Name: "trackdigits", Description: "TRACKDIGITS", Kind: records.KindDigit},
	Labels:      Def{Name: "tracklabels", Description: "TRACKLABELS", Kind: records.KindLabel},
}

// FV0RecPoints is the forward scintillator layout consumed by the integrator.
var FV0RecPoints = Layout{
	Name:     "FV0",
	Tree:     "o2sim",
	Origin:   "FV0",
	Grouping: Def{Name: "fv0rofs", Description: "RECPOINTS", Kind: records.KindROF},
	Primary:  Def{Name: "fv0channels", Description: "RECCHDATA", Kind: records.KindChannel},
	Digits:   Def{Name: "fv0digits", Description: "DIGITSBC", Kind: records.KindDigit},
	Labels:   Def{Name: "fv0labels", Description: "DIGITSMCTR", Kind: records.KindLabel},
}

var layouts = map[string]Layout{
	MCHTracks.Name:    MCHTracks,
	FV0RecPoints.Name: FV0RecPoints,
}

// LayoutByName resolves a detector name, case-insensitively.
func LayoutByName(name string) (Layout, error) {
	l, ok := layouts[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Layout{}, fmt.Errorf("unknown detector layout %q", name)
	}
	return l, nil
}

// Branch is one enabled branch of a session.
type Branch struct {
	Def
	Role   Role
	Output records.Output
}

// Set is the immutable enabled-branch list of a session, in publishing order.
type Set struct {
	layout   Layout
	caps     Capabilities
	branches []Branch
}

// Build assembles the enabled branch set: the layout's base branches always,
// plus digits and labels when the matching capability is set.
func Build(layout Layout, caps Capabilities, subSpec uint32) Set {
	type candidate struct {
		def     *Def
		role    Role
		enabled bool
	}
	candidates := []candidate{
		{&layout.Grouping, RoleGrouping, true},
		{&layout.Primary, RolePrimary, true},
		{layout.Association, RoleAssociation, layout.Association != nil},
		{&layout.Digits, RoleDigits, caps.Digits},
		{&layout.Labels, RoleLabels, caps.Labels},
	}

	s := Set{layout: layout, caps: caps}
	for _, c := range candidates {
		if !c.enabled {
			continue
		}
		s.branches = append(s.branches, Branch{
			Def:  *c.def,
			Role: c.role,
			Output: records.Output{
				Origin:      layout.Origin,
				Description: c.def.Description,
				SubSpec:     subSpec,
			},
		})
	}
	return s
}

// Layout returns the layout the set was built from.
func (s Set) Layout() Layout { return s.layout }

// Capabilities returns the capability flags the set was built from.
func (s Set) Capabilities() Capabilities { return s.caps }

// Branches returns a copy of the enabled branches.
func (s Set) Branches() []Branch {
	out := make([]Branch, len(s.branches))
	copy(out, s.branches)
	return out
}

// Len returns the number of enabled branches.
func (s Set) Len() int { return len(s.branches) }

// Names returns the enabled branch names in publishing order.
func (s Set) Names() []string {
	names := make([]string, len(s.branches))
	for i, b := range s.branches {
		names[i] = b.Name
	}
	return names
}

// Outputs returns the output identities in publishing order.
func (s Set) Outputs() []records.Output {
	outs := make([]records.Output, len(s.branches))
	for i, b := range s.branches {
		outs[i] = b.Output
	}
	return outs
}

// Lookup returns the enabled branch playing role.
func (s Set) Lookup(role Role) (Branch, bool) {
	for _, b := range s.branches {
		if b.Role == role {
			return b, true
		}
	}
	return Branch{}, false
}

// OutputFor returns the output identity of role in a set built from layout,
// whether or not the role is enabled. Consumers use it to declare inputs.
func OutputFor(layout Layout, role Role, subSpec uint32) (records.Output, error) {
	var def *Def
	switch role {
	case RoleGrouping:
		def = &layout.Grouping
	case RolePrimary:
		def = &layout.Primary
	case RoleAssociation:
		def = layout.Association
	case RoleDigits:
		def = &layout.Digits
	case RoleLabels:
		def = &layout.Labels
	}
	if def == nil {
		return records.Output{}, fmt.Errorf("layout %s has no %s branch", layout.Name, role)
	}
	return records.Output{Origin: layout.Origin, Description: def.Description, SubSpec: subSpec}, nil
}
