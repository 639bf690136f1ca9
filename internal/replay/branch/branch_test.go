package branch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trackreplay/internal/replay/records"
)

func TestBuildMatrixMCH(t *testing.T) {
	tests := []struct {
		name string
		caps Capabilities
		want []string
	}{
		{"base", Capabilities{}, []string{"trackrofs", "tracks", "trackclusters"}},
		{"digits", Capabilities{Digits: true}, []string{"trackrofs", "tracks", "trackclusters", "trackdigits"}},
		{"labels", Capabilities{Labels: true}, []string{"trackrofs", "tracks", "trackclusters", "tracklabels"}},
		{"digits and labels", Capabilities{Digits: true, Labels: true}, []string{"trackrofs", "tracks", "trackclusters", "trackdigits", "tracklabels"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Build(MCHTracks, tt.caps, 0)
			assert.Equal(t, tt.want, s.Names())
			assert.Equal(t, len(tt.want), s.Len())
			assert.Equal(t, tt.caps, s.Capabilities())
		})
	}
}

func TestBuildMatrixFV0(t *testing.T) {
	tests := []struct {
		caps Capabilities
		want []string
	}{
		{Capabilities{}, []string{"fv0rofs", "fv0channels"}},
		{Capabilities{Digits: true}, []string{"fv0rofs", "fv0channels", "fv0digits"}},
		{Capabilities{Labels: true}, []string{"fv0rofs", "fv0channels", "fv0labels"}},
		{Capabilities{Digits: true, Labels: true}, []string{"fv0rofs", "fv0channels", "fv0digits", "fv0labels"}},
	}
	for _, tt := range tests {
		s := Build(FV0RecPoints, tt.caps, 0)
		assert.Equal(t, tt.want, s.Names(), "caps=%+v", tt.caps)
		_, ok := s.Lookup(RoleAssociation)
		assert.False(t, ok)
	}
}

func TestBuildOutputs(t *testing.T) {
	s := Build(MCHTracks, Capabilities{Labels: true}, 3)
	want := []records.Output{
		{Origin: "MCH", Description: "TRACKROFS", SubSpec: 3},
		{Origin: "MCH", Description: "TRACKS", SubSpec: 3},
		{Origin: "MCH", Description: "TRACKCLUSTERS", SubSpec: 3},
		{Origin: "MCH", Description: "TRACKLABELS", SubSpec: 3},
	}
	assert.Equal(t, want, s.Outputs())

	labels, ok := s.Lookup(RoleLabels)
	require.True(t, ok)
	assert.Equal(t, records.KindLabel, labels.Kind)
	_, ok = s.Lookup(RoleDigits)
	assert.False(t, ok)
}

func TestBranchesReturnsCopy(t *testing.T) {
	s := Build(MCHTracks, Capabilities{}, 0)
	b := s.Branches()
	b[0].Name = "mutated"
	assert.Equal(t, "trackrofs", s.Names()[0])
}

func TestLayoutByName(t *testing.T) {
	l, err := LayoutByName(" fv0 ")
	require.NoError(t, err)
	assert.Equal(t, "FV0", l.Origin)

	_, err = LayoutByName("TPC")
	assert.ErrorContains(t, err, "unknown detector layout")
}

func TestOutputFor(t *testing.T) {
	out, err := OutputFor(FV0RecPoints, RolePrimary, 1)
	require.NoError(t, err)
	assert.Equal(t, "FV0/RECCHDATA/1", out.String())

	_, err = OutputFor(FV0RecPoints, RoleAssociation, 0)
	assert.ErrorContains(t, err, "has no association branch")

	out, err = OutputFor(MCHTracks, RoleDigits, 0)
	require.NoError(t, err)
	assert.Equal(t, "MCH/TRACKDIGITS/0", out.String())
}
