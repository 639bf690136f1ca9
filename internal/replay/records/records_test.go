package records

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeWithin(t *testing.T) {
	tests := []struct {
		name string
		r    Range
		n    int
		want bool
	}{
		{"empty at start", Range{First: 0, Count: 0}, 0, true},
		{"exact fit", Range{First: 1, Count: 2}, 3, true},
		{"past end", Range{First: 2, Count: 2}, 3, false},
		{"negative first", Range{First: -1, Count: 1}, 3, false},
		{"negative count", Range{First: 0, Count: -1}, 3, false},
		{"count overflows end", Range{First: 1, Count: math.MaxInt}, 2, false},
		{"first past end", Range{First: math.MaxInt, Count: 0}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Within(tt.n))
		})
	}
}

func TestInteractionRecordBefore(t *testing.T) {
	a := InteractionRecord{Orbit: 1, BC: 3000}
	b := InteractionRecord{Orbit: 2, BC: 0}
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, InteractionRecord{Orbit: 2, BC: 1}.Before(InteractionRecord{Orbit: 2, BC: 2}))
	assert.Equal(t, "2/0", b.String())
}

func TestDecodeCollection(t *testing.T) {
	raw := json.RawMessage(`[{"ir":{"orbit":7,"bc":12},"entries":{"first":0,"count":3}}]`)
	c, err := DecodeCollection(KindROF, raw)
	require.NoError(t, err)
	rofs, ok := c.(ROFs)
	require.True(t, ok)
	require.Len(t, rofs, 1)
	assert.Equal(t, InteractionRecord{Orbit: 7, BC: 12}, rofs[0].IR)
	assert.Equal(t, 3, rofs.RangeAt(0).Count)
}

func TestDecodeCollectionNullIsEmpty(t *testing.T) {
	for _, kind := range []Kind{KindROF, KindTrack, KindCluster, KindDigit, KindLabel, KindChannel, KindSummary} {
		c, err := DecodeCollection(kind, json.RawMessage("null"))
		require.NoError(t, err, kind.String())
		assert.Equal(t, kind, c.Kind())
		assert.Equal(t, 0, c.Len())
	}
}

func TestDecodeCollectionErrors(t *testing.T) {
	_, err := DecodeCollection(KindUnknown, json.RawMessage("[]"))
	assert.Error(t, err)

	_, err = DecodeCollection(KindChannel, json.RawMessage(`{"not":"an array"}`))
	assert.ErrorContains(t, err, "decode CHANNELS")
}

func TestBundleAccessors(t *testing.T) {
	b := &Bundle{
		Entry: 4,
		Collections: []NamedCollection{
			{Name: "fv0rofs", Collection: ROFs{{}, {}}},
			{Name: "fv0channels", Collection: Channels{{Channel: 1, Amplitude: 3}}},
		},
	}
	assert.Equal(t, []string{"fv0rofs", "fv0channels"}, b.Names())
	assert.Equal(t, map[string]int{"fv0rofs": 2, "fv0channels": 1}, b.Sizes())

	c, ok := b.Get("fv0channels")
	require.True(t, ok)
	assert.Equal(t, KindChannel, c.Kind())

	_, ok = b.Get("missing")
	assert.False(t, ok)
}

func TestOutputString(t *testing.T) {
	o := Output{Origin: "MCH", Description: "TRACKS", SubSpec: 2}
	assert.Equal(t, "MCH/TRACKS/2", o.String())
	assert.True(t, o.Matches(Output{Origin: "MCH", Description: "TRACKS", SubSpec: 2}))
	assert.False(t, o.Matches(Output{Origin: "MCH", Description: "TRACKS", SubSpec: 0}))
	assert.Equal(t, "Kind(200)", Kind(200).String())
}
