package records

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the schema of a record collection. The set is closed.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindROF
	KindTrack
	KindCluster
	KindDigit
	KindLabel
	KindChannel
	KindSummary
)

var kindNames = map[Kind]string{
	KindROF:     "ROFS",
	KindTrack:   "TRACKS",
	KindCluster: "CLUSTERS",
	KindDigit:   "DIGITS",
	KindLabel:   "LABELS",
	KindChannel: "CHANNELS",
	KindSummary: "SUMMARIES",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// DecodeCollection decodes raw JSON into the typed collection for kind.
// A JSON null decodes to an empty collection.
func DecodeCollection(kind Kind, raw json.RawMessage) (Collection, error) {
	var (
		c   Collection
		err error
	)
	switch kind {
	case KindROF:
		var v ROFs
		err = unmarshal(raw, &v)
		c = nonNil(v)
	case KindTrack:
		var v Tracks
		err = unmarshal(raw, &v)
		c = nonNil(v)
	case KindCluster:
		var v Clusters
		err = unmarshal(raw, &v)
		c = nonNil(v)
	case KindDigit:
		var v Digits
		err = unmarshal(raw, &v)
		c = nonNil(v)
	case KindLabel:
		var v MCLabels
		err = unmarshal(raw, &v)
		c = nonNil(v)
	case KindChannel:
		var v Channels
		err = unmarshal(raw, &v)
		c = nonNil(v)
	case KindSummary:
		var v Summaries
		err = unmarshal(raw, &v)
		c = nonNil(v)
	default:
		return nil, fmt.Errorf("decode %s: unsupported kind", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return c, nil
}

func unmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// nonNil swaps a nil slice for an empty one so downstream consumers never see
// a nil collection for an enabled branch.
func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
