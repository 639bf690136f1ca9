package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseKeyValues splits a "k1=v1;k2=v2" override string. Empty segments are
// ignored; a segment without "=" or with an empty key is an error, as is a
// repeated key.
func ParseKeyValues(s string) (map[string]string, error) {
	kv := make(map[string]string)
	for _, seg := range strings.Split(s, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		k, v, ok := strings.Cut(seg, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("malformed key=value pair %q", seg)
		}
		if _, dup := kv[k]; dup {
			return nil, fmt.Errorf("duplicate key %q", k)
		}
		kv[k] = strings.TrimSpace(v)
	}
	return kv, nil
}

type setter func(o *Options, v string) error

var setters = map[string]setter{
	"detector":          func(o *Options, v string) error { o.Detector = v; return nil },
	"inputdir":          func(o *Options, v string) error { o.InputDir = v; return nil },
	"infile":            func(o *Options, v string) error { o.InFile = v; return nil },
	"digits":            boolSetter(func(o *Options) *bool { return &o.Digits }),
	"mc":                boolSetter(func(o *Options) *bool { return &o.MC }),
	"disablerootoutput": boolSetter(func(o *Options) *bool { return &o.DisableRootOutput }),
	"minnchan":          intSetter(func(o *Options) *int { return &o.MinNChan }),
	"minampl":           intSetter(func(o *Options) *int { return &o.MinAmpl }),
	"db":                func(o *Options, v string) error { o.DBPath = v; return nil },
	"reportdir":         func(o *Options, v string) error { o.ReportDir = v; return nil },
	"subspec": func(o *Options, v string) error {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return err
		}
		o.SubSpec = uint32(n)
		return nil
	},
}

func boolSetter(field func(*Options) *bool) setter {
	return func(o *Options, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(o) = b
		return nil
	}
}

func intSetter(field func(*Options) *int) setter {
	return func(o *Options, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(o) = n
		return nil
	}
}

// normaliseKey maps "Replay.minNChan", "min-NChan" and "min_nchan" to the
// same setter key.
func normaliseKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	k = strings.TrimPrefix(k, "replay.")
	return strings.NewReplacer("-", "", "_", "").Replace(k)
}

// ApplyKeyValues returns a copy of o with every override applied. Unknown
// keys, unparsable values and two keys naming the same option are errors;
// o is left untouched.
func (o Options) ApplyKeyValues(kv map[string]string) (Options, error) {
	seen := make(map[string]string, len(kv))
	for k := range kv {
		nk := normaliseKey(k)
		if prev, dup := seen[nk]; dup {
			a, b := prev, k
			if b < a {
				a, b = b, a
			}
			return Options{}, fmt.Errorf("keys %q and %q set the same option", a, b)
		}
		seen[nk] = k
	}

	for k, v := range kv {
		set, ok := setters[normaliseKey(k)]
		if !ok {
			return Options{}, fmt.Errorf("unknown configuration key %q", k)
		}
		if err := set(&o, v); err != nil {
			return Options{}, fmt.Errorf("configuration key %q: %w", k, err)
		}
	}
	return o, nil
}
