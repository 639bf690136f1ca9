package config

import (
	"flag"
	"testing"
)

func TestFlagsResolve(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		check   func(t *testing.T, o Options)
		wantErr bool
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o Options) {
				if o.MinNChan != 2 || o.MinAmpl != 2 || o.InFile != "o2reco_fv0.root" {
					t.Errorf("defaults not applied: %+v", o)
				}
			},
		},
		{
			name: "explicit flags",
			args: []string{"-min-NChan=4", "-min-Ampl", "0", "-disable-root-output", "-subspec=3"},
			check: func(t *testing.T, o Options) {
				if o.MinNChan != 4 || o.MinAmpl != 0 || !o.DisableRootOutput || o.SubSpec != 3 {
					t.Errorf("flags not applied: %+v", o)
				}
			},
		},
		{
			name: "flag beats key-value",
			args: []string{"-configKeyValues=minNChan=7;minAmpl=9", "-min-NChan=1"},
			check: func(t *testing.T, o Options) {
				if o.MinNChan != 1 {
					t.Errorf("MinNChan = %d, want explicit flag 1", o.MinNChan)
				}
				if o.MinAmpl != 9 {
					t.Errorf("MinAmpl = %d, want key-value 9", o.MinAmpl)
				}
			},
		},
		{
			name: "unset flag does not mask env",
			env:  map[string]string{"TRACKREPLAY_INFILE": "env.root"},
			check: func(t *testing.T, o Options) {
				if o.InFile != "env.root" {
					t.Errorf("InFile = %q, want env.root", o.InFile)
				}
			},
		},
		{name: "negative threshold", args: []string{"-min-Ampl=-1"}, wantErr: true},
		{name: "bad key-value", args: []string{"-configKeyValues=nonsense"}, wantErr: true},
		{name: "bad subspec", args: []string{"-subspec=-2"}, wantErr: true},
		{name: "subspec overflow", args: []string{"-subspec=4294967296"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			f := BindFlags(fs, WorkflowClusterIntegrator)
			if err := fs.Parse(tc.args); err != nil {
				if tc.wantErr {
					return
				}
				t.Fatalf("failed to parse flags: %v", err)
			}
			o, err := f.Resolve()
			if tc.wantErr {
				if err == nil {
					t.Errorf("Resolve() = %+v, want error", o)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			tc.check(t, o)
		})
	}
}
