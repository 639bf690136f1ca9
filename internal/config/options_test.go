package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	tr := Defaults(WorkflowTrackReader)
	if tr.InFile != "mchtracks.root" || tr.Detector != "MCH" {
		t.Errorf("track reader defaults = %+v", tr)
	}
	ci := Defaults(WorkflowClusterIntegrator)
	if ci.InFile != "o2reco_fv0.root" || ci.Detector != "FV0" {
		t.Errorf("integrator defaults = %+v", ci)
	}
	if ci.MinNChan != 2 || ci.MinAmpl != 2 || ci.InputDir != "none" {
		t.Errorf("threshold defaults = %+v", ci)
	}
	if err := ci.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestParseKeyValues(t *testing.T) {
	kv, err := ParseKeyValues(" minNChan = 3 ;; Replay.minAmpl=5;")
	if err != nil {
		t.Fatalf("ParseKeyValues: %v", err)
	}
	if len(kv) != 2 || kv["minNChan"] != "3" || kv["Replay.minAmpl"] != "5" {
		t.Errorf("ParseKeyValues = %v", kv)
	}

	empty, err := ParseKeyValues("")
	if err != nil || len(empty) != 0 {
		t.Errorf("empty string: %v, %v", empty, err)
	}

	for _, bad := range []string{"minNChan", "=3", "a=1;a=2"} {
		if _, err := ParseKeyValues(bad); err == nil {
			t.Errorf("ParseKeyValues(%q) should fail", bad)
		}
	}
}

func TestApplyKeyValues(t *testing.T) {
	base := Defaults(WorkflowClusterIntegrator)
	got, err := base.ApplyKeyValues(map[string]string{
		"Replay.minNChan":   "4",
		"MINAMPL":           "0",
		"disableRootOutput": "true",
		"subSpec":           "7",
		"inputDir":          "/data",
	})
	if err != nil {
		t.Fatalf("ApplyKeyValues: %v", err)
	}
	if got.MinNChan != 4 || got.MinAmpl != 0 || !got.DisableRootOutput || got.SubSpec != 7 || got.InputDir != "/data" {
		t.Errorf("ApplyKeyValues = %+v", got)
	}
	if base.MinNChan != 2 {
		t.Errorf("receiver modified: %+v", base)
	}

	if _, err := base.ApplyKeyValues(map[string]string{"bogus": "1"}); err == nil || !strings.Contains(err.Error(), "bogus") {
		t.Errorf("unknown key error = %v", err)
	}
	if _, err := base.ApplyKeyValues(map[string]string{"minNChan": "many"}); err == nil {
		t.Error("non-integer threshold should fail")
	}
}

func TestApplyKeyValuesAliasedKeys(t *testing.T) {
	for _, s := range []string{
		"minNChan=1;min-NChan=7",
		"minAmpl=1;Replay.minAmpl=3",
		"disableRootOutput=true;DISABLE_ROOT_OUTPUT=false",
	} {
		kv, err := ParseKeyValues(s)
		if err != nil {
			t.Fatalf("ParseKeyValues(%q): %v", s, err)
		}
		// Map order varies; every attempt must fail the same way.
		for i := 0; i < 20; i++ {
			if o, err := Defaults(WorkflowTrackReader).ApplyKeyValues(kv); err == nil {
				t.Fatalf("ApplyKeyValues(%q) = %+v, want error", s, o)
			} else if !strings.Contains(err.Error(), "same option") {
				t.Fatalf("ApplyKeyValues(%q) error = %v", s, err)
			}
		}
	}

	if _, err := Load(WorkflowTrackReader, "", "minNChan=1;min-NChan=7"); err == nil {
		t.Error("Load should reject aliased keys")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"negative min nchan", func(o *Options) { o.MinNChan = -1 }},
		{"negative min ampl", func(o *Options) { o.MinAmpl = -3 }},
		{"empty infile", func(o *Options) { o.InFile = "" }},
		{"unknown detector", func(o *Options) { o.Detector = "TPC" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Defaults(WorkflowTrackReader)
			tt.mutate(&o)
			if err := o.Validate(); err == nil {
				t.Errorf("Validate() should fail for %+v", o)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	if err := os.WriteFile(path, []byte(`{"min_nchan": 5, "mc": true}`), 0o644); err != nil {
		t.Fatal(err)
	}

	o, err := Defaults(WorkflowClusterIntegrator).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if o.MinNChan != 5 || !o.MC {
		t.Errorf("file values not applied: %+v", o)
	}
	if o.MinAmpl != 2 || o.InFile != "o2reco_fv0.root" {
		t.Errorf("omitted fields should keep defaults: %+v", o)
	}

	if _, err := o.LoadFile(filepath.Join(dir, "run.yaml")); err == nil {
		t.Error("non-json extension should fail")
	}
	if _, err := o.LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	if err := os.WriteFile(path, []byte(`{"min_nchan": 5, "min_ampl": 6, "infile": "file.root"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TRACKREPLAY_MIN_AMPL", "7")
	t.Setenv("TRACKREPLAY_INFILE", "env.root")

	o, err := Load(WorkflowClusterIntegrator, path, "infile=kv.root")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if o.MinNChan != 5 {
		t.Errorf("MinNChan = %d, want file value 5", o.MinNChan)
	}
	if o.MinAmpl != 7 {
		t.Errorf("MinAmpl = %d, want env value 7", o.MinAmpl)
	}
	if o.InFile != "kv.root" {
		t.Errorf("InFile = %q, want key-value override", o.InFile)
	}
}

func TestLoadBadEnv(t *testing.T) {
	t.Setenv("TRACKREPLAY_MIN_NCHAN", "lots")
	if _, err := Load(WorkflowTrackReader, "", ""); err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Errorf("Load() error = %v, want parse env failure", err)
	}
}

func TestOptionsHelpers(t *testing.T) {
	o := Defaults(WorkflowTrackReader)
	o.Digits, o.MC = true, false
	if c := o.Capabilities(); !c.Digits || c.Labels {
		t.Errorf("Capabilities() = %+v", c)
	}
	if p := o.Locator().Path(); p != "mchtracks.root" {
		t.Errorf("Locator().Path() = %q", p)
	}
	if p := o.Params(); p.MinNChan != 2 || p.MinAmpl != 2 {
		t.Errorf("Params() = %+v", p)
	}
	if l := o.Layout(); l.Name != "MCH" {
		t.Errorf("Layout() = %s", l.Name)
	}
}
