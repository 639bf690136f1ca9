// Package config resolves the run options of the replay workflows.
//
// Sources are layered, lowest precedence first: workflow defaults, an
// optional JSON file, TRACKREPLAY_* environment variables, and the
// semicolon-separated key=value override string. Command-line flags that
// were set explicitly are applied last by the binaries.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/banshee-data/trackreplay/internal/replay/branch"
	"github.com/banshee-data/trackreplay/internal/replay/dataset"
	"github.com/banshee-data/trackreplay/internal/replay/integrator"
)

// Workflow names.
const (
	WorkflowTrackReader       = "track-reader"
	WorkflowClusterIntegrator = "cluster-integrator"
)

// Options is the resolved, immutable configuration of one session.
type Options struct {
	Detector          string `json:"detector" env:"TRACKREPLAY_DETECTOR"`
	InputDir          string `json:"input_dir" env:"TRACKREPLAY_INPUT_DIR"`
	InFile            string `json:"infile" env:"TRACKREPLAY_INFILE"`
	Digits            bool   `json:"digits" env:"TRACKREPLAY_DIGITS"`
	MC                bool   `json:"mc" env:"TRACKREPLAY_MC"`
	SubSpec           uint32 `json:"subspec" env:"TRACKREPLAY_SUBSPEC"`
	MinNChan          int    `json:"min_nchan" env:"TRACKREPLAY_MIN_NCHAN"`
	MinAmpl           int    `json:"min_ampl" env:"TRACKREPLAY_MIN_AMPL"`
	DisableRootOutput bool   `json:"disable_root_output" env:"TRACKREPLAY_DISABLE_ROOT_OUTPUT"`
	DBPath            string `json:"db" env:"TRACKREPLAY_DB"`
	ReportDir         string `json:"report_dir" env:"TRACKREPLAY_REPORT_DIR"`
}

// Defaults returns the defaults of a workflow.
func Defaults(workflow string) Options {
	o := Options{
		Detector: branch.MCHTracks.Name,
		InputDir: "none",
		InFile:   "mchtracks.root",
		MinNChan: 2,
		MinAmpl:  2,
		DBPath:   "replay.db",
	}
	if workflow == WorkflowClusterIntegrator {
		o.Detector = branch.FV0RecPoints.Name
		o.InFile = "o2reco_fv0.root"
	}
	return o
}

// Load resolves options for workflow from every source except flags. Either
// path or keyValues may be empty.
func Load(workflow, path, keyValues string) (Options, error) {
	o := Defaults(workflow)

	if path != "" {
		var err error
		if o, err = o.LoadFile(path); err != nil {
			return Options{}, err
		}
	}

	if err := ParseEnv(&o); err != nil {
		return Options{}, err
	}

	kv, err := ParseKeyValues(keyValues)
	if err != nil {
		return Options{}, err
	}
	return o.ApplyKeyValues(kv)
}

// ParseEnv overlays TRACKREPLAY_* environment variables onto o.
func ParseEnv(o *Options) error {
	if err := env.Parse(o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadFile overlays the JSON file at path onto o. Fields omitted from the
// file keep their current values.
func (o Options) LoadFile(path string) (Options, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Options{}, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return Options{}, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return Options{}, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return o, nil
}

// Validate checks that the options describe a runnable session.
func (o Options) Validate() error {
	if _, err := branch.LayoutByName(o.Detector); err != nil {
		return err
	}
	if o.InFile == "" {
		return fmt.Errorf("infile must not be empty")
	}
	if err := o.Params().Validate(); err != nil {
		return err
	}
	return nil
}

// Layout returns the detector layout. Call Validate first.
func (o Options) Layout() branch.Layout {
	l, _ := branch.LayoutByName(o.Detector)
	return l
}

// Capabilities returns the optional branch flags.
func (o Options) Capabilities() branch.Capabilities {
	return branch.Capabilities{Digits: o.Digits, Labels: o.MC}
}

// Locator returns the dataset locator.
func (o Options) Locator() dataset.Locator {
	return dataset.Locator{Dir: o.InputDir, Name: o.InFile}
}

// Params returns the integrator thresholds.
func (o Options) Params() integrator.Params {
	return integrator.Params{MinNChan: o.MinNChan, MinAmpl: o.MinAmpl}
}
