package config

import (
	"flag"
	"fmt"
	"math"
)

// Flags binds the command-line options of a workflow binary.
type Flags struct {
	workflow   string
	fs         *flag.FlagSet
	configPath string
	keyValues  string
	subSpec    uint64
	vals       Options
}

// BindFlags registers the workflow's options on fs. Defaults shown in
// usage are the workflow defaults.
func BindFlags(fs *flag.FlagSet, workflow string) *Flags {
	d := Defaults(workflow)
	f := &Flags{workflow: workflow, fs: fs}
	fs.StringVar(&f.configPath, "config", "", "JSON options file")
	fs.StringVar(&f.keyValues, "configKeyValues", "", "semicolon-separated key=value overrides")
	fs.StringVar(&f.vals.Detector, "detector", d.Detector, "detector layout (MCH or FV0)")
	fs.StringVar(&f.vals.InputDir, "input-dir", d.InputDir, "input directory (\"none\" for the working directory)")
	fs.StringVar(&f.vals.InFile, "infile", d.InFile, "input dataset name")
	fs.BoolVar(&f.vals.Digits, "digits", d.Digits, "read the digits branch")
	fs.BoolVar(&f.vals.MC, "mc", d.MC, "read the Monte-Carlo labels branch")
	fs.Uint64Var(&f.subSpec, "subspec", uint64(d.SubSpec), "sub-specification of published outputs")
	fs.IntVar(&f.vals.MinNChan, "min-NChan", d.MinNChan, "minimum accepted channels per cluster")
	fs.IntVar(&f.vals.MinAmpl, "min-Ampl", d.MinAmpl, "minimum channel amplitude")
	fs.BoolVar(&f.vals.DisableRootOutput, "disable-root-output", d.DisableRootOutput, "do not persist results")
	fs.StringVar(&f.vals.DBPath, "db", d.DBPath, "SQLite database path")
	fs.StringVar(&f.vals.ReportDir, "report-dir", d.ReportDir, "write diagnostic charts to this directory")
	return f
}

// Resolve layers explicitly set flags over Load and validates the result.
// Call after the flag set is parsed.
func (f *Flags) Resolve() (Options, error) {
	o, err := Load(f.workflow, f.configPath, f.keyValues)
	if err != nil {
		return Options{}, err
	}

	var setErr error
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "detector":
			o.Detector = f.vals.Detector
		case "input-dir":
			o.InputDir = f.vals.InputDir
		case "infile":
			o.InFile = f.vals.InFile
		case "digits":
			o.Digits = f.vals.Digits
		case "mc":
			o.MC = f.vals.MC
		case "subspec":
			if f.subSpec > math.MaxUint32 {
				setErr = fmt.Errorf("subspec %d out of range", f.subSpec)
				return
			}
			o.SubSpec = uint32(f.subSpec)
		case "min-NChan":
			o.MinNChan = f.vals.MinNChan
		case "min-Ampl":
			o.MinAmpl = f.vals.MinAmpl
		case "disable-root-output":
			o.DisableRootOutput = f.vals.DisableRootOutput
		case "db":
			o.DBPath = f.vals.DBPath
		case "report-dir":
			o.ReportDir = f.vals.ReportDir
		}
	})
	if setErr != nil {
		return Options{}, setErr
	}

	if err := o.Validate(); err != nil {
		return Options{}, fmt.Errorf("invalid options: %w", err)
	}
	return o, nil
}
