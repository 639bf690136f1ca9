// Command gen-dataset writes a synthetic replay dataset for testing the
// track-reader and cluster-integrator binaries.
package main

import (
	"flag"
	"log"

	"github.com/banshee-data/trackreplay/internal/replay/branch"
	"github.com/banshee-data/trackreplay/internal/replay/dataset"
	"github.com/banshee-data/trackreplay/internal/replay/synthetic"
)

func main() {
	detector := flag.String("detector", "MCH", "detector layout (MCH or FV0)")
	dir := flag.String("dir", "none", "output directory")
	name := flag.String("o", "", "dataset name (default per detector)")
	entries := flag.Int("n", 100, "number of entries")
	seed := flag.Int64("seed", 1, "random seed")
	digits := flag.Bool("digits", false, "include the digits branch")
	mc := flag.Bool("mc", false, "include the Monte-Carlo labels branch")
	flag.Parse()

	layout, err := branch.LayoutByName(*detector)
	if err != nil {
		log.Fatalf("gen-dataset: %v", err)
	}
	if *name == "" {
		*name = "mchtracks.root"
		if layout.Name == branch.FV0RecPoints.Name {
			*name = "o2reco_fv0.root"
		}
	}

	loc := dataset.Locator{Dir: *dir, Name: *name}
	caps := branch.Capabilities{Digits: *digits, Labels: *mc}
	if err := synthetic.Write(loc, layout, caps, *entries, *seed); err != nil {
		log.Fatalf("gen-dataset: %v", err)
	}
	log.Printf("✓ Created: %s (%d entries, %s)", loc, *entries, layout.Name)
}
