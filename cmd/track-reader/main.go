// Command track-reader replays a muon track dataset branch by branch and
// records per-entry collection sizes.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/trackreplay/internal/config"
	"github.com/banshee-data/trackreplay/internal/replay/pipeline"
	"github.com/banshee-data/trackreplay/internal/version"
)

func main() {
	flags := config.BindFlags(flag.CommandLine, config.WorkflowTrackReader)
	showVersion := flag.Bool("version", false, "print version and exit")
	debug := flag.Bool("debug", false, "route every pipeline log stream to stderr")
	flag.Parse()

	if *showVersion {
		log.Printf("track-reader %s", version.String())
		return
	}
	if *debug {
		pipeline.SetLegacyLogger(os.Stderr)
	} else {
		pipeline.SetLogWriters(os.Stderr, nil, nil)
	}

	opts, err := flags.Resolve()
	if err != nil {
		log.Fatalf("track-reader: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.RunSession(ctx, config.WorkflowTrackReader, opts)
	if err != nil {
		log.Fatalf("track-reader: %v", err)
	}
	if res.RunID != "" {
		log.Printf("replayed %d entries from %s (run %s)", res.Entries, opts.Locator(), res.RunID)
	} else {
		log.Printf("replayed %d entries from %s", res.Entries, opts.Locator())
	}
}
