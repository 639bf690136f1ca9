// Command cluster-integrator replays FV0 channel data through the
// noise-threshold integrator and stores the retained clusters.
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
	flags := config.BindFlags(flag.CommandLine, config.WorkflowClusterIntegrator)
	showVersion := flag.Bool("version", false, "print version and exit")
	debug := flag.Bool("debug", false, "route every pipeline log stream to stderr")
	flag.Parse()

	if *showVersion {
		log.Printf("cluster-integrator %s", version.String())
		return
	}
	if *debug {
		pipeline.SetLegacyLogger(os.Stderr)
	} else {
		pipeline.SetLogWriters(os.Stderr, os.Stderr, nil)
	}

	opts, err := flags.Resolve()
	if err != nil {
		log.Fatalf("cluster-integrator: %v", err)
	}
	log.Printf("integrating %s with minNChan=%d minAmpl=%d", opts.Locator(), opts.MinNChan, opts.MinAmpl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.RunSession(ctx, config.WorkflowClusterIntegrator, opts)
	if err != nil {
		log.Fatalf("cluster-integrator: %v", err)
	}
	log.Printf("processed %d entries, stored %d clusters", res.Entries, res.Clusters)
}
