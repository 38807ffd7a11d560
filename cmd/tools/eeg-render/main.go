// Command eeg-render writes static PNG views of a session container: stacked
// channel traces, the 2-D sensor layout, and an optional raw-vs-preprocessed
// comparison.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/cortical-data/eegview/internal/eeg/eegfile"
	"github.com/cortical-data/eegview/internal/eeg/layout"
	"github.com/cortical-data/eegview/internal/eeg/montage"
	"github.com/cortical-data/eegview/internal/render"
)

func main() {
	file := flag.String("f", "", "path to the container to render (required)")
	outBase := flag.String("out", ".", "base directory for rendered images")
	start := flag.Float64("start", 0.0, "window start in seconds")
	dur := flag.Float64("dur", 10.0, "window length in seconds")
	channels := flag.String("channels", "", "comma-separated channel subset for the trace view")
	bads := flag.String("bads", "", "comma-separated channels to mark bad before rendering")
	montageName := flag.String("montage", "", "render the layout from this bundled montage instead of recorded positions")
	comparePath := flag.String("compare", "", "preprocessed container for the comparison view")
	compareChannel := flag.String("channel", "", "channel for the comparison view (default: first channel)")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		log.Fatal("container path is required (use -f)")
	}

	rec, err := eegfile.Load(*file, true)
	if err != nil {
		log.Fatalf("failed to load %s: %v", *file, err)
	}
	defer rec.Close()

	if *bads != "" {
		names := strings.Split(*bads, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		if err := rec.SetBads(names); err != nil {
			log.Fatalf("failed to mark bads: %v", err)
		}
	}

	outDir := render.MakeOutputDir(*outBase, *file)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	// Stacked trace view
	var picks []string
	if *channels != "" {
		picks = strings.Split(*channels, ",")
		for i := range picks {
			picks[i] = strings.TrimSpace(picks[i])
		}
	}
	tracesPath := filepath.Join(outDir, "traces.png")
	if err := render.TimeSeries(rec, *start, *dur, picks, tracesPath); err != nil {
		log.Fatalf("failed to render traces: %v", err)
	}
	log.Printf("✓ Created: %s", tracesPath)

	// Sensor layout view
	var l *layout.Layout
	if *montageName != "" {
		m, err := montage.Load(*montageName)
		if err != nil {
			log.Fatalf("failed to load montage: %v", err)
		}
		l = layout.FromMontage(m)
	} else {
		l, err = layout.FromRecording(rec)
		if err != nil {
			log.Printf("skipping layout: %v", err)
		}
	}
	if l != nil {
		layoutPath := filepath.Join(outDir, "layout.png")
		if err := render.Layout(l, rec.Bads(), layoutPath); err != nil {
			log.Fatalf("failed to render layout: %v", err)
		}
		log.Printf("✓ Created: %s", layoutPath)
	}

	// Comparison view
	if *comparePath != "" {
		proc, err := eegfile.Load(*comparePath, true)
		if err != nil {
			log.Fatalf("failed to load comparison %s: %v", *comparePath, err)
		}
		defer proc.Close()

		channel := *compareChannel
		if channel == "" {
			channel = rec.Channels[0].Name
		}

		comparisonPath := filepath.Join(outDir, "comparison.png")
		if err := render.Comparison(rec, proc, channel, *start, *dur, comparisonPath); err != nil {
			log.Fatalf("failed to render comparison: %v", err)
		}
		log.Printf("✓ Created: %s", comparisonPath)
	}
}
