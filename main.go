package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cortical-data/eegview/internal/config"
	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/eeg/eegfile"
	"github.com/cortical-data/eegview/internal/eeg/montage"
	"github.com/cortical-data/eegview/internal/version"
	"github.com/cortical-data/eegview/internal/viewer"
)

var (
	recordingPath = flag.String("recording", "", "Path to the session container to view (required)")
	comparePath   = flag.String("compare", "", "Optional preprocessed container for the comparison overlay")
	montageName   = flag.String("montage", "", "Bundled montage to take electrode positions from")
	listen        = flag.String("listen", "localhost:8880", "HTTP listen address")
	configPath    = flag.String("config", "", "Path to an optional viewer config JSON file")
	preloadAll    = flag.Bool("preload", false, "Read all samples into memory at startup")
	showVersion   = flag.Bool("version", false, "Print version information and exit")
)

// openSession loads a session container and optionally applies electrode
// positions from a bundled montage.
func openSession(path string, preload bool, montageName string) (*eeg.Recording, error) {
	rec, err := eegfile.Load(path, preload)
	if err != nil {
		return nil, err
	}

	if montageName != "" {
		m, err := montage.Load(montageName)
		if err != nil {
			rec.Close()
			return nil, err
		}
		matched := m.Apply(rec.Channels)
		log.Printf("Applied montage %s: %d of %d channels positioned", montageName, matched, rec.NumChannels())
	}

	return rec, nil
}

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *recordingPath == "" {
		log.Fatal("Recording path is required (use -recording)")
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	viewerCfg := config.EmptyViewerConfig()
	if *configPath != "" {
		var err error
		viewerCfg, err = config.LoadViewerConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load viewer config: %v", err)
		}
	}

	rec, err := openSession(*recordingPath, *preloadAll, *montageName)
	if err != nil {
		log.Fatalf("Failed to load recording: %v", err)
	}
	defer rec.Close()
	log.Printf("Loaded %s: %d channels, %d samples at %.1f Hz (%s)",
		rec.Path, rec.NumChannels(), rec.NumSamples(), rec.SampleRate,
		rec.Duration().Round(time.Second))

	var compare *eeg.Recording
	if *comparePath != "" {
		compare, err = openSession(*comparePath, *preloadAll, *montageName)
		if err != nil {
			log.Fatalf("Failed to load comparison recording: %v", err)
		}
		defer compare.Close()
		log.Printf("Loaded comparison %s: %d channels, %d samples at %.1f Hz",
			compare.Path, compare.NumChannels(), compare.NumSamples(), compare.SampleRate)

		if compare.SampleRate != rec.SampleRate {
			log.Printf("Warning: comparison sampling rate %.3f Hz differs from %.3f Hz",
				compare.SampleRate, rec.SampleRate)
		}
	}

	server := viewer.NewWebServer(viewer.WebServerConfig{
		Address:   *listen,
		Recording: rec,
		Compare:   compare,
		Config:    viewerCfg,
	})

	// Create a wait group for the viewer server routine
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(ctx); err != nil {
			log.Printf("Viewer server error: %v", err)
		}
	}()

	log.Printf("Viewer running at http://%s/", *listen)

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
