// Command eeg-gen generates synthetic .eegr session containers for demos and testing.
package main

import (
	"flag"
	"log"
	"strings"

	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/eeg/eegfile"
	"github.com/cortical-data/eegview/internal/eeg/montage"
)

func main() {
	output := flag.String("o", "session.eegr", "output path")
	channels := flag.Int("channels", 70, "number of channels")
	duration := flag.Float64("duration", 30.0, "recording length in seconds")
	rate := flag.Float64("rate", 600.614, "sampling rate in Hz")
	seed := flag.Int64("seed", 42, "random seed")
	amplitude := flag.Float64("amplitude", 40.0, "alpha rhythm amplitude in uV")
	noise := flag.Float64("noise", 6.0, "additive noise sigma in uV")
	mains := flag.Float64("mains", 60.0, "mains hum frequency in Hz, 0 disables")
	montageName := flag.String("montage", "", "bundled montage for electrode positions")
	bads := flag.String("bads", "", "comma-separated channels to mark bad")
	flag.Parse()

	gen := eeg.NewGenerator(*seed)
	gen.NumChannels = *channels
	gen.SampleRate = *rate
	gen.AmplitudeUV = *amplitude
	gen.NoiseUV = *noise
	gen.MainsHz = *mains

	nSamples := int(*duration * *rate)
	rec, err := gen.Recording(nSamples)
	if err != nil {
		log.Fatalf("failed to generate recording: %v", err)
	}
	log.Printf("Generated %d channels x %d samples at %.3f Hz (seed %d)",
		rec.NumChannels(), rec.NumSamples(), rec.SampleRate, *seed)

	if *montageName != "" {
		m, err := montage.Load(*montageName)
		if err != nil {
			log.Fatalf("failed to load montage: %v", err)
		}
		matched := m.Apply(rec.Channels)
		log.Printf("Applied montage %s: %d of %d channels positioned",
			*montageName, matched, rec.NumChannels())
	}

	var badList []string
	if *bads != "" {
		badList = strings.Split(*bads, ",")
		for i := range badList {
			badList[i] = strings.TrimSpace(badList[i])
		}
		if err := rec.SetBads(badList); err != nil {
			log.Fatalf("failed to mark bads: %v", err)
		}
	}

	// Calibration is 1.0 on generated channels, so the calibrated window
	// round-trips to stored samples exactly.
	win, err := rec.Window(0, rec.NumSamples(), nil)
	if err != nil {
		log.Fatalf("failed to read generated samples: %v", err)
	}
	data := make([][]float32, len(win.Data))
	for i, row := range win.Data {
		out := make([]float32, len(row))
		for j, v := range row {
			out[j] = float32(v)
		}
		data[i] = out
	}

	w, err := eegfile.NewWriter(*output, rec.Channels, rec.SampleRate)
	if err != nil {
		log.Fatalf("failed to create container: %v", err)
	}
	if len(badList) > 0 {
		if err := w.SetBads(badList); err != nil {
			log.Fatalf("failed to record bads: %v", err)
		}
	}
	if err := w.WriteChannelMajor(data); err != nil {
		log.Fatalf("failed to write samples: %v", err)
	}
	if err := w.Close(); err != nil {
		log.Fatalf("failed to finalize container: %v", err)
	}

	log.Printf("✓ Created: %s", *output)
}
