// Command eeg-info prints the header, channel table, and section layout of an
// .eegr session container without loading its samples.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cortical-data/eegview/internal/eeg/eegfile"
)

func printInfo(info *eegfile.FileInfo) {
	fmt.Println("\n=== Session Container ===")
	fmt.Printf("Path: %s\n", info.Path)
	fmt.Printf("File ID: %s\n", info.FileID)
	fmt.Printf("Format Version: %d\n", info.Version)
	fmt.Printf("Created: %s\n", info.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Printf("Sampling Rate: %.3f Hz\n", info.SampleRate)
	fmt.Printf("Channels: %d\n", info.NumChannels)
	fmt.Printf("Samples: %d (%.1fs)\n", info.NumSamples,
		float64(info.NumSamples)/info.SampleRate)
	fmt.Printf("Block Size: %d samples\n", info.BlockSamples)

	fmt.Println("\n--- Channels ---")
	for i, ch := range info.Channels {
		pos := ""
		if ch.HasPosition {
			pos = fmt.Sprintf("  pos=(%.4f, %.4f, %.4f)",
				ch.Position[0], ch.Position[1], ch.Position[2])
		}
		fmt.Printf("%3d  %-12s %-5s %-4s cal=%g%s\n",
			i, ch.Name, ch.Kind, ch.Unit, ch.Calibration, pos)
	}

	fmt.Println("\n--- Bad Channels ---")
	if len(info.Bads) == 0 {
		fmt.Println("(none)")
	} else {
		for _, name := range info.Bads {
			fmt.Printf("  %s\n", name)
		}
	}

	fmt.Println("\n--- Sections ---")
	for _, s := range info.Sections {
		fmt.Printf("%-8s type=0x%04x offset=%d length=%d\n",
			s.Name, s.Type, s.Offset, s.Length)
	}
}

func exportJSON(info *eegfile.FileInfo, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func main() {
	file := flag.String("f", "", "path to the container to inspect (required)")
	jsonOut := flag.String("json", "", "also write the summary as JSON to this path")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		log.Fatal("container path is required (use -f)")
	}

	info, err := eegfile.Inspect(*file)
	if err != nil {
		log.Fatalf("failed to inspect %s: %v", *file, err)
	}

	printInfo(info)

	if *jsonOut != "" {
		if err := exportJSON(info, *jsonOut); err != nil {
			log.Fatalf("failed to write JSON summary: %v", err)
		}
		log.Printf("✓ Wrote: %s", *jsonOut)
	}
}
