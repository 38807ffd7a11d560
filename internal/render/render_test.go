package render

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/eeg/layout"
	"github.com/cortical-data/eegview/internal/eeg/montage"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// createRenderRecording builds a small synthetic recording for image tests.
func createRenderRecording(t *testing.T, seed int64) *eeg.Recording {
	t.Helper()

	gen := eeg.NewGenerator(seed)
	gen.NumChannels = 6
	gen.SampleRate = 250.0
	rec, err := gen.Recording(1000)
	if err != nil {
		t.Fatalf("failed to generate recording: %v", err)
	}
	return rec
}

// assertPNG verifies that path holds a non-trivial PNG file.
func assertPNG(t *testing.T, path string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("rendered file missing: %v", err)
	}
	if len(data) < 1024 {
		t.Errorf("rendered file suspiciously small: %d bytes", len(data))
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Error("rendered file is not a PNG")
	}
}

func TestTimeSeries(t *testing.T) {
	rec := createRenderRecording(t, 42)
	if err := rec.MarkBad("EEG 002"); err != nil {
		t.Fatalf("MarkBad: %v", err)
	}

	path := filepath.Join(t.TempDir(), "timeseries.png")
	if err := TimeSeries(rec, 0, 2.0, nil, path); err != nil {
		t.Fatalf("TimeSeries failed: %v", err)
	}
	assertPNG(t, path)
}

func TestTimeSeriesSubsetOfChannels(t *testing.T) {
	rec := createRenderRecording(t, 42)

	path := filepath.Join(t.TempDir(), "subset.png")
	err := TimeSeries(rec, 1.0, 1.0, []string{"EEG 004", "EEG 001"}, path)
	if err != nil {
		t.Fatalf("TimeSeries failed: %v", err)
	}
	assertPNG(t, path)
}

func TestTimeSeriesUnknownChannel(t *testing.T) {
	rec := createRenderRecording(t, 42)

	path := filepath.Join(t.TempDir(), "unknown.png")
	err := TimeSeries(rec, 0, 1.0, []string{"EEG 999"}, path)
	if err == nil {
		t.Fatal("expected error for unknown channel")
	}
	var notFound *eeg.ChannelNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ChannelNotFoundError, got %T: %v", err, err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("no file should be written on error")
	}
}

func TestTimeSeriesInvalidWindow(t *testing.T) {
	rec := createRenderRecording(t, 42)
	path := filepath.Join(t.TempDir(), "bad.png")

	if err := TimeSeries(rec, 0, 0, nil, path); err == nil {
		t.Error("expected error for zero duration")
	}
	if err := TimeSeries(rec, 100.0, 1.0, nil, path); err == nil {
		t.Error("expected error for window past the end")
	}
}

func TestLayoutFromMontage(t *testing.T) {
	m, err := montage.Load("standard_1020")
	if err != nil {
		t.Fatalf("failed to load montage: %v", err)
	}
	l := layout.FromMontage(m)

	path := filepath.Join(t.TempDir(), "layout.png")
	if err := Layout(l, []string{"Cz", "T7"}, path); err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	assertPNG(t, path)
}

func TestLayoutEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	if err := Layout(&layout.Layout{}, nil, path); err == nil {
		t.Error("expected error for empty layout")
	}
}

func TestComparison(t *testing.T) {
	raw := createRenderRecording(t, 42)
	processed := createRenderRecording(t, 43)

	path := filepath.Join(t.TempDir(), "comparison.png")
	if err := Comparison(raw, processed, "EEG 003", 0, 2.0, path); err != nil {
		t.Fatalf("Comparison failed: %v", err)
	}
	assertPNG(t, path)
}

func TestComparisonUnknownChannel(t *testing.T) {
	raw := createRenderRecording(t, 42)
	processed := createRenderRecording(t, 43)

	path := filepath.Join(t.TempDir(), "comparison.png")
	err := Comparison(raw, processed, "EEG 099", 0, 1.0, path)
	if err == nil {
		t.Fatal("expected error for unknown channel")
	}
	var notFound *eeg.ChannelNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ChannelNotFoundError, got %T: %v", err, err)
	}
}

func TestComparisonRateMismatch(t *testing.T) {
	raw := createRenderRecording(t, 42)

	gen := eeg.NewGenerator(43)
	gen.NumChannels = 6
	gen.SampleRate = 500.0
	other, err := gen.Recording(1000)
	if err != nil {
		t.Fatalf("failed to generate recording: %v", err)
	}

	path := filepath.Join(t.TempDir(), "comparison.png")
	if err := Comparison(raw, other, "EEG 003", 0, 1.0, path); err == nil {
		t.Error("expected error for mismatched sample rates")
	}
}

func TestMakeOutputDir(t *testing.T) {
	dir := MakeOutputDir("renders", "/data/session_night.eegr")
	if !strings.HasPrefix(dir, filepath.Join("renders", "session_night")) {
		t.Errorf("unexpected output dir: %s", dir)
	}
	if strings.Contains(dir, ".eegr") {
		t.Errorf("extension should be stripped: %s", dir)
	}

	dir = MakeOutputDir("renders", "")
	if !strings.HasPrefix(dir, filepath.Join("renders", "render_")) {
		t.Errorf("unexpected fallback dir: %s", dir)
	}
}

func TestMakeOutputDirSanitizesName(t *testing.T) {
	dir := MakeOutputDir("renders", "/data/subject 01 (pilot).eegr")
	if !strings.HasPrefix(dir, filepath.Join("renders", "subject_01_pilot")) {
		t.Errorf("unexpected output dir: %s", dir)
	}
}
