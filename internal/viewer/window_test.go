package viewer

import (
	"math"
	"testing"

	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/eeg/layout"
	"github.com/cortical-data/eegview/internal/eeg/montage"
	"github.com/cortical-data/eegview/internal/testutil"
	"github.com/cortical-data/eegview/internal/units"
)

func TestPrepareRecordingInfo(t *testing.T) {
	rec := testutil.MakeTestRecording(t, 6, 1000, 250)
	if err := rec.MarkBad("EEG 002"); err != nil {
		t.Fatalf("MarkBad failed: %v", err)
	}

	info := PrepareRecordingInfo(rec, true)

	if info.NumChannels != 6 {
		t.Errorf("expected 6 channels, got %d", info.NumChannels)
	}
	if info.NumSamples != 1000 {
		t.Errorf("expected 1000 samples, got %d", info.NumSamples)
	}
	if info.SampleRate != 250 {
		t.Errorf("expected sample rate 250, got %f", info.SampleRate)
	}
	if math.Abs(info.DurationSeconds-4.0) > 1e-9 {
		t.Errorf("expected duration 4s, got %f", info.DurationSeconds)
	}
	if !info.HasComparison {
		t.Error("expected has_comparison to be true")
	}
	if len(info.Bads) != 1 || info.Bads[0] != "EEG 002" {
		t.Errorf("expected bads [EEG 002], got %v", info.Bads)
	}
	if len(info.Channels) != 6 {
		t.Fatalf("expected 6 channel entries, got %d", len(info.Channels))
	}
	if info.Channels[0].Name != "EEG 001" {
		t.Errorf("expected first channel EEG 001, got %q", info.Channels[0].Name)
	}
	if !info.Channels[1].Bad {
		t.Error("expected EEG 002 to be flagged bad")
	}
	if info.Channels[0].Kind != "eeg" {
		t.Errorf("expected kind eeg, got %q", info.Channels[0].Kind)
	}
}

func TestNumWindowPages(t *testing.T) {
	rec := testutil.MakeTestRecording(t, 6, 10, 250)

	tests := []struct {
		perPage int
		want    int
	}{
		{4, 2},
		{6, 1},
		{10, 1},
		{1, 6},
		{0, 6}, // invalid collapses to one channel per page
	}

	for _, tc := range tests {
		if got := NumWindowPages(rec, tc.perPage); got != tc.want {
			t.Errorf("NumWindowPages(%d): expected %d, got %d", tc.perPage, tc.want, got)
		}
	}
}

func TestPrepareWindowData_Paging(t *testing.T) {
	rec := testutil.MakeTestRecording(t, 6, 1000, 250)

	data, err := PrepareWindowData(rec, "raw", 0, 2, 0, 4, 2000)
	if err != nil {
		t.Fatalf("PrepareWindowData failed: %v", err)
	}

	if data.NumPages != 2 {
		t.Errorf("expected 2 pages, got %d", data.NumPages)
	}
	if data.NumTraces != 4 {
		t.Fatalf("expected 4 traces on page 0, got %d", data.NumTraces)
	}
	if data.Traces[0].Name != "EEG 001" || data.Traces[3].Name != "EEG 004" {
		t.Errorf("unexpected page 0 channels: %q..%q", data.Traces[0].Name, data.Traces[3].Name)
	}
	if data.Source != "raw" {
		t.Errorf("expected source raw, got %q", data.Source)
	}

	data, err = PrepareWindowData(rec, "raw", 0, 2, 1, 4, 2000)
	if err != nil {
		t.Fatalf("PrepareWindowData page 1 failed: %v", err)
	}
	if data.NumTraces != 2 {
		t.Fatalf("expected 2 traces on page 1, got %d", data.NumTraces)
	}
	if data.Traces[0].Name != "EEG 005" {
		t.Errorf("expected page 1 to start at EEG 005, got %q", data.Traces[0].Name)
	}

	// Pages past the end clamp to the last page
	data, err = PrepareWindowData(rec, "raw", 0, 2, 99, 4, 2000)
	if err != nil {
		t.Fatalf("PrepareWindowData clamped page failed: %v", err)
	}
	if data.Page != 1 {
		t.Errorf("expected clamped page 1, got %d", data.Page)
	}
}

func TestPrepareWindowData_Values(t *testing.T) {
	rec := testutil.MakeTestRecording(t, 3, 1000, 250)
	if err := rec.MarkBad("EEG 002"); err != nil {
		t.Fatalf("MarkBad failed: %v", err)
	}

	// 2s from 1s in, no decimation at this size
	data, err := PrepareWindowData(rec, "raw", 1, 2, 0, 10, 2000)
	if err != nil {
		t.Fatalf("PrepareWindowData failed: %v", err)
	}

	if data.NumTraces != 3 {
		t.Fatalf("expected 3 traces, got %d", data.NumTraces)
	}
	if math.Abs(data.StartSeconds-1.0) > 1e-9 {
		t.Errorf("expected start 1s, got %f", data.StartSeconds)
	}
	if math.Abs(data.DurationSeconds-2.0) > 1e-9 {
		t.Errorf("expected duration 2s, got %f", data.DurationSeconds)
	}

	trace := data.Traces[1]
	if trace.Name != "EEG 002" {
		t.Fatalf("expected trace EEG 002, got %q", trace.Name)
	}
	if !trace.Bad {
		t.Error("expected EEG 002 trace to be flagged bad")
	}
	if len(trace.Times) != 500 {
		t.Fatalf("expected 500 points, got %d", len(trace.Times))
	}
	if math.Abs(trace.Times[0]-1.0) > 1e-9 {
		t.Errorf("expected first time 1s, got %f", trace.Times[0])
	}
	// Channel 1 stores 1000+s, window starts at sample 250
	if math.Abs(trace.Values[0]-1250) > 1e-6 {
		t.Errorf("expected first value 1250, got %f", trace.Values[0])
	}
	if trace.Unit != units.MicroVolts {
		t.Errorf("expected unit uV, got %q", trace.Unit)
	}
}

func TestPrepareWindowData_Decimation(t *testing.T) {
	rec := testutil.MakeTestRecording(t, 2, 10000, 1000)

	data, err := PrepareWindowData(rec, "raw", 0, 10, 0, 10, 200)
	if err != nil {
		t.Fatalf("PrepareWindowData failed: %v", err)
	}

	for _, trace := range data.Traces {
		if len(trace.Times) > 200 {
			t.Errorf("trace %s: expected at most 200 points, got %d", trace.Name, len(trace.Times))
		}
		if len(trace.Times) != len(trace.Values) {
			t.Errorf("trace %s: times and values length mismatch: %d vs %d",
				trace.Name, len(trace.Times), len(trace.Values))
		}
		for i := 1; i < len(trace.Times); i++ {
			if trace.Times[i] <= trace.Times[i-1] {
				t.Fatalf("trace %s: times not strictly increasing at %d", trace.Name, i)
			}
		}
	}
}

func TestPrepareWindowData_UnitConversion(t *testing.T) {
	channels := []eeg.Channel{
		{Name: "EEG 001", Kind: eeg.KindEEG, Unit: units.Volts, Calibration: 1.0},
	}
	data := [][]float32{{0.5, 0.25}}
	rec, err := eeg.NewPreloaded(channels, 100, data)
	if err != nil {
		t.Fatalf("NewPreloaded failed: %v", err)
	}

	win, err := PrepareWindowData(rec, "raw", 0, 1, 0, 10, 2000)
	if err != nil {
		t.Fatalf("PrepareWindowData failed: %v", err)
	}

	trace := win.Traces[0]
	if trace.Unit != units.MicroVolts {
		t.Errorf("expected display unit uV, got %q", trace.Unit)
	}
	if math.Abs(trace.Values[0]-500000) > 1e-3 {
		t.Errorf("expected 0.5V as 500000uV, got %f", trace.Values[0])
	}
}

func TestPrepareWindowData_OutOfRange(t *testing.T) {
	rec := testutil.MakeTestRecording(t, 2, 1000, 250)

	// A start past the end of the recording yields empty traces
	data, err := PrepareWindowData(rec, "raw", 100, 2, 0, 10, 2000)
	if err != nil {
		t.Fatalf("PrepareWindowData failed: %v", err)
	}
	if data.NumTraces != 2 {
		t.Fatalf("expected 2 traces, got %d", data.NumTraces)
	}
	for _, trace := range data.Traces {
		if len(trace.Times) != 0 {
			t.Errorf("trace %s: expected no points past the end, got %d", trace.Name, len(trace.Times))
		}
	}
	if data.DurationSeconds != 0 {
		t.Errorf("expected zero duration, got %f", data.DurationSeconds)
	}
}

func TestPrepareLayoutData(t *testing.T) {
	m, err := montage.Load("standard_1020")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	l := layout.FromMontage(m)

	data := PrepareLayoutData(l, "montage", "standard_1020", []string{"Cz", "T7"})

	if data.Source != "montage" || data.Name != "standard_1020" {
		t.Errorf("unexpected source/name: %q/%q", data.Source, data.Name)
	}
	if data.NumPoints != 21 {
		t.Fatalf("expected 21 points, got %d", data.NumPoints)
	}
	if data.MaxAbs <= 0 {
		t.Errorf("expected positive MaxAbs, got %f", data.MaxAbs)
	}

	badCount := 0
	for _, p := range data.Points {
		if p.Bad {
			badCount++
			if p.Name != "Cz" && p.Name != "T7" {
				t.Errorf("unexpected bad point %q", p.Name)
			}
		}
	}
	if badCount != 2 {
		t.Errorf("expected 2 bad points, got %d", badCount)
	}
}

func TestPrepareLayoutData_Empty(t *testing.T) {
	data := PrepareLayoutData(&layout.Layout{}, "recording", "", nil)

	if data.NumPoints != 0 {
		t.Errorf("expected 0 points, got %d", data.NumPoints)
	}
	if data.MaxAbs != 0.1 {
		t.Errorf("expected fallback MaxAbs 0.1, got %f", data.MaxAbs)
	}
}
