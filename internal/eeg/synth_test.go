package eeg

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestGeneratorRecording(t *testing.T) {
	gen := NewGenerator(42)
	gen.NumChannels = 8
	gen.SampleRate = 250.0

	rec, err := gen.Recording(1000)
	if err != nil {
		t.Fatalf("Recording: %v", err)
	}

	if rec.NumChannels() != 8 {
		t.Errorf("NumChannels() = %d, want 8", rec.NumChannels())
	}
	if rec.NumSamples() != 1000 {
		t.Errorf("NumSamples() = %d, want 1000", rec.NumSamples())
	}
	if rec.Channels[0].Name != "EEG 001" || rec.Channels[7].Name != "EEG 008" {
		t.Errorf("unexpected channel names %v", rec.ChannelNames())
	}
	if rec.ID == uuid.Nil {
		t.Error("recording has zero ID")
	}

	// The signal should be nontrivial and bounded to plausible amplitudes
	w, err := rec.Window(0, 1000, nil)
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	for i, row := range w.Data {
		var minV, maxV float64 = math.Inf(1), math.Inf(-1)
		for _, v := range row {
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
		if maxV-minV < 1.0 {
			t.Errorf("channel %d is flat (range %g)", i, maxV-minV)
		}
		if maxV > 500 || minV < -500 {
			t.Errorf("channel %d amplitude out of range [%g, %g] uV", i, minV, maxV)
		}
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	a, err := NewGenerator(7).Recording(64)
	if err != nil {
		t.Fatalf("Recording: %v", err)
	}
	b, err := NewGenerator(7).Recording(64)
	if err != nil {
		t.Fatalf("Recording: %v", err)
	}

	wa, _ := a.Window(0, 64, nil)
	wb, _ := b.Window(0, 64, nil)
	for c := range wa.Data {
		for s := range wa.Data[c] {
			if wa.Data[c][s] != wb.Data[c][s] {
				t.Fatalf("seeded runs diverge at channel %d sample %d", c, s)
			}
		}
	}
}

func TestGeneratorRejectsBadConfig(t *testing.T) {
	gen := NewGenerator(1)
	gen.NumChannels = 0
	if _, err := gen.Recording(10); err == nil {
		t.Error("zero channels accepted")
	}

	gen = NewGenerator(1)
	if _, err := gen.Recording(0); err == nil {
		t.Error("zero samples accepted")
	}
}
