package eeg

import (
	"math"
	"testing"
)

func TestDecimateMinMaxPassthrough(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	indices, out := DecimateMinMax(values, 10)
	if len(out) != 5 {
		t.Fatalf("expected passthrough of 5 values, got %d", len(out))
	}
	for i := range values {
		if indices[i] != i || out[i] != values[i] {
			t.Errorf("index %d: got (%d, %v)", i, indices[i], out[i])
		}
	}
}

func TestDecimateMinMaxPreservesSpike(t *testing.T) {
	// A single large spike in otherwise flat data must survive decimation.
	values := make([]float64, 10000)
	values[7777] = 500.0
	values[3333] = -500.0

	_, out := DecimateMinMax(values, 200)
	if len(out) > 200 {
		t.Fatalf("expected at most 200 values, got %d", len(out))
	}

	foundHigh, foundLow := false, false
	for _, v := range out {
		if v == 500.0 {
			foundHigh = true
		}
		if v == -500.0 {
			foundLow = true
		}
	}
	if !foundHigh || !foundLow {
		t.Errorf("spikes lost in decimation: high=%v low=%v", foundHigh, foundLow)
	}
}

func TestDecimateMinMaxOrdering(t *testing.T) {
	values := make([]float64, 5000)
	for i := range values {
		values[i] = math.Sin(float64(i) / 25.0)
	}

	indices, out := DecimateMinMax(values, 400)
	if len(indices) != len(out) {
		t.Fatalf("index/value length mismatch: %d vs %d", len(indices), len(out))
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			t.Fatalf("indices not strictly increasing at %d: %d then %d", i, indices[i-1], indices[i])
		}
	}
	for i, idx := range indices {
		if out[i] != values[idx] {
			t.Errorf("value %d does not match source index %d", i, idx)
		}
	}
}

func TestDecimateMinMaxEmpty(t *testing.T) {
	indices, out := DecimateMinMax(nil, 100)
	if indices != nil || out != nil {
		t.Error("expected nil results for empty input")
	}
}

func TestDecimateMinMaxTinyTarget(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5}
	_, out := DecimateMinMax(values, 1)
	if len(out) != len(values) {
		t.Errorf("target under 2 should pass through, got %d values", len(out))
	}
}
