// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/eeg/eegfile"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// MakeTestChannels builds numbered EEG channels, every third one with a
// synthetic scalp position.
func MakeTestChannels(count int) []eeg.Channel {
	channels := make([]eeg.Channel, count)
	for i := range channels {
		channels[i] = eeg.Channel{
			Name:        fmt.Sprintf("EEG %03d", i+1),
			Kind:        eeg.KindEEG,
			Unit:        "uV",
			Calibration: 1.0,
		}
		if i%3 == 0 {
			channels[i].HasPosition = true
			channels[i].Position = [3]float64{float64(i) * 0.002, 0.01, 0.09}
		}
	}
	return channels
}

// MakeTestRecording builds a preloaded recording where sample s of channel c
// holds c*1000+s, so window reads are easy to verify.
func MakeTestRecording(t *testing.T, numChannels, numSamples int, sampleRate float64) *eeg.Recording {
	t.Helper()

	data := make([][]float32, numChannels)
	for c := range data {
		data[c] = make([]float32, numSamples)
		for s := range data[c] {
			data[c][s] = float32(c*1000 + s)
		}
	}
	rec, err := eeg.NewPreloaded(MakeTestChannels(numChannels), sampleRate, data)
	if err != nil {
		t.Fatalf("failed to build test recording: %v", err)
	}
	return rec
}

// WriteTestContainer writes a small recording container into dir and returns
// its path. Sample values follow the MakeTestRecording convention.
func WriteTestContainer(t *testing.T, dir string, numChannels, numSamples int, sampleRate float64) string {
	t.Helper()

	path := filepath.Join(dir, "test_session.eegr")
	w, err := eegfile.NewWriter(path, MakeTestChannels(numChannels), sampleRate)
	if err != nil {
		t.Fatalf("failed to create test container: %v", err)
	}
	data := make([][]float32, numChannels)
	for c := range data {
		data[c] = make([]float32, numSamples)
		for s := range data[c] {
			data[c][s] = float32(c*1000 + s)
		}
	}
	if err := w.WriteChannelMajor(data); err != nil {
		t.Fatalf("failed to write test samples: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close test container: %v", err)
	}
	return path
}
