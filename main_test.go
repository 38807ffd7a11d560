package main

import (
	"errors"
	"testing"

	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/testutil"
)

func TestOpenSession(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteTestContainer(t, dir, 4, 100, 250)

	rec, err := openSession(path, true, "")
	if err != nil {
		t.Fatalf("openSession failed: %v", err)
	}
	defer rec.Close()

	if rec.NumChannels() != 4 {
		t.Errorf("expected 4 channels, got %d", rec.NumChannels())
	}
	if rec.NumSamples() != 100 {
		t.Errorf("expected 100 samples, got %d", rec.NumSamples())
	}
	if !rec.Preloaded() {
		t.Error("expected samples to be preloaded")
	}
}

func TestOpenSession_Lazy(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteTestContainer(t, dir, 4, 100, 250)

	rec, err := openSession(path, false, "")
	if err != nil {
		t.Fatalf("openSession failed: %v", err)
	}
	defer rec.Close()

	if rec.Preloaded() {
		t.Error("expected a lazy recording without -preload")
	}
}

func TestOpenSession_WithMontage(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteTestContainer(t, dir, 4, 100, 250)

	rec, err := openSession(path, true, "mgh70")
	if err != nil {
		t.Fatalf("openSession failed: %v", err)
	}
	defer rec.Close()

	for _, ch := range rec.Channels {
		if !ch.HasPosition {
			t.Errorf("channel %s should have a montage position", ch.Name)
		}
	}
}

func TestOpenSession_MissingFile(t *testing.T) {
	_, err := openSession("/nonexistent/session.eegr", true, "")
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	var formatErr *eeg.FileFormatError
	if !errors.As(err, &formatErr) {
		t.Errorf("expected FileFormatError, got %T: %v", err, err)
	}
}

func TestOpenSession_UnknownMontage(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteTestContainer(t, dir, 4, 100, 250)

	_, err := openSession(path, true, "nonexistent")
	if err == nil {
		t.Fatal("expected error for unknown montage")
	}

	var unknownErr *eeg.UnknownMontageError
	if !errors.As(err, &unknownErr) {
		t.Errorf("expected UnknownMontageError, got %T: %v", err, err)
	}
}
