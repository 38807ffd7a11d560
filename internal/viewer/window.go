// Package viewer serves a local browser UI over loaded EEG recordings.
// This file separates data transformation from chart rendering for improved testability.
package viewer

import (
	"math"

	"github.com/cortical-data/eegview/internal/eeg"
	"github.com/cortical-data/eegview/internal/eeg/layout"
	"github.com/cortical-data/eegview/internal/units"
)

// ChannelInfo describes one channel in the recording metadata response.
type ChannelInfo struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Unit        string `json:"unit"`
	Bad         bool   `json:"bad"`
	HasPosition bool   `json:"has_position"`
}

// RecordingInfo holds recording metadata for the viewer front end.
type RecordingInfo struct {
	ID              string        `json:"id"`
	Path            string        `json:"path"`
	SampleRate      float64       `json:"sample_rate"`
	NumChannels     int           `json:"num_channels"`
	NumSamples      int           `json:"num_samples"`
	DurationSeconds float64       `json:"duration_seconds"`
	Preloaded       bool          `json:"preloaded"`
	Bads            []string      `json:"bads"`
	Channels        []ChannelInfo `json:"channels"`
	HasComparison   bool          `json:"has_comparison"`
}

// ChannelTrace holds one decimated channel trace within a window.
type ChannelTrace struct {
	Name   string    `json:"name"`
	Unit   string    `json:"unit"`
	Bad    bool      `json:"bad"`
	Times  []float64 `json:"times"`
	Values []float64 `json:"values"`
}

// WindowData holds prepared trace data for one paged time window.
type WindowData struct {
	StartSeconds    float64        `json:"start_seconds"`
	DurationSeconds float64        `json:"duration_seconds"`
	SampleRate      float64        `json:"sample_rate"`
	Page            int            `json:"page"`
	NumPages        int            `json:"num_pages"`
	ChannelsPerPage int            `json:"channels_per_page"`
	Source          string         `json:"source"`
	Traces          []ChannelTrace `json:"traces"`
	NumTraces       int            `json:"num_traces"`
}

// LayoutPoint is one electrode position in the 2-D projection.
type LayoutPoint struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Bad  bool    `json:"bad"`
}

// LayoutData holds a prepared 2-D sensor layout.
type LayoutData struct {
	Source    string        `json:"source"`
	Name      string        `json:"name,omitempty"`
	Points    []LayoutPoint `json:"points"`
	NumPoints int           `json:"num_points"`
	MaxAbs    float64       `json:"max_abs"`
}

// PrepareRecordingInfo transforms recording metadata into the viewer response shape.
func PrepareRecordingInfo(rec *eeg.Recording, hasComparison bool) *RecordingInfo {
	channels := make([]ChannelInfo, len(rec.Channels))
	for i, ch := range rec.Channels {
		channels[i] = ChannelInfo{
			Name:        ch.Name,
			Kind:        ch.Kind.String(),
			Unit:        ch.Unit,
			Bad:         rec.IsBad(ch.Name),
			HasPosition: ch.HasPosition,
		}
	}

	return &RecordingInfo{
		ID:              rec.ID.String(),
		Path:            rec.Path,
		SampleRate:      rec.SampleRate,
		NumChannels:     rec.NumChannels(),
		NumSamples:      rec.NumSamples(),
		DurationSeconds: rec.Duration().Seconds(),
		Preloaded:       rec.Preloaded(),
		Bads:            rec.Bads(),
		Channels:        channels,
		HasComparison:   hasComparison,
	}
}

// NumWindowPages returns how many channel pages a recording splits into.
func NumWindowPages(rec *eeg.Recording, channelsPerPage int) int {
	if channelsPerPage <= 0 {
		channelsPerPage = 1
	}
	n := rec.NumChannels()
	if n == 0 {
		return 1
	}
	return (n + channelsPerPage - 1) / channelsPerPage
}

// PrepareWindowData extracts one paged, decimated window from a recording.
// The source label tags the response so the front end can distinguish the raw
// recording from its preprocessed counterpart. Out-of-range pages are clamped.
func PrepareWindowData(rec *eeg.Recording, source string, startSeconds, durationSeconds float64, page, channelsPerPage, maxPoints int) (*WindowData, error) {
	if channelsPerPage <= 0 {
		channelsPerPage = 1
	}
	if maxPoints <= 0 {
		maxPoints = 2000
	}

	numPages := NumWindowPages(rec, channelsPerPage)
	if page < 0 {
		page = 0
	}
	if page >= numPages {
		page = numPages - 1
	}

	first := page * channelsPerPage
	last := first + channelsPerPage
	if last > rec.NumChannels() {
		last = rec.NumChannels()
	}
	picks := make([]int, 0, last-first)
	for i := first; i < last; i++ {
		picks = append(picks, i)
	}

	rate := rec.SampleRate
	start := int(math.Floor(startSeconds * rate))
	count := int(math.Ceil(durationSeconds * rate))

	w, err := rec.Window(start, count, picks)
	if err != nil {
		return nil, err
	}

	traces := make([]ChannelTrace, len(w.Picks))
	for i, p := range w.Picks {
		ch := rec.Channels[p]
		display := units.DisplayUnit(ch.Unit)

		indices, values := eeg.DecimateMinMax(w.Data[i], maxPoints)
		times := make([]float64, len(indices))
		for j, idx := range indices {
			times[j] = float64(w.Start+idx) / rate
			values[j] = units.Convert(values[j], ch.Unit, display)
		}

		traces[i] = ChannelTrace{
			Name:   ch.Name,
			Unit:   display,
			Bad:    rec.IsBad(ch.Name),
			Times:  times,
			Values: values,
		}
	}

	return &WindowData{
		StartSeconds:    float64(w.Start) / rate,
		DurationSeconds: float64(w.NumSamples()) / rate,
		SampleRate:      rate,
		Page:            page,
		NumPages:        numPages,
		ChannelsPerPage: channelsPerPage,
		Source:          source,
		Traces:          traces,
		NumTraces:       len(traces),
	}, nil
}

// PrepareLayoutData flattens a 2-D layout into chart-ready points with bad flags.
func PrepareLayoutData(l *layout.Layout, source, name string, bads []string) *LayoutData {
	badSet := make(map[string]struct{}, len(bads))
	for _, b := range bads {
		badSet[b] = struct{}{}
	}

	points := make([]LayoutPoint, len(l.Names))
	maxAbs := 0.0
	for i, n := range l.Names {
		p := l.Points[i]
		_, bad := badSet[n]
		points[i] = LayoutPoint{Name: n, X: p.X, Y: p.Y, Bad: bad}

		if math.Abs(p.X) > maxAbs {
			maxAbs = math.Abs(p.X)
		}
		if math.Abs(p.Y) > maxAbs {
			maxAbs = math.Abs(p.Y)
		}
	}

	// Add padding so points at the edges are visible
	if maxAbs > 0 {
		maxAbs *= 1.1
	} else {
		maxAbs = 0.1
	}

	return &LayoutData{
		Source:    source,
		Name:      name,
		Points:    points,
		NumPoints: len(points),
		MaxAbs:    maxAbs,
	}
}
