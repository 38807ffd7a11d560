// Package eeg holds the in-memory model for multichannel EEG recordings:
// channel metadata, the sample matrix, and the mutable bad-channel set.
//
// A Recording is created by a loader (see eegfile) or a generator (see
// Generator) and is immutable after construction except for bad-channel
// annotations, which are guarded for concurrent viewer access.
package eeg

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChannelKind identifies what a channel measured.
type ChannelKind uint8

const (
	KindUnknown ChannelKind = 0
	KindEEG     ChannelKind = 1
	KindEOG     ChannelKind = 2
	KindECG     ChannelKind = 3
	KindEMG     ChannelKind = 4
	KindStim    ChannelKind = 5
	KindMisc    ChannelKind = 6
)

// String returns the conventional short name for the kind.
func (k ChannelKind) String() string {
	switch k {
	case KindEEG:
		return "eeg"
	case KindEOG:
		return "eog"
	case KindECG:
		return "ecg"
	case KindEMG:
		return "emg"
	case KindStim:
		return "stim"
	case KindMisc:
		return "misc"
	default:
		return "unknown"
	}
}

// Channel describes one sensor: its name, what it measured, the native
// amplitude unit, and an optional 3-D position in the head frame (meters,
// +X right, +Y front, +Z up).
type Channel struct {
	Name        string
	Kind        ChannelKind
	Unit        string
	HasPosition bool
	Position    [3]float64
	Calibration float64 // multiplier from stored sample to value in Unit
}

// SampleSource supplies raw samples for recordings that were not preloaded.
// Implementations must be safe for concurrent ReadWindow calls.
type SampleSource interface {
	// ReadWindow returns channel-major raw samples covering
	// [start, start+count). Both bounds must already be clamped by the
	// caller to the recording's sample range.
	ReadWindow(start, count int) ([][]float32, error)

	Close() error
}

// Recording is an in-memory multichannel time series. All channels share one
// sampling rate and one time origin. After construction the only mutation is
// the bad-channel set.
type Recording struct {
	ID         uuid.UUID
	Path       string
	StartTime  time.Time
	SampleRate float64
	Channels   []Channel

	nSamples int
	byName   map[string]int

	mu     sync.RWMutex
	data   [][]float32 // channel-major; nil until loaded when streaming
	source SampleSource
	bads   map[string]struct{}
}

// Window is a calibrated slice of the sample matrix.
type Window struct {
	Start      int   // first sample index actually returned
	Picks      []int // channel indices, one per Data row
	SampleRate float64
	Data       [][]float64 // values in each channel's native unit
}

// NumSamples returns the per-channel sample count in the window.
func (w Window) NumSamples() int {
	if len(w.Data) == 0 {
		return 0
	}
	return len(w.Data[0])
}

func buildNameIndex(channels []Channel) (map[string]int, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("recording has no channels")
	}
	byName := make(map[string]int, len(channels))
	for i, ch := range channels {
		if ch.Name == "" {
			return nil, fmt.Errorf("channel %d has an empty name", i)
		}
		if _, dup := byName[ch.Name]; dup {
			return nil, fmt.Errorf("duplicate channel name %q", ch.Name)
		}
		byName[ch.Name] = i
	}
	return byName, nil
}

// NewPreloaded constructs a Recording whose full sample matrix is already in
// memory. data is channel-major and every row must have identical length.
func NewPreloaded(channels []Channel, sampleRate float64, data [][]float32) (*Recording, error) {
	byName, err := buildNameIndex(channels)
	if err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sampling rate must be positive, got %g", sampleRate)
	}
	if len(data) != len(channels) {
		return nil, fmt.Errorf("sample matrix has %d rows for %d channels", len(data), len(channels))
	}
	n := len(data[0])
	for i, row := range data {
		if len(row) != n {
			return nil, fmt.Errorf("channel %q row has %d samples, want %d", channels[i].Name, len(row), n)
		}
	}
	return &Recording{
		SampleRate: sampleRate,
		Channels:   channels,
		nSamples:   n,
		byName:     byName,
		data:       data,
		bads:       make(map[string]struct{}),
	}, nil
}

// NewStreamed constructs a Recording whose samples are read on demand from
// src. The Recording owns src and closes it on Close or LoadAll.
func NewStreamed(channels []Channel, sampleRate float64, nSamples int, src SampleSource) (*Recording, error) {
	byName, err := buildNameIndex(channels)
	if err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sampling rate must be positive, got %g", sampleRate)
	}
	if nSamples < 0 {
		return nil, fmt.Errorf("negative sample count %d", nSamples)
	}
	if src == nil {
		return nil, fmt.Errorf("nil sample source")
	}
	return &Recording{
		SampleRate: sampleRate,
		Channels:   channels,
		nSamples:   nSamples,
		byName:     byName,
		source:     src,
		bads:       make(map[string]struct{}),
	}, nil
}

// NumChannels returns the channel count.
func (r *Recording) NumChannels() int { return len(r.Channels) }

// NumSamples returns the per-channel sample count.
func (r *Recording) NumSamples() int { return r.nSamples }

// Duration returns the recording length in wall time.
func (r *Recording) Duration() time.Duration {
	return time.Duration(float64(r.nSamples) / r.SampleRate * float64(time.Second))
}

// Preloaded reports whether the full sample matrix is in memory.
func (r *Recording) Preloaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data != nil
}

// ChannelNames returns channel names in recording order.
func (r *Recording) ChannelNames() []string {
	names := make([]string, len(r.Channels))
	for i, ch := range r.Channels {
		names[i] = ch.Name
	}
	return names
}

// ChannelIndex returns the index of the named channel.
func (r *Recording) ChannelIndex(name string) (int, bool) {
	i, ok := r.byName[name]
	return i, ok
}

// ResolvePicks maps channel names to indices for Window. An unknown name
// fails with a ChannelNotFoundError.
func (r *Recording) ResolvePicks(names []string) ([]int, error) {
	picks := make([]int, len(names))
	for i, name := range names {
		idx, ok := r.byName[name]
		if !ok {
			return nil, &ChannelNotFoundError{Name: name}
		}
		picks[i] = idx
	}
	return picks, nil
}

// PicksByKind returns the indices of channels matching any of the kinds, in
// recording order. With no kinds it returns every channel index.
func (r *Recording) PicksByKind(kinds ...ChannelKind) []int {
	picks := make([]int, 0, len(r.Channels))
	for i, ch := range r.Channels {
		if len(kinds) == 0 {
			picks = append(picks, i)
			continue
		}
		for _, k := range kinds {
			if ch.Kind == k {
				picks = append(picks, i)
				break
			}
		}
	}
	return picks
}

// MarkBad flags the named channel as excluded. Unknown names are rejected
// with a ChannelNotFoundError rather than ignored.
func (r *Recording) MarkBad(name string) error {
	if _, ok := r.byName[name]; !ok {
		return &ChannelNotFoundError{Name: name}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bads[name] = struct{}{}
	return nil
}

// UnmarkBad removes the named channel from the bad set.
func (r *Recording) UnmarkBad(name string) error {
	if _, ok := r.byName[name]; !ok {
		return &ChannelNotFoundError{Name: name}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bads, name)
	return nil
}

// SetBads replaces the bad set. All names are validated before any change is
// applied, so a rejected call leaves the previous set intact.
func (r *Recording) SetBads(names []string) error {
	for _, name := range names {
		if _, ok := r.byName[name]; !ok {
			return &ChannelNotFoundError{Name: name}
		}
	}
	next := make(map[string]struct{}, len(names))
	for _, name := range names {
		next[name] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bads = next
	return nil
}

// Bads returns the bad channel names, sorted.
func (r *Recording) Bads() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bads))
	for name := range r.bads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBad reports whether the named channel is flagged bad.
func (r *Recording) IsBad(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, bad := r.bads[name]
	return bad
}

// Window extracts calibrated samples for the picked channels. start is
// clamped into the recording and count is clamped to the samples available,
// so a window touching the end comes back shorter rather than failing.
// nil picks selects every channel.
func (r *Recording) Window(start, count int, picks []int) (Window, error) {
	if count < 0 {
		return Window{}, fmt.Errorf("negative window length %d", count)
	}
	if picks == nil {
		picks = r.PicksByKind()
	}
	for _, p := range picks {
		if p < 0 || p >= len(r.Channels) {
			return Window{}, fmt.Errorf("channel index %d out of range [0,%d)", p, len(r.Channels))
		}
	}
	if start < 0 {
		start = 0
	}
	if start > r.nSamples {
		start = r.nSamples
	}
	if start+count > r.nSamples {
		count = r.nSamples - start
	}

	w := Window{
		Start:      start,
		Picks:      picks,
		SampleRate: r.SampleRate,
		Data:       make([][]float64, len(picks)),
	}

	r.mu.RLock()
	data, source := r.data, r.source
	r.mu.RUnlock()

	if data != nil {
		for i, p := range picks {
			cal := r.Channels[p].Calibration
			row := make([]float64, count)
			for j, v := range data[p][start : start+count] {
				row[j] = float64(v) * cal
			}
			w.Data[i] = row
		}
		return w, nil
	}
	if source == nil {
		return Window{}, fmt.Errorf("recording is closed")
	}

	raw, err := source.ReadWindow(start, count)
	if err != nil {
		return Window{}, fmt.Errorf("read window [%d,%d): %w", start, start+count, err)
	}
	for i, p := range picks {
		cal := r.Channels[p].Calibration
		row := make([]float64, len(raw[p]))
		for j, v := range raw[p] {
			row[j] = float64(v) * cal
		}
		w.Data[i] = row
	}
	return w, nil
}

// LoadAll materializes a streamed recording into memory and releases the
// underlying source. It is a no-op when already preloaded.
func (r *Recording) LoadAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data != nil {
		return nil
	}
	data, err := r.source.ReadWindow(0, r.nSamples)
	if err != nil {
		return fmt.Errorf("materialize recording: %w", err)
	}
	if err := r.source.Close(); err != nil {
		return fmt.Errorf("close sample source: %w", err)
	}
	r.data = data
	r.source = nil
	return nil
}

// Close releases the sample source of a streamed recording. Preloaded
// recordings have nothing to release.
func (r *Recording) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.source == nil {
		return nil
	}
	err := r.source.Close()
	r.source = nil
	return err
}
