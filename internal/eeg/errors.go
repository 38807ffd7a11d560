package eeg

import (
	"fmt"
	"strings"
)

// FileFormatError reports a recording container that is missing, truncated,
// or otherwise unparseable. The wrapped error carries the underlying cause.
type FileFormatError struct {
	Path string
	Err  error
}

func (e *FileFormatError) Error() string {
	return fmt.Sprintf("recording file %s: %v", e.Path, e.Err)
}

func (e *FileFormatError) Unwrap() error { return e.Err }

// DataIntegrityError reports a container that parsed but whose declared
// dimensions or sections contradict each other.
type DataIntegrityError struct {
	Path   string
	Detail string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("recording file %s: integrity violation: %s", e.Path, e.Detail)
}

// LayoutUnavailableError reports that a flat sensor layout cannot be derived
// because no channel carries position metadata.
type LayoutUnavailableError struct {
	Reason string
}

func (e *LayoutUnavailableError) Error() string {
	return fmt.Sprintf("sensor layout unavailable: %s", e.Reason)
}

// UnknownMontageError reports a montage name absent from the bundled catalog.
type UnknownMontageError struct {
	Name  string
	Known []string
}

func (e *UnknownMontageError) Error() string {
	if len(e.Known) == 0 {
		return fmt.Sprintf("unknown montage %q", e.Name)
	}
	return fmt.Sprintf("unknown montage %q (bundled: %s)", e.Name, strings.Join(e.Known, ", "))
}

// ChannelNotFoundError reports an operation naming a channel the recording
// does not contain.
type ChannelNotFoundError struct {
	Name string
}

func (e *ChannelNotFoundError) Error() string {
	return fmt.Sprintf("channel %q not found in recording", e.Name)
}
