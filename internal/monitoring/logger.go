// Package monitoring holds the process-wide diagnostic logger. Library
// packages report rare conditions through Logf so callers and tests can
// redirect or mute them without touching the standard logger.
package monitoring

import "log"

var logf = log.Printf

// Logf writes a diagnostic message through the current logger.
func Logf(format string, v ...interface{}) {
	logf(format, v...)
}

// SetLogger replaces the diagnostic logger. A nil f mutes diagnostics.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		logf = func(string, ...interface{}) {}
		return
	}
	logf = f
}

// Silence mutes diagnostics and returns a function that restores the
// previous logger. Intended for tests that load deliberately odd inputs.
func Silence() (restore func()) {
	prev := logf
	logf = func(string, ...interface{}) {}
	return func() { logf = prev }
}
