// Package security provides helpers for embedding untrusted strings in
// filesystem paths.
package security

import "strings"

// maxNameLen caps sanitized names so session files with very long names
// cannot produce unwieldy output paths.
const maxNameLen = 80

// SanitizeFilename reduces s to a safe path component. Runs of characters
// outside ASCII letters, digits, dot, underscore and dash collapse to a
// single underscore, and the result is trimmed of leading and trailing
// separators. Input with no safe characters yields "session".
func SanitizeFilename(s string) string {
	out := make([]rune, 0, len(s))
	pendingSep := false
	for _, r := range s {
		if len(out) >= maxNameLen {
			break
		}
		if safeRune(r) {
			if pendingSep && len(out) > 0 {
				out = append(out, '_')
			}
			pendingSep = false
			out = append(out, r)
		} else {
			pendingSep = true
		}
	}
	name := strings.Trim(string(out), "._-")
	if name == "" {
		return "session"
	}
	return name
}

func safeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	}
	return false
}
