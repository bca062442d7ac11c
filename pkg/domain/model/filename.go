package model

import (
	"regexp"
	"strings"
)

const (
	// MaxFilenameLength caps sanitized filenames in bytes
	MaxFilenameLength = 128

	defaultFilename = "file"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowedRun = regexp.MustCompile(`[^A-Za-z0-9._\- ]+`)
)

// SanitizeFilename reduces an uploaded name to a single safe path segment.
// Applying it to its own output returns the same string.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	name = whitespaceRun.ReplaceAllString(name, " ")
	name = disallowedRun.ReplaceAllString(name, "_")
	name = strings.Trim(name, " .")

	if len(name) > MaxFilenameLength {
		name = strings.TrimRight(name[:MaxFilenameLength], " .")
	}
	if name == "" {
		return defaultFilename
	}
	return name
}
