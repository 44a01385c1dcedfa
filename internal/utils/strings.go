package utils

import (
	"strings"

	"github.com/sealenv/sealenv/internal/ui"
)

// FormatPaths formats a slice of paths into a readable string.
func FormatPaths(paths []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, path := range paths {
		b.WriteString("    - ")
		b.WriteString(ui.Path.Sprint(path))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatKeys formats a slice of secret key names into a readable string.
func FormatKeys(keys []string) string {
	var b strings.Builder
	b.WriteString("\n")
	for _, key := range keys {
		b.WriteString("    - ")
		b.WriteString(ui.Highlight.Sprint(key))
		b.WriteString("\n")
	}
	return b.String()
}
