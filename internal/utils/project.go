package utils

import (
	"path/filepath"
)

// ProjectNameFromFile returns the name of the project owning a secret file,
// which is the base name of the directory the file lives in. Returns an
// empty string for an empty path so commands on uninitialized directories
// don't crash.
func ProjectNameFromFile(secretsFilePath string) string {
	if secretsFilePath == "" {
		return ""
	}
	return filepath.Base(filepath.Dir(secretsFilePath))
}
