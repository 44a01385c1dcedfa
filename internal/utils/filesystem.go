package utils

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	serrors "github.com/sealenv/sealenv/internal/errors"
)

// FindSecretsFile traverses up directories looking for a secret file with
// the given name. Returns the absolute path if found, empty string otherwise.
// Stops searching when it reaches one level above the user's home directory.
func FindSecretsFile(fileName string) (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	for {
		// Stop searching at one level above home directory.
		if currentDir == path.Join(homeDir, "..") {
			return "", nil
		}

		candidate := filepath.Join(currentDir, fileName)
		fileInfo, err := os.Stat(candidate)
		// No error means the path exists.
		if err == nil {
			if fileInfo.Mode().IsRegular() {
				return candidate, nil
			}
		} else if !os.IsNotExist(err) {
			// Return any error that's not "file not found" (like permission issues).
			return "", fmt.Errorf("error checking for %s at %s: %w", fileName, currentDir, err)
		}

		parentDir := filepath.Dir(currentDir)

		// We've reached the filesystem root without finding the file.
		if parentDir == currentDir {
			return "", nil
		}
		currentDir = parentDir
	}
}

// RejectSymlink returns a FileError when the path exists and is a symbolic
// link. A missing path is fine. Symlinked targets are refused outright so a
// link swapped in between check and use cannot redirect a read or write.
func RejectSymlink(p string) error {
	info, err := os.Lstat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &serrors.FileError{Message: fmt.Sprintf("cannot inspect %s", p), Err: err}
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return &serrors.FileError{Message: fmt.Sprintf("refusing to follow symlink at %s", p)}
	}
	return nil
}
