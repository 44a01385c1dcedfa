package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sealenv/sealenv/internal/configs"
	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/lockfile"
)

// ImportCandidates expands user-provided paths, directories, and glob
// patterns into the env-style files to import. With no patterns it
// looks for ".env" in baseDir. The project secrets file itself, lock
// sidecars, and staged temp files are never candidates.
func ImportCandidates(patterns []string, baseDir string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{".env"}
	}

	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		resolved, err := resolvePattern(pattern, baseDir)
		if err != nil {
			return nil, err
		}
		for _, f := range resolved {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %s", serrors.ErrNoFilesFound, strings.Join(patterns, ", "))
	}
	return files, nil
}

func resolvePattern(pattern, baseDir string) ([]string, error) {
	absPattern := pattern
	if !filepath.IsAbs(pattern) {
		absPattern = filepath.Join(baseDir, pattern)
	}

	info, err := os.Stat(absPattern)
	if err == nil && info.IsDir() {
		return findEnvFilesInDir(absPattern)
	}

	if strings.ContainsAny(pattern, "*?[") {
		return expandGlob(absPattern)
	}

	if _, err := os.Stat(absPattern); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", serrors.ErrNoFilesFound, pattern)
	}
	if !isEnvFile(absPattern) {
		return nil, fmt.Errorf("not an env file: %s", pattern)
	}
	return []string{absPattern}, nil
}

func expandGlob(absPattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", absPattern, err)
	}

	var filtered []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		if isEnvFile(m) {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

func findEnvFilesInDir(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if isEnvFile(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// isEnvFile recognizes importable dotenv-style files while excluding
// sealenv's own artifacts.
func isEnvFile(path string) bool {
	base := filepath.Base(path)
	if base == configs.SecretsFileName() || base == configs.DefaultSecretsFileName {
		return false
	}
	if strings.HasSuffix(base, lockfile.Suffix) || strings.Contains(base, ".tmp-") {
		return false
	}
	return strings.Contains(base, ".env")
}
