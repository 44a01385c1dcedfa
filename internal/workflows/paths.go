package workflows

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sealenv/sealenv/internal/configs"
	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/secrets"
)

// resolveSecretsPath returns the explicit path when one is given, else
// the discovered project file. No project anywhere is ErrProjectNotFound.
func resolveSecretsPath(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	path, err := secrets.DefaultSecretsPath()
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", serrors.ErrProjectNotFound
	}
	return path, nil
}

// initTargetPath returns where init should create the secrets file: the
// explicit path, the file override variable, or the configured file name
// in the working directory.
func initTargetPath(explicit string) (string, error) {
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	if override := os.Getenv(configs.EnvFile); override != "" {
		return filepath.Abs(override)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return filepath.Join(wd, configs.SecretsFileName()), nil
}
