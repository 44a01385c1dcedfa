package configs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/utils"
)

// Environment variables recognized by sealenv.
const (
	// EnvHome overrides the user store home directory.
	EnvHome = "SEALENV_HOME"

	// EnvFile overrides project secret file discovery with an explicit path.
	EnvFile = "SEALENV_FILE"

	// EnvIdentity carries a base64-encoded private identity for
	// non-interactive environments, bypassing the on-disk identity file.
	EnvIdentity = "SEALENV_IDENTITY"
)

// DefaultSecretsFileName is the project secret file name used when no
// override is configured.
const DefaultSecretsFileName = ".env.sealed"

// File names inside the user store home.
const (
	IdentityFileName = "identity.key"
	VaultFileName    = "vault.env"
	userConfigName   = "config.toml"
)

type UserSettings struct {
	StoreHome    string
	IdentityPath string
	VaultPath    string
	Username     string
}

type ProjectSettings struct {
	ProjectName     string
	ProjectPath     string
	SecretsFilePath string
}

var (
	UserSealenvSettings    *UserSettings
	ProjectSealenvSettings *ProjectSettings
)

func init() {
	settings, err := ResolveUserSettings()
	if err != nil {
		log.Fatalf("error resolving user settings: %s", err)
	}

	// The store home is independent of what repo you are in, so it is ok to
	// resolve here. Project settings need the working directory and are
	// populated by InitProjectSettings.
	UserSealenvSettings = settings
	ProjectSealenvSettings = &ProjectSettings{}
}

// ResolveUserSettings derives the user store paths from the environment.
// SEALENV_HOME, when set, is used directly as the store home; otherwise the
// store lives at ~/.sealenv.
func ResolveUserSettings() (*UserSettings, error) {
	storeHome := os.Getenv(EnvHome)
	if storeHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("error getting home directory: %w", err)
		}
		storeHome = filepath.Join(homeDir, ".sealenv")
	}

	username, err := utils.GetUsername()
	if err != nil {
		return nil, fmt.Errorf("error getting username: %w", err)
	}

	return &UserSettings{
		StoreHome:    storeHome,
		IdentityPath: filepath.Join(storeHome, IdentityFileName),
		VaultPath:    filepath.Join(storeHome, VaultFileName),
		Username:     username,
	}, nil
}

// ReloadUserSettings re-resolves the store paths from the environment.
// Tests point SEALENV_HOME at a temp directory and call this.
func ReloadUserSettings() error {
	settings, err := ResolveUserSettings()
	if err != nil {
		return err
	}
	UserSealenvSettings = settings
	return nil
}

// EnsureStoreHome creates the store home with owner-only permissions. A
// symlinked store home is rejected.
func EnsureStoreHome() error {
	home := UserSealenvSettings.StoreHome
	if err := utils.RejectSymlink(home); err != nil {
		return err
	}
	if err := os.MkdirAll(home, 0700); err != nil {
		return &serrors.FileError{Message: fmt.Sprintf("failed to create store home %s", home), Err: err}
	}
	return nil
}

// InitProjectSettings locates the project secret file and populates
// ProjectSealenvSettings. SEALENV_FILE takes precedence; otherwise the
// configured file name is searched from the working directory upward. An
// absent file leaves SecretsFilePath empty, which is a legitimate state for
// commands that bootstrap a project.
func InitProjectSettings() error {
	if override := os.Getenv(EnvFile); override != "" {
		abs, err := filepath.Abs(override)
		if err != nil {
			return fmt.Errorf("error resolving %s: %w", EnvFile, err)
		}
		ProjectSealenvSettings = &ProjectSettings{
			ProjectName:     utils.ProjectNameFromFile(abs),
			ProjectPath:     filepath.Dir(abs),
			SecretsFilePath: abs,
		}
		return nil
	}

	found, err := utils.FindSecretsFile(SecretsFileName())
	if err != nil {
		return fmt.Errorf("error locating secret file: %w", err)
	}

	settings := &ProjectSettings{}
	if found != "" {
		settings.ProjectName = utils.ProjectNameFromFile(found)
		settings.ProjectPath = filepath.Dir(found)
		settings.SecretsFilePath = found
	}
	ProjectSealenvSettings = settings
	return nil
}

// SecretsFileName returns the secret file name used by discovery: the user
// config's override if one is set, else DefaultSecretsFileName.
func SecretsFileName() string {
	config, err := LoadUserConfig()
	if err != nil || config.Defaults.SecretsFile == "" {
		return DefaultSecretsFileName
	}
	return config.Defaults.SecretsFile
}
