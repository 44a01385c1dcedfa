// Package configs manages user settings and configuration for sealenv.
//
// # User Store
//
// Every user owns a store home directory holding their identity, their
// encrypted vault, and their configuration:
//
//	$SEALENV_HOME (or ~/.sealenv)/
//	    identity.key   age identity, owner read/write only
//	    vault.env      encrypted cross-project vault
//	    config.toml    user configuration
//
// The store home and everything in it is owner-only (0700 directory, 0600
// files). A symlinked store home is rejected.
//
// # User Configuration
//
// The user config (TOML) stores:
//   - User UUID, auto-generated on first use
//   - Optional default secret file name for project discovery
//
// # Settings
//
// Global settings are initialized at startup:
//   - UserSealenvSettings: store home and the paths inside it
//   - ProjectSealenvSettings: current project's secret file location
//
// Call InitProjectSettings() before accessing ProjectSealenvSettings. It
// honors SEALENV_FILE, else walks up the directory tree for the configured
// secret file name. Tests redirect the store with SEALENV_HOME and call
// ReloadUserSettings().
package configs
