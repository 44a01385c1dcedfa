// Package utils provides shared utility functions for sealenv.
//
// This package contains general-purpose helpers used across multiple packages.
// Functions are organized into logical groups:
//
// # Filesystem Utilities
//
// Functions for working with the filesystem and project structure:
//   - FindSecretsFile: walks up directories to find the project secret file
//   - RejectSymlink: refuses to operate on symlinked paths
//
// # System Utilities
//
// Functions for interacting with the operating system:
//   - GetUsername: returns the current system username
//   - GetHostname: returns the system hostname
//
// # I/O Utilities
//
// Functions for reading from stdin and other I/O operations:
//   - ReadStdin: reads all data from standard input (piped input only)
//
// # Terminal Utilities
//
// Functions for terminal detection:
//   - IsTerminal, StdoutIsTerminal
package utils
