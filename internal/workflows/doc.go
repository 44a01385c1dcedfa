// Package workflows provides high-level orchestration for sealenv commands.
//
// Workflows coordinate the storage packages (secretfile, secrets, audit,
// lockfile) to implement complete user-facing features. Each workflow handles
// a single command's business logic, independent of CLI concerns like flag
// parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Locating the project secrets file and the user store
//   - Validating prerequisites
//   - Performing the core operation
//   - Recording audit trail entries
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching. Use errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Get(ctx, opts)
//	if errors.Is(err, serrors.ErrSecretNotFound) {
//	    // Show user-friendly missing-key message
//	}
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// This enables cancellation, timeouts, and passing request-scoped values.
package workflows
