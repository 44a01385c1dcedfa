package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	serrors "github.com/sealenv/sealenv/internal/errors"
	"github.com/sealenv/sealenv/internal/ui"
	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not
// in verbose or debug mode. Returns the spinner and a function that should
// be deferred to clean up.
//
// spinner.FinalMSG values do NOT need trailing newlines: the cleanup
// function calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if !verbose && !debug {
			log.SetOutput(os.Stdout)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		// Stop the spinner first to clear the spinner line.
		if !verbose && !debug {
			s.Stop()
		}

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// notInitializedMessage is the shared final message for commands that need
// an existing project.
func notInitializedMessage() string {
	return ui.Error.Sprint("✗") + " No sealenv project found\n" +
		ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealenv init") + " in your project root first"
}

// commonErrorMessage renders the errors every file-targeting command can
// hit. Returns "" when the error is not one of them.
func commonErrorMessage(err error) string {
	var parseErr *serrors.ParseError

	switch {
	case errors.Is(err, serrors.ErrProjectNotFound):
		return notInitializedMessage()

	case errors.Is(err, serrors.ErrIdentityNotFound):
		return ui.Error.Sprint("✗") + " No identity available\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sealenv init") + " to generate one, or set " +
			ui.Code.Sprint("SEALENV_IDENTITY") + " in CI"

	case errors.Is(err, serrors.ErrDecryptionFailed):
		return ui.Error.Sprint("✗") + " Decryption failed: your identity is not in this file's recipient set\n" +
			ui.Info.Sprint("→") + " Ask a trusted teammate to run " + ui.Code.Sprint("sealenv trust") + " with your public key"

	case errors.As(err, &parseErr):
		return ui.Error.Sprint("✗") + " The secrets file is malformed: " + parseErr.Error()

	default:
		return ""
	}
}
