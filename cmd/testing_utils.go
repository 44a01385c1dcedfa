// Package cmd contains the sealenv command tree. This file provides
// testing utilities shared between the command-level tests: environment
// setup, output capture, and project bootstrap.
package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/sealenv/sealenv/internal/configs"
	logger "github.com/sealenv/sealenv/internal/logging"
)

// setupTestEnvironment redirects the store home and working directory
// into temp dirs and resets command state. Restoration is registered
// via t.Cleanup.
func setupTestEnvironment(t *testing.T) (projectDir, storeDir string) {
	t.Helper()

	projectDir = t.TempDir()
	storeDir = t.TempDir()

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(projectDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}

	t.Setenv(configs.EnvHome, storeDir)
	t.Setenv(configs.EnvIdentity, "")
	os.Unsetenv(configs.EnvIdentity)
	t.Setenv(configs.EnvFile, "")
	os.Unsetenv(configs.EnvFile)
	if err := configs.ReloadUserSettings(); err != nil {
		t.Fatalf("Failed to reload user settings: %v", err)
	}

	ResetGlobalState()
	SetLogger(logger.Logger{})

	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		ResetGlobalState()
	})
	return projectDir, storeDir
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	outputChan := make(chan string, 2)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, stdoutReader)
		outputChan <- buf.String()
	}()
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, stderrReader)
		outputChan <- buf.String()
	}()

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()
	os.Stdout = originalStdout
	os.Stderr = originalStderr

	stdout := <-outputChan
	stderr := <-outputChan
	return stdout + stderr, err
}

// runCommand executes the sealenv command tree with the given arguments
// and returns the captured output.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return captureOutput(func() error {
		RootCmd.SetArgs(args)
		return RootCmd.Execute()
	})
}

// initializeProject runs 'sealenv init' in the current directory and
// fails the test if it does not succeed.
func initializeProject(t *testing.T) {
	t.Helper()
	output, err := runCommand(t, "init")
	if err != nil {
		t.Fatalf("Failed to initialize project: %v\noutput: %s", err, output)
	}
	ResetGlobalState()
}
