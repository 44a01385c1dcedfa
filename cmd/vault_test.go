package cmd

import (
	"strings"
	"testing"
)

func TestVaultCommands(t *testing.T) {
	t.Run("SetGetDeleteRoundTrip", func(t *testing.T) {
		setupTestEnvironment(t)
		initializeProject(t)

		if _, err := runCommand(t, "vault", "set", "SHARED_TOKEN", "tok-999"); err != nil {
			t.Fatalf("vault set failed: %v", err)
		}
		ResetGlobalState()

		output, err := runCommand(t, "vault", "get", "SHARED_TOKEN")
		if err != nil {
			t.Fatalf("vault get failed: %v\noutput: %s", err, output)
		}
		if !strings.Contains(output, "tok-999") {
			t.Errorf("vault get did not print the value: %s", output)
		}
		ResetGlobalState()

		output, err = runCommand(t, "vault", "list")
		if err != nil {
			t.Fatalf("vault list failed: %v", err)
		}
		if !strings.Contains(output, "SHARED_TOKEN") {
			t.Errorf("vault list is missing the key: %s", output)
		}
		if strings.Contains(output, "tok-999") {
			t.Errorf("vault list leaked a value: %s", output)
		}
		ResetGlobalState()

		if _, err := runCommand(t, "vault", "delete", "SHARED_TOKEN"); err != nil {
			t.Fatalf("vault delete failed: %v", err)
		}
		ResetGlobalState()

		output, err = runCommand(t, "vault", "get", "SHARED_TOKEN")
		if err == nil {
			t.Fatalf("vault get of a deleted key should fail, output: %s", output)
		}
	})

	t.Run("ProjectVaultReferenceResolves", func(t *testing.T) {
		setupTestEnvironment(t)
		initializeProject(t)

		if _, err := runCommand(t, "vault", "set", "TEAM_KEY", "shared-value"); err != nil {
			t.Fatalf("vault set failed: %v", err)
		}
		ResetGlobalState()

		if _, err := runCommand(t, "set", "PROJECT_KEY", "vault:TEAM_KEY", "--plaintext"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		ResetGlobalState()

		output, err := runCommand(t, "get", "PROJECT_KEY")
		if err != nil {
			t.Fatalf("get failed: %v\noutput: %s", err, output)
		}
		if !strings.Contains(output, "shared-value") {
			t.Errorf("vault reference did not resolve: %s", output)
		}
	})
}
