package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImportCommand(t *testing.T) {
	t.Run("ImportsDotenv", func(t *testing.T) {
		projectDir, _ := setupTestEnvironment(t)
		initializeProject(t)

		envContent := "# local config\nexport db-url=postgres://localhost/dev\nAPI_KEY=\"abc123\"\n"
		if err := os.WriteFile(filepath.Join(projectDir, ".env"), []byte(envContent), 0o600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}

		output, err := runCommand(t, "import")
		if err != nil {
			t.Fatalf("import failed: %v\noutput: %s", err, output)
		}
		if !strings.Contains(output, "Imported 2 new") {
			t.Errorf("output does not report the import: %s", output)
		}
		ResetGlobalState()

		// Keys normalized, values encrypted, quotes stripped.
		output, err = runCommand(t, "get", "DB_URL")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !strings.Contains(output, "postgres://localhost/dev") {
			t.Errorf("imported value does not round-trip: %s", output)
		}
		ResetGlobalState()

		output, err = runCommand(t, "get", "API_KEY")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !strings.Contains(output, "abc123") || strings.Contains(output, `"abc123"`) {
			t.Errorf("quotes were not stripped: %s", output)
		}
	})

	t.Run("NoFilesFound", func(t *testing.T) {
		setupTestEnvironment(t)
		initializeProject(t)

		output, err := runCommand(t, "import", "missing.env")
		if err != nil {
			t.Fatalf("import should report missing files on stdout: %v", err)
		}
		if !strings.Contains(output, "no matching files") {
			t.Errorf("output does not report the miss: %s", output)
		}
	})
}

func TestExportCommand(t *testing.T) {
	t.Run("DecryptsToStdout", func(t *testing.T) {
		setupTestEnvironment(t)
		initializeProject(t)

		if _, err := runCommand(t, "set", "API_KEY", "hunter2"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		ResetGlobalState()
		if _, err := runCommand(t, "set", "HOST", "localhost", "--plaintext"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		ResetGlobalState()

		output, err := runCommand(t, "export")
		if err != nil {
			t.Fatalf("export failed: %v\noutput: %s", err, output)
		}
		if !strings.Contains(output, "API_KEY=hunter2") {
			t.Errorf("export did not decrypt: %s", output)
		}
		if !strings.Contains(output, "HOST=localhost") {
			t.Errorf("export lost a plaintext value: %s", output)
		}
		ResetGlobalState()

		// The export itself must land in the audit chain.
		output, err = runCommand(t, "audit", "--action", "export")
		if err != nil {
			t.Fatalf("audit failed: %v", err)
		}
		if !strings.Contains(output, "EXPORT") {
			t.Errorf("export was not audited: %s", output)
		}
	})

	t.Run("JSONToFile", func(t *testing.T) {
		projectDir, _ := setupTestEnvironment(t)
		initializeProject(t)

		if _, err := runCommand(t, "set", "HOST", "localhost", "--plaintext"); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		ResetGlobalState()

		outPath := filepath.Join(projectDir, "out.json")
		if _, err := runCommand(t, "export", "--format", "json", "-o", outPath); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		data, err := os.ReadFile(outPath)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if !strings.Contains(string(data), `"HOST": "localhost"`) {
			t.Errorf("JSON export is wrong:\n%s", data)
		}
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		setupTestEnvironment(t)
		initializeProject(t)

		output, err := runCommand(t, "export", "--format", "xml")
		if err != nil {
			t.Fatalf("export should report bad formats on stdout: %v", err)
		}
		if !strings.Contains(output, "Unsupported format") {
			t.Errorf("output does not reject the format: %s", output)
		}
	})
}

func TestStatusCommand(t *testing.T) {
	setupTestEnvironment(t)
	initializeProject(t)

	if _, err := runCommand(t, "set", "API_KEY", "hunter2"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	ResetGlobalState()

	output, err := runCommand(t, "status")
	if err != nil {
		t.Fatalf("status failed: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "1 encrypted") {
		t.Errorf("status does not count the encrypted key: %s", output)
	}
	if !strings.Contains(output, "local identity trusted") {
		t.Errorf("status does not report trust: %s", output)
	}
	if !strings.Contains(output, "entries verified") {
		t.Errorf("status does not report chain health: %s", output)
	}
	if strings.Contains(output, "hunter2") {
		t.Errorf("status leaked a value: %s", output)
	}
}

func TestDoctorCommand(t *testing.T) {
	setupTestEnvironment(t)
	initializeProject(t)

	output, err := runCommand(t, "doctor")
	if err != nil {
		t.Fatalf("doctor failed: %v\noutput: %s", err, output)
	}
	if !strings.Contains(output, "0 error(s)") {
		t.Errorf("healthy project reports errors: %s", output)
	}
	if !strings.Contains(output, "identity") {
		t.Errorf("doctor output is missing checks: %s", output)
	}
}
