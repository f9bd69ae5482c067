package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raysh454/policeform/internal/cli"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := cli.NewRootCommand(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != cli.Version {
		t.Errorf("expected %q, got %q", cli.Version, out)
	}

	out, err = run(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if strings.TrimSpace(out) != cli.Version {
		t.Errorf("expected %q, got %q", cli.Version, out)
	}
}

func TestServe_BadConfigFile(t *testing.T) {
	_, err := run(t, "serve", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestServe_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("browser:\n  max_sessions: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := run(t, "serve", "--config", path)
	if err == nil || !strings.Contains(err.Error(), "max_sessions") {
		t.Fatalf("expected max_sessions validation error, got %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := run(t, "frobnicate"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
