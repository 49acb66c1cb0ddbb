package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"okrboard/integration/harness"
)

func TestInitSmoke(t *testing.T) {
	binPath := harness.BuildBinary(t)
	workspace := t.TempDir()

	stdout, stderr, code := harness.Run(t, binPath, workspace, []string{
		"init", "--workspace", workspace, "--team", "Platform",
	})
	if code != 0 {
		t.Fatalf("init exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}

	configPath := filepath.Join(workspace, "config.yml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("config not written at %s: %v", configPath, err)
	}
	if !strings.Contains(string(data), "auth_secret:") {
		t.Fatalf("config missing auth secret\n%s", data)
	}
	if !strings.Contains(string(data), "Platform") {
		t.Fatalf("config missing default team\n%s", data)
	}

	// Re-running init must not overwrite the existing config.
	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"init", "--workspace", workspace,
	})
	if code != 0 {
		t.Fatalf("second init exit code %d\nstderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "already initialized") {
		t.Fatalf("second init output: %s", stdout)
	}
	after, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("reread config: %v", err)
	}
	if string(after) != string(data) {
		t.Fatalf("second init rewrote the config")
	}

	// Commands that need a session fail before login.
	_, stderr, code = harness.Run(t, binPath, workspace, []string{
		"whoami", "--workspace", workspace,
	})
	if code == 0 {
		t.Fatalf("whoami succeeded without a session")
	}
	if !strings.Contains(stderr, "login") {
		t.Fatalf("whoami error should point at login\nstderr:\n%s", stderr)
	}

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"login", "--guest", "--workspace", workspace,
	})
	if code != 0 {
		t.Fatalf("login exit code %d\nstderr:\n%s", code, stderr)
	}

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"whoami", "--workspace", workspace,
	})
	if code != 0 {
		t.Fatalf("whoami exit code %d\nstderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "guest") {
		t.Fatalf("whoami output: %s", stdout)
	}

	// Logout drops the session.
	if _, stderr, code = harness.Run(t, binPath, workspace, []string{
		"logout", "--workspace", workspace,
	}); code != 0 {
		t.Fatalf("logout exit code %d\nstderr:\n%s", code, stderr)
	}
	if _, _, code = harness.Run(t, binPath, workspace, []string{
		"whoami", "--workspace", workspace,
	}); code == 0 {
		t.Fatalf("whoami succeeded after logout")
	}
}
