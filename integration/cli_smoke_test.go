package integration_test

import (
	"path/filepath"
	"strings"
	"testing"

	"okrboard/integration/harness"
)

func initAndLogin(t *testing.T, binPath, workspace string) {
	t.Helper()

	stdout, stderr, code := harness.Run(t, binPath, workspace, []string{
		"init", "--workspace", workspace,
	})
	if code != 0 {
		t.Fatalf("okrboard init exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"login", "--guest", "--workspace", workspace,
	})
	if code != 0 {
		t.Fatalf("okrboard login exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}
}

// createOkr runs `okr create` and returns the new OKR's id parsed from stdout.
func createOkr(t *testing.T, binPath, workspace string, extra ...string) string {
	t.Helper()

	args := append([]string{
		"okr", "create", "--workspace", workspace,
		"--objective", "Ship the onboarding revamp",
		"--team", "Platform",
		"--kr", "Activation rate,Time to first value",
	}, extra...)
	stdout, stderr, code := harness.Run(t, binPath, workspace, args)
	if code != 0 {
		t.Fatalf("okrboard okr create exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}

	for _, line := range strings.Split(stdout, "\n") {
		if id, ok := strings.CutPrefix(strings.TrimSpace(line), "id: "); ok {
			return id
		}
	}
	t.Fatalf("okr create did not print an id\nstdout:\n%s", stdout)
	return ""
}

func TestCLISmoke(t *testing.T) {
	binPath := harness.BuildBinary(t)
	workspace := t.TempDir()

	stdout, stderr, code := harness.Run(t, binPath, workspace, []string{"--help"})
	if code != 0 {
		t.Fatalf("okrboard --help exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}
	if !strings.Contains(stdout+stderr, "OKR cycle management") {
		t.Fatalf("expected help output to include header\nstdout:\n%s\nstderr:\n%s", stdout, stderr)
	}

	initAndLogin(t, binPath, workspace)
	id := createOkr(t, binPath, workspace)

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"okr", "progress", "--workspace", workspace,
		"--id", id, "--kr", "0", "--value", "40", "--comment", "first check-in",
	})
	if code != 0 {
		t.Fatalf("okr progress exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"okr", "health", "--workspace", workspace,
		"--id", id, "--status", "at_risk",
	})
	if code != 0 {
		t.Fatalf("okr health exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"okr", "list", "--workspace", workspace,
	})
	if code != 0 {
		t.Fatalf("okr list exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}
	if !strings.Contains(stdout, "Ship the onboarding revamp") {
		t.Fatalf("okr list missing objective\nstdout:\n%s", stdout)
	}
	// Overall progress is the mean of the latest values: (40 + 0) / 2 = 20.
	if !strings.Contains(stdout, "at_risk") || !strings.Contains(stdout, " 20%") {
		t.Fatalf("okr list missing health or progress\nstdout:\n%s", stdout)
	}

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"okr", "close", "--workspace", workspace,
		"--id", id, "--reflection", "Shipped late but shipped",
	})
	if code != 0 {
		t.Fatalf("okr close exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}

	// Closed OKRs are hidden unless --all is given.
	stdout, _, _ = harness.Run(t, binPath, workspace, []string{
		"okr", "list", "--workspace", workspace,
	})
	if strings.Contains(stdout, id) {
		t.Fatalf("closed OKR still listed by default\nstdout:\n%s", stdout)
	}
	stdout, _, _ = harness.Run(t, binPath, workspace, []string{
		"okr", "list", "--all", "--workspace", workspace,
	})
	if !strings.Contains(stdout, "Cerrado") {
		t.Fatalf("closed OKR missing from --all listing\nstdout:\n%s", stdout)
	}

	// A second close must fail.
	_, stderr, code = harness.Run(t, binPath, workspace, []string{
		"okr", "close", "--workspace", workspace,
		"--id", id, "--reflection", "again",
	})
	if code == 0 {
		t.Fatalf("second close succeeded, want failure")
	}
	if !strings.Contains(stderr, "closed") {
		t.Fatalf("second close error should mention closed state\nstderr:\n%s", stderr)
	}

	auditPath := filepath.Join(workspace, "audit", "events.sqlite")
	requireAuditEvents(t, auditPath, []string{
		"okr_created",
		"progress_recorded",
		"health_changed",
		"okr_closed",
	})
}
