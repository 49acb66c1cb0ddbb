package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"okrboard/integration/harness"
)

func TestOrgSetupAndDashboardSmoke(t *testing.T) {
	binPath := harness.BuildBinary(t)
	workspace := t.TempDir()
	initAndLogin(t, binPath, workspace)

	orgFile := filepath.Join(workspace, "org.yml")
	orgYAML := `okrs:
  - objective: Grow recurring revenue
    key_results:
      - name: ARR up 30%
      - name: Churn below 2%
`
	if err := os.WriteFile(orgFile, []byte(orgYAML), 0o644); err != nil {
		t.Fatalf("write org file: %v", err)
	}

	stdout, stderr, code := harness.Run(t, binPath, workspace, []string{
		"org", "set", "--workspace", workspace, "--file", orgFile,
	})
	if code != 0 {
		t.Fatalf("org set exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"org", "show", "--workspace", workspace,
	})
	if code != 0 {
		t.Fatalf("org show exit code %d\nstderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "Grow recurring revenue") || !strings.Contains(stdout, "Churn below 2%") {
		t.Fatalf("org show output:\n%s", stdout)
	}

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"setup", "set", "--workspace", workspace,
		"--duration", "quarter", "--start", "2026-01-01", "--end", "2026-03-31",
		"--ambassador", "Dana", "--team-ambassadors", "Platform=Sam,Growth=Riley",
	})
	if code != 0 {
		t.Fatalf("setup set exit code %d\nstderr:\n%s", code, stderr)
	}
	stdout, _, code = harness.Run(t, binPath, workspace, []string{
		"setup", "show", "--workspace", workspace,
	})
	if code != 0 || !strings.Contains(stdout, "quarter") || !strings.Contains(stdout, "Riley") {
		t.Fatalf("setup show exit code %d output:\n%s", code, stdout)
	}

	id := createOkr(t, binPath, workspace, "--align", "Grow recurring revenue")
	_, stderr, code = harness.Run(t, binPath, workspace, []string{
		"okr", "progress", "--workspace", workspace,
		"--id", id, "--kr", "0", "--value", "60",
	})
	if code != 0 {
		t.Fatalf("okr progress exit code %d\nstderr:\n%s", code, stderr)
	}

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"dashboard", "--workspace", workspace,
	})
	if code != 0 {
		t.Fatalf("dashboard exit code %d\nstderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "Active OKRs: 1") {
		t.Fatalf("dashboard output:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Grow recurring revenue") {
		t.Fatalf("dashboard missing alignment row:\n%s", stdout)
	}

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"dashboard", "--json", "--workspace", workspace,
	})
	if code != 0 {
		t.Fatalf("dashboard --json exit code %d\nstderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "\"totalActive\": 1") {
		t.Fatalf("dashboard json output:\n%s", stdout)
	}
}

func TestInitiativeAndReportSmoke(t *testing.T) {
	binPath := harness.BuildBinary(t)
	workspace := t.TempDir()
	initAndLogin(t, binPath, workspace)

	okrID := createOkr(t, binPath, workspace)

	stdout, stderr, code := harness.Run(t, binPath, workspace, []string{
		"initiative", "add", "--workspace", workspace,
		"--name", "Migrate signup flow", "--description", "Move signup to the new stack",
		"--owner", "Sam", "--okr", okrID,
	})
	if code != 0 {
		t.Fatalf("initiative add exit code %d\nstdout:\n%s\nstderr:\n%s", code, stdout, stderr)
	}
	var iniID string
	for _, line := range strings.Split(stdout, "\n") {
		if id, ok := strings.CutPrefix(strings.TrimSpace(line), "id: "); ok {
			iniID = id
		}
	}
	if iniID == "" {
		t.Fatalf("initiative add did not print an id\nstdout:\n%s", stdout)
	}

	stdout, _, code = harness.Run(t, binPath, workspace, []string{
		"initiative", "list", "--workspace", workspace,
	})
	if code != 0 || !strings.Contains(stdout, "Migrate signup flow") {
		t.Fatalf("initiative list exit code %d output:\n%s", code, stdout)
	}
	if !strings.Contains(stdout, "Ship the onboarding revamp") {
		t.Fatalf("initiative list should resolve the linked OKR:\n%s", stdout)
	}

	_, stderr, code = harness.Run(t, binPath, workspace, []string{
		"initiative", "status", "--workspace", workspace,
		"--id", iniID, "--status", "En Progreso",
	})
	if code != 0 {
		t.Fatalf("initiative status exit code %d\nstderr:\n%s", code, stderr)
	}

	// Deleting the OKR leaves the initiative dangling.
	if _, stderr, code = harness.Run(t, binPath, workspace, []string{
		"okr", "delete", "--workspace", workspace, "--id", okrID,
	}); code != 0 {
		t.Fatalf("okr delete exit code %d\nstderr:\n%s", code, stderr)
	}
	stdout, _, _ = harness.Run(t, binPath, workspace, []string{
		"initiative", "list", "--workspace", workspace,
	})
	if !strings.Contains(stdout, "(okr not found)") {
		t.Fatalf("dangling initiative not flagged:\n%s", stdout)
	}

	if _, stderr, code = harness.Run(t, binPath, workspace, []string{
		"report", "--workspace", workspace, "--message", "Progress chart renders blank",
	}); code != 0 {
		t.Fatalf("report exit code %d\nstderr:\n%s", code, stderr)
	}

	stdout, stderr, code = harness.Run(t, binPath, workspace, []string{
		"audit", "--workspace", workspace,
	})
	if code != 0 {
		t.Fatalf("audit exit code %d\nstderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "initiative_created") || !strings.Contains(stdout, "okr_deleted") {
		t.Fatalf("audit output:\n%s", stdout)
	}

	auditPath := filepath.Join(workspace, "audit", "events.sqlite")
	requireAuditEvents(t, auditPath, []string{
		"initiative_created",
		"initiative_updated",
		"okr_deleted",
	})
}
