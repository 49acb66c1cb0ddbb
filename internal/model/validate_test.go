package model

import "testing"

func TestValidateOrgObjectivesValid(t *testing.T) {
	okrs := []OrgObjective{
		{Objective: "Grow", KeyResults: []OrgKeyResult{{Name: "Increase signups 10%"}}},
	}
	if err := ValidateOrgObjectives(okrs); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateOrgObjectivesRejectsBlanks(t *testing.T) {
	cases := []struct {
		name string
		okrs []OrgObjective
	}{
		{"empty list", nil},
		{"blank objective", []OrgObjective{{Objective: "", KeyResults: []OrgKeyResult{{Name: "x"}}}}},
		{"blank kr name", []OrgObjective{{Objective: "Grow", KeyResults: []OrgKeyResult{{Name: "  "}}}}},
		{"no key results", []OrgObjective{{Objective: "Grow"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOrgObjectives(tc.okrs)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if _, ok := err.(ValidationErrors); !ok {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
		})
	}
}

func TestValidateTeamOkr(t *testing.T) {
	draft := TeamOkr{
		Objective: "Optimize onboarding",
		KeyResults: []KeyResult{
			{Name: "Reduce activation time", Type: KeyResultTypeMetric, TargetValue: 100},
		},
	}
	if err := ValidateTeamOkr(draft); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	draft.KeyResults[0].Name = ""
	if err := ValidateTeamOkr(draft); err == nil {
		t.Fatalf("expected error for blank key result name")
	}

	if err := ValidateTeamOkr(TeamOkr{Objective: "   "}); err == nil {
		t.Fatalf("expected error for blank objective")
	}
}

func TestValidateInitiative(t *testing.T) {
	valid := Initiative{Name: "Migrate billing", LinkedOkrID: "okr-1", Status: InitiativePending}
	if err := ValidateInitiative(valid); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ValidateInitiative(Initiative{Name: "", LinkedOkrID: "okr-1"}); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if err := ValidateInitiative(Initiative{Name: "Migrate billing"}); err == nil {
		t.Fatalf("expected error for unset linkedOkrId")
	}
}

func TestParseHealth(t *testing.T) {
	for _, v := range []string{"on_track", "at_risk", "off_track"} {
		if _, err := ParseHealth(v); err != nil {
			t.Fatalf("ParseHealth(%q) = %v", v, err)
		}
	}
	if _, err := ParseHealth("fine"); err == nil {
		t.Fatalf("expected error for unknown health status")
	}
}

func TestHealthOrDefault(t *testing.T) {
	if got := (TeamOkr{}).HealthOrDefault(); got != HealthOnTrack {
		t.Fatalf("default health = %q, want %q", got, HealthOnTrack)
	}
	if got := (TeamOkr{HealthStatus: HealthAtRisk}).HealthOrDefault(); got != HealthAtRisk {
		t.Fatalf("health = %q, want %q", got, HealthAtRisk)
	}
}
