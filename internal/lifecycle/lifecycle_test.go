package lifecycle

import (
	"errors"
	"testing"

	"okrboard/internal/model"
)

func activeOkr() model.TeamOkr {
	return model.TeamOkr{
		ID:        "okr-1",
		Objective: "Improve onboarding",
		KeyResults: []model.KeyResult{
			{Name: "Reduce activation time", Type: model.KeyResultTypeMetric},
		},
		Status:       model.StatusActive,
		HealthStatus: model.HealthOnTrack,
		UserID:       "user-a",
	}
}

func TestAssertOwner(t *testing.T) {
	okr := activeOkr()
	if err := AssertOwner("user-a", okr); err != nil {
		t.Fatalf("owner rejected: %v", err)
	}
	if err := AssertOwner("user-b", okr); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := AssertOwner("", okr); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for empty actor, got %v", err)
	}
}

func TestSetHealth(t *testing.T) {
	okr := activeOkr()

	updated, err := SetHealth(okr, model.HealthAtRisk, "user-a")
	if err != nil {
		t.Fatalf("SetHealth: %v", err)
	}
	if updated.HealthStatus != model.HealthAtRisk {
		t.Fatalf("health = %q, want at_risk", updated.HealthStatus)
	}

	// Any order is fine.
	updated, err = SetHealth(updated, model.HealthOnTrack, "user-a")
	if err != nil {
		t.Fatalf("SetHealth back to on_track: %v", err)
	}
	if updated.HealthStatus != model.HealthOnTrack {
		t.Fatalf("health = %q, want on_track", updated.HealthStatus)
	}

	if _, err := SetHealth(okr, "sideways", "user-a"); err == nil {
		t.Fatalf("expected error for unknown health value")
	}
	if _, err := SetHealth(okr, model.HealthAtRisk, "user-b"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	closed := okr
	closed.Status = model.StatusClosed
	if _, err := SetHealth(closed, model.HealthAtRisk, "user-a"); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestClose(t *testing.T) {
	okr := activeOkr()
	retro := model.Retrospective{
		Reflection:   "Good cycle",
		Achievements: "Shipped onboarding v2",
		Learnings:    "Start measuring earlier",
	}

	closed, err := Close(okr, retro, "user-a")
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Status != model.StatusClosed {
		t.Fatalf("status = %q, want Cerrado", closed.Status)
	}
	if closed.Retrospective == nil || closed.Retrospective.Reflection != "Good cycle" {
		t.Fatalf("retrospective not attached: %#v", closed.Retrospective)
	}

	// Second close must fail, not silently succeed.
	if _, err := Close(closed, retro, "user-a"); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}

	if _, err := Close(okr, retro, "user-b"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	// Blank retrospective fields are tolerated at closure.
	if _, err := Close(okr, model.Retrospective{}, "user-a"); err != nil {
		t.Fatalf("blank retrospective rejected: %v", err)
	}
}

func TestNewTeamOkr(t *testing.T) {
	draft := model.TeamOkr{
		ID:           "stale-id",
		Objective:    "Improve onboarding",
		KeyResults:   []model.KeyResult{{Name: "Reduce activation time"}},
		Status:       model.StatusClosed,
		HealthStatus: model.HealthOffTrack,
		Progress:     80,
	}

	okr := NewTeamOkr(draft, "user-a", "Ana", "2026-02-10T12:00:00Z")
	if okr.ID != "" {
		t.Fatalf("id not cleared: %q", okr.ID)
	}
	if okr.Status != model.StatusActive || okr.HealthStatus != model.HealthOnTrack {
		t.Fatalf("initial state = %q/%q", okr.Status, okr.HealthStatus)
	}
	if okr.Progress != 0 {
		t.Fatalf("progress = %d, want 0", okr.Progress)
	}
	if okr.UserID != "user-a" || okr.Author != "Ana" {
		t.Fatalf("ownership = %q/%q", okr.UserID, okr.Author)
	}
	if okr.KeyResults[0].Type != model.KeyResultTypeMetric {
		t.Fatalf("kr type = %q, want metric", okr.KeyResults[0].Type)
	}
}
