// Package lifecycle governs team OKR state transitions: health-status
// changes while active, and the terminal close with a retrospective.
// Ownership is checked here, not in presentation code.
package lifecycle

import (
	"errors"
	"fmt"

	"okrboard/internal/model"
)

var (
	// ErrNotOwner is returned when an actor other than the creating
	// user attempts a mutation.
	ErrNotOwner = errors.New("only the OKR owner may do this")

	// ErrAlreadyClosed is returned for transitions attempted on a
	// closed OKR. Closure is terminal; there is no reopen path.
	ErrAlreadyClosed = errors.New("okr is already closed")
)

// AssertOwner verifies that actorID created the OKR.
func AssertOwner(actorID string, okr model.TeamOkr) error {
	if actorID == "" || actorID != okr.UserID {
		return fmt.Errorf("okr %s: %w", okr.ID, ErrNotOwner)
	}
	return nil
}

// SetHealth returns a copy of the OKR with the given health status.
// Health is only meaningful while the OKR is active; any of the three
// states may be set in any order by the owner.
func SetHealth(okr model.TeamOkr, health model.Health, actorID string) (model.TeamOkr, error) {
	if err := AssertOwner(actorID, okr); err != nil {
		return model.TeamOkr{}, err
	}
	if okr.Status == model.StatusClosed {
		return model.TeamOkr{}, fmt.Errorf("okr %s: %w", okr.ID, ErrAlreadyClosed)
	}
	if _, err := model.ParseHealth(string(health)); err != nil {
		return model.TeamOkr{}, err
	}
	okr.HealthStatus = health
	return okr, nil
}

// Close transitions an active OKR to closed, attaching the
// retrospective. A second close fails rather than silently succeeding.
// Retrospective fields may be blank; only their presence is required,
// which the struct guarantees.
func Close(okr model.TeamOkr, retro model.Retrospective, actorID string) (model.TeamOkr, error) {
	if err := AssertOwner(actorID, okr); err != nil {
		return model.TeamOkr{}, err
	}
	if okr.Status != model.StatusActive {
		return model.TeamOkr{}, fmt.Errorf("okr %s: %w", okr.ID, ErrAlreadyClosed)
	}
	okr.Status = model.StatusClosed
	okr.Retrospective = &retro
	return okr, nil
}

// NewTeamOkr normalizes a validated draft into its initial state:
// active, on track, zero progress, owned by the creating user.
func NewTeamOkr(draft model.TeamOkr, userID, author, createdAt string) model.TeamOkr {
	draft.ID = ""
	draft.Status = model.StatusActive
	draft.HealthStatus = model.HealthOnTrack
	draft.Progress = 0
	draft.UserID = userID
	draft.Author = author
	draft.CreatedAt = createdAt
	for i := range draft.KeyResults {
		if draft.KeyResults[i].Type == "" {
			draft.KeyResults[i].Type = model.KeyResultTypeMetric
		}
	}
	return draft
}
