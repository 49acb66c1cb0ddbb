package model

import (
	"fmt"
	"strings"
)

// ValidationError captures a single field-specific validation issue.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// ValidateOrgObjectives checks the organizational objective list before
// the singleton document is replaced wholesale.
func ValidateOrgObjectives(okrs []OrgObjective) error {
	var errs ValidationErrors

	if len(okrs) == 0 {
		errs = append(errs, ValidationError{
			Field:   "okrs",
			Message: "must contain at least one objective",
		})
	}

	for idx, okr := range okrs {
		objPath := fmt.Sprintf("okrs[%d]", idx)
		if strings.TrimSpace(okr.Objective) == "" {
			errs = append(errs, ValidationError{
				Field:   objPath + ".objective",
				Message: "objective text is required",
			})
		}
		if len(okr.KeyResults) == 0 {
			errs = append(errs, ValidationError{
				Field:   objPath + ".keyResults",
				Message: "must contain at least one key result",
			})
		}
		for krIdx, kr := range okr.KeyResults {
			if strings.TrimSpace(kr.Name) == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.keyResults[%d].name", objPath, krIdx),
					Message: "key result name is required",
				})
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateTeamOkr checks a team OKR draft before creation.
func ValidateTeamOkr(draft TeamOkr) error {
	var errs ValidationErrors

	if strings.TrimSpace(draft.Objective) == "" {
		errs = append(errs, ValidationError{
			Field:   "objective",
			Message: "objective text is required",
		})
	}
	if len(draft.KeyResults) == 0 {
		errs = append(errs, ValidationError{
			Field:   "keyResults",
			Message: "must contain at least one key result",
		})
	}
	for idx, kr := range draft.KeyResults {
		if strings.TrimSpace(kr.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("keyResults[%d].name", idx),
				Message: "key result name is required",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateInitiative checks an initiative draft before it is saved.
func ValidateInitiative(draft Initiative) error {
	var errs ValidationErrors

	if strings.TrimSpace(draft.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}
	if strings.TrimSpace(draft.LinkedOkrID) == "" {
		errs = append(errs, ValidationError{
			Field:   "linkedOkrId",
			Message: "must reference a team OKR",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
