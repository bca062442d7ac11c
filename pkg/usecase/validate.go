package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

// ValidationIssue is a single inconsistency found in stored actions
type ValidationIssue struct {
	ActionID types.ActionID
	Field    string
	Message  string
	Actual   string
}

// ValidationResult holds the results of DB validation
type ValidationResult struct {
	Checked int
	Issues  []ValidationIssue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// AddIssue adds a validation issue to the result
func (r *ValidationResult) AddIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
}

// ValidateDB checks that stored actions agree with the lifecycle rules and
// the current policy. It does NOT modify any data.
func (uc *UseCases) ValidateDB(ctx context.Context) (*ValidationResult, error) {
	result := &ValidationResult{}

	for _, status := range types.AllActionStatuses() {
		actions, err := uc.repo.Action().List(ctx, model.ActionFilter{Status: status})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list actions", goerr.V(StatusKey, status))
		}

		for _, a := range actions {
			result.Checked++
			uc.validateAction(a, result)
		}
	}

	return result, nil
}

func (uc *UseCases) validateAction(a *model.Action, result *ValidationResult) {
	add := func(field, msg string, actual any) {
		result.AddIssue(ValidationIssue{
			ActionID: a.ID,
			Field:    field,
			Message:  msg,
			Actual:   fmt.Sprint(actual),
		})
	}

	if !a.Priority.IsValid() {
		add("priority", "unknown priority", a.Priority)
	}
	if !uc.policy.OwnerAllowed(a.Owner) {
		add("owner", "owner is not in the allow-list", a.Owner)
	}
	if !uc.policy.ComponentAllowed(a.Component) {
		add("component", "component is not in the allow-list", a.Component)
	}
	if a.UpdatedAt.Before(a.CreatedAt) {
		add("updated_at", "updated_at is before created_at", a.UpdatedAt)
	}

	switch a.Status {
	case types.ActionStatusResolved:
		if a.ResolutionNotes == nil || *a.ResolutionNotes == "" {
			add("resolution_notes", "resolved action has no resolution notes", "")
		}
		if a.ResolvedAt == nil {
			add("resolved_at", "resolved action has no resolved_at", "")
		}
	case types.ActionStatusClosed:
		if a.ClosedAt == nil {
			add("closed_at", "closed action has no closed_at", "")
		}
	}
}
