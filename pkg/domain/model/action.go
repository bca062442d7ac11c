package model

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

// Action is a tracked remediation ticket
type Action struct {
	ID              types.ActionID
	Title           string
	Description     string
	Owner           string
	Component       string
	Priority        types.Priority
	Status          types.ActionStatus
	CreatedBy       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ResolutionNotes *string
	ResolvedAt      *time.Time
	ClosedAt        *time.Time

	// Version is incremented on every stored write and used for compare-and-swap updates
	Version int64
}

// Clone returns a deep copy of the action
func (a *Action) Clone() *Action {
	if a == nil {
		return nil
	}
	c := *a
	c.ResolutionNotes = clonePtr(a.ResolutionNotes)
	c.ResolvedAt = clonePtr(a.ResolvedAt)
	c.ClosedAt = clonePtr(a.ClosedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ActionFilter narrows List results. Zero-valued fields do not filter.
type ActionFilter struct {
	Status    types.ActionStatus
	Owner     string
	Priority  types.Priority
	Component string
	// Query is matched case-insensitively against title and description
	Query string
}

// Match reports whether a passes the filter. Without an explicit status,
// closed actions are excluded.
func (f ActionFilter) Match(a *Action) bool {
	if f.Status != "" {
		if a.Status != f.Status {
			return false
		}
	} else if a.Status == types.ActionStatusClosed {
		return false
	}

	if f.Owner != "" && a.Owner != f.Owner {
		return false
	}
	if f.Priority != "" && a.Priority != f.Priority {
		return false
	}
	if f.Component != "" && a.Component != f.Component {
		return false
	}

	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(a.Title), q) &&
			!strings.Contains(strings.ToLower(a.Description), q) {
			return false
		}
	}
	return true
}

// SortActions orders actions by priority rank, then most recently updated, then ID.
func SortActions(actions []*Action) {
	slices.SortStableFunc(actions, CompareActions)
}

// CompareActions is the listing order used by SortActions
func CompareActions(a, b *Action) int {
	if c := cmp.Compare(sortRank(a.Priority), sortRank(b.Priority)); c != 0 {
		return c
	}
	if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// sortRank places unknown priorities after P3
func sortRank(p types.Priority) int {
	if r := p.Rank(); r > 0 {
		return r
	}
	return len(types.AllPriorities()) + 1
}
