package types

import (
	"fmt"
	"strings"
)

// ActionStatus represents the workflow state of a remediation action
type ActionStatus string

const (
	ActionStatusOpen       ActionStatus = "Open"
	ActionStatusInProgress ActionStatus = "In Progress"
	ActionStatusBlocked    ActionStatus = "Blocked"
	ActionStatusResolved   ActionStatus = "Resolved"
	ActionStatusClosed     ActionStatus = "Closed"
)

// AllActionStatuses returns all valid action statuses in workflow order
func AllActionStatuses() []ActionStatus {
	return []ActionStatus{
		ActionStatusOpen,
		ActionStatusInProgress,
		ActionStatusBlocked,
		ActionStatusResolved,
		ActionStatusClosed,
	}
}

// IsValid checks if the action status is valid
func (s ActionStatus) IsValid() bool {
	switch s {
	case ActionStatusOpen,
		ActionStatusInProgress,
		ActionStatusBlocked,
		ActionStatusResolved,
		ActionStatusClosed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transition may leave s
func (s ActionStatus) IsTerminal() bool {
	return s == ActionStatusClosed
}

// String returns the string representation of the action status
func (s ActionStatus) String() string {
	return string(s)
}

// Ptr returns a pointer to a copy of s
func (s ActionStatus) Ptr() *ActionStatus {
	return &s
}

// ParseActionStatus parses a string into an ActionStatus. Matching ignores
// surrounding spaces and letter case.
func ParseActionStatus(s string) (ActionStatus, error) {
	trimmed := strings.TrimSpace(s)
	for _, status := range AllActionStatuses() {
		if strings.EqualFold(trimmed, string(status)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid action status: %s", s)
}
