package types

import (
	"fmt"
	"strings"
)

// Priority is the urgency of an action. P1 is the most urgent.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// AllPriorities returns all priorities ordered by rank
func AllPriorities() []Priority {
	return []Priority{PriorityP1, PriorityP2, PriorityP3}
}

// IsValid checks if the priority is valid
func (p Priority) IsValid() bool {
	return p.Rank() > 0
}

// Rank returns the sort rank of p (P1=1, P2=2, P3=3) and 0 for unknown values
func (p Priority) Rank() int {
	switch p {
	case PriorityP1:
		return 1
	case PriorityP2:
		return 2
	case PriorityP3:
		return 3
	default:
		return 0
	}
}

func (p Priority) String() string {
	return string(p)
}

// ParsePriority parses a string such as "p2" or " P2 " into a Priority
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority: %s", s)
	}
	return p, nil
}
