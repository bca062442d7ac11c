package model

import (
	"time"

	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

// AuditEvent is an immutable record of a state-changing operation on an action
type AuditEvent struct {
	ID         types.AuditEventID
	ActionID   types.ActionID
	EventType  types.AuditEventType
	FromStatus *types.ActionStatus
	ToStatus   *types.ActionStatus
	Actor      string
	Notes      *string
	CreatedAt  time.Time
}

// NewAuditEvent creates an event with a fresh ID
func NewAuditEvent(actionID types.ActionID, eventType types.AuditEventType, actor string, now time.Time) *AuditEvent {
	return &AuditEvent{
		ID:        types.NewAuditEventID(),
		ActionID:  actionID,
		EventType: eventType,
		Actor:     actor,
		CreatedAt: now,
	}
}

// WithTransition sets from/to statuses. A nil from is allowed for creation.
func (e *AuditEvent) WithTransition(from *types.ActionStatus, to types.ActionStatus) *AuditEvent {
	e.FromStatus = from
	e.ToStatus = to.Ptr()
	return e
}

// WithNotes sets notes when non-empty
func (e *AuditEvent) WithNotes(notes string) *AuditEvent {
	if notes != "" {
		e.Notes = &notes
	}
	return e
}

// Clone returns a deep copy of the event
func (e *AuditEvent) Clone() *AuditEvent {
	if e == nil {
		return nil
	}
	c := *e
	c.FromStatus = clonePtr(e.FromStatus)
	c.ToStatus = clonePtr(e.ToStatus)
	c.Notes = clonePtr(e.Notes)
	return &c
}
