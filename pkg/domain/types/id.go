package types

import "github.com/google/uuid"

// ActionID identifies an action
type ActionID string

// NewActionID returns a random action ID
func NewActionID() ActionID {
	return ActionID(uuid.NewString())
}

func (id ActionID) String() string {
	return string(id)
}

// EvidenceID identifies an evidence record
type EvidenceID string

// NewEvidenceID returns a random evidence ID
func NewEvidenceID() EvidenceID {
	return EvidenceID(uuid.NewString())
}

func (id EvidenceID) String() string {
	return string(id)
}

// AuditEventID identifies an audit log entry
type AuditEventID string

// NewAuditEventID returns a random audit event ID
func NewAuditEventID() AuditEventID {
	return AuditEventID(uuid.NewString())
}

func (id AuditEventID) String() string {
	return string(id)
}
