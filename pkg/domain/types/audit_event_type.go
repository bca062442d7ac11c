package types

// AuditEventType classifies an audit log entry
type AuditEventType string

const (
	AuditEventCreated          AuditEventType = "created"
	AuditEventUpdated          AuditEventType = "updated"
	AuditEventStatusChanged    AuditEventType = "status_changed"
	AuditEventEvidenceAttached AuditEventType = "evidence_attached"
)

// AllAuditEventTypes returns all audit event types
func AllAuditEventTypes() []AuditEventType {
	return []AuditEventType{
		AuditEventCreated,
		AuditEventUpdated,
		AuditEventStatusChanged,
		AuditEventEvidenceAttached,
	}
}

// IsValid checks if the audit event type is valid
func (t AuditEventType) IsValid() bool {
	switch t {
	case AuditEventCreated, AuditEventUpdated, AuditEventStatusChanged, AuditEventEvidenceAttached:
		return true
	default:
		return false
	}
}

func (t AuditEventType) String() string {
	return string(t)
}
