package http

import (
	"time"

	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

type actionResponse struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Owner           string     `json:"owner"`
	Component       string     `json:"component"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolutionNotes *string    `json:"resolution_notes"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	ClosedAt        *time.Time `json:"closed_at"`
	Version         int64      `json:"version"`
}

type evidenceResponse struct {
	ID          string    `json:"id"`
	ActionID    string    `json:"action_id"`
	Filename    string    `json:"filename"`
	StorageKey  string    `json:"s3_key"`
	ContentType *string   `json:"content_type"`
	SizeBytes   *int64    `json:"size_bytes"`
	UploadedBy  string    `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type auditEventResponse struct {
	ID         string    `json:"id"`
	ActionID   string    `json:"action_id"`
	EventType  string    `json:"event_type"`
	FromStatus *string   `json:"from_status"`
	ToStatus   *string   `json:"to_status"`
	Actor      string    `json:"actor"`
	Notes      *string   `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
}

type viewerResponse struct {
	User string `json:"user"`
	Role string `json:"role"`
}

func toActionResponse(a *model.Action) actionResponse {
	return actionResponse{
		ID:              a.ID.String(),
		Title:           a.Title,
		Description:     a.Description,
		Owner:           a.Owner,
		Component:       a.Component,
		Priority:        a.Priority.String(),
		Status:          a.Status.String(),
		CreatedBy:       a.CreatedBy,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		ResolutionNotes: a.ResolutionNotes,
		ResolvedAt:      a.ResolvedAt,
		ClosedAt:        a.ClosedAt,
		Version:         a.Version,
	}
}

func toEvidenceResponse(e *model.Evidence) evidenceResponse {
	resp := evidenceResponse{
		ID:         e.ID.String(),
		ActionID:   e.ActionID.String(),
		Filename:   e.Filename,
		StorageKey: e.StorageKey,
		SizeBytes:  e.SizeBytes,
		UploadedBy: e.UploadedBy,
		UploadedAt: e.UploadedAt,
	}
	if e.ContentType != "" {
		ct := e.ContentType
		resp.ContentType = &ct
	}
	return resp
}

func statusPtrToString(s *types.ActionStatus) *string {
	if s == nil {
		return nil
	}
	v := s.String()
	return &v
}

func toAuditEventResponse(e *model.AuditEvent) auditEventResponse {
	return auditEventResponse{
		ID:         e.ID.String(),
		ActionID:   e.ActionID.String(),
		EventType:  e.EventType.String(),
		FromStatus: statusPtrToString(e.FromStatus),
		ToStatus:   statusPtrToString(e.ToStatus),
		Actor:      e.Actor,
		Notes:      e.Notes,
		CreatedAt:  e.CreatedAt,
	}
}

func mapSlice[T, R any](items []T, f func(T) R) []R {
	out := make([]R, len(items))
	for i, item := range items {
		out[i] = f(item)
	}
	return out
}
