package model

import (
	"path"
	"strings"
	"time"

	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

const (
	// MaxInlineEvidenceBytes is the largest decoded payload accepted by inline upload
	MaxInlineEvidenceBytes = 5 * 1024 * 1024

	// PresignTTL is the lifetime of a direct upload URL
	PresignTTL = 900 * time.Second

	// DefaultEvidenceContentType is used when the uploader does not declare one
	DefaultEvidenceContentType = "application/octet-stream"

	presignKeyRoot = "actions"
)

// Evidence is metadata for a file stored in object storage and attached to an action
type Evidence struct {
	ID          types.EvidenceID
	ActionID    types.ActionID
	Filename    string
	StorageKey  string
	ContentType string
	SizeBytes   *int64
	UploadedBy  string
	UploadedAt  time.Time
}

// Clone returns a deep copy of the evidence
func (e *Evidence) Clone() *Evidence {
	if e == nil {
		return nil
	}
	c := *e
	c.SizeBytes = clonePtr(e.SizeBytes)
	return &c
}

// InlineEvidenceKey builds the storage key for an inline upload:
// prefix/actionID/evidenceID-filename. filename must already be sanitized.
func InlineEvidenceKey(prefix string, actionID types.ActionID, evidenceID types.EvidenceID, filename string) string {
	prefix = strings.Trim(prefix, "/")
	name := evidenceID.String() + "-" + filename
	if prefix == "" {
		return path.Join(actionID.String(), name)
	}
	return path.Join(prefix, actionID.String(), name)
}

// PresignEvidenceKey builds the storage key handed out for a direct upload:
// actions/actionID/objectID_filename. filename must already be sanitized.
func PresignEvidenceKey(actionID types.ActionID, objectID, filename string) string {
	return path.Join(presignKeyRoot, actionID.String(), objectID+"_"+filename)
}

// OwnsPresignedKey reports whether key was issued for actionID by PresignEvidenceKey.
func OwnsPresignedKey(actionID types.ActionID, key string) bool {
	dir := presignKeyRoot + "/" + actionID.String() + "/"
	if !strings.HasPrefix(key, dir) {
		return false
	}
	rest := key[len(dir):]
	return rest != "" && !strings.Contains(rest, "/") && path.Clean(key) == key
}
