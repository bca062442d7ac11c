package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Input errors
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("missing identity")

	// Access control errors
	ErrForbidden = errors.New("forbidden")

	// Not found errors
	ErrActionNotFound = errors.New("action not found")

	// State errors
	ErrConflict = errors.New("conflict")

	// Dependency errors
	ErrUnavailable        = errors.New("database not ready")
	ErrStorageUnavailable = errors.New("evidence storage not configured")
	ErrStorage            = errors.New("evidence storage failed")
)

// Context keys for error values
const (
	ActionIDKey = "action_id"
	AllowedKey  = "allowed"
	RequiredKey = "required"
	DetailKey   = "detail"
	StatusKey   = "status"
	RoleKey     = "role"
)

// IdentityHeader is the request header naming the caller, reported when
// identity is required but missing
const IdentityHeader = "X-User"
