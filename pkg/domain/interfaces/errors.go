package interfaces

import "errors"

// Errors shared by all repository and storage backends
var (
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("already exists")
	ErrObjectNotFound  = errors.New("object not found")
)
