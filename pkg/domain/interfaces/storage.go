package interfaces

import (
	"context"
	"time"
)

// ObjectInfo describes a stored object
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// ObjectStorage stores evidence files
type ObjectStorage interface {
	// Put writes data under key with server-side encryption
	Put(ctx context.Context, key, contentType string, data []byte) error

	// PresignPut returns a URL that accepts a single PUT of key until ttl elapses
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)

	// Stat returns object metadata, wrapping ErrObjectNotFound when key is absent
	Stat(ctx context.Context, key string) (*ObjectInfo, error)

	Delete(ctx context.Context, key string) error
}
