package storage

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
)

// GCS stores evidence in a Cloud Storage bucket. Objects are encrypted at
// rest with the configured Cloud KMS key, or with Google-managed keys.
type GCS struct {
	client        *storage.Client
	bucket        string
	kmsKeyName    string
	signerAccount string
}

var _ interfaces.ObjectStorage = &GCS{}

type GCSOption func(*GCS)

// WithKMSKey sets the Cloud KMS key used to encrypt new objects
func WithKMSKey(name string) GCSOption {
	return func(g *GCS) {
		g.kmsKeyName = name
	}
}

// WithSignerAccount sets the service account email used to sign upload URLs
// when it cannot be detected from the runtime credentials
func WithSignerAccount(email string) GCSOption {
	return func(g *GCS) {
		g.signerAccount = email
	}
}

func NewGCS(ctx context.Context, bucket string, opts ...GCSOption) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create cloud storage client", goerr.V("bucket", bucket))
	}

	g := &GCS{client: client, bucket: bucket}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GCS) Put(ctx context.Context, key, contentType string, data []byte) error {
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if g.kmsKeyName != "" {
		w.KMSKeyName = g.kmsKeyName
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V("bucket", g.bucket), goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize object", goerr.V("bucket", g.bucket), goerr.V("key", key))
	}
	return nil
}

func (g *GCS) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      "PUT",
		Expires:     time.Now().Add(ttl),
		ContentType: contentType,
	}
	if g.signerAccount != "" {
		opts.GoogleAccessID = g.signerAccount
	}
	if g.kmsKeyName != "" {
		opts.Headers = []string{"x-goog-encryption-kms-key-name:" + g.kmsKeyName}
	}

	url, err := g.client.Bucket(g.bucket).SignedURL(key, opts)
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign upload url", goerr.V("bucket", g.bucket), goerr.V("key", key))
	}
	return url, nil
}

func (g *GCS) Stat(ctx context.Context, key string) (*interfaces.ObjectInfo, error) {
	attrs, err := g.client.Bucket(g.bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, goerr.Wrap(interfaces.ErrObjectNotFound, "object not found", goerr.V("bucket", g.bucket), goerr.V("key", key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat object", goerr.V("bucket", g.bucket), goerr.V("key", key))
	}
	return &interfaces.ObjectInfo{Size: attrs.Size, ContentType: attrs.ContentType}, nil
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return goerr.Wrap(err, "failed to delete object", goerr.V("bucket", g.bucket), goerr.V("key", key))
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
