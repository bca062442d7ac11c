package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/service/storage"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Storage backends
const (
	StorageGCS    = "gcs"
	StorageMemory = "memory"
)

// Storage holds CLI flags for the evidence object store
type Storage struct {
	backend       string
	bucket        string
	prefix        string
	kmsKey        string
	signerAccount string
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-backend",
			Usage:       "Evidence storage backend (gcs or memory)",
			Category:    "Evidence",
			Value:       StorageGCS,
			Sources:     cli.EnvVars("ACTIONTRACKER_STORAGE_BACKEND"),
			Destination: &x.backend,
		},
		&cli.StringFlag{
			Name:        "evidence-bucket",
			Usage:       "Bucket that stores evidence files",
			Category:    "Evidence",
			Sources:     cli.EnvVars("ACTIONTRACKER_EVIDENCE_BUCKET", "EVIDENCE_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "evidence-prefix",
			Usage:       "Key prefix for inline evidence uploads",
			Category:    "Evidence",
			Value:       "evidence",
			Sources:     cli.EnvVars("ACTIONTRACKER_EVIDENCE_PREFIX", "EVIDENCE_PREFIX"),
			Destination: &x.prefix,
		},
		&cli.StringFlag{
			Name:        "evidence-kms-key",
			Usage:       "Cloud KMS key name for evidence encryption (bucket default when empty)",
			Category:    "Evidence",
			Sources:     cli.EnvVars("ACTIONTRACKER_EVIDENCE_KMS_KEY"),
			Destination: &x.kmsKey,
		},
		&cli.StringFlag{
			Name:        "evidence-signer",
			Usage:       "Service account email that signs upload URLs",
			Category:    "Evidence",
			Sources:     cli.EnvVars("ACTIONTRACKER_EVIDENCE_SIGNER"),
			Destination: &x.signerAccount,
		},
	}
}

func (x Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", x.backend),
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
		slog.Bool("kms", x.kmsKey != ""),
	)
}

// Prefix returns the key prefix for inline uploads
func (x *Storage) Prefix() string {
	return x.prefix
}

// MissingKeys lists unset environment variables needed by the backend
func (x *Storage) MissingKeys() []string {
	if x.backend == StorageGCS && x.bucket == "" {
		return []string{"EVIDENCE_BUCKET"}
	}
	return nil
}

// Configure returns the object store. It returns nil without error when the
// bucket is not set, which leaves evidence endpoints unavailable while the rest
// of the service runs.
func (x *Storage) Configure(ctx context.Context) (interfaces.ObjectStorage, func(), error) {
	switch x.backend {
	case StorageGCS:
		if x.bucket == "" {
			logging.Default().Warn("Evidence bucket not configured, evidence uploads are disabled")
			return nil, func() {}, nil
		}

		var opts []storage.GCSOption
		if x.kmsKey != "" {
			opts = append(opts, storage.WithKMSKey(x.kmsKey))
		}
		if x.signerAccount != "" {
			opts = append(opts, storage.WithSignerAccount(x.signerAccount))
		}

		client, err := storage.NewGCS(ctx, x.bucket, opts...)
		if err != nil {
			return nil, func() {}, goerr.Wrap(err, "failed to initialize evidence storage")
		}
		logging.Default().Info("Using Cloud Storage for evidence", "bucket", x.bucket, "kms", x.kmsKey != "")
		return client, func() {
			if err := client.Close(); err != nil {
				logging.Default().Warn("failed to close storage client", "error", err)
			}
		}, nil

	case StorageMemory:
		logging.Default().Info("Using in-memory evidence storage (development mode)")
		return storage.NewMemory(), func() {}, nil

	default:
		return nil, func() {}, goerr.Wrap(ErrUnknownBackend, "invalid storage backend", goerr.V(BackendKey, x.backend))
	}
}
