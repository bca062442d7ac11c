package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"google.golang.org/api/iterator"
)

// Collection names before prefixing
const (
	ActionsCollection  = "actions"
	EvidenceCollection = "evidence"
	AuditCollection    = "audit_events"
)

type Firestore struct {
	client   *firestore.Client
	names    *collections
	action   *actionRepository
	evidence *evidenceRepository
	audit    *auditRepository
}

var _ interfaces.Repository = &Firestore{}

type collections struct {
	prefix string
}

func (c *collections) name(base string) string {
	return CollectionName(c.prefix, base)
}

// CollectionName returns the stored name of base under prefix
func CollectionName(prefix, base string) string {
	if prefix != "" {
		return prefix + "_" + base
	}
	return base
}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections as prefix_name
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.names.prefix = prefix
	}
}

// New connects to projectID. An empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var (
		client *firestore.Client
		err    error
	)
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	names := &collections{}
	f := &Firestore{
		client:   client,
		names:    names,
		action:   &actionRepository{client: client, names: names},
		evidence: &evidenceRepository{client: client, names: names},
		audit:    &auditRepository{client: client, names: names},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Action() interfaces.ActionRepository {
	return f.action
}

func (f *Firestore) Evidence() interfaces.EvidenceRepository {
	return f.evidence
}

func (f *Firestore) Audit() interfaces.AuditRepository {
	return f.audit
}

// RunInTx runs fn directly. Each repository write is atomic on its own and
// action updates keep their version check.
func (f *Firestore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *Firestore) Ping(ctx context.Context) error {
	iter := f.client.Collection(f.names.name(ActionsCollection)).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return goerr.Wrap(err, "firestore ping failed")
	}
	return nil
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
