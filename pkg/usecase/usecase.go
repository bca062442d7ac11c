package usecase

import (
	"time"

	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/service/metrics"
)

type UseCases struct {
	repo           interfaces.Repository
	policy         model.Policy
	storage        interfaces.ObjectStorage
	evidencePrefix string
	notifier       interfaces.Notifier
	metrics        *metrics.Metrics
	clock          func() time.Time

	Action   *ActionUseCase
	Workflow *WorkflowUseCase
	Evidence *EvidenceUseCase
	Audit    *AuditUseCase
}

type Option func(*UseCases)

func WithPolicy(policy model.Policy) Option {
	return func(uc *UseCases) {
		uc.policy = policy
	}
}

// WithStorage sets the evidence object store. Evidence upload is unavailable without it.
func WithStorage(storage interfaces.ObjectStorage) Option {
	return func(uc *UseCases) {
		uc.storage = storage
	}
}

func WithEvidencePrefix(prefix string) Option {
	return func(uc *UseCases) {
		uc.evidencePrefix = prefix
	}
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(uc *UseCases) {
		uc.metrics = m
	}
}

// WithClock replaces the time source, used by tests
func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:           repo,
		policy:         model.DefaultPolicy(),
		evidencePrefix: "evidence",
		clock:          time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Workflow = &WorkflowUseCase{uc: uc}
	uc.Action = &ActionUseCase{uc: uc}
	uc.Evidence = &EvidenceUseCase{uc: uc}
	uc.Audit = &AuditUseCase{uc: uc}

	return uc
}

// Policy returns the workflow policy in effect
func (uc *UseCases) Policy() model.Policy {
	return uc.policy
}

// Repository returns the underlying datastore
func (uc *UseCases) Repository() interfaces.Repository {
	return uc.repo
}

// now returns the current time in UTC at the precision every backend stores
func (uc *UseCases) now() time.Time {
	return uc.clock().UTC().Truncate(time.Microsecond)
}
