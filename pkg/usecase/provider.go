package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/service/metrics"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
	"golang.org/x/sync/singleflight"
)

// RepositoryOpener connects to the datastore and prepares its schema
type RepositoryOpener func(ctx context.Context) (interfaces.Repository, error)

// Provider builds UseCases on first use. Concurrent callers share one
// in-flight attempt. A failed initialization is retried by the next caller; a
// successful one is never repeated.
type Provider struct {
	open    RepositoryOpener
	opts    []Option
	metrics *metrics.Metrics
	group   singleflight.Group

	mu  sync.Mutex
	uc  *UseCases
	err error
}

func NewProvider(open RepositoryOpener, opts ...Option) *Provider {
	base := &UseCases{}
	for _, opt := range opts {
		opt(base)
	}

	return &Provider{
		open:    open,
		opts:    opts,
		metrics: base.metrics,
	}
}

// UseCases returns the initialized use cases, initializing the datastore if
// needed. ErrUnavailable is wrapped when the datastore cannot be reached or
// ctx ends while waiting for an attempt in flight.
func (p *Provider) UseCases(ctx context.Context) (*UseCases, error) {
	if uc := p.ready(); uc != nil {
		return uc, nil
	}

	// The attempt outlives the caller that started it so that callers joining
	// it are not failed by someone else's cancellation.
	ch := p.group.DoChan("open", func() (any, error) {
		return p.initialize(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*UseCases), nil
	case <-ctx.Done():
		return nil, goerr.Wrap(ErrUnavailable, "database not ready", goerr.V(DetailKey, ctx.Err().Error()))
	}
}

func (p *Provider) ready() *UseCases {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uc
}

func (p *Provider) initialize(ctx context.Context) (*UseCases, error) {
	if uc := p.ready(); uc != nil {
		return uc, nil
	}

	repo, err := p.open(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.err = err
		p.metrics.SetDatastoreReady(false)
		logging.From(ctx).Warn("datastore not ready", "error", err)
		return nil, goerr.Wrap(ErrUnavailable, "database not ready", goerr.V(DetailKey, err.Error()))
	}

	p.uc = New(repo, p.opts...)
	p.err = nil
	p.metrics.SetDatastoreReady(true)
	logging.From(ctx).Info("datastore ready")
	return p.uc, nil
}

// LastError returns the error of the most recent failed initialization, or
// nil once initialized
func (p *Provider) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Close releases the datastore if it was initialized
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.uc == nil {
		return nil
	}
	if err := p.uc.repo.Close(); err != nil {
		return goerr.Wrap(err, "failed to close repository")
	}
	return nil
}
