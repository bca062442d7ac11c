package memory

import (
	"context"
	"sync"

	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

// Memory is an in-process repository for development and tests
type Memory struct {
	// txMu serializes RunInTx callers. Writes are not rolled back on error.
	txMu sync.Mutex

	store    *store
	action   *actionRepository
	evidence *evidenceRepository
	audit    *auditRepository
}

var _ interfaces.Repository = &Memory{}

// store holds all tables behind one lock so cascades and reference checks are atomic
type store struct {
	mu       sync.RWMutex
	actions  map[types.ActionID]*model.Action
	evidence map[types.ActionID][]*model.Evidence
	audit    map[types.ActionID][]*model.AuditEvent
}

func New() *Memory {
	s := &store{
		actions:  make(map[types.ActionID]*model.Action),
		evidence: make(map[types.ActionID][]*model.Evidence),
		audit:    make(map[types.ActionID][]*model.AuditEvent),
	}

	return &Memory{
		store:    s,
		action:   &actionRepository{store: s},
		evidence: &evidenceRepository{store: s},
		audit:    &auditRepository{store: s},
	}
}

func (m *Memory) Action() interfaces.ActionRepository {
	return m.action
}

func (m *Memory) Evidence() interfaces.EvidenceRepository {
	return m.evidence
}

func (m *Memory) Audit() interfaces.AuditRepository {
	return m.audit
}

func (m *Memory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx)
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) Close() error {
	return nil
}
