package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/model/auth"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"github.com/secmon-lab/actiontracker/pkg/repository/memory"
	"github.com/secmon-lab/actiontracker/pkg/usecase"
)

var (
	alice  = auth.Resolve("alice", "member")
	leader = auth.Resolve("lena", "lead")
	admin  = auth.Resolve("root", "admin")
	nobody = auth.Resolve("", "")
)

// fakeClock advances one second on every reading
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type notification struct {
	kind   string
	action types.ActionID
	from   types.ActionStatus
	to     types.ActionStatus
	actor  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (n *recordingNotifier) NotifyActionCreated(ctx context.Context, action *model.Action) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{kind: "created", action: action.ID, to: action.Status, actor: action.CreatedBy})
	return n.err
}

func (n *recordingNotifier) NotifyStatusChanged(ctx context.Context, action *model.Action, from types.ActionStatus, actor string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{kind: "status", action: action.ID, from: from, to: action.Status, actor: actor})
	return n.err
}

func newUseCases(t *testing.T, opts ...usecase.Option) (*usecase.UseCases, *memory.Memory) {
	t.Helper()
	repo := memory.New()
	opts = append([]usecase.Option{usecase.WithClock(newFakeClock().Now)}, opts...)
	return usecase.New(repo, opts...), repo
}

func validInput() usecase.CreateActionInput {
	return usecase.CreateActionInput{
		Title:       "Disk full",
		Description: "root volume at 98% on db-1",
		Owner:       "alice",
		Component:   "RDS",
		Priority:    "P1",
	}
}

func createAction(t *testing.T, uc *usecase.UseCases, in usecase.CreateActionInput) *model.Action {
	t.Helper()
	a, err := uc.Action.Create(context.Background(), alice, in)
	gt.NoError(t, err).Required()
	return a
}

// moveTo drives an action to status along the normal lifecycle
func moveTo(t *testing.T, uc *usecase.UseCases, id types.ActionID, status types.ActionStatus) {
	t.Helper()
	ctx := context.Background()
	switch status {
	case types.ActionStatusResolved:
		_, err := uc.Workflow.ChangeStatus(ctx, alice, id, "Resolved", "restarted service")
		gt.NoError(t, err).Required()
	case types.ActionStatusClosed:
		moveTo(t, uc, id, types.ActionStatusResolved)
		_, err := uc.Workflow.ChangeStatus(ctx, leader, id, "Closed", "")
		gt.NoError(t, err).Required()
	default:
		_, err := uc.Workflow.ChangeStatus(ctx, alice, id, status.String(), "")
		gt.NoError(t, err).Required()
	}
}

func errValues(err error) map[string]any {
	var ge *goerr.Error
	if errors.As(err, &ge) {
		return ge.Values()
	}
	return nil
}
