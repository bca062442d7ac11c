package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

const actionColumns = `id, title, description, owner, component, priority, status,
	created_by, created_at, updated_at, resolution_notes, resolved_at, closed_at, version`

// priorityRank mirrors types.Priority.Rank; unknown values sort last
const priorityRank = `CASE priority WHEN 'P1' THEN 1 WHEN 'P2' THEN 2 WHEN 'P3' THEN 3 ELSE 4 END`

type actionRepository struct {
	db *Postgres
}

func scanAction(row pgx.Row) (*model.Action, error) {
	var (
		a                  model.Action
		id, prio, status   string
		createdAt, updated time.Time
	)
	if err := row.Scan(
		&id, &a.Title, &a.Description, &a.Owner, &a.Component, &prio, &status,
		&a.CreatedBy, &createdAt, &updated, &a.ResolutionNotes, &a.ResolvedAt, &a.ClosedAt, &a.Version,
	); err != nil {
		return nil, err
	}

	a.ID = types.ActionID(id)
	a.Priority = types.Priority(prio)
	a.Status = types.ActionStatus(status)
	a.CreatedAt = createdAt.UTC()
	a.UpdatedAt = updated.UTC()
	if a.ResolvedAt != nil {
		t := a.ResolvedAt.UTC()
		a.ResolvedAt = &t
	}
	if a.ClosedAt != nil {
		t := a.ClosedAt.UTC()
		a.ClosedAt = &t
	}
	return &a, nil
}

func (r *actionRepository) Create(ctx context.Context, action *model.Action) (*model.Action, error) {
	row := r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO actions (`+actionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)
		RETURNING `+actionColumns,
		action.ID.String(), action.Title, action.Description, action.Owner, action.Component,
		action.Priority.String(), action.Status.String(), action.CreatedBy, action.CreatedAt, action.UpdatedAt,
		action.ResolutionNotes, action.ResolvedAt, action.ClosedAt,
	)

	created, err := scanAction(row)
	if isPgError(err, pgUniqueViolation) {
		return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "action already exists", goerr.V("id", action.ID), goerr.V("cause", err.Error()))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to insert action", goerr.V("id", action.ID))
	}
	return created, nil
}

func (r *actionRepository) Get(ctx context.Context, id types.ActionID) (*model.Action, error) {
	row := r.db.conn(ctx).QueryRow(ctx, `SELECT `+actionColumns+` FROM actions WHERE id = $1`, id.String())

	action, err := scanAction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get action", goerr.V("id", id))
	}
	return action, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *actionRepository) List(ctx context.Context, filter model.ActionFilter) ([]*model.Action, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status.String())
	} else {
		add("status <> $%d", types.ActionStatusClosed.String())
	}
	if filter.Owner != "" {
		add("owner = $%d", filter.Owner)
	}
	if filter.Priority != "" {
		add("priority = $%d", filter.Priority.String())
	}
	if filter.Component != "" {
		add("component = $%d", filter.Component)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		add(`(title ILIKE $%[1]d ESCAPE '\' OR description ILIKE $%[1]d ESCAPE '\')`, "%"+escapeLike(q)+"%")
	}

	query := `SELECT ` + actionColumns + ` FROM actions WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY ` + priorityRank + `, updated_at DESC, id ASC`

	rows, err := r.db.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list actions")
	}
	defer rows.Close()

	actions := make([]*model.Action, 0)
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan action")
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate actions")
	}
	return actions, nil
}

func (r *actionRepository) Update(ctx context.Context, action *model.Action) (*model.Action, error) {
	conn := r.db.conn(ctx)
	row := conn.QueryRow(ctx, `
		UPDATE actions SET
			title = $2, description = $3, owner = $4, component = $5, priority = $6, status = $7,
			updated_at = $8, resolution_notes = $9, resolved_at = $10, closed_at = $11,
			version = version + 1
		WHERE id = $1 AND version = $12
		RETURNING `+actionColumns,
		action.ID.String(), action.Title, action.Description, action.Owner, action.Component,
		action.Priority.String(), action.Status.String(), action.UpdatedAt,
		action.ResolutionNotes, action.ResolvedAt, action.ClosedAt, action.Version,
	)

	updated, err := scanAction(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(err, "failed to update action", goerr.V("id", action.ID))
	}

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM actions WHERE id = $1)`, action.ID.String()).Scan(&exists); err != nil {
		return nil, goerr.Wrap(err, "failed to check action existence", goerr.V("id", action.ID))
	}
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("id", action.ID))
	}
	return nil, goerr.Wrap(interfaces.ErrVersionConflict, "action was modified concurrently",
		goerr.V("id", action.ID),
		goerr.V("expected_version", action.Version),
	)
}

func (r *actionRepository) Delete(ctx context.Context, id types.ActionID) error {
	tag, err := r.db.conn(ctx).Exec(ctx, `DELETE FROM actions WHERE id = $1`, id.String())
	if err != nil {
		return goerr.Wrap(err, "failed to delete action", goerr.V("id", id))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("id", id))
	}
	return nil
}
