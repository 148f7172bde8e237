package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-lims/internal/db"
	"github.com/noah-isme/backend-lims/internal/workflow"
)

// WorkflowRepo reads transitions from workflow_history.
type WorkflowRepo struct {
	DB db.DBTX
}

// CurrentState returns the state reached by the latest transition.
func (r WorkflowRepo) CurrentState(ctx context.Context, kind workflow.Kind, id string) (string, error) {
	var state string
	err := r.DB.QueryRow(ctx, `SELECT state FROM workflow_history
WHERE kind = $1 AND object_id = $2
ORDER BY occurred_at DESC, id DESC
LIMIT 1`, string(kind), id).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", workflow.ErrNoHistory
	}
	return state, err
}

// History lists transitions oldest first.
func (r WorkflowRepo) History(ctx context.Context, kind workflow.Kind, id string) ([]workflow.Entry, error) {
	rows, err := r.DB.Query(ctx, `SELECT action, actor, occurred_at FROM workflow_history
WHERE kind = $1 AND object_id = $2
ORDER BY occurred_at, id`, string(kind), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []workflow.Entry
	for rows.Next() {
		var e workflow.Entry
		if err := rows.Scan(&e.Action, &e.Actor, &e.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UserDirectory resolves usernames to full names.
type UserDirectory struct {
	DB db.DBTX
}

// FullName returns "" for unknown users.
func (d UserDirectory) FullName(ctx context.Context, username string) (string, error) {
	var name string
	err := d.DB.QueryRow(ctx, `SELECT full_name FROM users WHERE username = $1`, username).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return name, err
}
