package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/cidrfence/cidrfence/internal/model"
	"github.com/cidrfence/cidrfence/internal/store"
)

type lists struct{ db *sql.DB }

const insertListSQL = `
INSERT INTO lists (id, user_id, list_type, description, enabled, tags)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO NOTHING
RETURNING id, user_id, list_type, description, enabled, tags, created_at, updated_at`

func (l *lists) Create(ctx context.Context, in *model.List) (*model.List, error) {
	var out model.List
	row := l.db.QueryRowContext(ctx, insertListSQL,
		in.ID, in.UserID, string(in.Type), in.Description, in.Enabled, pq.Array(in.Tags))
	if err := scanList(row, &out); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrConflict
		}
		return nil, err
	}
	return &out, nil
}

func (l *lists) Get(ctx context.Context, userID, listID string) (*model.List, error) {
	var out model.List
	row := l.db.QueryRowContext(ctx, `
        SELECT id, user_id, list_type, description, enabled, tags, created_at, updated_at
        FROM lists WHERE id=$1 AND user_id=$2`, listID, userID)
	if err := scanList(row, &out); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (l *lists) List(ctx context.Context, userID string, listType model.ListType) ([]*model.List, error) {
	var rows *sql.Rows
	var err error
	if listType == "" {
		rows, err = l.db.QueryContext(ctx, `
            SELECT id, user_id, list_type, description, enabled, tags, created_at, updated_at
            FROM lists WHERE user_id=$1 ORDER BY id`, userID)
	} else {
		rows, err = l.db.QueryContext(ctx, `
            SELECT id, user_id, list_type, description, enabled, tags, created_at, updated_at
            FROM lists WHERE user_id=$1 AND list_type=$2 ORDER BY id`, userID, string(listType))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.List
	for rows.Next() {
		var li model.List
		if err := scanListRows(rows, &li); err != nil {
			return nil, err
		}
		out = append(out, &li)
	}
	return out, rows.Err()
}

// Update applies patch to listID, scoped to userID. If the list is a SAFE
// list transitioning from disabled to enabled, a cleanup "update" job is
// enqueued in the same transaction as the row update, reproducing the
// reference controller's enable-transition behavior: the worker re-derives
// which DENY CIDRs the now-active SAFE list should carve out, without the
// caller supplying them.
func (l *lists) Update(ctx context.Context, userID, listID string, patch store.ListPatch) (*model.List, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var current model.List
	row := tx.QueryRowContext(ctx, `
        SELECT id, user_id, list_type, description, enabled, tags, created_at, updated_at
        FROM lists WHERE id=$1 AND user_id=$2 FOR UPDATE`, listID, userID)
	if err := scanList(row, &current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	desc := current.Description
	enabled := current.Enabled
	tags := current.Tags
	if patch.Description != nil {
		desc = *patch.Description
	}
	if patch.Enabled != nil {
		enabled = *patch.Enabled
	}
	if patch.Tags != nil {
		tags = patch.Tags
	}

	var out model.List
	row = tx.QueryRowContext(ctx, `
        UPDATE lists SET description=$3, enabled=$4, tags=$5, updated_at=now()
        WHERE id=$1 AND user_id=$2
        RETURNING id, user_id, list_type, description, enabled, tags, created_at, updated_at`,
		listID, userID, desc, enabled, pq.Array(tags))
	if err := scanList(row, &out); err != nil {
		return nil, err
	}

	if current.Type == model.ListTypeSafe && !current.Enabled && enabled {
		job := model.CidrJob{
			ListID:      out.ID,
			ListType:    out.Type,
			ListEnabled: true,
			UserID:      userID,
			Action:      model.JobActionUpdate,
		}
		if err := enqueueTx(ctx, tx, job); err != nil {
			return nil, err
		}
	}

	return &out, tx.Commit()
}

func (l *lists) Delete(ctx context.Context, userID, listID string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM lists WHERE id=$1 AND user_id=$2`, listID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanList(row scanner, out *model.List) error {
	var listType string
	var tags []string
	if err := row.Scan(&out.ID, &out.UserID, &listType, &out.Description, &out.Enabled, pq.Array(&tags), &out.CreatedAt, &out.UpdatedAt); err != nil {
		return err
	}
	out.Type = model.ListType(listType)
	out.Tags = tags
	return nil
}

func scanListRows(rows *sql.Rows, out *model.List) error {
	return scanList(rows, out)
}
