package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/cidrfence/cidrfence/internal/model"
)

type cidrs struct{ db *sql.DB }

// Query implements keyset-paginated reads over stored CIDRs, grounded on
// the reference service's SELECT_ENABLED_BY_TYPE_AND_ID /
// SELECT_ENABLED_BY_TYPE_AND_TAGS / SELECT_BY_ID_PAGINATED statements: only
// CIDRs belonging to an enabled list are visible, optionally narrowed by
// list id or tag overlap, paginated by primary key (descending, matching
// SELECT_BY_ID_PAGINATED's `id < $cursor ORDER BY id DESC`) rather than
// offset.
func (c *cidrs) Query(ctx context.Context, q model.CidrQuery) ([]*model.CidrRow, error) {
	return c.query(ctx, q, true)
}

// QueryAll is Query without the `l.enabled = true` restriction, grounded on
// the reference get_cidrs list-detail controller, which has no enabled
// filter: a disabled list's own CIDRs remain visible to its owner.
func (c *cidrs) QueryAll(ctx context.Context, q model.CidrQuery) ([]*model.CidrRow, error) {
	return c.query(ctx, q, false)
}

func (c *cidrs) query(ctx context.Context, q model.CidrQuery, enabledOnly bool) ([]*model.CidrRow, error) {
	var b strings.Builder
	b.WriteString(`
        SELECT c.id, c.address, c.list_id, c.expires_at, c.created_at, c.updated_at
        FROM cidr c
        JOIN lists l ON l.id = c.list_id
        WHERE 1 = 1`)
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if enabledOnly {
		b.WriteString(" AND l.enabled = true")
	}
	if q.UserID != "" {
		b.WriteString(" AND l.user_id = " + arg(q.UserID))
	}
	if q.ListType != "" {
		b.WriteString(" AND l.list_type = " + arg(string(q.ListType)))
	}
	if q.ListID != "" {
		b.WriteString(" AND c.list_id = " + arg(q.ListID))
	}
	if len(q.Tags) > 0 {
		b.WriteString(" AND l.tags && " + arg(pq.Array(q.Tags)) + "::text[]")
	}
	if q.Cursor > 0 {
		b.WriteString(" AND c.id < " + arg(q.Cursor))
	}
	b.WriteString(" ORDER BY c.id DESC")
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + arg(q.Limit))
	}

	rows, err := c.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CidrRow
	for rows.Next() {
		var r model.CidrRow
		if err := rows.Scan(&r.ID, &r.Address, &r.ListID, &r.ExpiresAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// DeleteExpired removes every CIDR whose expiry has passed, used by the TTL
// reaper scheduled task.
func (c *cidrs) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM cidr WHERE expires_at IS NOT NULL AND expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
