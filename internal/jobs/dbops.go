package jobs

import (
	"context"
	"database/sql"
	"net/netip"
	"time"

	"github.com/cidrfence/cidrfence/internal/cidrnet"
	"github.com/cidrfence/cidrfence/internal/model"
)

const upsertCidrSQL = `
INSERT INTO cidr (address, list_id, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (address, list_id) DO UPDATE SET expires_at = $3, updated_at = now()`

const deleteCidrSQL = `DELETE FROM cidr WHERE address = $1 AND list_id = $2`

const selectEnabledCidrsByListTypeSQL = `
SELECT address FROM cidr WHERE list_id IN (
    SELECT id FROM lists WHERE enabled = true AND list_type = $1 AND user_id = $2
)`

const selectEnabledCidrsByListIDSQL = `
SELECT address FROM cidr WHERE list_id = (
    SELECT id FROM lists WHERE enabled = true AND id = $1
)`

const selectAllCidrsByListIDSQL = `
SELECT address FROM cidr WHERE list_id = (SELECT id FROM lists WHERE id = $1)`

const selectExclusionRecordsByListIDSQL = `
SELECT address, list_id, expires_at FROM cidr WHERE list_id = (SELECT id FROM lists WHERE id = $1)`

const selectExclusionRecordsByListTypeSQL = `
SELECT address, list_id, expires_at FROM cidr WHERE list_id IN (
    SELECT id FROM lists WHERE enabled = true AND list_type = $1 AND user_id = $2
)`

func upsertCidr(ctx context.Context, tx *sql.Tx, p netip.Prefix, listID string, expiresAt *time.Time) error {
	_, err := tx.ExecContext(ctx, upsertCidrSQL, p.String(), listID, expiresAt)
	return err
}

func deleteCidr(ctx context.Context, tx *sql.Tx, p netip.Prefix, listID string) error {
	_, err := tx.ExecContext(ctx, deleteCidrSQL, p.String(), listID)
	return err
}

func selectEnabledCidrsByListType(ctx context.Context, tx *sql.Tx, listType model.ListType, userID string) ([]netip.Prefix, error) {
	return queryAddresses(ctx, tx, selectEnabledCidrsByListTypeSQL, string(listType), userID)
}

func selectEnabledCidrsByListID(ctx context.Context, tx *sql.Tx, listID string) ([]netip.Prefix, error) {
	return queryAddresses(ctx, tx, selectEnabledCidrsByListIDSQL, listID)
}

func queryAddresses(ctx context.Context, tx *sql.Tx, q string, args ...interface{}) ([]netip.Prefix, error) {
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []netip.Prefix
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		p, err := cidrnet.ParseStrict(raw)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// exclusionRecord is a stored CIDR row consulted while computing the
// cleanup subtraction, carrying enough of the original row to upsert or
// delete it precisely.
type exclusionRecord struct {
	Address   netip.Prefix
	ListID    string
	ExpiresAt *time.Time
}

func selectExclusionRecords(ctx context.Context, tx *sql.Tx, listID string, listType model.ListType, userID string) ([]exclusionRecord, error) {
	var rows *sql.Rows
	var err error
	if listID != "" {
		rows, err = tx.QueryContext(ctx, selectExclusionRecordsByListIDSQL, listID)
	} else {
		rows, err = tx.QueryContext(ctx, selectExclusionRecordsByListTypeSQL, string(listType), userID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []exclusionRecord
	for rows.Next() {
		var raw, lid string
		var expires *time.Time
		if err := rows.Scan(&raw, &lid, &expires); err != nil {
			return nil, err
		}
		p, err := cidrnet.ParseStrict(raw)
		if err != nil {
			continue
		}
		out = append(out, exclusionRecord{Address: p, ListID: lid, ExpiresAt: expires})
	}
	return out, rows.Err()
}
