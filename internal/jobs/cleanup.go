package jobs

import (
	"context"
	"database/sql"
	"net/netip"

	"github.com/cidrfence/cidrfence/internal/cidrnet"
	"github.com/cidrfence/cidrfence/internal/model"
	"github.com/cidrfence/cidrfence/internal/rangealg"
)

// deleteExcludedCidrs removes exclusionCidrs from every stored CIDR matched
// by listID (exact list) or listType (every enabled list of that type),
// splitting stored rows into smaller networks rather than deleting whole
// subnets that only partially overlap. Ported from the reference worker's
// delete_excluded_cidrs: a record whose single remaining subnet equals the
// original is left alone (besides refreshing expires_at); a record that
// shrinks to one different subnet or splits into several has its original
// row deleted and the remainder(s) upserted in its place.
func deleteExcludedCidrs(ctx context.Context, tx *sql.Tx, exclusionCidrs []netip.Prefix, listID string, listType model.ListType, userID string) error {
	records, err := selectExclusionRecords(ctx, tx, listID, listType, userID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	v4Exclusions, v6Exclusions := cidrnet.SplitByVersion(exclusionCidrs)

	var toDelete []exclusionRecord
	var toUpsert []exclusionRecord

	for _, rec := range records {
		exclusions := v4Exclusions
		if !rec.Address.Addr().Is4() {
			exclusions = v6Exclusions
		}
		remaining := rangealg.ExcludeMany(rec.Address, exclusions)

		switch {
		case len(remaining) == 1 && remaining[0] == rec.Address:
			// Unchanged; refresh expires_at only.
			toUpsert = append(toUpsert, exclusionRecord{Address: rec.Address, ListID: rec.ListID, ExpiresAt: rec.ExpiresAt})
		case len(remaining) == 1:
			toDelete = append(toDelete, rec)
			toUpsert = append(toUpsert, exclusionRecord{Address: remaining[0], ListID: rec.ListID, ExpiresAt: rec.ExpiresAt})
		default:
			toDelete = append(toDelete, rec)
			for _, subnet := range remaining {
				toUpsert = append(toUpsert, exclusionRecord{Address: subnet, ListID: rec.ListID, ExpiresAt: rec.ExpiresAt})
			}
		}
	}

	for _, rec := range toDelete {
		if err := deleteCidr(ctx, tx, rec.Address, rec.ListID); err != nil {
			return err
		}
	}
	for _, rec := range toUpsert {
		if err := upsertCidr(ctx, tx, rec.Address, rec.ListID, rec.ExpiresAt); err != nil {
			return err
		}
	}
	return nil
}

// filterSafeCidrs removes any address in cidrs that overlaps an enabled
// SAFE-list entry, returning the remainder as deny-eligible subnets. Ported
// from the reference worker's filter_safe_cidrs: used when adding to a
// DENY list so active SAFE-list carve-outs are respected at insert time
// rather than only at enable-transition time.
func filterSafeCidrs(ctx context.Context, tx *sql.Tx, cidrs []netip.Prefix, userID string) ([]netip.Prefix, error) {
	safe, err := selectEnabledCidrsByListType(ctx, tx, model.ListTypeSafe, userID)
	if err != nil {
		return nil, err
	}
	if len(safe) == 0 {
		return cidrs, nil
	}
	safeV4, safeV6 := cidrnet.SplitByVersion(safe)

	var out []netip.Prefix
	for _, c := range cidrs {
		exclusions := safeV4
		if !c.Addr().Is4() {
			exclusions = safeV6
		}
		out = append(out, rangealg.ExcludeMany(c, exclusions)...)
	}
	return rangealg.Collapse(out), nil
}
