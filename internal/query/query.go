// Package query implements the read-path over stored CIDRs: plain listing,
// fully collapsed output, and output collapsed per IP version. Grounded on
// the reference CidrController's get_cidrs / get_collapsed_cidrs /
// get_collapsed_by_version_cidrs.
package query

import (
	"context"
	"net/netip"

	"github.com/cidrfence/cidrfence/internal/cidrnet"
	"github.com/cidrfence/cidrfence/internal/model"
	"github.com/cidrfence/cidrfence/internal/rangealg"
	"github.com/cidrfence/cidrfence/internal/store"
)

// Engine answers read-path queries over stored CIDRs. It is intentionally
// independent from internal/jobs: reads never need a transaction and never
// mutate storage.
type Engine struct {
	Cidrs store.Cidrs
}

// New constructs an Engine.
func New(cidrs store.Cidrs) *Engine {
	return &Engine{Cidrs: cidrs}
}

// List returns the raw, uncollapsed set of matching CIDR rows. list_type is
// required by callers (enforced at the HTTP boundary); list_id, when set,
// takes precedence over tags.
func (e *Engine) List(ctx context.Context, q model.CidrQuery) ([]*model.CidrRow, error) {
	return e.Cidrs.Query(ctx, q)
}

// Collapsed returns the matching CIDRs merged into the minimal equivalent
// set across both IP versions.
func (e *Engine) Collapsed(ctx context.Context, q model.CidrQuery) ([]netip.Prefix, error) {
	prefixes, err := e.prefixes(ctx, q)
	if err != nil {
		return nil, err
	}
	return rangealg.Collapse(prefixes), nil
}

// CollapsedByVersion returns the matching CIDRs collapsed, split by IP
// version.
func (e *Engine) CollapsedByVersion(ctx context.Context, q model.CidrQuery) (model.CidrByVersion, error) {
	prefixes, err := e.prefixes(ctx, q)
	if err != nil {
		return model.CidrByVersion{}, err
	}
	collapsed := rangealg.Collapse(prefixes)
	v4, v6 := cidrnet.SplitByVersion(collapsed)

	out := model.CidrByVersion{}
	for _, p := range v4 {
		out.IPv4 = append(out.IPv4, p.String())
	}
	for _, p := range v6 {
		out.IPv6 = append(out.IPv6, p.String())
	}
	return out, nil
}

func (e *Engine) prefixes(ctx context.Context, q model.CidrQuery) ([]netip.Prefix, error) {
	rows, err := e.Cidrs.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]netip.Prefix, 0, len(rows))
	for _, r := range rows {
		p, err := cidrnet.ParseStrict(r.Address)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
