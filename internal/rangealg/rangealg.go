package rangealg

import "net/netip"

// Range is an inclusive address interval [Lo, Hi], both endpoints of the
// same IP version.
type Range struct {
	Lo, Hi netip.Addr
}

func rangeWidth(v4 bool) int {
	if v4 {
		return 32
	}
	return 128
}

// Subtract removes exclude from base, returning zero, one, or two
// remaining sub-ranges. Ported case-for-case from the reference
// implementation's exclude_address_raw: base and exclude do not overlap
// (whole base survives), exclude fully covers base (nothing survives), or
// exclude clips one or both ends of base (one or two remainders).
func Subtract(base, exclude Range) []Range {
	b0, b1 := fromAddr(base.Lo), fromAddr(base.Hi)
	e0, e1 := fromAddr(exclude.Lo), fromAddr(exclude.Hi)
	v4 := base.Lo.Is4()

	switch {
	case b0.cmp(e1) > 0 || b1.cmp(e0) < 0:
		// no overlap
		return []Range{base}
	case b0.cmp(e0) >= 0 && b1.cmp(e1) <= 0:
		// exclude fully covers base
		return nil
	case b0.cmp(e0) > 0 && b1.cmp(e1) > 0:
		return []Range{{Lo: e1.add1().toAddr(v4), Hi: base.Hi}}
	case b0.cmp(e0) < 0 && b1.cmp(e1) < 0:
		return []Range{{Lo: base.Lo, Hi: e0.sub1().toAddr(v4)}}
	case b0.cmp(e0) == 0:
		return []Range{{Lo: e1.add1().toAddr(v4), Hi: base.Hi}}
	case b1.cmp(e1) == 0:
		return []Range{{Lo: base.Lo, Hi: e0.sub1().toAddr(v4)}}
	default:
		return []Range{
			{Lo: base.Lo, Hi: e0.sub1().toAddr(v4)},
			{Lo: e1.add1().toAddr(v4), Hi: base.Hi},
		}
	}
}

// Summarize returns the minimal set of CIDR prefixes that together cover
// exactly the inclusive range [lo, hi], ported from the standard
// summarize_address_range algorithm: at each step take the largest
// power-of-two-aligned block that fits under the low address and within
// the remaining span.
func Summarize(lo, hi netip.Addr) []netip.Prefix {
	if lo.Compare(hi) > 0 {
		return nil
	}
	v4 := lo.Is4()
	maxBits := rangeWidth(v4)

	first := fromAddr(lo)
	last := fromAddr(hi)

	var out []netip.Prefix
	for first.cmp(last) <= 0 {
		tz := first.trailingZeros(maxBits)
		span := spanBits(first, last, maxBits)
		nbits := tz
		if span < nbits {
			nbits = span
		}
		prefixLen := maxBits - nbits
		out = append(out, netip.PrefixFrom(first.toAddr(v4), prefixLen))

		block := blockSize(nbits)
		next := addBlock(first, block)
		if nbits == maxBits {
			break
		}
		if next.cmp(first) <= 0 {
			// overflowed the address space; the current block reached the top
			break
		}
		first = next
	}
	return out
}

// spanBits returns bit_length(last - first + 1) - 1, i.e. the number of
// bits such that 2^n <= (last-first+1) is the largest such n.
func spanBits(first, last uint128, maxBits int) int {
	diff := sub128(last, first)
	diff = diff.add1()
	if diff == (uint128{}) {
		// last-first+1 wrapped past 2^128: the span is the whole IPv6 space.
		return maxBits
	}
	bl := bitLength(diff, maxBits+1)
	if bl == 0 {
		return 0
	}
	return bl - 1
}

func sub128(a, b uint128) uint128 {
	if a.Lo >= b.Lo {
		return uint128{Hi: a.Hi - b.Hi, Lo: a.Lo - b.Lo}
	}
	return uint128{Hi: a.Hi - b.Hi - 1, Lo: a.Lo - b.Lo}
}

func bitLength(u uint128, maxBits int) int {
	idx := bitLen(u, maxBits)
	return idx + 1
}

func blockSize(nbits int) uint128 {
	if nbits >= 64 {
		return uint128{Hi: 1 << uint(nbits-64), Lo: 0}
	}
	return uint128{Hi: 0, Lo: 1 << uint(nbits)}
}

func addBlock(a, block uint128) uint128 {
	lo := a.Lo + block.Lo
	hi := a.Hi + block.Hi
	if lo < a.Lo {
		hi++
	}
	return uint128{Hi: hi, Lo: lo}
}

// PrefixRange returns the inclusive [network, broadcast] range for p.
func PrefixRange(p netip.Prefix) Range {
	p = p.Masked()
	lo := fromAddr(p.Addr())
	width := rangeWidth(p.Addr().Is4())
	hostBits := width - p.Bits()
	hi := lo.orLowSet(hostBits)
	return Range{Lo: lo.toAddr(p.Addr().Is4()), Hi: hi.toAddr(p.Addr().Is4())}
}

// ExcludeMany removes every exclusion prefix from cidr, subnetting as
// needed, and returns the minimal collapsed set of prefixes that remain.
// Mirrors the reference address_exclude_many: iteratively subtract each
// same-version exclusion from the working set of ranges, then re-summarize
// and collapse.
func ExcludeMany(cidr netip.Prefix, exclusions []netip.Prefix) []netip.Prefix {
	v4 := cidr.Addr().Is4()
	ranges := []Range{PrefixRange(cidr)}

	for _, ex := range exclusions {
		if ex.Addr().Is4() != v4 {
			continue
		}
		if len(ranges) == 0 {
			break
		}
		exRange := PrefixRange(ex)
		var next []Range
		for _, r := range ranges {
			next = append(next, Subtract(r, exRange)...)
		}
		ranges = next
	}

	var out []netip.Prefix
	for _, r := range ranges {
		out = append(out, Summarize(r.Lo, r.Hi)...)
	}
	return Collapse(out)
}

// Collapse merges adjacent and overlapping prefixes of the same version
// into the minimal equivalent set, mirroring ipaddress.collapse_addresses:
// convert to ranges, sort, merge touching/overlapping ranges, re-summarize.
func Collapse(prefixes []netip.Prefix) []netip.Prefix {
	if len(prefixes) == 0 {
		return nil
	}
	byVersion := map[bool][]Range{}
	for _, p := range prefixes {
		byVersion[p.Addr().Is4()] = append(byVersion[p.Addr().Is4()], PrefixRange(p))
	}

	var out []netip.Prefix
	for _, v4 := range []bool{true, false} {
		ranges := byVersion[v4]
		if len(ranges) == 0 {
			continue
		}
		merged := mergeRanges(ranges)
		for _, r := range merged {
			out = append(out, Summarize(r.Lo, r.Hi)...)
		}
	}
	return out
}

func mergeRanges(ranges []Range) []Range {
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && fromAddr(sorted[j].Lo).cmp(fromAddr(sorted[j-1].Lo)) < 0; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	var merged []Range
	for _, r := range sorted {
		if len(merged) == 0 {
			merged = append(merged, r)
			continue
		}
		last := &merged[len(merged)-1]
		lastHi := fromAddr(last.Hi)
		rLo := fromAddr(r.Lo)
		// touching or overlapping if r.Lo <= last.Hi + 1; a last.Hi at the top
		// of the IPv6 space (where +1 wraps to zero) covers every later r.
		topV6 := lastHi == uint128{Hi: ^uint64(0), Lo: ^uint64(0)}
		if topV6 || rLo.cmp(lastHi.add1()) <= 0 {
			if fromAddr(r.Hi).cmp(lastHi) > 0 {
				last.Hi = r.Hi
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
