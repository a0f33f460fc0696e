// Package cidrnet parses and classifies CIDR text, mirroring the reference
// ingestion pipeline: strict parsing, free-text extraction via regex, and
// filtering out non-globally-routable networks before they reach storage.
package cidrnet

import (
	"net/netip"
	"regexp"
	"strings"
)

// Free-text extraction patterns, ported from the reference service's
// IPV4_RE / IPV6_RE.
var (
	ipv4Pattern = regexp.MustCompile(`(?:[0-9]{1,3}\.){3}[0-9]{1,3}(?:/[0-9]{1,2})?`)
	ipv6Pattern = regexp.MustCompile(`[A-Fa-f0-9:]+:[A-Fa-f0-9]*(?:/[0-9]{1,3})?`)
)

// ParseResult is the outcome of ingesting a batch of raw CIDR text.
type ParseResult struct {
	Accepted  []netip.Prefix
	TotalJobs int
	Malformed int
	NonGlobal int
}

// ParseStrict parses a single exact "address[/bits]" token, rejecting
// anything that isn't a clean CIDR or bare address.
func ParseStrict(raw string) (netip.Prefix, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "/") {
		a, err := netip.ParseAddr(raw)
		if err != nil {
			return netip.Prefix{}, err
		}
		return netip.PrefixFrom(a, addrBits(a)).Masked(), nil
	}
	p, err := netip.ParsePrefix(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	return p.Masked(), nil
}

func addrBits(a netip.Addr) int {
	if a.Is4() {
		return 32
	}
	return 128
}

// ExtractFreeText scans arbitrary text for embedded IPv4/IPv6 CIDR-like
// tokens, attempting to parse each match with ParseStrict and returning only
// the matches that parse (as matched, not canonicalised). It is the free-text counterpart
// of ParseStrict used when ingesting unstructured input (pasted logs,
// threat-intel feeds) rather than a clean newline/comma-delimited list.
func ExtractFreeText(text string) []string {
	var out []string
	matches := append(ipv4Pattern.FindAllString(text, -1), ipv6Pattern.FindAllString(text, -1)...)
	for _, m := range matches {
		if _, err := ParseStrict(m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// nonGlobalV4 are IANA special-purpose IPv4 blocks not covered by the
// stdlib netip predicates: CGNAT, the documentation/benchmarking TEST-NETs,
// the 240.0.0.0/4 reserved block, and the limited broadcast address.
var nonGlobalV4 = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),      // CGNAT, RFC 6598
	netip.MustParsePrefix("192.0.0.0/24"),       // IETF protocol assignments
	netip.MustParsePrefix("192.0.2.0/24"),       // TEST-NET-1
	netip.MustParsePrefix("198.18.0.0/15"),      // benchmarking, RFC 2544
	netip.MustParsePrefix("198.51.100.0/24"),    // TEST-NET-2
	netip.MustParsePrefix("203.0.113.0/24"),     // TEST-NET-3
	netip.MustParsePrefix("240.0.0.0/4"),        // reserved
	netip.MustParsePrefix("255.255.255.255/32"), // limited broadcast
}

// nonGlobalV6 are IANA special-purpose IPv6 blocks not covered by the
// stdlib netip predicates or the ULA check below.
var nonGlobalV6 = []netip.Prefix{
	netip.MustParsePrefix("2001:db8::/32"), // documentation
}

// IsGloballyRoutable reports whether p's network could plausibly appear on
// the public Internet: it excludes private (RFC1918), unique-local (ULA),
// loopback, link-local, multicast, CGNAT, documentation/benchmarking, and
// reserved ranges. Ported from the reference worker's non-global filtering
// step, which relies on Python's ipaddress.ip_network.is_global.
func IsGloballyRoutable(p netip.Prefix) bool {
	a := p.Addr()
	if a.IsLoopback() || a.IsLinkLocalUnicast() || a.IsLinkLocalMulticast() ||
		a.IsMulticast() || a.IsPrivate() || a.IsUnspecified() || a.IsInterfaceLocalMulticast() {
		return false
	}
	if a.Is4() {
		for _, block := range nonGlobalV4 {
			if block.Contains(a) {
				return false
			}
		}
		return true
	}
	// IPv6 unique local addresses, fc00::/7.
	b := a.As16()
	if b[0]&0xfe == 0xfc {
		return false
	}
	for _, block := range nonGlobalV6 {
		if block.Contains(a) {
			return false
		}
	}
	return true
}

// ParseBatch parses a slice of raw CIDR tokens (each trimmed of surrounding
// whitespace, empty tokens skipped), classifying each as accepted,
// malformed, or non-global. Mirrors
// the reference parse_raw_cidrs: a token either fails to parse (malformed)
// or, when onlyGlobal is set, parses but is not globally routable
// (non_global); these counters are mutually exclusive per token. Delete
// jobs pass onlyGlobal=false since a CIDR must be removable regardless of
// whether it would have been accepted on ingest.
func ParseBatch(raw []string, onlyGlobal bool) ParseResult {
	res := ParseResult{}
	for _, tok := range raw {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		res.TotalJobs++
		p, err := ParseStrict(tok)
		if err != nil {
			res.Malformed++
			continue
		}
		if onlyGlobal && !IsGloballyRoutable(p) {
			res.NonGlobal++
			continue
		}
		res.Accepted = append(res.Accepted, p)
	}
	return res
}

// SplitByVersion partitions prefixes into IPv4 and IPv6 groups.
func SplitByVersion(prefixes []netip.Prefix) (v4, v6 []netip.Prefix) {
	for _, p := range prefixes {
		if p.Addr().Is4() {
			v4 = append(v4, p)
		} else {
			v6 = append(v6, p)
		}
	}
	return v4, v6
}
