package rangealg

import (
	"net/netip"
	"testing"
)

func pfx(t *testing.T, s string) netip.Prefix {
	t.Helper()
	p, err := netip.ParsePrefix(s)
	if err != nil {
		t.Fatalf("ParsePrefix(%q): %v", s, err)
	}
	return p.Masked()
}

func addr(t *testing.T, s string) netip.Addr {
	t.Helper()
	a, err := netip.ParseAddr(s)
	if err != nil {
		t.Fatalf("ParseAddr(%q): %v", s, err)
	}
	return a
}

func TestSubtractNoOverlap(t *testing.T) {
	base := Range{Lo: addr(t, "10.0.0.0"), Hi: addr(t, "10.0.0.255")}
	exclude := Range{Lo: addr(t, "10.0.1.0"), Hi: addr(t, "10.0.1.255")}
	got := Subtract(base, exclude)
	if len(got) != 1 || got[0] != base {
		t.Fatalf("expected base unchanged, got %v", got)
	}
}

func TestSubtractFullCover(t *testing.T) {
	base := Range{Lo: addr(t, "10.0.0.0"), Hi: addr(t, "10.0.0.255")}
	exclude := Range{Lo: addr(t, "10.0.0.0"), Hi: addr(t, "10.0.1.255")}
	got := Subtract(base, exclude)
	if len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestSubtractSplitsInTwo(t *testing.T) {
	base := Range{Lo: addr(t, "10.0.0.0"), Hi: addr(t, "10.0.0.255")}
	exclude := Range{Lo: addr(t, "10.0.0.64"), Hi: addr(t, "10.0.0.127")}
	got := Subtract(base, exclude)
	if len(got) != 2 {
		t.Fatalf("expected two ranges, got %v", got)
	}
	if got[0].Hi.String() != "10.0.0.63" || got[1].Lo.String() != "10.0.0.128" {
		t.Fatalf("unexpected split: %v", got)
	}
}

func TestSubtractLeftAligned(t *testing.T) {
	base := Range{Lo: addr(t, "10.0.0.0"), Hi: addr(t, "10.0.0.255")}
	exclude := Range{Lo: addr(t, "10.0.0.0"), Hi: addr(t, "10.0.0.127")}
	got := Subtract(base, exclude)
	if len(got) != 1 || got[0].Lo.String() != "10.0.0.128" || got[0].Hi.String() != "10.0.0.255" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestSummarizeSingleHost(t *testing.T) {
	a := addr(t, "192.168.1.1")
	got := Summarize(a, a)
	if len(got) != 1 || got[0].Bits() != 32 {
		t.Fatalf("expected /32, got %v", got)
	}
}

func TestSummarizeWholeSlash24(t *testing.T) {
	lo := addr(t, "10.0.0.0")
	hi := addr(t, "10.0.0.255")
	got := Summarize(lo, hi)
	if len(got) != 1 || got[0].String() != "10.0.0.0/24" {
		t.Fatalf("expected single /24, got %v", got)
	}
}

func TestSummarizeMisaligned(t *testing.T) {
	lo := addr(t, "10.0.0.1")
	hi := addr(t, "10.0.0.3")
	got := Summarize(lo, hi)
	if len(got) != 2 {
		t.Fatalf("expected two prefixes for .1-.3, got %v", got)
	}
}

func TestExcludeManyRemovesHole(t *testing.T) {
	base := pfx(t, "10.0.0.0/24")
	excl := []netip.Prefix{pfx(t, "10.0.0.128/25")}
	got := ExcludeMany(base, excl)
	if len(got) != 1 || got[0].String() != "10.0.0.0/25" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestExcludeManyIgnoresOtherVersion(t *testing.T) {
	base := pfx(t, "10.0.0.0/24")
	excl := []netip.Prefix{pfx(t, "2001:db8::/32")}
	got := ExcludeMany(base, excl)
	if len(got) != 1 || got[0].String() != "10.0.0.0/24" {
		t.Fatalf("expected base untouched by v6 exclusion, got %v", got)
	}
}

func TestCollapseAdjacent(t *testing.T) {
	in := []netip.Prefix{pfx(t, "10.0.0.0/25"), pfx(t, "10.0.0.128/25")}
	got := Collapse(in)
	if len(got) != 1 || got[0].String() != "10.0.0.0/24" {
		t.Fatalf("expected collapse to /24, got %v", got)
	}
}

func TestPrefixRangeV6(t *testing.T) {
	p := pfx(t, "2001:db8::/126")
	r := PrefixRange(p)
	if r.Lo.String() != "2001:db8::" || r.Hi.String() != "2001:db8::3" {
		t.Fatalf("unexpected v6 range: %+v", r)
	}
}

func TestPrefixRangeV6HostBitsAbove64(t *testing.T) {
	p := pfx(t, "2001:db8::/32")
	r := PrefixRange(p)
	if r.Lo.String() != "2001:db8::" {
		t.Fatalf("unexpected v6 lo: %+v", r)
	}
	if r.Hi.String() != "2001:db8:ffff:ffff:ffff:ffff:ffff:ffff" {
		t.Fatalf("unexpected v6 hi for /32, want the full /32 span's top address: %+v", r)
	}
}

func TestPrefixRangeV6Default(t *testing.T) {
	p := pfx(t, "::/0")
	r := PrefixRange(p)
	if r.Lo.String() != "::" || r.Hi.String() != "ffff:ffff:ffff:ffff:ffff:ffff:ffff:ffff" {
		t.Fatalf("unexpected v6 range for ::/0: %+v", r)
	}
}
