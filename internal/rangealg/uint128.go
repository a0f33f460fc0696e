// Package rangealg implements interval algebra over IP address ranges.
//
// Addresses are represented as 128-bit unsigned integers so that the same
// code path handles IPv4 (32-bit, in IPv4-mapped ::ffff:0:0/96 form) and
// IPv6 (128-bit) ranges.
package rangealg

import "net/netip"

// uint128 is a big-endian pair of 64-bit words: Hi holds bits 127..64, Lo
// holds bits 63..0. IPv4 addresses are stored IPv4-mapped: the address
// occupies the low 32 bits of Lo, bits 47..32 of Lo are all ones, Hi==0.
type uint128 struct {
	Hi, Lo uint64
}

func fromAddr(a netip.Addr) uint128 {
	b := a.As16()
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(b[i])
	}
	for i := 8; i < 16; i++ {
		lo = lo<<8 | uint64(b[i])
	}
	return uint128{Hi: hi, Lo: lo}
}

func (u uint128) toAddr(v4 bool) netip.Addr {
	var b [16]byte
	for i := 0; i < 8; i++ {
		b[7-i] = byte(u.Hi >> (8 * i))
	}
	for i := 0; i < 8; i++ {
		b[15-i] = byte(u.Lo >> (8 * i))
	}
	a := netip.AddrFrom16(b)
	if v4 {
		return a.Unmap().WithZone("")
	}
	return a
}

func (u uint128) cmp(o uint128) int {
	switch {
	case u.Hi < o.Hi:
		return -1
	case u.Hi > o.Hi:
		return 1
	case u.Lo < o.Lo:
		return -1
	case u.Lo > o.Lo:
		return 1
	default:
		return 0
	}
}

func (u uint128) add1() uint128 {
	if u.Lo == ^uint64(0) {
		return uint128{Hi: u.Hi + 1, Lo: 0}
	}
	return uint128{Hi: u.Hi, Lo: u.Lo + 1}
}

func (u uint128) sub1() uint128 {
	if u.Lo == 0 {
		return uint128{Hi: u.Hi - 1, Lo: ^uint64(0)}
	}
	return uint128{Hi: u.Hi, Lo: u.Lo - 1}
}

// andLowClear returns u & mask, where mask has its low `width` bits cleared
// (used to find the low end of a block of a given size).
func (u uint128) andLowClear(width int) uint128 {
	if width <= 0 {
		return u
	}
	if width >= 64 {
		hiMask := ^uint64(0) << uint(width-64)
		return uint128{Hi: u.Hi & hiMask, Lo: 0}
	}
	loMask := ^uint64(0) << uint(width)
	return uint128{Hi: u.Hi, Lo: u.Lo & loMask}
}

// orLowSet returns u | the all-ones value over the low `width` bits.
func (u uint128) orLowSet(width int) uint128 {
	if width <= 0 {
		return u
	}
	if width >= 64 {
		var hiMask uint64
		if hiWidth := width - 64; hiWidth > 0 {
			hiMask = ^uint64(0) >> uint(64-hiWidth)
		}
		return uint128{Hi: u.Hi | hiMask, Lo: ^uint64(0)}
	}
	loMask := ^uint64(0) >> uint(64-width)
	return uint128{Hi: u.Hi, Lo: u.Lo | loMask}
}

// trailingZeros returns the number of trailing zero bits, capped at maxBits.
func (u uint128) trailingZeros(maxBits int) int {
	if u.Lo != 0 {
		tz := trailingZerosUint64(u.Lo)
		if tz > maxBits {
			return maxBits
		}
		return tz
	}
	tz := 64 + trailingZerosUint64(u.Hi)
	if tz > maxBits {
		return maxBits
	}
	return tz
}

func trailingZerosUint64(v uint64) int {
	if v == 0 {
		return 64
	}
	n := 0
	for v&1 == 0 {
		v >>= 1
		n++
	}
	return n
}

// bitLen returns the index (0-based from the low bit) of the highest set
// bit among the low `maxBits` bits, or -1 if all are zero.
func bitLen(u uint128, maxBits int) int {
	for i := maxBits - 1; i >= 0; i-- {
		if bitAt(u, i) {
			return i
		}
	}
	return -1
}

func bitAt(u uint128, i int) bool {
	if i >= 64 {
		return u.Hi&(1<<uint(i-64)) != 0
	}
	return u.Lo&(1<<uint(i)) != 0
}
