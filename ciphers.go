package jarm

import "slices"

// cipherList picks one of the two fixed cipher inventories a probe
// starts from.
type cipherList int

const (
	cipherAll cipherList = iota
	cipherNoTLS13
)

// cipherInventory is the full 69-suite inventory in its reference
// order. The NO_TLS13 variant is the same list with the five 0x13xx
// suites removed; both orders are load-bearing for the digest.
var cipherInventory = []uint16{
	0x0016, 0x0033, 0x0067, 0xc09e, 0xc0a2, 0x009e, 0x0039, 0x006b,
	0xc09f, 0xc0a3, 0x009f, 0x0045, 0x00be, 0x0088, 0x00c4, 0x009a,
	0xc008, 0xc009, 0xc023, 0xc0ac, 0xc0ae, 0xc02b, 0xc00a, 0xc024,
	0xc0ad, 0xc0af, 0xc02c, 0xc072, 0xc073, 0xcca9, 0x1302, 0x1301,
	0xcc14, 0xc007, 0xc012, 0xc013, 0xc027, 0xc02f, 0xc014, 0xc028,
	0xc030, 0xc060, 0xc061, 0xc076, 0xc077, 0xcca8, 0x1305, 0x1304,
	0x1303, 0xcc13, 0xc011, 0x000a, 0x002f, 0x003c, 0xc09c, 0xc0a0,
	0x009c, 0x0035, 0x003d, 0xc09d, 0xc0a1, 0x009d, 0x0041, 0x00ba,
	0x0084, 0x00c0, 0x0007, 0x0004, 0x0005,
}

func isTLS13Suite(s uint16) bool { return s>>8 == 0x13 }

// values returns a fresh copy of the inventory so permutations never
// touch the shared table.
func (l cipherList) values() []uint16 {
	if l == cipherNoTLS13 {
		out := make([]uint16, 0, len(cipherInventory)-5)
		for _, s := range cipherInventory {
			if !isTLS13Suite(s) {
				out = append(out, s)
			}
		}

		return out
	}

	return slices.Clone(cipherInventory)
}

// cipherOrder is a permutation strategy applied to a cipher list
// before it is serialized.
type cipherOrder int

const (
	orderForward cipherOrder = iota
	orderReverse
	orderTopHalf
	orderBottomHalf
	orderMiddleOut
)

// mung permutes s according to order and returns the result; s itself
// is left alone. Parity is tested before any element is dropped so an
// odd list's original median keeps its reference semantics; no
// strategy synthesizes new elements.
func mung[T any](s []T, order cipherOrder) []T {
	out := slices.Clone(s)

	switch order {
	case orderReverse:
		slices.Reverse(out)
	case orderTopHalf:
		odd := len(out)%2 == 1

		var median T
		if odd {
			median = out[len(out)/2]
		}

		slices.Reverse(out)

		drop := len(out) / 2
		if odd {
			drop++
		}

		out = out[drop:]
		if odd {
			out = append([]T{median}, out...)
		}
	case orderBottomHalf:
		drop := len(out) / 2
		if len(out)%2 == 1 {
			drop++
		}

		out = out[drop:]
	case orderMiddleOut:
		m := len(out) / 2
		mid := make([]T, 0, len(out))

		if len(out)%2 == 1 {
			mid = append(mid, out[m])
			for i := 1; i <= m; i++ {
				mid = append(mid, out[m+i], out[m-i])
			}
		} else {
			for i := 1; i <= m; i++ {
				mid = append(mid, out[m-1+i], out[m-i])
			}
		}

		out = mid
	}

	return out
}
