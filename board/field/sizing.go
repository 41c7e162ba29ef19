package field

import (
	"math/bits"

	"github.com/joshuapare/lifeboard/internal/buf"
)

// ISqrt returns floor(sqrt(n)) using integer arithmetic only.
//
// The first guess is the power of two 2^ceil(log2(n)/2), which is never below
// the root; Newton steps then descend monotonically until they stop
// decreasing.
func ISqrt(n uint64) uint64 {
	if n < 2 {
		return n
	}
	s := uint((bits.Len64(n-1) + 1) / 2)
	g0 := uint64(1) << s
	g1 := (g0 + (n >> s)) >> 1
	for g1 < g0 {
		g0 = g1
		g1 = (g0 + n/g0) >> 1
	}
	return g0
}

// FieldSide returns the byte-aligned side of a square bit field holding
// 2^k pages of pageSize bytes. ok is false when the page budget overflows
// 64-bit arithmetic.
func FieldSide(pageSize int, k int) (side uint64, ok bool) {
	if pageSize <= 0 || k < 0 {
		return 0, false
	}
	pageBits, ok := buf.MulU64(uint64(pageSize), 8)
	if !ok {
		return 0, false
	}
	n, ok := buf.ShlU64(pageBits, uint(k))
	if !ok {
		return 0, false
	}
	return ISqrt(n) &^ 7, true
}

// seedPower is the byte-squared page estimate for a side of need bits: the
// smallest k with 2^k >= ceil(ceil(need/8)² / pageSize).
func seedPower(need uint64, pageSize int) (int, bool) {
	rowBytes := buf.CeilDiv(need, 8)
	area, ok := buf.MulU64(rowBytes, rowBytes)
	if !ok {
		return 0, false
	}
	pages := buf.CeilDiv(area, uint64(pageSize))
	if pages <= 1 {
		return 0, true
	}
	return bits.Len64(pages - 1), true
}

// powerFor returns the smallest page power whose side covers need bits,
// bounded by maxPower.
func powerFor(need uint64, pageSize, maxPower int) (int, uint64, bool) {
	k, ok := seedPower(need, pageSize)
	if !ok {
		return 0, 0, false
	}
	for ; k <= maxPower; k++ {
		side, ok := FieldSide(pageSize, k)
		if !ok {
			return 0, 0, false
		}
		if side >= need {
			return k, side, true
		}
	}
	return 0, 0, false
}
