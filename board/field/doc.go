// Package field implements the paged, square bit buffer that backs a board.
//
// # Overview
//
// A Field is a flat buffer of 2^k pages holding a square of side×side bits.
// The side is derived from the page budget alone:
//
//	n    = 2^k * PageSize * 8     // addressable bits
//	side = ISqrt(n) &^ 7          // floor square root, rounded down to a byte
//
// Rounding down to a multiple of 8 keeps every row byte-aligned, so bit
// (x, y) lives at byte (y*side + x) >> 3, bit x & 7, and no byte straddles
// two rows.
//
// # Growth
//
// Reads never allocate. Set, Clear and Toggle first grow the field whenever
// max(x, y) >= side:
//
//	rowBytes = ceil((max(x, y) + 1) / 8)
//	pages    = ceil(rowBytes² / PageSize)
//	k        = smallest power with 2^k >= pages
//
// and then k is advanced until FieldSide(k) covers the coordinate. The new
// buffer is zero-filled, old rows are copied across at the new stride, and
// the old buffer is released. Growth is all-or-nothing: when the page budget
// exceeds MaxPagesPower or the allocator fails, ErrResourceExhausted is
// returned and the field is left exactly as it was.
//
// With the default 4 KiB page:
//
//	k=0   1 page     side 176
//	k=1   2 pages    side 256
//	k=2   4 pages    side 360
//	k=3   8 pages    side 512
//
// # Extents
//
// Side is allocated capacity. Used is the high-water mark of written
// coordinates (1 + the largest x or y ever set). The two are tracked
// separately and Used never exceeds Side.
//
// # Thread Safety
//
// Field is not thread-safe. The owning board serialises access with its own
// reader/writer lock.
package field
