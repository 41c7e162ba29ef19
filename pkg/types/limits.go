package types

// ============================================================================
// Board Engine Limits
// ============================================================================

const (
	// DefaultPageSize is the allocation granularity of a board's field.
	DefaultPageSize = 4096

	// DefaultMaxPagesPower caps a single field at 2^20 pages (4 GiB with the
	// default page size).
	DefaultMaxPagesPower = 20

	// StrictMaxPagesPower caps a single field at 2^12 pages (16 MiB with the
	// default page size).
	StrictMaxPagesPower = 12

	// MaxPagesPowerLimit is the largest power the sizing arithmetic accepts.
	// 2^40 pages of 4 KiB already exceed any addressable buffer.
	MaxPagesPowerLimit = 40

	// DefaultMaxNameLen bounds board names in bytes.
	DefaultMaxNameLen = 255

	// StrictMaxBoards is the board count used by StrictLimits.
	StrictMaxBoards = 64

	// DefaultMaxRenderSide bounds the extent rendered as text (1 MiB of
	// '*' and '.' at most).
	DefaultMaxRenderSide = 1024
)

// Limits defines constraints that keep the engine from exhausting memory.
type Limits struct {
	// PageSize is the allocation granularity in bytes. Must be a power of two.
	PageSize int

	// MaxPagesPower is the largest k for which a field may hold 2^k pages.
	// Growth beyond it fails with ErrResourceExhausted.
	MaxPagesPower int

	// MaxBoards bounds the number of live boards. Zero means unlimited.
	MaxBoards int

	// MaxNameLen bounds board names in bytes. Zero means unlimited.
	MaxNameLen int

	// MaxRenderSide bounds the used extent a board will render row by row.
	// Zero means unlimited.
	MaxRenderSide int
}

// DefaultLimits returns the limits used when nothing is configured.
func DefaultLimits() Limits {
	return Limits{
		PageSize:      DefaultPageSize,
		MaxPagesPower: DefaultMaxPagesPower,
		MaxBoards:     0,
		MaxNameLen:    DefaultMaxNameLen,
		MaxRenderSide: DefaultMaxRenderSide,
	}
}

// StrictLimits returns conservative limits for constrained environments.
func StrictLimits() Limits {
	return Limits{
		PageSize:      DefaultPageSize,
		MaxPagesPower: StrictMaxPagesPower,
		MaxBoards:     StrictMaxBoards,
		MaxNameLen:    DefaultMaxNameLen,
		MaxRenderSide: DefaultMaxRenderSide,
	}
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Validate reports the first limit that cannot be honoured.
func (l Limits) Validate() error {
	switch {
	case !IsPowerOfTwo(l.PageSize):
		return New(ErrKindInvalidArgument, "limits: page size must be a power of two")
	case l.MaxPagesPower < 0 || l.MaxPagesPower > MaxPagesPowerLimit:
		return New(ErrKindInvalidArgument, "limits: max pages power out of range")
	case l.MaxBoards < 0:
		return New(ErrKindInvalidArgument, "limits: max boards must not be negative")
	case l.MaxNameLen < 0:
		return New(ErrKindInvalidArgument, "limits: max name length must not be negative")
	case l.MaxRenderSide < 0:
		return New(ErrKindInvalidArgument, "limits: max render side must not be negative")
	}
	return nil
}
