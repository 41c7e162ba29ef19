package field

import (
	"fmt"
	"log/slog"
	"math/bits"

	"github.com/joshuapare/lifeboard/internal/buf"
	"github.com/joshuapare/lifeboard/internal/logger"
	"github.com/joshuapare/lifeboard/internal/pagebuf"
	"github.com/joshuapare/lifeboard/pkg/types"
)

// Options configures a Field.
type Options struct {
	// PageSize is the allocation granularity in bytes. Must be a power of two.
	PageSize int

	// MaxPagesPower bounds growth at 2^MaxPagesPower pages.
	MaxPagesPower int

	// Allocator provides zeroed buffers. Nil means heap allocation.
	Allocator pagebuf.Allocator

	// Logger receives buffer release failures. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns heap-backed options with the default limits.
func DefaultOptions() Options {
	l := types.DefaultLimits()
	return Options{
		PageSize:      l.PageSize,
		MaxPagesPower: l.MaxPagesPower,
		Allocator:     pagebuf.Heap{},
	}
}

// Field is a growable square bit buffer. See the package documentation for
// the sizing and growth rules.
type Field struct {
	opts Options

	buf   pagebuf.Buffer // nil until the first growth
	data  []byte
	power int    // log2 of the page count; 0 while empty
	side  uint64 // allocated side in bits, multiple of 8
	used  uint64 // high-water extent of set cells, <= side
}

// New returns an empty field. No memory is allocated until the first
// mutation.
func New(opts Options) (*Field, error) {
	if opts.Allocator == nil {
		opts.Allocator = pagebuf.Heap{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	l := types.Limits{PageSize: opts.PageSize, MaxPagesPower: opts.MaxPagesPower}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &Field{opts: opts}, nil
}

// Side returns the allocated side in bits.
func (f *Field) Side() uint64 { return f.side }

// Used returns the high-water extent: 1 + the largest coordinate ever set.
func (f *Field) Used() uint64 { return f.used }

// Len returns the buffer length in bytes.
func (f *Field) Len() int { return len(f.data) }

// Pages returns the number of allocated pages, 0 while empty.
func (f *Field) Pages() int {
	if f.buf == nil {
		return 0
	}
	return 1 << f.power
}

// PagesPower returns log2(Pages()). It is 0 both for an empty field and for
// a single page; use Pages to tell them apart.
func (f *Field) PagesPower() int { return f.power }

// PageSize returns the configured page size.
func (f *Field) PageSize() int { return f.opts.PageSize }

// Get reports whether the bit at (x, y) is set. It never grows the field and
// fails with ErrOutOfRange for coordinates outside the allocated side.
func (f *Field) Get(x, y uint32) (bool, error) {
	if !f.covers(x, y) {
		return false, f.outOfRange(x, y)
	}
	i, mask := f.locate(x, y)
	return f.data[i]&mask != 0, nil
}

// Set sets the bit at (x, y), growing the field first if needed.
func (f *Field) Set(x, y uint32) error {
	if err := f.ensure(x, y); err != nil {
		return err
	}
	i, mask := f.locate(x, y)
	f.data[i] |= mask
	f.mark(x, y)
	return nil
}

// Clear clears the bit at (x, y), growing the field first if needed.
func (f *Field) Clear(x, y uint32) error {
	if err := f.ensure(x, y); err != nil {
		return err
	}
	i, mask := f.locate(x, y)
	f.data[i] &^= mask
	return nil
}

// Toggle flips the bit at (x, y), growing the field first if needed.
func (f *Field) Toggle(x, y uint32) error {
	if err := f.ensure(x, y); err != nil {
		return err
	}
	i, mask := f.locate(x, y)
	f.data[i] ^= mask
	if f.data[i]&mask != 0 {
		f.mark(x, y)
	}
	return nil
}

// Count returns the number of set bits.
func (f *Field) Count() int {
	n := 0
	for _, b := range f.data {
		n += bits.OnesCount8(b)
	}
	return n
}

// Each calls fn for every set cell in row-major order, stopping early when fn
// returns false.
func (f *Field) Each(fn func(x, y uint32) bool) {
	if f.buf == nil {
		return
	}
	stride := f.side >> 3
	cols := buf.CeilDiv(f.used, 8)
	for y := uint64(0); y < f.used; y++ {
		row := f.data[y*stride : y*stride+cols]
		for bx, b := range row {
			for b != 0 {
				bit := bits.TrailingZeros8(b)
				b &^= 1 << bit
				if !fn(uint32(uint64(bx)*8+uint64(bit)), uint32(y)) {
					return
				}
			}
		}
	}
}

// Release frees the buffer and returns the field to its empty state.
func (f *Field) Release() error {
	if f.buf == nil {
		return nil
	}
	err := f.buf.Release()
	f.buf, f.data = nil, nil
	f.power, f.side, f.used = 0, 0, 0
	return err
}

func (f *Field) covers(x, y uint32) bool {
	return uint64(max(x, y)) < f.side
}

func (f *Field) locate(x, y uint32) (int, byte) {
	bit := uint64(y)*f.side + uint64(x)
	return int(bit >> 3), byte(1) << (x & 7)
}

func (f *Field) mark(x, y uint32) {
	if n := uint64(max(x, y)) + 1; n > f.used {
		f.used = n
	}
}

func (f *Field) outOfRange(x, y uint32) error {
	return types.New(types.ErrKindOutOfRange,
		fmt.Sprintf("field: cell (%d,%d) outside side %d", x, y, f.side))
}

// ensure grows the field until it covers (x, y).
func (f *Field) ensure(x, y uint32) error {
	if f.covers(x, y) {
		return nil
	}
	return f.grow(uint64(max(x, y)) + 1)
}

// grow replaces the buffer with one whose side is at least need. Nothing is
// modified unless the new buffer was obtained.
func (f *Field) grow(need uint64) error {
	k, side, ok := powerFor(need, f.opts.PageSize, f.opts.MaxPagesPower)
	if !ok {
		return types.New(types.ErrKindResourceExhausted,
			fmt.Sprintf("field: side %d exceeds page budget 2^%d", need, f.opts.MaxPagesPower))
	}
	size, ok := 0, k < bits.UintSize-1
	if ok {
		size, ok = buf.MulOverflowSafe(f.opts.PageSize, 1<<k)
	}
	if !ok {
		return types.New(types.ErrKindResourceExhausted,
			fmt.Sprintf("field: 2^%d pages overflow the address space", k))
	}
	nb, err := f.opts.Allocator.Alloc(size)
	if err != nil {
		return types.Wrap(types.ErrKindResourceExhausted,
			fmt.Sprintf("field: allocate 2^%d pages", k), err)
	}

	data := nb.Bytes()
	if f.buf != nil {
		migrate(data, side, f.data, f.side)
		// The new buffer is already in place; a failed release only leaks.
		if err := f.buf.Release(); err != nil {
			f.opts.Logger.Warn("field: release of old buffer failed",
				"pages", 1<<f.power, "err", err)
		}
	}
	f.buf, f.data = nb, data
	f.power, f.side = k, side
	return nil
}

// migrate copies every row of old (side oldSide) into dst (side newSide) at
// the new stride. dst must be zeroed and newSide > oldSide.
func migrate(dst []byte, newSide uint64, old []byte, oldSide uint64) {
	oldStride := int(oldSide >> 3)
	newStride := int(newSide >> 3)
	for y := 0; y < int(oldSide); y++ {
		src, _ := buf.Slice(old, y*oldStride, oldStride)
		copy(dst[y*newStride:], src)
	}
}
