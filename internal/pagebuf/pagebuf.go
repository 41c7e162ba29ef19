// Package pagebuf allocates the zero-initialised, page-sized buffers that back
// board fields.
//
// Two backings exist. Heap buffers come from the Go allocator. Mmap buffers
// are anonymous private mappings obtained from the kernel, so they are
// page-aligned and returned to the OS as soon as they are released; on
// platforms without mmap support the mmap backing falls back to the heap.
//
// Buffers are not safe for concurrent Release; the owning field serialises
// access.
package pagebuf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSize indicates a non-positive allocation request.
	ErrInvalidSize = errors.New("pagebuf: size must be positive")

	// ErrReleased indicates use of a buffer after Release.
	ErrReleased = errors.New("pagebuf: buffer already released")

	// ErrTooLarge indicates a request above MaxSize.
	ErrTooLarge = errors.New("pagebuf: size exceeds allocation ceiling")
)

// MaxSize bounds a single allocation (64 GiB). Larger requests fail with
// ErrTooLarge before reaching the runtime or the kernel.
const MaxSize uint64 = 1 << 36

func checkSize(size int) error {
	switch {
	case size <= 0:
		return ErrInvalidSize
	case uint64(size) > MaxSize:
		return fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}
	return nil
}

// Buffer is one contiguous allocation. Bytes is valid until Release.
type Buffer interface {
	Bytes() []byte
	Release() error
}

// Allocator hands out zeroed buffers of exactly the requested size.
type Allocator interface {
	Alloc(size int) (Buffer, error)
}

// Backing selects where buffers come from.
type Backing int

const (
	BackingHeap Backing = iota
	BackingMmap
)

func (b Backing) String() string {
	switch b {
	case BackingHeap:
		return "heap"
	case BackingMmap:
		return "mmap"
	default:
		return fmt.Sprintf("backing(%d)", int(b))
	}
}

// ParseBacking converts a config string ("heap", "mmap") into a Backing.
func ParseBacking(s string) (Backing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "heap":
		return BackingHeap, nil
	case "mmap":
		return BackingMmap, nil
	default:
		return 0, fmt.Errorf("pagebuf: unknown backing %q", s)
	}
}

// New returns the allocator for b.
func New(b Backing) Allocator {
	if b == BackingMmap {
		return Mmap{}
	}
	return Heap{}
}

// Heap allocates buffers with make.
type Heap struct{}

// Alloc returns a zeroed heap buffer of size bytes.
func (Heap) Alloc(size int) (Buffer, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	return &heapBuffer{data: make([]byte, size)}, nil
}

type heapBuffer struct {
	data []byte
}

func (b *heapBuffer) Bytes() []byte { return b.data }

func (b *heapBuffer) Release() error {
	if b.data == nil {
		return ErrReleased
	}
	b.data = nil
	return nil
}
