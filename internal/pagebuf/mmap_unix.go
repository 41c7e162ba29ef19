//go:build linux || darwin || freebsd || netbsd || openbsd

package pagebuf

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Mmap allocates buffers as anonymous private mappings. The kernel hands out
// zero-filled pages, so no explicit clearing is needed.
type Mmap struct{}

// Alloc maps size bytes of anonymous memory.
func (Mmap) Alloc(size int) (Buffer, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("pagebuf: mmap %d bytes: %w", size, err)
	}
	return &mmapBuffer{data: data}, nil
}

type mmapBuffer struct {
	data []byte
}

func (b *mmapBuffer) Bytes() []byte { return b.data }

func (b *mmapBuffer) Release() error {
	if b.data == nil {
		return ErrReleased
	}
	err := unix.Munmap(b.data)
	b.data = nil
	if errors.Is(err, unix.EINVAL) {
		// Treat double-unmap as no-op for callers.
		return nil
	}
	return err
}
