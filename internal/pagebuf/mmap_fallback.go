//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package pagebuf

// Mmap falls back to heap allocation when anonymous mappings are unavailable.
type Mmap struct{}

// Alloc returns a zeroed heap buffer of size bytes.
func (Mmap) Alloc(size int) (Buffer, error) {
	return Heap{}.Alloc(size)
}
