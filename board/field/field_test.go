package field

import (
	"bytes"
	"errors"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/lifeboard/internal/pagebuf"
	"github.com/joshuapare/lifeboard/pkg/types"
)

// failingAllocator succeeds for the first ok allocations and fails afterwards.
type failingAllocator struct {
	ok    int
	calls int
}

var errNoMemory = errors.New("test: out of memory")

func (a *failingAllocator) Alloc(size int) (pagebuf.Buffer, error) {
	a.calls++
	if a.calls > a.ok {
		return nil, errNoMemory
	}
	return pagebuf.Heap{}.Alloc(size)
}

// leakyBuffer is a heap buffer whose Release always fails.
type leakyBuffer struct{ pagebuf.Buffer }

var errUnmap = errors.New("test: munmap failed")

func (leakyBuffer) Release() error { return errUnmap }

type leakyAllocator struct{}

func (leakyAllocator) Alloc(size int) (pagebuf.Buffer, error) {
	b, err := pagebuf.Heap{}.Alloc(size)
	if err != nil {
		return nil, err
	}
	return leakyBuffer{b}, nil
}

func newTestField(t testing.TB) *Field {
	t.Helper()
	f, err := New(DefaultOptions())
	require.NoError(t, err)
	return f
}

func TestNew_RejectsBadOptions(t *testing.T) {
	_, err := New(Options{PageSize: 3000, MaxPagesPower: 4})
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = New(Options{PageSize: 4096, MaxPagesPower: -1})
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	f, err := New(Options{PageSize: 4096, MaxPagesPower: 4})
	require.NoError(t, err)
	require.Zero(t, f.Pages())
	require.Zero(t, f.Side())
}

func TestGet_EmptyFieldIsOutOfRange(t *testing.T) {
	f := newTestField(t)
	for _, c := range [][2]uint32{{0, 0}, {1, 0}, {0, 1}, {1000, 1000}, {^uint32(0), 0}} {
		_, err := f.Get(c[0], c[1])
		require.ErrorIs(t, err, types.ErrOutOfRange, "cell %v", c)
	}
	require.Zero(t, f.Len(), "reads must not allocate")
}

func TestScenario_SetOrigin(t *testing.T) {
	f := newTestField(t)
	require.NoError(t, f.Set(0, 0))

	on, err := f.Get(0, 0)
	require.NoError(t, err)
	require.True(t, on)

	require.Equal(t, uint64(176), f.Side())
	require.Equal(t, 1, f.Pages())
	require.Equal(t, 4096, f.Len())

	off, err := f.Get(1, 0)
	require.NoError(t, err)
	require.False(t, off)

	_, err = f.Get(176, 0)
	require.ErrorIs(t, err, types.ErrOutOfRange)
}

func TestScenario_SetFarCorner(t *testing.T) {
	f := newTestField(t)
	require.NoError(t, f.Set(1000, 1000))
	require.GreaterOrEqual(t, f.Side(), uint64(1001))

	on, err := f.Get(1000, 1000)
	require.NoError(t, err)
	require.True(t, on)

	off, err := f.Get(999, 999)
	require.NoError(t, err)
	require.False(t, off)

	require.Equal(t, 32, f.Pages())
	require.Equal(t, uint64(1001), f.Used())
}

func TestMutations(t *testing.T) {
	f := newTestField(t)

	require.NoError(t, f.Set(5, 7))
	require.NoError(t, f.Toggle(6, 7))
	require.NoError(t, f.Toggle(5, 7))
	require.NoError(t, f.Clear(6, 7))
	require.NoError(t, f.Toggle(9, 9))

	got := func(x, y uint32) bool {
		v, err := f.Get(x, y)
		require.NoError(t, err)
		return v
	}
	require.False(t, got(5, 7))
	require.False(t, got(6, 7))
	require.True(t, got(9, 9))
	require.Equal(t, 1, f.Count())
}

func TestUsedExtent_TracksSetCellsOnly(t *testing.T) {
	f := newTestField(t)

	require.NoError(t, f.Clear(100, 3))
	require.Zero(t, f.Used(), "clear writes no set cell")
	require.Equal(t, uint64(176), f.Side(), "clear still grows")

	require.NoError(t, f.Set(3, 20))
	require.Equal(t, uint64(21), f.Used())

	require.NoError(t, f.Toggle(40, 2))
	require.Equal(t, uint64(41), f.Used())

	require.NoError(t, f.Toggle(40, 2))
	require.Equal(t, uint64(41), f.Used(), "high-water mark never retreats")
	require.LessOrEqual(t, f.Used(), f.Side())
}

func TestGrowth_PreservesBitsAndZeroesNewArea(t *testing.T) {
	f := newTestField(t)
	rng := rand.New(rand.NewSource(42))

	want := make(map[[2]uint32]bool)
	for i := 0; i < 2000; i++ {
		x, y := uint32(rng.Intn(176)), uint32(rng.Intn(176))
		require.NoError(t, f.Set(x, y))
		want[[2]uint32{x, y}] = true
	}
	oldSide := f.Side()
	require.Equal(t, uint64(176), oldSide)

	require.NoError(t, f.Set(700, 3))
	require.Greater(t, f.Side(), oldSide)
	want[[2]uint32{700, 3}] = true

	for y := uint32(0); uint64(y) < f.Side(); y++ {
		for x := uint32(0); uint64(x) < f.Side(); x++ {
			v, err := f.Get(x, y)
			require.NoError(t, err)
			if v != want[[2]uint32{x, y}] {
				t.Fatalf("cell (%d,%d)=%v want %v", x, y, v, want[[2]uint32{x, y}])
			}
		}
	}
	require.Equal(t, len(want), f.Count())
}

func TestGrowth_Monotonic(t *testing.T) {
	f := newTestField(t)
	prev := f.Side()
	coords := []uint32{3, 200, 50, 900, 10, 2047, 1}
	for _, c := range coords {
		require.NoError(t, f.Toggle(c, c/2))
		require.GreaterOrEqual(t, f.Side(), prev)
		prev = f.Side()
	}
}

func TestGrowth_BudgetExceededLeavesFieldUnchanged(t *testing.T) {
	f, err := New(Options{PageSize: 4096, MaxPagesPower: 2})
	require.NoError(t, err)

	require.NoError(t, f.Set(10, 10))
	side, used, pages, count := f.Side(), f.Used(), f.Pages(), f.Count()

	err = f.Set(1000, 1000)
	require.ErrorIs(t, err, types.ErrResourceExhausted)

	require.Equal(t, side, f.Side())
	require.Equal(t, used, f.Used())
	require.Equal(t, pages, f.Pages())
	require.Equal(t, count, f.Count())

	on, err := f.Get(10, 10)
	require.NoError(t, err)
	require.True(t, on)

	_, err = f.Get(1000, 1000)
	require.ErrorIs(t, err, types.ErrOutOfRange)
}

func TestGrowth_AllocatorFailureLeavesFieldUnchanged(t *testing.T) {
	a := &failingAllocator{ok: 1}
	f, err := New(Options{PageSize: 4096, MaxPagesPower: 10, Allocator: a})
	require.NoError(t, err)

	require.NoError(t, f.Set(1, 1))
	before := f.Side()

	err = f.Toggle(500, 500)
	require.ErrorIs(t, err, types.ErrResourceExhausted)
	require.ErrorIs(t, err, errNoMemory)
	require.Equal(t, before, f.Side())
	require.Equal(t, 1, f.Pages())

	on, err := f.Get(1, 1)
	require.NoError(t, err)
	require.True(t, on)
}

func TestGrowth_AllocationCeilingLeavesFieldUnchanged(t *testing.T) {
	for _, backing := range []pagebuf.Backing{pagebuf.BackingHeap, pagebuf.BackingMmap} {
		t.Run(backing.String(), func(t *testing.T) {
			f, err := New(Options{
				PageSize:      4096,
				MaxPagesPower: types.MaxPagesPowerLimit,
				Allocator:     pagebuf.New(backing),
			})
			require.NoError(t, err)

			// Side 2^26 needs 2^37 pages, far above the allocation ceiling.
			err = f.Set(67108863, 0)
			require.ErrorIs(t, err, types.ErrResourceExhausted)
			require.Zero(t, f.Side())
			require.Zero(t, f.Pages())
			require.Zero(t, f.Used())

			require.NoError(t, f.Set(3, 3))
			err = f.Set(67108863, 0)
			require.ErrorIs(t, err, types.ErrResourceExhausted)
			require.Equal(t, uint64(176), f.Side())
			require.Equal(t, 1, f.Count())
			require.NoError(t, f.Release())
		})
	}
}

func TestGrowth_ReleaseFailureIsLoggedNotReturned(t *testing.T) {
	var logs bytes.Buffer
	f, err := New(Options{
		PageSize:      4096,
		MaxPagesPower: 10,
		Allocator:     leakyAllocator{},
		Logger:        slog.New(slog.NewTextHandler(&logs, nil)),
	})
	require.NoError(t, err)

	require.NoError(t, f.Set(1, 1))
	require.NoError(t, f.Set(300, 300), "growth succeeds even if the old buffer leaks")
	require.Equal(t, uint64(360), f.Side())

	on, err := f.Get(1, 1)
	require.NoError(t, err)
	require.True(t, on)

	require.Contains(t, logs.String(), "release of old buffer failed")
	require.Contains(t, logs.String(), errUnmap.Error())
}

func TestEach_RowMajorOrder(t *testing.T) {
	f := newTestField(t)
	cells := [][2]uint32{{3, 0}, {0, 1}, {9, 1}, {175, 175}, {8, 2}}
	for _, c := range cells {
		require.NoError(t, f.Set(c[0], c[1]))
	}

	var got [][2]uint32
	f.Each(func(x, y uint32) bool {
		got = append(got, [2]uint32{x, y})
		return true
	})
	require.Equal(t, [][2]uint32{{3, 0}, {0, 1}, {9, 1}, {8, 2}, {175, 175}}, got)

	n := 0
	f.Each(func(x, y uint32) bool {
		n++
		return n < 2
	})
	require.Equal(t, 2, n, "Each must stop when fn returns false")
}

func TestRelease(t *testing.T) {
	f := newTestField(t)
	require.NoError(t, f.Release(), "releasing an empty field is a no-op")

	require.NoError(t, f.Set(4, 4))
	require.NoError(t, f.Release())
	require.Zero(t, f.Pages())
	require.Zero(t, f.Side())
	require.Zero(t, f.Used())

	_, err := f.Get(4, 4)
	require.ErrorIs(t, err, types.ErrOutOfRange)
}

func TestMmapBackedField(t *testing.T) {
	opts := DefaultOptions()
	opts.Allocator = pagebuf.New(pagebuf.BackingMmap)
	f, err := New(opts)
	require.NoError(t, err)
	defer f.Release()

	require.NoError(t, f.Set(100, 100))
	require.NoError(t, f.Set(1500, 2))

	on, err := f.Get(100, 100)
	require.NoError(t, err)
	require.True(t, on)
	on, err = f.Get(1500, 2)
	require.NoError(t, err)
	require.True(t, on)
}

func TestTinyPages(t *testing.T) {
	// A single one-byte page rounds down to side 0, so growth must keep
	// doubling until the coordinate fits.
	f, err := New(Options{PageSize: 1, MaxPagesPower: 20})
	require.NoError(t, err)

	require.NoError(t, f.Set(0, 0))
	require.Equal(t, uint64(8), f.Side())
	require.Equal(t, 8, f.Pages())

	on, err := f.Get(0, 0)
	require.NoError(t, err)
	require.True(t, on)
}
