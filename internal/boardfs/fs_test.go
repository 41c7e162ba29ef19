package boardfs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/lifeboard/board"
	"github.com/joshuapare/lifeboard/pkg/types"
)

func newTestFS(t *testing.T) (*FS, *board.Registry) {
	t.Helper()
	reg, err := board.NewRegistry(board.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Teardown() })
	return New(reg, nil), reg
}

func readString(t *testing.T, fs *FS, p string) string {
	t.Helper()
	data, err := fs.Read(p)
	require.NoError(t, err, p)
	return string(data)
}

func write(t *testing.T, fs *FS, p, data string) {
	t.Helper()
	n, err := fs.Write(p, []byte(data))
	require.NoError(t, err, p)
	require.Equal(t, len(data), n)
}

func TestRootNodes(t *testing.T) {
	fs, _ := newTestFS(t)

	assert.Equal(t, "lifeboard 0.1\n", readString(t, fs, "version"))
	assert.Equal(t, "lifeboard 0.1\n", readString(t, fs, "/version"), "leading slash is optional")
	assert.Equal(t, "boards: 0\nrunning: 0\nticks: 0\n", readString(t, fs, "status"))
	assert.Empty(t, readString(t, fs, "list"))

	entries, err := fs.List("/")
	require.NoError(t, err)
	assert.Equal(t, []string{"create", "delete", "list", "status", "version"}, entries)

	entries, err = fs.List("boards")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateBoardThroughFS(t *testing.T) {
	fs, reg := newTestFS(t)

	write(t, fs, "create", "glider\n")
	require.Equal(t, 1, reg.Len())

	entries, err := fs.List("")
	require.NoError(t, err)
	assert.Contains(t, entries, "boards/")

	entries, err = fs.List("boards")
	require.NoError(t, err)
	assert.Equal(t, []string{"glider/"}, entries)

	entries, err = fs.List("boards/glider")
	require.NoError(t, err)
	assert.Equal(t, []string{"cells.csv", "enabled", "field", "info", "mode"}, entries)

	assert.Equal(t, "0 glider step disabled\n", readString(t, fs, "list"))
	assert.Equal(t, "boards: 1\nrunning: 0\nticks: 0\n", readString(t, fs, "status"))
}

func TestFieldWriteAndRender(t *testing.T) {
	fs, _ := newTestFS(t)
	write(t, fs, "create", "g")

	write(t, fs, "boards/g/field", "set 1 0\n  set 2 1\nbogus line\nset 0 2\nset 1 2\nset 2 2\ntoggle 3 3\ntoggle 3 3\n")
	assert.Equal(t, ".*..\n..*.\n***.\n....\n", readString(t, fs, "boards/g/field"))

	assert.Equal(t, "x,y\n1,0\n2,1\n0,2\n1,2\n2,2\n", readString(t, fs, "boards/g/cells.csv"))

	info := readString(t, fs, "boards/g/info")
	assert.Contains(t, info, "index: 0\n")
	assert.Contains(t, info, "name: g\n")
	assert.Contains(t, info, "side: 176\n")
	assert.Contains(t, info, "used: 4\n")
	assert.Contains(t, info, "pages: 1 x 4.0 KiB\n")
	assert.Contains(t, info, "allocated: 4.0 KiB\n")
	assert.Contains(t, info, "live: 5\n")
}

func TestEmptyFieldRendersNothing(t *testing.T) {
	fs, _ := newTestFS(t)
	write(t, fs, "create", "empty")
	assert.Empty(t, readString(t, fs, "boards/empty/field"))
	assert.Contains(t, readString(t, fs, "boards/empty/info"), "allocated: 0 B\n")
}

func TestModeAndEnabled(t *testing.T) {
	fs, reg := newTestFS(t)
	write(t, fs, "create", "m")

	assert.Equal(t, "step\n", readString(t, fs, "boards/m/mode"))
	assert.Equal(t, "0\n", readString(t, fs, "boards/m/enabled"))

	write(t, fs, "boards/m/mode", "run\n")
	write(t, fs, "boards/m/enabled", "1\n")
	assert.Equal(t, "run\n", readString(t, fs, "boards/m/mode"))
	assert.Equal(t, "1\n", readString(t, fs, "boards/m/enabled"))
	assert.Equal(t, 1, reg.Status().BoardsRunning)

	_, err := fs.Write("boards/m/mode", []byte("sprint"))
	require.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = fs.Write("boards/m/enabled", []byte("maybe"))
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestDeleteBoardThroughFS(t *testing.T) {
	fs, reg := newTestFS(t)
	write(t, fs, "create", "a")
	write(t, fs, "create", "b")
	write(t, fs, "create", "c")

	write(t, fs, "delete", "1\n")
	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, "0 a step disabled\n2 c step disabled\n", readString(t, fs, "list"))

	_, err := fs.Read("boards/b/field")
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = fs.Write("delete", []byte("1"))
	require.ErrorIs(t, err, types.ErrNotFound)
	_, err = fs.Write("delete", []byte("one"))
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	// The name is free again, under a new index.
	write(t, fs, "create", "b")
	assert.Contains(t, readString(t, fs, "boards/b/info"), "index: 3\n")
}

func TestRegistrationFailureRollsBackCreation(t *testing.T) {
	fs, reg := newTestFS(t)
	write(t, fs, "create", "dup")

	for _, name := range []string{"dup", "a/b", ".."} {
		_, err := fs.Write("create", []byte(name))
		require.Error(t, err, name)
	}
	_, err := fs.Write("create", []byte("dup"))
	require.ErrorIs(t, err, types.ErrExists)
	_, err = fs.Write("create", []byte("   "))
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	assert.Equal(t, 1, reg.Len(), "failed registrations must not leave boards behind")

	// Boards created directly on the registry go through the same check.
	_, err = reg.Create("x/y")
	require.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Equal(t, 1, reg.Len())
}

func TestPermissionsAndMissingPaths(t *testing.T) {
	fs, _ := newTestFS(t)
	write(t, fs, "create", "p")

	_, err := fs.Write("version", []byte("9.9"))
	require.ErrorIs(t, err, types.ErrPermission)
	_, err = fs.Write("boards/p/info", []byte("x"))
	require.ErrorIs(t, err, types.ErrPermission)
	_, err = fs.Read("create")
	require.ErrorIs(t, err, types.ErrPermission)

	_, err = fs.Read("nope")
	require.ErrorIs(t, err, types.ErrNotFound)
	_, err = fs.List("boards/nope")
	require.ErrorIs(t, err, types.ErrNotFound)
	_, err = fs.List("version")
	require.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestFieldWriteStopsOnGrowthRefusal(t *testing.T) {
	opts := board.DefaultOptions()
	opts.Field.MaxPagesPower = 0
	reg, err := board.NewRegistry(opts)
	require.NoError(t, err)
	fs := New(reg, nil)

	write(t, fs, "create", "tiny")
	_, err = fs.Write("boards/tiny/field", []byte("set 1 1\nset 500 500\nset 2 2\n"))
	require.ErrorIs(t, err, types.ErrResourceExhausted)
	assert.True(t, strings.Contains(err.Error(), "set 500 500"), err.Error())

	assert.Equal(t, "x,y\n1,1\n", readString(t, fs, "boards/tiny/cells.csv"))
}

func TestFieldReadRefusesLargeExtent(t *testing.T) {
	fs, _ := newTestFS(t)
	write(t, fs, "create", "big")
	write(t, fs, "boards/big/field", "set 4000 4000\n")

	data, err := fs.Read("boards/big/field")
	require.ErrorIs(t, err, types.ErrResourceExhausted)
	assert.Empty(t, data)

	assert.Equal(t, "x,y\n4000,4000\n", readString(t, fs, "boards/big/cells.csv"))
	assert.Contains(t, readString(t, fs, "boards/big/info"), "used: 4001\n")
}
