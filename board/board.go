package board

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/joshuapare/lifeboard/board/field"
	"github.com/joshuapare/lifeboard/pkg/types"
)

// ID is a board's registry index. IDs are assigned in creation order and are
// never reused while the registry lives.
type ID uint64

// Mode is a board's operating mode. It is state only; nothing steps boards.
type Mode int

const (
	ModeStep Mode = iota
	ModeRun
)

func (m Mode) String() string {
	switch m {
	case ModeStep:
		return "step"
	case ModeRun:
		return "run"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "step" or "run", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "step":
		return ModeStep, nil
	case "run":
		return ModeRun, nil
	default:
		return 0, types.New(types.ErrKindInvalidArgument, fmt.Sprintf("board: unknown mode %q", s))
	}
}

// Status reports whether a board is enabled.
type Status int

const (
	StatusDisabled Status = iota
	StatusEnabled
)

func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusEnabled:
		return "enabled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Info is a read-only snapshot of a board's identity and state.
type Info struct {
	Index  ID     `json:"index"`
	Name   string `json:"name"`
	Mode   Mode   `json:"mode"`
	Status Status `json:"status"`
}

// Extent is a snapshot of a board's field sizing.
type Extent struct {
	Side     uint64 `json:"side"`
	Used     uint64 `json:"used"`
	Pages    int    `json:"pages"`
	PageSize int    `json:"page_size"`
	Bytes    int    `json:"bytes"`
	Live     int    `json:"live"`
}

// Cell is a live cell coordinate.
type Cell struct {
	X uint32 `csv:"x" json:"x"`
	Y uint32 `csv:"y" json:"y"`
}

// Board owns one field together with the lock guarding it.
//
// Index and Name are immutable after creation and may be read without the
// lock. Everything else goes through mu.
type Board struct {
	index       ID
	name        string
	log         *slog.Logger
	renderLimit uint64 // 0 = unlimited

	mu     sync.RWMutex
	mode   Mode
	status Status
	field  *field.Field
	dead   bool
}

// Index returns the board's registry index.
func (b *Board) Index() ID { return b.index }

// Name returns the board's name.
func (b *Board) Name() string { return b.name }

// Info returns a snapshot of the board's identity and state.
func (b *Board) Info() Info {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.infoLocked()
}

func (b *Board) infoLocked() Info {
	return Info{Index: b.index, Name: b.name, Mode: b.mode, Status: b.status}
}

// Extent returns a snapshot of the field sizing.
func (b *Board) Extent() (Extent, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.liveLocked(); err != nil {
		return Extent{}, err
	}
	f := b.field
	return Extent{
		Side:     f.Side(),
		Used:     f.Used(),
		Pages:    f.Pages(),
		PageSize: f.PageSize(),
		Bytes:    f.Len(),
		Live:     f.Count(),
	}, nil
}

// SetMode changes the operating mode.
func (b *Board) SetMode(m Mode) error {
	if m != ModeStep && m != ModeRun {
		return types.New(types.ErrKindInvalidArgument, fmt.Sprintf("board: invalid mode %d", int(m)))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.liveLocked(); err != nil {
		return err
	}
	b.mode = m
	return nil
}

// SetStatus enables or disables the board.
func (b *Board) SetStatus(s Status) error {
	if s != StatusDisabled && s != StatusEnabled {
		return types.New(types.ErrKindInvalidArgument, fmt.Sprintf("board: invalid status %d", int(s)))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.liveLocked(); err != nil {
		return err
	}
	b.status = s
	return nil
}

// Get reports whether the cell at (x, y) is live. It fails with
// ErrOutOfRange beyond the allocated side and never grows the field.
func (b *Board) Get(x, y uint32) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.liveLocked(); err != nil {
		return false, err
	}
	return b.field.Get(x, y)
}

// Set marks (x, y) live, growing the field if needed.
func (b *Board) Set(x, y uint32) error { return b.mutate(x, y, (*field.Field).Set) }

// Clear marks (x, y) dead, growing the field if needed.
func (b *Board) Clear(x, y uint32) error { return b.mutate(x, y, (*field.Field).Clear) }

// Toggle flips (x, y), growing the field if needed.
func (b *Board) Toggle(x, y uint32) error { return b.mutate(x, y, (*field.Field).Toggle) }

// Cells returns every live cell in row-major order.
func (b *Board) Cells() ([]Cell, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.liveLocked(); err != nil {
		return nil, err
	}
	cells := make([]Cell, 0, b.field.Count())
	b.field.Each(func(x, y uint32) bool {
		cells = append(cells, Cell{X: x, Y: y})
		return true
	})
	return cells, nil
}

// Rows calls fn for each row of the used extent with the row's cells
// rendered into line as '*' (live) and '.' (dead). A used extent above the
// registry's render limit fails with ErrResourceExhausted; Cells has no
// such limit.
func (b *Board) Rows(fn func(y uint32, line []byte) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.liveLocked(); err != nil {
		return err
	}
	used := b.field.Used()
	if b.renderLimit > 0 && used > b.renderLimit {
		return types.New(types.ErrKindResourceExhausted,
			fmt.Sprintf("board: used extent %d exceeds render limit %d", used, b.renderLimit))
	}
	line := make([]byte, used)
	for y := uint64(0); y < used; y++ {
		for x := uint64(0); x < used; x++ {
			on, _ := b.field.Get(uint32(x), uint32(y))
			if on {
				line[x] = '*'
			} else {
				line[x] = '.'
			}
		}
		if err := fn(uint32(y), line); err != nil {
			return err
		}
	}
	return nil
}

// mutate runs op under the write lock. Growth decisions are made by the
// field after the lock is held, so concurrent writers never apply a stale
// size.
func (b *Board) mutate(x, y uint32, op func(*field.Field, uint32, uint32) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.liveLocked(); err != nil {
		return err
	}
	before := b.field.Side()
	if err := op(b.field, x, y); err != nil {
		if errors.Is(err, types.ErrResourceExhausted) {
			b.log.Warn("field growth refused", "board", b.index, "x", x, "y", y, "err", err)
		}
		return err
	}
	if after := b.field.Side(); after != before {
		b.log.Debug("field grew", "board", b.index, "from", before, "to", after, "pages", b.field.Pages())
	}
	return nil
}

func (b *Board) liveLocked() error {
	if b.dead {
		return types.New(types.ErrKindNotFound, fmt.Sprintf("board: %d (%s) was deleted", b.index, b.name))
	}
	return nil
}
