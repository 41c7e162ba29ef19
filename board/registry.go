package board

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/joshuapare/lifeboard/board/field"
	"github.com/joshuapare/lifeboard/pkg/types"
)

// Presenter attaches and detaches whatever external resource represents a
// board (for example a directory in boardfs).
//
// Both methods run while the registry's write lock and the board's write lock
// are held. Implementations may use only the board's immutable identity
// (Index, Name) and must not call back into the registry or the board.
type Presenter interface {
	Register(b *Board) error
	Unregister(b *Board)
}

type nopPresenter struct{}

func (nopPresenter) Register(*Board) error { return nil }
func (nopPresenter) Unregister(*Board)     {}

// Options configures a Registry.
type Options struct {
	// Field configures every board's field.
	Field field.Options

	// MaxBoards bounds the number of live boards. Zero means unlimited.
	MaxBoards int

	// MaxNameLen bounds board names in bytes. Zero means unlimited.
	MaxNameLen int

	// MaxRenderSide bounds the extent Rows will render. Zero means
	// unlimited.
	MaxRenderSide int

	// Presenter is notified of board creation and deletion. Nil means none.
	Presenter Presenter

	// Logger receives lifecycle events. Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns options with the default limits and no presenter.
func DefaultOptions() Options {
	l := types.DefaultLimits()
	return Options{
		Field:         field.DefaultOptions(),
		MaxBoards:     l.MaxBoards,
		MaxNameLen:    l.MaxNameLen,
		MaxRenderSide: l.MaxRenderSide,
	}
}

// Summary is the registry-wide status.
type Summary struct {
	BoardsCount   int    `json:"boards_count"`
	BoardsRunning int    `json:"boards_running"`
	Ticks         uint64 `json:"ticks"`
}

// Registry owns the ordered set of boards and their lifecycle.
//
// Lock order: the registry lock is always taken before any board lock, never
// the other way around.
type Registry struct {
	mu        sync.RWMutex
	boards    []*Board
	byIndex   map[ID]*Board
	nextIndex ID
	count     int
	ticks     uint64
	presenter Presenter

	fieldOpts     field.Options
	maxBoards     int
	maxNameLen    int
	maxRenderSide int
	log           *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(opts Options) (*Registry, error) {
	if opts.MaxBoards < 0 || opts.MaxNameLen < 0 || opts.MaxRenderSide < 0 {
		return nil, types.New(types.ErrKindInvalidArgument, "board: limits must not be negative")
	}
	// Validate field options once so Create cannot fail on them later.
	if _, err := field.New(opts.Field); err != nil {
		return nil, fmt.Errorf("board: field options: %w", err)
	}
	if opts.Presenter == nil {
		opts.Presenter = nopPresenter{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Field.Logger == nil {
		opts.Field.Logger = opts.Logger
	}
	return &Registry{
		byIndex:       make(map[ID]*Board),
		presenter:     opts.Presenter,
		fieldOpts:     opts.Field,
		maxBoards:     opts.MaxBoards,
		maxNameLen:    opts.MaxNameLen,
		maxRenderSide: opts.MaxRenderSide,
		log:           opts.Logger,
	}, nil
}

// SetPresenter replaces the presenter. Boards that already exist are not
// registered with the new presenter.
func (r *Registry) SetPresenter(p Presenter) {
	if p == nil {
		p = nopPresenter{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presenter = p
}

// Create allocates a board with an empty field in step mode, disabled, and
// registers it with the presenter. Creation is all-or-nothing: if
// registration fails the board is unlinked and released and the error is
// returned. The consumed index is not reused.
func (r *Registry) Create(name string) (*Board, error) {
	if r.maxNameLen > 0 && len(name) > r.maxNameLen {
		return nil, types.New(types.ErrKindInvalidArgument,
			fmt.Sprintf("board: name longer than %d bytes", r.maxNameLen))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxBoards > 0 && r.count >= r.maxBoards {
		return nil, types.New(types.ErrKindResourceExhausted,
			fmt.Sprintf("board: limit of %d boards reached", r.maxBoards))
	}
	f, err := field.New(r.fieldOpts)
	if err != nil {
		return nil, types.Wrap(types.ErrKindResourceExhausted, "board: allocate field", err)
	}

	b := &Board{
		index:       r.nextIndex,
		name:        name,
		log:         r.log,
		renderLimit: uint64(r.maxRenderSide),
		mode:        ModeStep,
		status:      StatusDisabled,
		field:       f,
	}
	r.nextIndex++
	r.link(b)

	b.mu.Lock()
	err = r.presenter.Register(b)
	if err != nil {
		r.unlink(b)
		b.dead = true
		_ = b.field.Release()
	}
	b.mu.Unlock()

	if err != nil {
		r.log.Warn("board registration failed", "index", b.index, "name", name, "err", err)
		return nil, fmt.Errorf("board: register %q: %w", name, err)
	}
	r.log.Info("board created", "index", b.index, "name", name)
	return b, nil
}

// Delete unlinks b, detaches it from the presenter and frees its field.
// Deleting a board that is not linked into this registry is a caller bug and
// panics with an ErrKindInvariant *types.Error.
func (r *Registry) Delete(b *Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteLocked(b)
}

// DeleteByID deletes the board with the given index.
func (r *Registry) DeleteByID(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byIndex[id]
	if !ok {
		return notFound(id)
	}
	return r.deleteLocked(b)
}

// Teardown deletes every board in creation order. It is meant for shutdown.
func (r *Registry) Teardown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, b := range slices.Clone(r.boards) {
		if err := r.deleteLocked(b); err != nil {
			errs = append(errs, err)
		}
	}
	r.log.Info("registry torn down", "errors", len(errs))
	return errors.Join(errs...)
}

func (r *Registry) deleteLocked(b *Board) error {
	if b == nil || r.byIndex[b.index] != b {
		panic(&types.Error{
			Kind: types.ErrKindInvariant,
			Msg:  "board: delete of a board not linked in this registry",
		})
	}
	r.unlink(b)

	b.mu.Lock()
	defer b.mu.Unlock()
	r.presenter.Unregister(b)
	b.dead = true
	if err := b.field.Release(); err != nil {
		return fmt.Errorf("board: release field of %d: %w", b.index, err)
	}
	r.log.Info("board deleted", "index", b.index, "name", b.name)
	return nil
}

func (r *Registry) link(b *Board) {
	r.boards = append(r.boards, b)
	r.byIndex[b.index] = b
	r.count++
}

func (r *Registry) unlink(b *Board) {
	i := slices.Index(r.boards, b)
	r.boards = slices.Delete(r.boards, i, i+1)
	delete(r.byIndex, b.index)
	r.count--
}

// Lookup returns the board with the given index.
func (r *Registry) Lookup(id ID) (*Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byIndex[id]
	if !ok {
		return nil, notFound(id)
	}
	return b, nil
}

// LookupName returns the first board, in creation order, with the given name.
func (r *Registry) LookupName(name string) (*Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.boards {
		if b.name == name {
			return b, nil
		}
	}
	return nil, types.New(types.ErrKindNotFound, fmt.Sprintf("board: no board named %q", name))
}

// Len returns the number of live boards.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// List returns a snapshot of every board in creation order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.boards))
	for _, b := range r.boards {
		out = append(out, b.Info())
	}
	return out
}

// Status returns the registry-wide counters. A board counts as running when
// it is enabled and in run mode.
func (r *Registry) Status() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Summary{BoardsCount: r.count, Ticks: r.ticks}
	for _, b := range r.boards {
		if info := b.Info(); info.Mode == ModeRun && info.Status == StatusEnabled {
			s.BoardsRunning++
		}
	}
	return s
}

// BoardInfo returns the identity and state of a board.
func (r *Registry) BoardInfo(id ID) (Info, error) {
	var info Info
	err := r.withBoard(id, func(b *Board) error {
		info = b.Info()
		return nil
	})
	return info, err
}

// GetCell reports whether (x, y) is live on board id.
func (r *Registry) GetCell(id ID, x, y uint32) (bool, error) {
	var on bool
	err := r.withBoard(id, func(b *Board) error {
		var err error
		on, err = b.Get(x, y)
		return err
	})
	return on, err
}

// SetCell marks (x, y) live on board id.
func (r *Registry) SetCell(id ID, x, y uint32) error {
	return r.withBoard(id, func(b *Board) error { return b.Set(x, y) })
}

// ClearCell marks (x, y) dead on board id.
func (r *Registry) ClearCell(id ID, x, y uint32) error {
	return r.withBoard(id, func(b *Board) error { return b.Clear(x, y) })
}

// ToggleCell flips (x, y) on board id.
func (r *Registry) ToggleCell(id ID, x, y uint32) error {
	return r.withBoard(id, func(b *Board) error { return b.Toggle(x, y) })
}

// SetMode changes the mode of board id.
func (r *Registry) SetMode(id ID, m Mode) error {
	return r.withBoard(id, func(b *Board) error { return b.SetMode(m) })
}

// SetStatus changes the status of board id.
func (r *Registry) SetStatus(id ID, s Status) error {
	return r.withBoard(id, func(b *Board) error { return b.SetStatus(s) })
}

// Cells returns the live cells of board id.
func (r *Registry) Cells(id ID) ([]Cell, error) {
	var cells []Cell
	err := r.withBoard(id, func(b *Board) error {
		var err error
		cells, err = b.Cells()
		return err
	})
	return cells, err
}

// Extent returns the field sizing of board id.
func (r *Registry) Extent(id ID) (Extent, error) {
	var ext Extent
	err := r.withBoard(id, func(b *Board) error {
		var err error
		ext, err = b.Extent()
		return err
	})
	return ext, err
}

// Rows renders the used extent of board id row by row; see Board.Rows.
func (r *Registry) Rows(id ID, fn func(y uint32, line []byte) error) error {
	return r.withBoard(id, func(b *Board) error { return b.Rows(fn) })
}

// withBoard runs fn with the registry read lock held, so the board cannot be
// deleted while fn runs. fn takes the board's own lock as needed.
func (r *Registry) withBoard(id ID, fn func(*Board) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byIndex[id]
	if !ok {
		return notFound(id)
	}
	return fn(b)
}

func notFound(id ID) error {
	return types.New(types.ErrKindNotFound, fmt.Sprintf("board: no board with index %d", id))
}
