// Package boardfs exposes a board registry as a small textual
// pseudo-filesystem, in the spirit of a /proc directory:
//
//	version                 r   engine version
//	status                  r   board count, running count, ticks
//	list                    r   one line per board: index name mode status
//	create                  w   write a name to create a board
//	delete                  w   write an index to delete a board
//	boards/<name>/field     rw  read renders the used extent, write applies
//	                            "set X Y" / "clear X Y" / "toggle X Y" lines
//	boards/<name>/info      r   identity and field sizing
//	boards/<name>/mode      rw  step | run
//	boards/<name>/enabled   rw  0 | 1
//	boards/<name>/cells.csv r   live cells as x,y rows
//
// FS is the registry's Presenter: per-board nodes appear when a board is
// created and vanish when it is deleted. A name that cannot be a directory
// (empty, containing '/', "." or "..") or is already taken makes
// registration fail, which rolls the board's creation back.
package boardfs

import (
	"bytes"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/joshuapare/lifeboard/board"
	"github.com/joshuapare/lifeboard/internal/logger"
	"github.com/joshuapare/lifeboard/pkg/types"
)

const (
	VersionMajor = 0
	VersionMinor = 1

	NodeVersion = "version"
	NodeStatus  = "status"
	NodeList    = "list"
	NodeBoards  = "boards"
	NodeCreate  = "create"
	NodeDelete  = "delete"

	NodeField   = "field"
	NodeInfo    = "info"
	NodeMode    = "mode"
	NodeEnabled = "enabled"
	NodeCells   = "cells.csv"
)

// node is one file. A nil read or write makes the node write-only or
// read-only respectively.
type node struct {
	read  func(w *bytes.Buffer) error
	write func(data []byte) error
}

// FS is the pseudo-filesystem. The zero value is not usable; call New.
//
// FS never holds its own lock while calling into the registry, so registry
// and board locks are never acquired after the FS lock.
type FS struct {
	reg *board.Registry
	log *slog.Logger

	mu    sync.RWMutex
	nodes map[string]*node
	names map[string]board.ID
}

// New builds the filesystem for reg and installs it as reg's presenter.
// Boards created before New are not visible.
func New(reg *board.Registry, log *slog.Logger) *FS {
	if log == nil {
		log = logger.Discard()
	}
	fs := &FS{
		reg:   reg,
		log:   log,
		nodes: make(map[string]*node),
		names: make(map[string]board.ID),
	}
	fs.nodes[NodeVersion] = &node{read: fs.readVersion}
	fs.nodes[NodeStatus] = &node{read: fs.readStatus}
	fs.nodes[NodeList] = &node{read: fs.readList}
	fs.nodes[NodeCreate] = &node{write: fs.writeCreate}
	fs.nodes[NodeDelete] = &node{write: fs.writeDelete}
	reg.SetPresenter(fs)
	return fs
}

// Register implements board.Presenter.
func (fs *FS) Register(b *board.Board) error {
	name := b.Name()
	if err := validName(name); err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, taken := fs.names[name]; taken {
		return types.New(types.ErrKindExists, fmt.Sprintf("boardfs: board %q already exists", name))
	}
	id := b.Index()
	dir := boardDir(name)
	fs.names[name] = id
	fs.nodes[path.Join(dir, NodeField)] = &node{
		read:  func(w *bytes.Buffer) error { return fs.readField(w, id) },
		write: func(data []byte) error { return fs.writeField(id, data) },
	}
	fs.nodes[path.Join(dir, NodeInfo)] = &node{
		read: func(w *bytes.Buffer) error { return fs.readInfo(w, id) },
	}
	fs.nodes[path.Join(dir, NodeMode)] = &node{
		read:  func(w *bytes.Buffer) error { return fs.readMode(w, id) },
		write: func(data []byte) error { return fs.writeMode(id, data) },
	}
	fs.nodes[path.Join(dir, NodeEnabled)] = &node{
		read:  func(w *bytes.Buffer) error { return fs.readEnabled(w, id) },
		write: func(data []byte) error { return fs.writeEnabled(id, data) },
	}
	fs.nodes[path.Join(dir, NodeCells)] = &node{
		read: func(w *bytes.Buffer) error { return fs.readCells(w, id) },
	}
	fs.log.Debug("boardfs: registered", "index", id, "dir", dir)
	return nil
}

// Unregister implements board.Presenter.
func (fs *FS) Unregister(b *board.Board) {
	name := b.Name()
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if id, ok := fs.names[name]; !ok || id != b.Index() {
		return
	}
	delete(fs.names, name)
	prefix := boardDir(name) + "/"
	for p := range fs.nodes {
		if strings.HasPrefix(p, prefix) {
			delete(fs.nodes, p)
		}
	}
	fs.log.Debug("boardfs: unregistered", "index", b.Index(), "dir", boardDir(name))
}

// Read returns the contents of the node at p.
func (fs *FS) Read(p string) ([]byte, error) {
	n, clean, err := fs.lookup(p)
	if err != nil {
		return nil, err
	}
	if n.read == nil {
		return nil, types.New(types.ErrKindPermission, fmt.Sprintf("boardfs: %s is write-only", clean))
	}
	var buf bytes.Buffer
	if err := n.read(&buf); err != nil {
		return nil, fmt.Errorf("boardfs: read %s: %w", clean, err)
	}
	return buf.Bytes(), nil
}

// Write hands data to the node at p and reports how much was consumed,
// which is all of it on success.
func (fs *FS) Write(p string, data []byte) (int, error) {
	n, clean, err := fs.lookup(p)
	if err != nil {
		return 0, err
	}
	if n.write == nil {
		return 0, types.New(types.ErrKindPermission, fmt.Sprintf("boardfs: %s is read-only", clean))
	}
	if err := n.write(data); err != nil {
		return 0, fmt.Errorf("boardfs: write %s: %w", clean, err)
	}
	return len(data), nil
}

// List returns the entries directly under dir, sorted, with directories
// suffixed by '/'. The root is "" or "/".
func (fs *FS) List(dir string) ([]string, error) {
	clean := cleanPath(dir)
	prefix := ""
	if clean != "" {
		prefix = clean + "/"
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if _, isFile := fs.nodes[clean]; isFile {
		return nil, types.New(types.ErrKindInvalidArgument, fmt.Sprintf("boardfs: %s is not a directory", clean))
	}

	seen := make(map[string]bool)
	for p := range fs.nodes {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if rest == "" {
			continue
		}
		entry, _, nested := strings.Cut(rest, "/")
		if nested {
			entry += "/"
		}
		seen[entry] = true
	}
	if len(seen) == 0 {
		if clean == NodeBoards {
			return []string{}, nil
		}
		return nil, types.New(types.ErrKindNotFound, fmt.Sprintf("boardfs: no such directory %q", clean))
	}
	entries := make([]string, 0, len(seen))
	for e := range seen {
		entries = append(entries, e)
	}
	slices.Sort(entries)
	return entries, nil
}

func (fs *FS) lookup(p string) (*node, string, error) {
	clean := cleanPath(p)
	fs.mu.RLock()
	n, ok := fs.nodes[clean]
	fs.mu.RUnlock()
	if !ok {
		return nil, clean, types.New(types.ErrKindNotFound, fmt.Sprintf("boardfs: no such file %q", clean))
	}
	return n, clean, nil
}

func cleanPath(p string) string {
	p = strings.Trim(path.Clean("/"+strings.TrimSpace(p)), "/")
	return p
}

func boardDir(name string) string {
	return path.Join(NodeBoards, name)
}

func validName(name string) error {
	switch {
	case name == "":
		return types.New(types.ErrKindInvalidArgument, "boardfs: empty board name")
	case name == "." || name == "..":
		return types.New(types.ErrKindInvalidArgument, fmt.Sprintf("boardfs: reserved board name %q", name))
	case strings.ContainsAny(name, "/\x00\n"):
		return types.New(types.ErrKindInvalidArgument, fmt.Sprintf("boardfs: board name %q contains a path separator or control character", name))
	case strings.TrimSpace(name) != name:
		return types.New(types.ErrKindInvalidArgument, fmt.Sprintf("boardfs: board name %q has surrounding whitespace", name))
	}
	return nil
}
