package boardfs

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gocarina/gocsv"

	"github.com/joshuapare/lifeboard/board"
	"github.com/joshuapare/lifeboard/internal/cmdparse"
	"github.com/joshuapare/lifeboard/pkg/types"
)

func (fs *FS) readVersion(w *bytes.Buffer) error {
	fmt.Fprintf(w, "lifeboard %d.%d\n", VersionMajor, VersionMinor)
	return nil
}

func (fs *FS) readStatus(w *bytes.Buffer) error {
	st := fs.reg.Status()
	fmt.Fprintf(w, "boards: %d\n", st.BoardsCount)
	fmt.Fprintf(w, "running: %d\n", st.BoardsRunning)
	fmt.Fprintf(w, "ticks: %d\n", st.Ticks)
	return nil
}

func (fs *FS) readList(w *bytes.Buffer) error {
	for _, info := range fs.reg.List() {
		fmt.Fprintf(w, "%d %s %s %s\n", info.Index, info.Name, info.Mode, info.Status)
	}
	return nil
}

func (fs *FS) writeCreate(data []byte) error {
	name := strings.TrimSpace(string(data))
	if name == "" {
		return types.New(types.ErrKindInvalidArgument, "empty board name")
	}
	_, err := fs.reg.Create(name)
	return err
}

func (fs *FS) writeDelete(data []byte) error {
	id, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return types.Wrap(types.ErrKindInvalidArgument, "board index", err)
	}
	return fs.reg.DeleteByID(board.ID(id))
}

func (fs *FS) readField(w *bytes.Buffer, id board.ID) error {
	return fs.reg.Rows(id, func(_ uint32, line []byte) error {
		w.Write(line)
		w.WriteByte('\n')
		return nil
	})
}

// writeField applies every recognised command in order. A command that
// fails (growth refused, board gone) stops the write; earlier commands stay
// applied.
func (fs *FS) writeField(id board.ID, data []byte) error {
	applied := 0
	skipped, err := cmdparse.Scan(bytes.NewReader(data), func(c cmdparse.Command) error {
		var err error
		switch c.Op {
		case cmdparse.OpSet:
			err = fs.reg.SetCell(id, c.X, c.Y)
		case cmdparse.OpClear:
			err = fs.reg.ClearCell(id, c.X, c.Y)
		case cmdparse.OpToggle:
			err = fs.reg.ToggleCell(id, c.X, c.Y)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", c, err)
		}
		applied++
		return nil
	})
	if skipped > 0 {
		fs.log.Debug("boardfs: skipped unrecognised lines", "index", id, "skipped", skipped)
	}
	fs.log.Debug("boardfs: applied commands", "index", id, "applied", applied)
	return err
}

func (fs *FS) readInfo(w *bytes.Buffer, id board.ID) error {
	info, err := fs.reg.BoardInfo(id)
	if err != nil {
		return err
	}
	ext, err := fs.reg.Extent(id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "index: %d\n", info.Index)
	fmt.Fprintf(w, "name: %s\n", info.Name)
	fmt.Fprintf(w, "mode: %s\n", info.Mode)
	fmt.Fprintf(w, "status: %s\n", info.Status)
	fmt.Fprintf(w, "side: %d\n", ext.Side)
	fmt.Fprintf(w, "used: %d\n", ext.Used)
	fmt.Fprintf(w, "pages: %d x %s\n", ext.Pages, humanize.IBytes(uint64(ext.PageSize)))
	fmt.Fprintf(w, "allocated: %s\n", humanize.IBytes(uint64(ext.Bytes)))
	fmt.Fprintf(w, "live: %s\n", humanize.Comma(int64(ext.Live)))
	return nil
}

func (fs *FS) readMode(w *bytes.Buffer, id board.ID) error {
	info, err := fs.reg.BoardInfo(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, info.Mode)
	return nil
}

func (fs *FS) writeMode(id board.ID, data []byte) error {
	m, err := board.ParseMode(string(data))
	if err != nil {
		return err
	}
	return fs.reg.SetMode(id, m)
}

func (fs *FS) readEnabled(w *bytes.Buffer, id board.ID) error {
	info, err := fs.reg.BoardInfo(id)
	if err != nil {
		return err
	}
	if info.Status == board.StatusEnabled {
		w.WriteString("1\n")
	} else {
		w.WriteString("0\n")
	}
	return nil
}

func (fs *FS) writeEnabled(id board.ID, data []byte) error {
	on, err := strconv.ParseBool(strings.TrimSpace(string(data)))
	if err != nil {
		return types.Wrap(types.ErrKindInvalidArgument, "enabled flag", err)
	}
	s := board.StatusDisabled
	if on {
		s = board.StatusEnabled
	}
	return fs.reg.SetStatus(id, s)
}

func (fs *FS) readCells(w *bytes.Buffer, id board.ID) error {
	cells, err := fs.reg.Cells(id)
	if err != nil {
		return err
	}
	return gocsv.Marshal(cells, w)
}
