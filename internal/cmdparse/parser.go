// Package cmdparse parses the line-oriented cell mutation commands written
// to a board's field node:
//
//	set 10 4
//	clear 3 3
//	toggle 0 7
//
// One command per line, surrounding whitespace ignored, coordinates decimal
// unsigned 32-bit integers. Lines that are not a well-formed command are
// skipped and counted; blank lines and lines starting with '#' are skipped
// silently. Input may be UTF-8 or, with a byte-order mark, UTF-16.
package cmdparse

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/joshuapare/lifeboard/pkg/types"
)

// Op is a cell mutation.
type Op int

const (
	OpSet Op = iota
	OpClear
	OpToggle
)

func (o Op) String() string {
	switch o {
	case OpSet:
		return VerbSet
	case OpClear:
		return VerbClear
	case OpToggle:
		return VerbToggle
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Command is one parsed mutation.
type Command struct {
	Op Op
	X  uint32
	Y  uint32
}

// String renders c in wire form, without the trailing newline.
func (c Command) String() string {
	return fmt.Sprintf("%s %d %d", c.Op, c.X, c.Y)
}

// Result is the outcome of parsing a whole buffer.
type Result struct {
	Commands []Command
	Skipped  int // unrecognised, non-blank, non-comment lines
}

// Parse decodes data and returns every command in order.
func Parse(data []byte) (Result, error) {
	var res Result
	skipped, err := Scan(bytes.NewReader(data), func(c Command) error {
		res.Commands = append(res.Commands, c)
		return nil
	})
	res.Skipped = skipped
	return res, err
}

// Scan streams commands from r to fn, stopping at the first error fn
// returns. It reports how many lines were skipped. A line longer than
// maxLineLen cannot be a command; it is discarded up to its newline and
// counted as skipped.
func Scan(r io.Reader, fn func(Command) error) (int, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	br := bufio.NewReaderSize(transform.NewReader(r, dec), maxLineLen)

	skipped := 0
	for {
		line, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			skipped++
			if err = discardLine(br); err == io.EOF {
				return skipped, nil
			}
			if err != nil {
				return skipped, readErr(err)
			}
			continue
		}
		if err != nil && err != io.EOF {
			return skipped, readErr(err)
		}

		text := strings.TrimSpace(string(line))
		if text != "" && !strings.HasPrefix(text, CommentPrefix) {
			c, ok := ParseLine(text)
			if !ok {
				skipped++
			} else if ferr := fn(c); ferr != nil {
				return skipped, ferr
			}
		}
		if err == io.EOF {
			return skipped, nil
		}
	}
}

// discardLine consumes input up to and including the next newline.
func discardLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

func readErr(err error) error {
	return types.Wrap(types.ErrKindInvalidArgument, "cmdparse: read commands", err)
}

// ParseLine parses a single command line. ok is false for anything that is
// not exactly "<verb> <x> <y>".
func ParseLine(line string) (Command, bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Command{}, false
	}
	var op Op
	switch fields[0] {
	case VerbSet:
		op = OpSet
	case VerbClear:
		op = OpClear
	case VerbToggle:
		op = OpToggle
	default:
		return Command{}, false
	}
	x, err := strconv.ParseUint(fields[1], 10, coordBits)
	if err != nil {
		return Command{}, false
	}
	y, err := strconv.ParseUint(fields[2], 10, coordBits)
	if err != nil {
		return Command{}, false
	}
	return Command{Op: op, X: uint32(x), Y: uint32(y)}, true
}
