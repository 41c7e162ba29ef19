package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/joshuapare/lifeboard/board"
	"github.com/joshuapare/lifeboard/internal/boardfs"
	"github.com/joshuapare/lifeboard/internal/config"
	"github.com/joshuapare/lifeboard/internal/logger"
)

var shellKeepGoing bool

func init() {
	cmd := newShellCmd()
	cmd.Flags().BoolVarP(&shellKeepGoing, "keep-going", "k", false, "Report failing lines and continue")
	rootCmd.AddCommand(cmd)
}

func newShellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell [script...]",
		Short: "Run filesystem commands against a fresh registry",
		Long: `The shell command creates an empty registry and executes one command per
line from the given scripts, or from stdin when none are given:

  ls [dir]              list a directory
  cat <path>            print a file
  write <path> <data>   write data to a file; data may be a Go-quoted string
                        to embed newlines

Lines starting with '#' are comments.

Example:
  write create glider
  write boards/glider/field "set 1 0\nset 2 1\nset 0 2\nset 1 2\nset 2 2"
  cat boards/glider/field
  cat status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(args)
		},
	}
	return cmd
}

func runShell(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closeLog, err := logger.Init(cfg.LoggerOptions())
	if err != nil {
		return fmt.Errorf("failed to initialise logging: %w", err)
	}
	defer closeLog()

	fs, reg, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := reg.Teardown(); err != nil {
			logger.L.Warn("teardown failed", "err", err)
		}
	}()
	printVerbose("Registry ready: page size %d, max pages 2^%d, backing %s\n",
		cfg.Field.PageSize, cfg.Field.MaxPagesPower, cfg.Field.Backing)

	if len(args) == 0 {
		return execScript(fs, os.Stdin, os.Stdout, "stdin", shellKeepGoing)
	}
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		err = execScript(fs, f, os.Stdout, path, shellKeepGoing)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// newSession builds a registry and its filesystem from cfg.
func newSession(cfg config.Config) (*boardfs.FS, *board.Registry, error) {
	opts, err := cfg.RegistryOptions(logger.L)
	if err != nil {
		return nil, nil, err
	}
	reg, err := board.NewRegistry(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create registry: %w", err)
	}
	return boardfs.New(reg, logger.L), reg, nil
}

// execScript runs every line of in against fs. Without keepGoing the first
// failing line aborts the script.
func execScript(fs *boardfs.FS, in io.Reader, out io.Writer, name string, keepGoing bool) error {
	scanner := bufio.NewScanner(in)
	var failed []error
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := execLine(fs, line, out); err != nil {
			err = fmt.Errorf("%s:%d: %w", name, lineNo, err)
			if !keepGoing {
				return err
			}
			fmt.Fprintf(out, "error: %v\n", err)
			failed = append(failed, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return errors.Join(failed...)
}

func execLine(fs *boardfs.FS, line string, out io.Writer) error {
	verb, rest := splitWord(line)
	switch verb {
	case "ls":
		entries, err := fs.List(rest)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintln(out, e)
		}
		return nil

	case "cat":
		if rest == "" {
			return errors.New("cat: missing path")
		}
		data, err := fs.Read(rest)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err

	case "write":
		path, data := splitWord(rest)
		if path == "" {
			return errors.New("write: missing path")
		}
		payload, err := decodePayload(data)
		if err != nil {
			return err
		}
		_, err = fs.Write(path, []byte(payload))
		return err

	default:
		return fmt.Errorf("unknown command %q", verb)
	}
}

// decodePayload unquotes Go-quoted data and terminates it with a newline.
func decodePayload(data string) (string, error) {
	if strings.HasPrefix(data, `"`) {
		s, err := strconv.Unquote(data)
		if err != nil {
			return "", fmt.Errorf("write: bad quoted data: %w", err)
		}
		data = s
	}
	if !strings.HasSuffix(data, "\n") {
		data += "\n"
	}
	return data, nil
}

// splitWord returns the first whitespace-delimited word of s and the
// trimmed remainder.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}
