// Package editor round-trips a list of lines through an external text editor.
package editor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const DefaultCommand = "vi"

// Editor runs Command (which may include arguments) on a temp file.
type Editor struct {
	Command string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// Resolve picks the editor command: the configured one, then $VISUAL, then
// $EDITOR, then vi.
func Resolve(configured string) string {
	for _, c := range []string{configured, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return DefaultCommand
}

// New returns an editor attached to the process terminal.
func New(command string) *Editor {
	return &Editor{
		Command: command,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Edit writes lines to a temp file, one per line, and opens the editor on
// it. When the editor exits 0 the file is read back and split into lines;
// ok is false when the editor exited non-zero, in which case the caller
// must leave its data untouched.
func (e *Editor) Edit(ctx context.Context, lines []string) (edited []string, ok bool, err error) {
	tmp, err := os.CreateTemp("", "roficlip-*.txt")
	if err != nil {
		return nil, false, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		w.WriteString(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return nil, false, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, false, fmt.Errorf("failed to close temp file: %w", err)
	}

	argv := strings.Fields(e.Command)
	if len(argv) == 0 {
		return nil, false, errors.New("no editor configured")
	}
	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], tmp.Name())...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to run editor %q: %w", argv[0], err)
	}

	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return nil, false, fmt.Errorf("failed to read edited file: %w", err)
	}
	return splitLines(string(data)), true, nil
}

// splitLines splits on \n, \r\n and \r and drops the final terminator.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}
