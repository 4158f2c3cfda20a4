package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

// Command shells out to a clipboard utility for each read and write.
type Command struct {
	Name      string
	ReadArgs  []string // argv printing the clipboard to stdout
	WriteArgs []string // argv reading the new clipboard from stdin
}

var (
	wayland = Command{
		Name:      "wl-clipboard",
		ReadArgs:  []string{"wl-paste", "--no-newline", "--type", "text"},
		WriteArgs: []string{"wl-copy", "--type", "text/plain"},
	}
	xsel = Command{
		Name:      "xsel",
		ReadArgs:  []string{"xsel", "--clipboard", "--output"},
		WriteArgs: []string{"xsel", "--clipboard", "--input"},
	}
	xclip = Command{
		Name:      "xclip",
		ReadArgs:  []string{"xclip", "-selection", "clipboard", "-out"},
		WriteArgs: []string{"xclip", "-selection", "clipboard", "-in"},
	}
	pbcopy = Command{
		Name:      "pbcopy",
		ReadArgs:  []string{"pbpaste"},
		WriteArgs: []string{"pbcopy"},
	}
)

var lookPath = exec.LookPath

var (
	// readTimeout bounds one read so a hung helper cannot stall the caller
	readTimeout = 2 * time.Second
	// writeWaitDelay is how long WriteText waits for stderr to close after
	// the tool exits. xclip and wl-copy fork a child that keeps serving the
	// selection with the inherited descriptors open.
	writeWaitDelay = 250 * time.Millisecond
)

// Detect returns the first command backend whose tools are installed.
func Detect(preferWayland bool) (*Command, error) {
	candidates := []Command{xsel, xclip, pbcopy}
	if preferWayland {
		candidates = append([]Command{wayland}, candidates...)
	}
	var tried []string
	for _, c := range candidates {
		if c.available() {
			c := c
			return &c, nil
		}
		tried = append(tried, c.Name)
	}
	return nil, fmt.Errorf("%w (tried %s)", ErrUnavailable, strings.Join(tried, ", "))
}

func (c *Command) available() bool {
	for _, argv := range [][]string{c.ReadArgs, c.WriteArgs} {
		if len(argv) == 0 {
			return false
		}
		if _, err := lookPath(argv[0]); err != nil {
			return false
		}
	}
	return true
}

// ReadText runs the read command. A non-zero exit status is how these tools
// report an empty or non-text selection, so it reads as "". A read that
// outlives readTimeout returns ErrTimeout.
func (c *Command) ReadText(ctx context.Context) (string, error) {
	readCtx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(readCtx, c.ReadArgs[0], c.ReadArgs[1:]...)
	cmd.Stdout = &stdout
	cmd.WaitDelay = readTimeout

	if err := cmd.Run(); err != nil && !errors.Is(err, exec.ErrWaitDelay) {
		if ctx.Err() == nil && errors.Is(readCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s: %w", c.ReadArgs[0], ErrTimeout)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", c.ReadArgs[0], err)
	}
	if !utf8.Valid(stdout.Bytes()) {
		return "", nil
	}
	return stdout.String(), nil
}

// WriteText pipes text into the write command. Stdout is discarded and
// stderr is only kept for the error message.
func (c *Command) WriteText(ctx context.Context, text string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.WriteArgs[0], c.WriteArgs[1:]...)
	cmd.Stdin = strings.NewReader(text)
	cmd.Stderr = &stderr
	cmd.WaitDelay = writeWaitDelay

	err := cmd.Run()
	if errors.Is(err, exec.ErrWaitDelay) {
		// exited cleanly, a forked child still holds stderr
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w: %s", c.WriteArgs[0], err, bytes.TrimSpace(stderr.Bytes()))
	}
	return nil
}
