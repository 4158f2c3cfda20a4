// Package notify shows desktop notifications. Delivery is best effort:
// callers log failures and carry on.
package notify

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"golang.org/x/term"
)

// Title is used for every notification the program sends.
const Title = "Roficlip"

type Notifier interface {
	Notify(title, body string, timeout time.Duration) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(string, string, time.Duration) error { return nil }

// Command runs an external notification tool once per notification.
type Command struct {
	Name string
	Argv func(title, body string, timeout time.Duration) []string
}

func (c *Command) Notify(title, body string, timeout time.Duration) error {
	argv := c.Argv(title, body, timeout)
	cmd := exec.Command(argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.Name, err, out)
	}
	return nil
}

// NotifySend uses libnotify's notify-send.
func NotifySend() *Command {
	return &Command{
		Name: "notify-send",
		Argv: func(title, body string, timeout time.Duration) []string {
			return []string{"notify-send", "--app-name=roficlip",
				"--expire-time=" + strconv.FormatInt(timeout.Milliseconds(), 10), title, body}
		},
	}
}

// AppleScript uses osascript's display notification.
func AppleScript() *Command {
	return &Command{
		Name: "osascript",
		Argv: func(title, body string, _ time.Duration) []string {
			script := fmt.Sprintf("display notification %s with title %s",
				strconv.Quote(body), strconv.Quote(title))
			return []string{"osascript", "-e", script}
		},
	}
}

// Console prints notifications to a terminal.
type Console struct {
	W io.Writer
}

func (c *Console) Notify(title, body string, _ time.Duration) error {
	_, err := fmt.Fprintf(c.W, "%s: %s\n", title, body)
	return err
}

var lookPath = exec.LookPath

// New picks a notifier at startup. Disabled notifications, or a system
// with no notification tool and no terminal, yield Nop.
func New(enabled bool, stderr *os.File) Notifier {
	if !enabled {
		return Nop{}
	}
	if _, err := lookPath("notify-send"); err == nil {
		return NotifySend()
	}
	if _, err := lookPath("osascript"); err == nil {
		return AppleScript()
	}
	if stderr != nil && term.IsTerminal(int(stderr.Fd())) {
		return &Console{W: stderr}
	}
	return Nop{}
}
