// Package selection formats entries for an external launcher and decodes
// the launcher's answer.
//
// The launcher protocol has two phases, each a separate run of the program:
// the first prints one line per entry, the second receives the chosen line
// back and acts on it. Rofi reports the chosen line through the ROFI_INFO
// environment variable, taken from the hidden marker appended to each line;
// dmenu-style launchers echo the line itself, which carries a "<index>: "
// prefix in numbered mode.
package selection

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Marker precedes the hidden row index in rofi script mode.
const Marker = "\x00info\x1f"

// EnvInfo is the variable rofi sets to the chosen row's info value.
const EnvInfo = "ROFI_INFO"

// commentArrow separates a promoted comment from the rest of the entry.
const commentArrow = " ➜ "

type Mode int

const (
	// ModePlain prints entries unchanged (action names)
	ModePlain Mode = iota
	// ModeRing prints history previews with hidden indexes
	ModeRing
	// ModePersistent is ModeRing plus optional comment promotion
	ModePersistent
	// ModeNumbered prints "<index>: <preview>" for launchers without markers
	ModeNumbered
	// ModeNumberedPersistent is ModeNumbered with comment promotion
	ModeNumberedPersistent
)

func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeRing:
		return "ring"
	case ModePersistent:
		return "persistent"
	case ModeNumbered:
		return "numbered"
	case ModeNumberedPersistent:
		return "numbered-persistent"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Options controls preview rendering.
type Options struct {
	PreviewWidth      int    // display cells; <= 0 disables truncation
	NewlineChar       string // replaces '\n' inside previews
	CommentChar       string // prefix for a promoted comment
	ShowCommentsFirst bool   // promote text after the last '#' (persistent only)
}

// Format returns one display line per item.
func Format(items []string, mode Mode, opts Options) []string {
	lines := make([]string, len(items))
	for i, item := range items {
		switch mode {
		case ModePlain:
			lines[i] = item
		case ModeNumbered, ModeNumberedPersistent:
			lines[i] = strconv.Itoa(i) + ": " + Preview(item, mode == ModeNumberedPersistent, opts)
		default:
			lines[i] = Preview(item, mode == ModePersistent, opts) + Marker + strconv.Itoa(i)
		}
	}
	return lines
}

// Write prints Format's lines to w, newline terminated.
func Write(w io.Writer, items []string, mode Mode, opts Options) error {
	for _, line := range Format(items, mode, opts) {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Preview renders a single entry as one menu line.
func Preview(item string, persistent bool, opts Options) string {
	s := strings.ReplaceAll(item, "\n", opts.NewlineChar)
	// Control bytes of the rofi protocol must not leak into the visible text
	s = strings.NewReplacer("\x00", "", "\x1f", "").Replace(s)

	if persistent && opts.ShowCommentsFirst {
		if idx := strings.LastIndex(s, "#"); idx >= 0 {
			s = opts.CommentChar + s[idx+1:] + commentArrow + s[:idx]
		}
	}
	if opts.PreviewWidth > 0 {
		s = runewidth.Truncate(s, opts.PreviewWidth, "")
	}
	return s
}
