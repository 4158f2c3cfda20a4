package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/seamus-45/roficlip/internal/channel"
	"github.com/seamus-45/roficlip/internal/clipboard"
	"github.com/seamus-45/roficlip/internal/config"
	"github.com/seamus-45/roficlip/internal/editor"
	"github.com/seamus-45/roficlip/internal/logging"
	"github.com/seamus-45/roficlip/internal/notify"
	"github.com/seamus-45/roficlip/internal/selection"
	"github.com/seamus-45/roficlip/internal/storage"
	"github.com/seamus-45/roficlip/internal/storage/ring"
	"github.com/seamus-45/roficlip/pkg/types"
)

// Editor rewrites a list of lines, reporting ok=false when the user aborted
type Editor interface {
	Edit(ctx context.Context, lines []string) (edited []string, ok bool, err error)
}

var _ Editor = (*editor.Editor)(nil)

// Chooser shows lines and returns the chosen index, or -1 when cancelled
type Chooser interface {
	Pick(items []string) (int, error)
}

// CommandOptions wires the short-lived CLI invocations
type CommandOptions struct {
	Config    *config.Config
	Paths     config.Paths
	Clipboard clipboard.Backend
	Notifier  notify.Notifier
	Editor    Editor
	Out       io.Writer
	Logger    *slog.Logger
}

// Commands implements the one-shot CLI operations. They read the backing
// files directly and reach the daemon only through the command channel.
type Commands struct {
	cfg      *config.Config
	paths    config.Paths
	clip     clipboard.Backend
	notifier notify.Notifier
	editor   Editor
	out      io.Writer
	log      *slog.Logger
}

func NewCommands(opts CommandOptions) *Commands {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Commands{
		cfg:      opts.Config,
		paths:    opts.Paths,
		clip:     opts.Clipboard,
		notifier: opts.Notifier,
		editor:   opts.Editor,
		out:      opts.Out,
		log:      opts.Logger,
	}
}

// SelectionOptions maps the settings onto menu rendering options
func (c *Commands) SelectionOptions() selection.Options {
	s := c.cfg.Settings
	return selection.Options{
		PreviewWidth:      s.PreviewWidth,
		NewlineChar:       s.NewlineChar,
		CommentChar:       s.CommentChar,
		ShowCommentsFirst: s.ShowCommentsFirst,
	}
}

// Load reads the latest persisted snapshot of a store
func (c *Commands) Load(store string) (*ring.Ring, error) {
	switch store {
	case types.StoreRing:
		return ring.Open(c.paths.RingDB, c.cfg.Settings.RingSize)
	case types.StorePersistent:
		return ring.Open(c.paths.PersistentDB, 0)
	default:
		return nil, fmt.Errorf("unknown store %q", store)
	}
}

// Show runs either phase of the launcher protocol for a store: with an
// empty selection it prints the menu, otherwise it copies the chosen entry.
func (c *Commands) Show(ctx context.Context, store string, numbered bool, sel selection.Selection) error {
	r, err := c.Load(store)
	if err != nil {
		return &ClipboardError{Op: "Show", Index: -1, Message: "failed to load " + store, Err: err}
	}

	if sel.Empty() {
		mode := selection.ModeRing
		switch {
		case numbered && store == types.StorePersistent:
			mode = selection.ModeNumberedPersistent
		case numbered:
			mode = selection.ModeNumbered
		case store == types.StorePersistent:
			mode = selection.ModePersistent
		}
		return selection.Write(c.out, r.Items(), mode, c.SelectionOptions())
	}

	index, err := sel.RequireIndex()
	if err != nil {
		return err
	}
	return c.copyEntry(r, index)
}

// Copy sends the entry at index of a store to the daemon
func (c *Commands) Copy(store string, index int) error {
	r, err := c.Load(store)
	if err != nil {
		return &ClipboardError{Op: "Copy", Index: index, Message: "failed to load " + store, Err: err}
	}
	return c.copyEntry(r, index)
}

func (c *Commands) copyEntry(r *ring.Ring, index int) error {
	entry, ok := r.At(index)
	if !ok {
		return &ClipboardError{Op: "Copy", Index: index, Message: fmt.Sprintf("no entry (store has %d)", r.Len())}
	}
	if err := channel.Write(c.paths.FIFO, []byte(entry)); err != nil {
		return &ClipboardError{Op: "Copy", Index: index, Message: "failed to send entry to daemon", Err: err}
	}
	c.log.Debug("sent entry to daemon", "index", index, "size", len(entry))
	return nil
}

// ShowActions prints the action names, or runs the chosen action
func (c *Commands) ShowActions(ctx context.Context, sel selection.Selection) error {
	names := c.cfg.ActionNames()
	if sel.Empty() {
		return selection.Write(c.out, names, selection.ModePlain, c.SelectionOptions())
	}

	if _, ok := c.cfg.Actions[sel.Literal]; ok {
		return c.RunAction(ctx, sel.Literal)
	}
	index, err := sel.RequireIndex()
	if err != nil {
		return err
	}
	if index >= len(names) {
		return &ClipboardError{Op: "ShowActions", Index: index, Message: "no such action"}
	}
	return c.RunAction(ctx, names[index])
}

// RunAction substitutes the clipboard text into the named action's
// template and runs it. A non-zero exit is logged and otherwise ignored.
func (c *Commands) RunAction(ctx context.Context, name string) error {
	tmpl, ok := c.cfg.Actions[name]
	if !ok {
		return &ClipboardError{Op: "RunAction", Index: -1, Message: fmt.Sprintf("unknown action %q", name)}
	}
	text, err := c.clip.ReadText(ctx)
	if err != nil {
		return &ClipboardError{Op: "RunAction", Index: -1, Message: "failed to read clipboard", Err: err}
	}

	argv := actionArgv(tmpl, text)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			c.log.Info("action failed", "action", name, "exit", exitErr.ExitCode())
			return nil
		}
		return &ClipboardError{Op: "RunAction", Index: -1, Message: fmt.Sprintf("failed to start %q", argv[0]), Err: err}
	}
	c.notify(name)
	return nil
}

// actionArgv splits a template on whitespace and substitutes text for every
// "%s"; the text always stays a single argument.
func actionArgv(tmpl, text string) []string {
	fields := strings.Fields(tmpl)
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(f, "%s", text)
	}
	return fields
}

// AddPersistent moves the current clipboard text to the front of the
// persistent store
func (c *Commands) AddPersistent(ctx context.Context) error {
	text, err := c.clip.ReadText(ctx)
	if err != nil {
		return &ClipboardError{Op: "AddPersistent", Index: -1, Message: "failed to read clipboard", Err: err}
	}
	r, err := c.Load(types.StorePersistent)
	if err != nil {
		return &ClipboardError{Op: "AddPersistent", Index: -1, Message: "failed to load persistent store", Err: err}
	}
	if !r.Sync(text) {
		return nil
	}
	if err := r.Persist(); err != nil {
		return &ClipboardError{Op: "AddPersistent", Index: -1, Message: "failed to persist", Err: err}
	}
	c.notify("Added to persistent.")
	return nil
}

// RemovePersistent deletes the current clipboard text from the persistent store
func (c *Commands) RemovePersistent(ctx context.Context) error {
	text, err := c.clip.ReadText(ctx)
	if err != nil {
		return &ClipboardError{Op: "RemovePersistent", Index: -1, Message: "failed to read clipboard", Err: err}
	}
	if text == "" {
		return nil
	}
	r, err := c.Load(types.StorePersistent)
	if err != nil {
		return &ClipboardError{Op: "RemovePersistent", Index: -1, Message: "failed to load persistent store", Err: err}
	}
	if !r.Remove(text) {
		return nil
	}
	if err := r.Persist(); err != nil {
		return &ClipboardError{Op: "RemovePersistent", Index: -1, Message: "failed to persist", Err: err}
	}
	c.notify("Removed from persistent.")
	return nil
}

// EditPersistent opens the persistent store in an editor, one entry per
// line with line breaks shown as the newline placeholder, and replaces the
// store with the result. An aborted edit or an emptied buffer changes nothing.
func (c *Commands) EditPersistent(ctx context.Context) error {
	if c.editor == nil {
		return &ClipboardError{Op: "EditPersistent", Index: -1, Message: "no editor configured"}
	}
	r, err := c.Load(types.StorePersistent)
	if err != nil {
		return &ClipboardError{Op: "EditPersistent", Index: -1, Message: "failed to load persistent store", Err: err}
	}

	placeholder := c.cfg.Settings.NewlineChar
	items := r.Items()
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = strings.ReplaceAll(item, "\n", placeholder)
	}

	edited, ok, err := c.editor.Edit(ctx, lines)
	if err != nil {
		return &ClipboardError{Op: "EditPersistent", Index: -1, Message: "editor failed", Err: err}
	}
	if !ok || len(edited) == 0 {
		c.log.Info("persistent store left unchanged")
		return nil
	}

	for i, line := range edited {
		edited[i] = strings.ReplaceAll(line, placeholder, "\n")
	}
	r.ReplaceAll(edited)
	if err := r.Persist(); err != nil {
		return &ClipboardError{Op: "EditPersistent", Index: -1, Message: "failed to persist", Err: err}
	}
	return nil
}

// Pick shows a store in an in-process chooser and sends the chosen entry
// to the daemon
func (c *Commands) Pick(ctx context.Context, store string, chooser Chooser) error {
	r, err := c.Load(store)
	if err != nil {
		return &ClipboardError{Op: "Pick", Index: -1, Message: "failed to load " + store, Err: err}
	}
	opts := c.SelectionOptions()
	items := r.Items()
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = selection.Preview(item, store == types.StorePersistent, opts)
	}

	index, err := chooser.Pick(lines)
	if err != nil {
		return &ClipboardError{Op: "Pick", Index: -1, Message: "picker failed", Err: err}
	}
	if index < 0 {
		return nil
	}
	return c.copyEntry(r, index)
}

// Search prints archived entries matching query as a table
func (c *Commands) Search(ctx context.Context, archive storage.Archive, query string, limit int) error {
	results, err := archive.Search(ctx, storage.SearchOptions{Query: query, Limit: limit})
	if err != nil {
		return &ClipboardError{Op: "Search", Index: -1, Message: "search failed", Err: err}
	}
	if len(results) == 0 {
		fmt.Fprintln(c.out, "No results found")
		return nil
	}

	opts := c.SelectionOptions()
	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Uses\tLast Used\tPreview")
	fmt.Fprintln(w, "----\t---------\t-------")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\n",
			r.UseCount,
			r.LastUsed.Format(time.RFC822),
			selection.Preview(r.Content, false, opts))
	}
	return w.Flush()
}

func (c *Commands) notify(body string) {
	if err := c.notifier.Notify(notify.Title, body, c.cfg.NotifyDuration()); err != nil {
		c.log.Warn("notification failed", "error", err)
	}
}
