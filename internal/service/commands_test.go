package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/seamus-45/roficlip/internal/channel"
	"github.com/seamus-45/roficlip/internal/clipboard"
	"github.com/seamus-45/roficlip/internal/config"
	"github.com/seamus-45/roficlip/internal/selection"
	"github.com/seamus-45/roficlip/internal/storage/ring"
	"github.com/seamus-45/roficlip/pkg/types"
)

type fakeEditor struct {
	got    []string
	result []string
	ok     bool
}

func (e *fakeEditor) Edit(ctx context.Context, lines []string) ([]string, bool, error) {
	e.got = append([]string(nil), lines...)
	return e.result, e.ok, nil
}

type fakeChooser struct {
	index int
	got   []string
}

func (c *fakeChooser) Pick(lines []string) (int, error) {
	c.got = lines
	return c.index, nil
}

type commandsFixture struct {
	cmds     *Commands
	cfg      *config.Config
	paths    config.Paths
	clip     *clipboard.Memory
	notifier *recordingNotifier
	out      *bytes.Buffer
}

func newCommandsFixture(t *testing.T) *commandsFixture {
	t.Helper()
	f := &commandsFixture{
		cfg:      config.Default(),
		paths:    testPaths(t),
		clip:     clipboard.NewMemory(""),
		notifier: &recordingNotifier{},
		out:      &bytes.Buffer{},
	}
	f.cmds = NewCommands(CommandOptions{
		Config:    f.cfg,
		Paths:     f.paths,
		Clipboard: f.clip,
		Notifier:  f.notifier,
		Out:       f.out,
	})
	return f
}

func (f *commandsFixture) seed(t *testing.T, path string, items ...string) {
	t.Helper()
	r := ring.New(path, 0)
	if err := r.Load(); err != nil {
		t.Fatal(err)
	}
	r.ReplaceAll(items)
	if err := r.Persist(); err != nil {
		t.Fatal(err)
	}
}

// daemonChannel opens the read end the way the daemon does
func (f *commandsFixture) daemonChannel(t *testing.T) *channel.Reader {
	t.Helper()
	r, err := channel.OpenOrCreate(f.paths.FIFO)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func (f *commandsFixture) persistent(t *testing.T) []string {
	t.Helper()
	r, err := ring.Open(f.paths.PersistentDB, 0)
	if err != nil {
		t.Fatal(err)
	}
	return r.Items()
}

func TestCommands_ShowMenu(t *testing.T) {
	f := newCommandsFixture(t)
	f.seed(t, f.paths.RingDB, "one", "two\nlines")

	if err := f.cmds.Show(context.Background(), types.StoreRing, false, selection.Selection{}); err != nil {
		t.Fatal(err)
	}
	want := "one" + selection.Marker + "0\n" + "two¬lines" + selection.Marker + "1\n"
	if f.out.String() != want {
		t.Errorf("got %q, want %q", f.out.String(), want)
	}
}

func TestCommands_ShowNumberedMenu(t *testing.T) {
	f := newCommandsFixture(t)
	f.seed(t, f.paths.PersistentDB, "a", "b")

	if err := f.cmds.Show(context.Background(), types.StorePersistent, true, selection.Selection{}); err != nil {
		t.Fatal(err)
	}
	if f.out.String() != "0: a\n1: b\n" {
		t.Errorf("got %q", f.out.String())
	}
}

func TestCommands_ShowNumberedPersistentComments(t *testing.T) {
	f := newCommandsFixture(t)
	f.cfg.Settings.ShowCommentsFirst = true
	f.seed(t, f.paths.PersistentDB, "ssh host #prod")

	if err := f.cmds.Show(context.Background(), types.StorePersistent, true, selection.Selection{}); err != nil {
		t.Fatal(err)
	}
	want := "0: " + selection.Preview("ssh host #prod", true, f.cmds.SelectionOptions()) + "\n"
	if f.out.String() != want {
		t.Errorf("got %q, want %q", f.out.String(), want)
	}
	if !strings.Contains(f.out.String(), "prod"+" ➜ ") {
		t.Errorf("comment not promoted: %q", f.out.String())
	}
}

func TestCommands_ShowEmptyStore(t *testing.T) {
	f := newCommandsFixture(t)
	if err := f.cmds.Show(context.Background(), types.StoreRing, false, selection.Selection{}); err != nil {
		t.Fatal(err)
	}
	if f.out.Len() != 0 {
		t.Errorf("expected no menu lines, got %q", f.out.String())
	}
}

func TestCommands_ShowSelectionSendsEntry(t *testing.T) {
	f := newCommandsFixture(t)
	f.seed(t, f.paths.RingDB, "a", "b", "c")
	reader := f.daemonChannel(t)

	sel, err := selection.Decode("1", true, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.cmds.Show(context.Background(), types.StoreRing, false, sel); err != nil {
		t.Fatal(err)
	}

	payload, err := reader.TryRead()
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != "b" {
		t.Errorf("daemon received %q, want %q", payload, "b")
	}
}

func TestCommands_ShowNumberedSelection(t *testing.T) {
	f := newCommandsFixture(t)
	f.seed(t, f.paths.PersistentDB, "first", "second")
	reader := f.daemonChannel(t)

	sel, err := selection.Decode("", false, "1: second")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.cmds.Show(context.Background(), types.StorePersistent, true, sel); err != nil {
		t.Fatal(err)
	}
	payload, _ := reader.TryRead()
	if string(payload) != "second" {
		t.Errorf("got %q", payload)
	}
}

func TestCommands_CopyErrors(t *testing.T) {
	f := newCommandsFixture(t)
	f.seed(t, f.paths.RingDB, "only")

	var clipErr *ClipboardError
	if err := f.cmds.Copy(types.StoreRing, 5); !errors.As(err, &clipErr) || clipErr.Index != 5 {
		t.Errorf("out of range: expected ClipboardError for index 5, got %v", err)
	}

	// No daemon holds the channel open
	if err := f.cmds.Copy(types.StoreRing, 0); !errors.Is(err, channel.ErrNoReader) {
		t.Errorf("expected ErrNoReader, got %v", err)
	}

	if err := f.cmds.Copy("bogus", 0); err == nil {
		t.Error("expected error for unknown store")
	}
}

func TestCommands_ShowUnparseableSelection(t *testing.T) {
	f := newCommandsFixture(t)
	f.seed(t, f.paths.RingDB, "a")

	sel, _ := selection.Decode("", false, "not an index")
	var parseErr *selection.SelectionParseError
	if err := f.cmds.Show(context.Background(), types.StoreRing, false, sel); !errors.As(err, &parseErr) {
		t.Errorf("expected SelectionParseError, got %v", err)
	}
}

func TestCommands_AddPersistent(t *testing.T) {
	f := newCommandsFixture(t)
	f.seed(t, f.paths.PersistentDB, "old", "keep")
	f.clip.Set("keep")

	if err := f.cmds.AddPersistent(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got, want := f.persistent(t), []string{"keep", "old"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := f.notifier.Bodies(); !reflect.DeepEqual(got, []string{"Added to persistent."}) {
		t.Errorf("notifications: %q", got)
	}
}

func TestCommands_AddPersistentEmptyClipboard(t *testing.T) {
	f := newCommandsFixture(t)
	if err := f.cmds.AddPersistent(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.persistent(t); len(got) != 0 {
		t.Errorf("empty clipboard was added: %q", got)
	}
	if got := f.notifier.Bodies(); len(got) != 0 {
		t.Errorf("unexpected notifications: %q", got)
	}
}

func TestCommands_RemovePersistent(t *testing.T) {
	f := newCommandsFixture(t)
	f.seed(t, f.paths.PersistentDB, "a", "b", "c")
	f.clip.Set("b")

	if err := f.cmds.RemovePersistent(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got, want := f.persistent(t), []string{"a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := f.notifier.Bodies(); !reflect.DeepEqual(got, []string{"Removed from persistent."}) {
		t.Errorf("notifications: %q", got)
	}

	// Absent value: no change, no notification
	f.clip.Set("zzz")
	if err := f.cmds.RemovePersistent(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.notifier.Bodies(); len(got) != 1 {
		t.Errorf("notified for a missing entry: %q", got)
	}
}

func TestCommands_EditPersistent(t *testing.T) {
	f := newCommandsFixture(t)
	f.seed(t, f.paths.PersistentDB, "multi\nline", "plain")
	ed := &fakeEditor{ok: true, result: []string{"plain", "new¬entry", "", "plain"}}
	f.cmds.editor = ed

	if err := f.cmds.EditPersistent(context.Background()); err != nil {
		t.Fatal(err)
	}
	if want := []string{"multi¬line", "plain"}; !reflect.DeepEqual(ed.got, want) {
		t.Errorf("editor received %q, want %q", ed.got, want)
	}
	if got, want := f.persistent(t), []string{"plain", "new\nentry"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCommands_EditPersistentAborted(t *testing.T) {
	for name, ed := range map[string]*fakeEditor{
		"non-zero exit": {ok: false, result: []string{"ignored"}},
		"emptied":       {ok: true},
	} {
		t.Run(name, func(t *testing.T) {
			f := newCommandsFixture(t)
			f.seed(t, f.paths.PersistentDB, "keep")
			f.cmds.editor = ed

			if err := f.cmds.EditPersistent(context.Background()); err != nil {
				t.Fatal(err)
			}
			if got := f.persistent(t); !reflect.DeepEqual(got, []string{"keep"}) {
				t.Errorf("store changed: %q", got)
			}
		})
	}
}

func TestCommands_ShowActions(t *testing.T) {
	f := newCommandsFixture(t)
	f.cfg.Actions = map[string]string{"zeta": "true", "alpha": "true"}

	if err := f.cmds.ShowActions(context.Background(), selection.Selection{}); err != nil {
		t.Fatal(err)
	}
	if f.out.String() != "alpha\nzeta\n" {
		t.Errorf("got %q", f.out.String())
	}
}

func TestCommands_RunAction(t *testing.T) {
	f := newCommandsFixture(t)
	dir := t.TempDir()
	f.cfg.Actions = map[string]string{"touch": "touch " + dir + "/%s"}
	f.clip.Set("marker")

	sel, _ := selection.Decode("", false, "touch")
	if err := f.cmds.ShowActions(context.Background(), sel); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker")); err != nil {
		t.Errorf("action did not run with clipboard text: %v", err)
	}
	if got := f.notifier.Bodies(); !reflect.DeepEqual(got, []string{"touch"}) {
		t.Errorf("notifications: %q", got)
	}
}

func TestCommands_RunActionByIndex(t *testing.T) {
	f := newCommandsFixture(t)
	dir := t.TempDir()
	f.cfg.Actions = map[string]string{
		"a-first":  "touch " + filepath.Join(dir, "first"),
		"b-second": "touch " + filepath.Join(dir, "second"),
	}

	sel, _ := selection.Decode("1", true, "")
	if err := f.cmds.ShowActions(context.Background(), sel); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "second")); err != nil {
		t.Errorf("indexed action did not run: %v", err)
	}
}

func TestCommands_RunActionFailures(t *testing.T) {
	f := newCommandsFixture(t)
	f.cfg.Actions = map[string]string{
		"fails":   "false",
		"missing": "roficlip-no-such-binary %s",
	}

	if err := f.cmds.RunAction(context.Background(), "fails"); err != nil {
		t.Errorf("non-zero exit should be ignored, got %v", err)
	}
	if got := f.notifier.Bodies(); len(got) != 0 {
		t.Errorf("failed action notified: %q", got)
	}
	if err := f.cmds.RunAction(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing binary")
	}
	if err := f.cmds.RunAction(context.Background(), "unknown"); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestActionArgv(t *testing.T) {
	got := actionArgv("xdg-open https://example.com/?q=%s", "a b")
	want := []string{"xdg-open", "https://example.com/?q=a b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCommands_Pick(t *testing.T) {
	f := newCommandsFixture(t)
	f.seed(t, f.paths.RingDB, "a\nb", "c")
	reader := f.daemonChannel(t)

	chooser := &fakeChooser{index: 1}
	if err := f.cmds.Pick(context.Background(), types.StoreRing, chooser); err != nil {
		t.Fatal(err)
	}
	if want := []string{"a¬b", "c"}; !reflect.DeepEqual(chooser.got, want) {
		t.Errorf("chooser lines: got %q, want %q", chooser.got, want)
	}
	payload, _ := reader.TryRead()
	if string(payload) != "c" {
		t.Errorf("got %q", payload)
	}

	// Cancelled: nothing is sent
	if err := f.cmds.Pick(context.Background(), types.StoreRing, &fakeChooser{index: -1}); err != nil {
		t.Fatal(err)
	}
	if payload, _ := reader.TryRead(); payload != nil {
		t.Errorf("cancelled pick sent %q", payload)
	}
}

func TestCommands_Search(t *testing.T) {
	f := newCommandsFixture(t)
	archive := &memoryArchive{recorded: []string{"hello world"}}

	if err := f.cmds.Search(context.Background(), archive, "hello", 10); err != nil {
		t.Fatal(err)
	}
	out := f.out.String()
	if !strings.Contains(out, "Preview") || !strings.Contains(out, "hello world") {
		t.Errorf("unexpected output %q", out)
	}

	f.out.Reset()
	if err := f.cmds.Search(context.Background(), &memoryArchive{}, "x", 10); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(f.out.String(), "No results found") {
		t.Errorf("got %q", f.out.String())
	}
}
