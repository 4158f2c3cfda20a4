package editor

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeScript creates an executable shell script acting as the editor.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-editor")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEdit_Rewrites(t *testing.T) {
	script := writeScript(t, `printf 'b\r\nc\n\nd' > "$1"`)
	e := &Editor{Command: script}

	got, ok, err := e.Edit(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	if !ok {
		t.Fatal("expected ok after zero exit")
	}
	if want := []string{"b", "c", "", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEdit_SeesLines(t *testing.T) {
	out := filepath.Join(t.TempDir(), "seen")
	script := writeScript(t, `cp "$1" `+out)
	e := &Editor{Command: script}

	got, ok, err := e.Edit(context.Background(), []string{"one", "two¬lines"})
	if err != nil || !ok {
		t.Fatalf("edit failed: ok=%v err=%v", ok, err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "one\ntwo¬lines\n" {
		t.Errorf("editor saw %q", data)
	}
	if want := []string{"one", "two¬lines"}; !reflect.DeepEqual(got, want) {
		t.Errorf("unchanged file read back as %q", got)
	}
}

func TestEdit_NonZeroExitSkips(t *testing.T) {
	e := &Editor{Command: writeScript(t, `echo changed > "$1"; exit 3`)}
	got, ok, err := e.Edit(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("non-zero exit is not an error, got %v", err)
	}
	if ok || got != nil {
		t.Errorf("expected skipped edit, got ok=%v lines=%q", ok, got)
	}
}

func TestEdit_CommandWithArguments(t *testing.T) {
	script := writeScript(t, `[ "$1" = "--flag" ] || exit 9; echo x > "$2"`)
	e := &Editor{Command: script + " --flag"}
	got, ok, err := e.Edit(context.Background(), nil)
	if err != nil || !ok {
		t.Fatalf("edit failed: ok=%v err=%v", ok, err)
	}
	if want := []string{"x"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %q", got)
	}
}

func TestEdit_MissingEditor(t *testing.T) {
	e := &Editor{Command: "roficlip-no-such-editor"}
	if _, _, err := e.Edit(context.Background(), []string{"a"}); err == nil {
		t.Error("expected error for missing editor")
	}
}

func TestResolve(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "nano")

	if got := Resolve("code --wait"); got != "code --wait" {
		t.Errorf("configured editor should win, got %q", got)
	}
	if got := Resolve(""); got != "nano" {
		t.Errorf("expected $EDITOR, got %q", got)
	}
	t.Setenv("EDITOR", "")
	if got := Resolve(""); got != DefaultCommand {
		t.Errorf("expected default, got %q", got)
	}
}
