package ring

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/seamus-45/roficlip/internal/storage/record"
)

func newTestRing(t *testing.T, capacity int, items ...string) *Ring {
	t.Helper()
	r := New(filepath.Join(t.TempDir(), "ring.db"), capacity)
	r.items = append(r.items, items...)
	return r
}

func TestSync(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		items     []string
		candidate string
		want      []string
		changed   bool
	}{
		{"into empty", 3, nil, "x", []string{"x"}, true},
		{"empty candidate", 3, []string{"a"}, "", []string{"a"}, false},
		{"already first", 3, []string{"a", "b"}, "a", []string{"a", "b"}, false},
		{"dedup moves to front", 0, []string{"a", "b", "c"}, "b", []string{"b", "a", "c"}, true},
		{"dedup from tail", 0, []string{"a", "b", "c"}, "c", []string{"c", "a", "b"}, true},
		{"capacity drops oldest", 2, []string{"a", "b"}, "c", []string{"c", "a"}, true},
		{"unbounded grows", 0, []string{"a", "b"}, "c", []string{"c", "a", "b"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRing(t, tt.capacity, tt.items...)
			if got := r.Sync(tt.candidate); got != tt.changed {
				t.Errorf("Sync returned %v, want %v", got, tt.changed)
			}
			if !reflect.DeepEqual(r.Items(), tt.want) {
				t.Errorf("items: got %q, want %q", r.Items(), tt.want)
			}
		})
	}
}

func TestSync_RepeatIsNoop(t *testing.T) {
	r := newTestRing(t, 5, "a", "b")
	if !r.Sync("x") {
		t.Fatal("first sync should mutate")
	}
	if r.Sync("x") {
		t.Error("second sync of the same value should be a no-op")
	}
	if want := []string{"x", "a", "b"}; !reflect.DeepEqual(r.Items(), want) {
		t.Errorf("items: got %q, want %q", r.Items(), want)
	}
}

func TestSync_Sequence(t *testing.T) {
	r := newTestRing(t, 3)
	for _, clip := range []string{"x", "y", "x"} {
		r.Sync(clip)
	}
	if want := []string{"x", "y"}; !reflect.DeepEqual(r.Items(), want) {
		t.Errorf("items: got %q, want %q", r.Items(), want)
	}
}

func TestRemove(t *testing.T) {
	r := newTestRing(t, 0, "a", "b", "c")
	if !r.Remove("b") {
		t.Error("expected removal")
	}
	if r.Remove("missing") {
		t.Error("expected no removal for missing value")
	}
	if want := []string{"a", "c"}; !reflect.DeepEqual(r.Items(), want) {
		t.Errorf("items: got %q, want %q", r.Items(), want)
	}
}

func TestReplaceAll(t *testing.T) {
	r := newTestRing(t, 2, "old")
	r.ReplaceAll([]string{"a", "", "b", "a", "c"})

	// No truncation even though capacity is 2
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(r.Items(), want) {
		t.Errorf("items: got %q, want %q", r.Items(), want)
	}
}

func TestItems_ReturnsCopy(t *testing.T) {
	r := newTestRing(t, 0, "a")
	items := r.Items()
	items[0] = "mutated"
	if v, _ := r.At(0); v != "a" {
		t.Errorf("ring mutated through Items copy: %q", v)
	}
	if _, ok := r.At(1); ok {
		t.Error("At out of range should report false")
	}
}

func TestLoad_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ring.db")
	r, err := Open(path, 20)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("expected empty ring, got %d items", r.Len())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("backing file not created: %v", err)
	}
}

func TestPersist_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persistent.db")
	r := New(path, 0)
	r.Sync("first")
	r.Sync("second\nline")
	if err := r.Persist(); err != nil {
		t.Fatalf("persist failed: %v", err)
	}

	loaded, err := Open(path, 0)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if !reflect.DeepEqual(loaded.Items(), r.Items()) {
		t.Errorf("loaded %q, want %q", loaded.Items(), r.Items())
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.db")
	if err := os.WriteFile(path, []byte{0, 0, 0, 8, 'a'}, 0600); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path, 20)
	var corrupt *record.CorruptRecordError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected CorruptRecordError, got %v", err)
	}
}
