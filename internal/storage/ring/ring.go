// Package ring holds an ordered, duplicate-free list of clipboard entries,
// most recent first, backed by a record file.
//
// The in-memory list is the source of truth while a process runs. Every
// mutation is followed by a Persist call from the owner, which rewrites the
// whole backing file; the file is only read back at startup.
package ring

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/seamus-45/roficlip/internal/storage/record"
)

// Ring is not safe for concurrent use; a daemon mutates it from a single
// goroutine.
type Ring struct {
	path     string
	capacity int // <= 0 means unbounded
	items    []string
}

// New returns an empty ring backed by path. A capacity <= 0 creates an
// unbounded store.
func New(path string, capacity int) *Ring {
	return &Ring{
		path:     path,
		capacity: capacity,
		items:    make([]string, 0),
	}
}

// Open creates a ring and loads it from path.
func Open(path string, capacity int) (*Ring, error) {
	r := New(path, capacity)
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Ring) Path() string  { return r.path }
func (r *Ring) Capacity() int { return r.capacity }
func (r *Ring) Len() int      { return len(r.items) }

// Items returns a copy of the entries, most recent first.
func (r *Ring) Items() []string {
	out := make([]string, len(r.items))
	copy(out, r.items)
	return out
}

// At returns the entry at index.
func (r *Ring) At(index int) (string, bool) {
	if index < 0 || index >= len(r.items) {
		return "", false
	}
	return r.items[index], true
}

// Sync moves candidate to the front, removing any earlier occurrence and
// dropping entries beyond capacity. It returns false without mutating when
// candidate is empty or already the most recent entry.
func (r *Ring) Sync(candidate string) bool {
	if candidate == "" {
		return false
	}
	if len(r.items) > 0 && r.items[0] == candidate {
		return false
	}

	r.remove(candidate)
	r.items = append(r.items, "")
	copy(r.items[1:], r.items)
	r.items[0] = candidate

	if r.capacity > 0 && len(r.items) > r.capacity {
		r.items = r.items[:r.capacity]
	}
	return true
}

// Remove deletes the first occurrence of value.
func (r *Ring) Remove(value string) bool {
	return r.remove(value)
}

func (r *Ring) remove(value string) bool {
	for i, item := range r.items {
		if item == value {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceAll swaps in a new ordered list. Empty entries and repeats of an
// earlier entry are dropped; no capacity truncation is applied.
func (r *Ring) ReplaceAll(items []string) {
	seen := make(map[string]struct{}, len(items))
	next := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		next = append(next, item)
	}
	r.items = next
}

// Load replaces the in-memory list with the backing file contents. A
// missing file is created empty.
func (r *Ring) Load() error {
	items, err := record.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(r.path), 0700); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", r.path, err)
		}
		r.items = make([]string, 0)
		return f.Close()
	}
	if err != nil {
		return err
	}
	r.items = items
	return nil
}

// Persist rewrites the backing file from the in-memory list.
func (r *Ring) Persist() error {
	return record.WriteFile(r.path, r.items)
}
