package clipboard

import (
	"context"
	"sync"
)

// Memory is an in-process clipboard, used in tests and as a stand-in when
// no OS clipboard is reachable.
type Memory struct {
	mu     sync.Mutex
	text   string
	writes []string
}

func NewMemory(initial string) *Memory {
	return &Memory{text: initial}
}

func (m *Memory) ReadText(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *Memory) WriteText(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.writes = append(m.writes, text)
	return nil
}

// Set changes the clipboard without recording a write, as another
// application would.
func (m *Memory) Set(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
}

// Writes returns every value passed to WriteText, oldest first.
func (m *Memory) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.writes))
	copy(out, m.writes)
	return out
}
