// Package clipboard provides access to the OS text clipboard.
package clipboard

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no clipboard implementation can be used
// on this system.
var ErrUnavailable = errors.New("no clipboard backend available")

// ErrTimeout is returned when a clipboard read does not finish in time.
var ErrTimeout = errors.New("clipboard read timed out")

// Backend reads and writes the text clipboard. An empty clipboard, or one
// holding non-text data, reads as "" with a nil error.
type Backend interface {
	ReadText(ctx context.Context) (string, error)
	WriteText(ctx context.Context, text string) error
}
