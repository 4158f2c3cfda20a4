//go:build darwin

package clipboard

import (
	"context"
	"runtime"
	"sync"

	"github.com/progrium/darwinkit/macos/appkit"
)

const pasteboardTypeText = appkit.PasteboardType("public.utf8-plain-text")

// Darwin talks to the general NSPasteboard.
type Darwin struct {
	pasteboard appkit.Pasteboard
	mutex      sync.Mutex
}

func init() {
	// AppKit calls must stay on the main thread
	runtime.LockOSThread()
}

func NewDarwin() *Darwin {
	return &Darwin{
		pasteboard: appkit.Pasteboard_GeneralPasteboard(),
	}
}

func (d *Darwin) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.pasteboard.StringForType(pasteboardTypeText), nil
}

func (d *Darwin) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.pasteboard.ClearContents()
	d.pasteboard.SetStringForType(text, pasteboardTypeText)
	return nil
}
