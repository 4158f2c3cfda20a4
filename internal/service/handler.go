package service

import "github.com/seamus-45/roficlip/pkg/types"

// ClipboardChangeHandler is implemented by components that need to be notified of clipboard changes.
// It is called from the daemon loop and must not block.
type ClipboardChangeHandler interface {
	HandleClipboardChange(change types.Change)
}
