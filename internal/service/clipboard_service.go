package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seamus-45/roficlip/internal/channel"
	"github.com/seamus-45/roficlip/internal/clipboard"
	"github.com/seamus-45/roficlip/internal/config"
	"github.com/seamus-45/roficlip/internal/logging"
	"github.com/seamus-45/roficlip/internal/notify"
	"github.com/seamus-45/roficlip/internal/storage"
	"github.com/seamus-45/roficlip/internal/storage/ring"
	"github.com/seamus-45/roficlip/pkg/types"
)

// Custom error types for better error handling
type ClipboardError struct {
	Op      string // Operation that failed
	Index   int    // Index involved (if applicable)
	Message string // Error message
	Err     error  // Underlying error
}

func (e *ClipboardError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Index >= 0 {
		return fmt.Sprintf("%s failed for index %d: %s", e.Op, e.Index, msg)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, msg)
}

func (e *ClipboardError) Unwrap() error {
	return e.Err
}

// Options wires the daemon's collaborators
type Options struct {
	Config    *config.Config
	Paths     config.Paths
	Clipboard clipboard.Backend
	Notifier  notify.Notifier
	Archive   storage.Archive // optional
	Logger    *slog.Logger
	Interval  time.Duration
}

// ClipboardService is the daemon: it records clipboard changes into the
// history ring and copies entries arriving on the command channel onto the
// clipboard. All of its state is owned by the scheduler goroutine.
type ClipboardService struct {
	cfg       *config.Config
	paths     config.Paths
	clip      clipboard.Backend
	notifier  notify.Notifier
	archive   storage.Archive
	log       *slog.Logger
	scheduler *Scheduler

	history    *ring.Ring
	persistent *ring.Ring
	channel    *channel.Reader
	pid        *pidFile

	handlers []ClipboardChangeHandler
	mu       sync.RWMutex
}

// New creates a new ClipboardService
func New(opts Options) *ClipboardService {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	s := &ClipboardService{
		cfg:      opts.Config,
		paths:    opts.Paths,
		clip:     opts.Clipboard,
		notifier: opts.Notifier,
		archive:  opts.Archive,
		log:      opts.Logger,
		pid:      newPIDFile(opts.Paths.PIDFile),
	}
	s.scheduler = &Scheduler{
		Interval: opts.Interval,
		Logger:   opts.Logger,
		Polls: []Poll{
			{Name: "clipboard", Fn: s.pollClipboard},
			{Name: "channel", Fn: s.pollChannel},
		},
	}
	return s
}

// RegisterHandler adds a new clipboard change handler
func (s *ClipboardService) RegisterHandler(handler ClipboardChangeHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Start claims the PID file, opens the command channel and loads both
// stores. Any failure here is fatal.
func (s *ClipboardService) Start() error {
	if s.paths.PIDFile != "" {
		if err := s.pid.acquire(); err != nil {
			return &ClipboardError{Op: "Start", Index: -1, Message: "failed to claim PID file", Err: err}
		}
	}

	reader, err := channel.OpenOrCreate(s.paths.FIFO)
	if err != nil {
		s.releasePID()
		return &ClipboardError{Op: "Start", Index: -1, Message: "failed to open command channel", Err: err}
	}
	s.channel = reader

	s.history, err = ring.Open(s.paths.RingDB, s.cfg.Settings.RingSize)
	if err != nil {
		s.closeChannel()
		s.releasePID()
		return &ClipboardError{Op: "Start", Index: -1, Message: "failed to load history", Err: err}
	}
	// Loaded to reject a corrupt file at startup; CLI invocations own writes to it
	s.persistent, err = ring.Open(s.paths.PersistentDB, 0)
	if err != nil {
		s.closeChannel()
		s.releasePID()
		return &ClipboardError{Op: "Start", Index: -1, Message: "failed to load persistent store", Err: err}
	}

	s.log.Info("daemon started",
		"history", s.history.Len(),
		"persistent", s.persistent.Len(),
		"fifo", s.paths.FIFO)
	return nil
}

// Run ticks until ctx is cancelled or a poll fails
func (s *ClipboardService) Run(ctx context.Context) error {
	if s.channel == nil || s.history == nil {
		return &ClipboardError{Op: "Run", Index: -1, Message: "service not started"}
	}
	return s.scheduler.Run(ctx)
}

// Tick runs a single round of polls
func (s *ClipboardService) Tick(ctx context.Context) error {
	return s.scheduler.Tick(ctx)
}

// Stop closes the command channel and releases the PID file
func (s *ClipboardService) Stop() error {
	err := s.closeChannel()
	if perr := s.releasePID(); err == nil {
		err = perr
	}
	if err != nil {
		return &ClipboardError{Op: "Stop", Index: -1, Message: "failed to release resources", Err: err}
	}
	s.log.Info("daemon stopped")
	return nil
}

// History returns the current history entries, most recent first
func (s *ClipboardService) History() []string {
	if s.history == nil {
		return nil
	}
	return s.history.Items()
}

// pollClipboard records the current clipboard text in the history ring
func (s *ClipboardService) pollClipboard(ctx context.Context) (bool, error) {
	text, err := s.clip.ReadText(ctx)
	if errors.Is(err, clipboard.ErrTimeout) {
		s.log.Warn("clipboard read timed out, skipping tick", "error", err)
		return false, nil
	}
	if err != nil {
		return false, &ClipboardError{Op: "pollClipboard", Index: -1, Message: "failed to read clipboard", Err: err}
	}
	if !s.history.Sync(text) {
		return false, nil
	}
	if err := s.history.Persist(); err != nil {
		return false, &ClipboardError{Op: "pollClipboard", Index: -1, Message: "failed to persist history", Err: err}
	}
	s.log.Debug("history updated", "entries", s.history.Len(), "size", len(text))

	s.archiveEntry(ctx, text)
	s.publish(types.Change{
		Store:   types.StoreRing,
		Content: text,
		Size:    s.history.Len(),
		At:      time.Now(),
	})
	return true, nil
}

// pollChannel copies a payload from the command channel onto the clipboard.
// The history ring picks the new clipboard value up on a later tick.
func (s *ClipboardService) pollChannel(ctx context.Context) (bool, error) {
	payload, err := s.channel.TryRead()
	if err != nil {
		return false, &ClipboardError{Op: "pollChannel", Index: -1, Message: "failed to read command channel", Err: err}
	}
	if payload == nil {
		return false, nil
	}
	if err := s.clip.WriteText(ctx, string(payload)); err != nil {
		return false, &ClipboardError{Op: "pollChannel", Index: -1, Message: "failed to set clipboard content", Err: err}
	}
	s.log.Debug("copied channel payload to clipboard", "size", len(payload))
	s.notify("Copied to the clipboard.")
	return true, nil
}

func (s *ClipboardService) archiveEntry(ctx context.Context, text string) {
	if s.archive == nil {
		return
	}
	err := s.archive.Record(ctx, text)
	switch {
	case errors.Is(err, storage.ErrEntryTooLarge):
		s.log.Debug("entry too large to archive", "size", len(text))
	case err != nil:
		s.log.Warn("failed to archive entry", "error", err)
	}
}

func (s *ClipboardService) publish(change types.Change) {
	s.mu.RLock()
	handlers := s.handlers // Copy to avoid holding lock during callbacks
	s.mu.RUnlock()

	for _, handler := range handlers {
		handler.HandleClipboardChange(change)
	}
}

func (s *ClipboardService) notify(body string) {
	if err := s.notifier.Notify(notify.Title, body, s.cfg.NotifyDuration()); err != nil {
		s.log.Warn("notification failed", "error", err)
	}
}

func (s *ClipboardService) closeChannel() error {
	if s.channel == nil {
		return nil
	}
	return s.channel.Close()
}

func (s *ClipboardService) releasePID() error {
	if s.paths.PIDFile == "" {
		return nil
	}
	return s.pid.release()
}
