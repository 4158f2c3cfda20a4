package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultInterval is the daemon tick period
const DefaultInterval = 300 * time.Millisecond

// PollFunc performs one non-blocking check and reports whether it changed
// anything. A returned error stops the scheduler.
type PollFunc func(ctx context.Context) (changed bool, err error)

// Poll is a named PollFunc
type Poll struct {
	Name string
	Fn   PollFunc
}

// Scheduler runs a fixed, ordered list of polls on every tick, on a single
// goroutine. A tick always finishes before the next one starts.
type Scheduler struct {
	Interval time.Duration
	Polls    []Poll
	Logger   *slog.Logger
}

// Tick runs every poll once, in order
func (s *Scheduler) Tick(ctx context.Context) error {
	for _, p := range s.Polls {
		changed, err := p.Fn(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
		if changed && s.Logger != nil {
			s.Logger.Debug("poll changed state", "poll", p.Name)
		}
	}
	return nil
}

// Run ticks until ctx is cancelled, which is not an error, or until a poll
// fails.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
