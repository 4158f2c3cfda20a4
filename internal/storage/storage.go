package storage

import "context"

// Archive records every history entry the daemon observes so that entries
// which have rotated out of the ring can still be found.
type Archive interface {
	// Record inserts content or bumps its use count and last-used time
	Record(ctx context.Context, content string) error

	// Search returns archived entries matching the options, most recently used first
	Search(ctx context.Context, opts SearchOptions) ([]SearchResult, error)

	// Count returns the number of archived entries
	Count(ctx context.Context) (int64, error)

	Close() error
}

// Config holds archive configuration
type Config struct {
	DBPath string // Path to SQLite database
}
