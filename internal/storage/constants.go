package storage

import "errors"

const (
	// Entries larger than this are kept in the rings but not archived
	MaxArchiveEntrySize = 10 * 1024 * 1024 // 10MB

	DefaultSearchLimit = 20
)

// ErrEntryTooLarge is returned by Record for entries above MaxArchiveEntrySize
var ErrEntryTooLarge = errors.New("entry size exceeds maximum allowed size")
