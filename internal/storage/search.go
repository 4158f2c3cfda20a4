package storage

import "time"

// SearchOptions defines criteria for searching the archive
type SearchOptions struct {
	// Case-insensitive substring; empty matches everything
	Query string

	// Pagination
	Limit  int
	Offset int
}

// SearchResult represents one archived entry
type SearchResult struct {
	Content   string    `json:"content"`
	UseCount  int       `json:"use_count"`  // Number of times this entry reached the top of the ring
	FirstSeen time.Time `json:"first_seen"` // When this entry was first archived
	LastUsed  time.Time `json:"last_used"`  // When this entry last reached the top of the ring
}
