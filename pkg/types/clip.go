package types

import "time"

// Store names used in events and the HTTP API.
const (
	StoreRing       = "ring"
	StorePersistent = "persistent"
)

// Change describes a new entry reaching the top of a store.
type Change struct {
	Store   string    `json:"store"`
	Content string    `json:"content"`
	Size    int       `json:"size"` // Number of entries in the store after the change
	At      time.Time `json:"at"`
}
