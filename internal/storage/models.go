package storage

import (
	"time"

	"gorm.io/gorm"
)

// ClipModel is the archive row for one distinct entry.
type ClipModel struct {
	gorm.Model
	Content     string    `gorm:"type:text;not null"`
	ContentHash string    `gorm:"uniqueIndex;not null"`
	Size        int64     `gorm:"not null"`
	UseCount    int       `gorm:"not null;default:1"`
	LastUsed    time.Time `gorm:"index"`
}

// TableName keeps the table name stable across model renames
func (ClipModel) TableName() string {
	return "clips"
}

func (cm *ClipModel) ToResult() SearchResult {
	return SearchResult{
		Content:   cm.Content,
		UseCount:  cm.UseCount,
		FirstSeen: cm.CreatedAt,
		LastUsed:  cm.LastUsed,
	}
}
