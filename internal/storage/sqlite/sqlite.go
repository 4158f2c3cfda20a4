package sqlite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seamus-45/roficlip/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SQLiteStorage struct {
	db *gorm.DB
}

var _ storage.Archive = (*SQLiteStorage)(nil)

// New opens (creating if needed) the archive database
func New(config storage.Config) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(config.DBPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(config.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(&storage.ClipModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// calculateHash generates SHA-256 hash of content
func calculateHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// Record implements storage.Archive
func (s *SQLiteStorage) Record(ctx context.Context, content string) error {
	size := int64(len(content))
	if size > storage.MaxArchiveEntrySize {
		return storage.ErrEntryTooLarge
	}
	if content == "" {
		return nil
	}

	contentHash := calculateHash(content)
	now := time.Now()
	db := s.db.WithContext(ctx)

	// Check for existing content with same hash
	var existing storage.ClipModel
	err := db.Where("content_hash = ?", contentHash).First(&existing).Error
	switch {
	case err == nil:
		existing.UseCount++
		existing.LastUsed = now
		if err := db.Save(&existing).Error; err != nil {
			return fmt.Errorf("failed to update archived entry: %w", err)
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("failed to check for existing content: %w", err)
	}

	model := &storage.ClipModel{
		Content:     content,
		ContentHash: contentHash,
		Size:        size,
		UseCount:    1,
		LastUsed:    now,
	}
	if err := db.Create(model).Error; err != nil {
		return fmt.Errorf("failed to archive entry: %w", err)
	}
	return nil
}

// Count implements storage.Archive
func (s *SQLiteStorage) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&storage.ClipModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle
func (s *SQLiteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
