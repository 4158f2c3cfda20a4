package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/seamus-45/roficlip/internal/storage"
)

// Search implements storage.Archive
func (s *SQLiteStorage) Search(ctx context.Context, opts storage.SearchOptions) ([]storage.SearchResult, error) {
	query := s.db.WithContext(ctx).Model(&storage.ClipModel{})

	if opts.Query != "" {
		query = query.Where("LOWER(content) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(opts.Query))+"%")
	}

	// Most recently used first; ties broken by insertion order
	query = query.Order("last_used DESC").Order("id DESC")

	limit := opts.Limit
	if limit <= 0 {
		limit = storage.DefaultSearchLimit
	}
	query = query.Limit(limit)
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var models []storage.ClipModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to search archive: %w", err)
	}

	results := make([]storage.SearchResult, len(models))
	for i := range models {
		results[i] = models[i].ToResult()
	}
	return results, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
