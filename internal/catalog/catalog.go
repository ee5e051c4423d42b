// Package catalog exposes the read-only lookup the AI librarian uses to
// search the published works. It projects full works down to the compact
// shape handed to the language model and echoed back to API callers.
package catalog

import (
	"context"
	"fmt"

	"github.com/vietdungregister/nthl/internal/models"
	"github.com/vietdungregister/nthl/internal/storage"
)

// Result-count bounds for a single lookup.
const (
	DefaultLimit = 5
	MaxLimit     = 10
)

// previewRunes bounds the text sent to the model per work, so a handful of
// matches never blows up the prompt.
const previewRunes = 600

// Query is one catalog lookup. All provided fields are ANDed; zero values
// mean "no constraint".
type Query struct {
	Keywords string   `json:"keywords,omitempty"`
	Genre    string   `json:"genre,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// Normalize clamps the limit into [1, MaxLimit], defaulting when absent.
func (q *Query) Normalize() {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
}

// Service answers catalog lookups against the store. Only published,
// non-deleted works are ever returned.
type Service struct {
	store storage.Storage
}

// NewService creates a catalog lookup service.
func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

// Search runs the lookup and projects matches, most recent first.
func (s *Service) Search(ctx context.Context, query Query) ([]models.WorkMatch, error) {
	query.Normalize()

	works, err := s.store.SearchWorks(ctx, storage.SearchFilter{
		Keywords: query.Keywords,
		Genre:    query.Genre,
		Tags:     query.Tags,
		Limit:    query.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	matches := make([]models.WorkMatch, 0, len(works))
	for _, w := range works {
		matches = append(matches, Project(w))
	}
	return matches, nil
}

// Project reduces a work to the match shape: excerpt preferred, bounded
// content prefix as fallback, tags flattened to names.
func Project(w *models.Work) models.WorkMatch {
	tags := make([]string, 0, len(w.Tags))
	for _, t := range w.Tags {
		tags = append(tags, t.Name)
	}
	return models.WorkMatch{
		ID:             w.ID,
		Title:          w.Title,
		Slug:           w.Slug,
		Genre:          w.Genre,
		Excerpt:        w.ExcerptOrPreview(previewRunes),
		ContentPreview: models.Truncate(w.Content, previewRunes),
		Tags:           tags,
		PublishedAt:    w.PublishedAt,
	}
}
