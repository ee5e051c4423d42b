package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"shorter than limit", "ngắn", 10, "ngắn"},
		{"exactly at limit", "năm chữ cái", 11, "năm chữ cái"},
		{"cut at rune boundary", "bầu trời xanh", 8, "bầu trời"},
		{"trailing space trimmed", "bầu trời xanh", 9, "bầu trời"},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.maxRunes))
		})
	}
}

func TestWork_ExcerptOrPreview(t *testing.T) {
	w := &Work{Excerpt: "trích đoạn", Content: "toàn bộ nội dung"}
	assert.Equal(t, "trích đoạn", w.ExcerptOrPreview(5))

	w.Excerpt = "   "
	assert.Equal(t, "toàn", w.ExcerptOrPreview(4))
}

func TestWork_IsPublished(t *testing.T) {
	now := time.Now()

	w := &Work{Status: StatusPublished}
	assert.True(t, w.IsPublished())

	w.Status = StatusDraft
	assert.False(t, w.IsPublished())

	w.Status = StatusPublished
	w.DeletedAt = &now
	assert.False(t, w.IsPublished(), "soft-deleted works are never public")
}

func TestIsKnownGenre(t *testing.T) {
	for _, g := range KnownGenres {
		assert.True(t, IsKnownGenre(g))
	}
	assert.False(t, IsKnownGenre("opera"))
	assert.False(t, IsKnownGenre(""))
}
