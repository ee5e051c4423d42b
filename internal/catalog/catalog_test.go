package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdungregister/nthl/internal/models"
	"github.com/vietdungregister/nthl/internal/storage"
)

func seedWork(t *testing.T, store storage.Storage, title, genre, content, excerpt string, tags ...*models.Tag) *models.Work {
	t.Helper()
	now := time.Now()
	w := &models.Work{
		ID:          uuid.New().String(),
		Title:       title,
		Slug:        uuid.New().String(),
		Genre:       genre,
		Content:     content,
		Excerpt:     excerpt,
		Status:      models.StatusPublished,
		PublishedAt: &now,
		Tags:        tags,
	}
	require.NoError(t, store.CreateWork(context.Background(), w))
	return w
}

func TestQueryNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero defaults", 0, DefaultLimit},
		{"negative defaults", -3, DefaultLimit},
		{"in range kept", 7, 7},
		{"capped", 50, MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Query{Limit: tt.in}
			q.Normalize()
			assert.Equal(t, tt.want, q.Limit)
		})
	}
}

func TestServiceSearch(t *testing.T) {
	store := storage.NewMemoryStorage()
	svc := NewService(store)
	ctx := context.Background()

	tag := &models.Tag{ID: uuid.New().String(), Name: "Tình yêu", Slug: "tinh-yeu"}
	require.NoError(t, store.CreateTag(ctx, tag))

	seedWork(t, store, "Ra vườn nhặt nắng", models.GenrePoem, "ông ra vườn nhặt nắng", "", tag)
	seedWork(t, store, "Biển", models.GenreEssay, "sóng vỗ bờ", "")

	matches, err := svc.Search(ctx, Query{Keywords: "nắng"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Ra vườn nhặt nắng", matches[0].Title)
	assert.Equal(t, []string{"Tình yêu"}, matches[0].Tags)
	assert.NotNil(t, matches[0].PublishedAt)
}

func TestServiceSearchLimitClamp(t *testing.T) {
	store := storage.NewMemoryStorage()
	svc := NewService(store)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		seedWork(t, store, "Bài", models.GenrePoem, "nội dung", "")
	}

	matches, err := svc.Search(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, matches, DefaultLimit)

	matches, err = svc.Search(ctx, Query{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, matches, MaxLimit)
}

func TestProject(t *testing.T) {
	now := time.Now()
	w := &models.Work{
		ID:          "id-1",
		Title:       "Bài thơ",
		Slug:        "bai-tho",
		Genre:       models.GenrePoem,
		Content:     "nội dung đầy đủ",
		Excerpt:     "trích đoạn",
		PublishedAt: &now,
		Tags:        []*models.Tag{{Name: "Tình yêu"}},
	}

	match := Project(w)
	assert.Equal(t, "trích đoạn", match.Excerpt, "editor excerpt wins")
	assert.Equal(t, "nội dung đầy đủ", match.ContentPreview)
	assert.Equal(t, []string{"Tình yêu"}, match.Tags)
}

func TestProjectExcerptFallback(t *testing.T) {
	long := strings.Repeat("chữ ", 400)
	w := &models.Work{Title: "Dài", Content: long}

	match := Project(w)
	assert.NotEmpty(t, match.Excerpt)
	assert.LessOrEqual(t, len([]rune(match.Excerpt)), 600, "fallback is a bounded content prefix")
	assert.True(t, strings.HasPrefix(long, match.Excerpt))
}
