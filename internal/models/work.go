// Package models defines the domain types, request/response envelopes and
// configuration structures shared across the nthl service.
//
// The catalog revolves around Work: a single literary piece (poem, novel
// chapter, essay, photo, video...) with a unique slug, a genre, an optional
// pre-computed excerpt and soft-delete semantics. Tags and collections are
// many-to-many associations resolved to full objects on read.
package models

import (
	"strings"
	"time"
	"unicode"
)

// Work statuses. Scheduled works become visible once their ScheduledAt
// passes and an editor publishes them; only published works are public.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
)

// Genre values mirror the catalog's fixed vocabulary. The Genre entity
// below carries display metadata; these constants are the stable keys.
const (
	GenrePoem     = "poem"
	GenreNovel    = "novel"
	GenreEssay    = "essay"
	GenreProse    = "prose"
	GenrePainting = "painting"
	GenrePhoto    = "photo"
	GenreVideo    = "video"
)

// KnownGenres lists every valid genre value, in display order.
var KnownGenres = []string{
	GenrePoem, GenreNovel, GenreEssay, GenreProse,
	GenrePainting, GenrePhoto, GenreVideo,
}

// IsKnownGenre reports whether value is one of the fixed genre keys.
func IsKnownGenre(value string) bool {
	for _, g := range KnownGenres {
		if g == value {
			return true
		}
	}
	return false
}

// Work is a single catalog entry.
type Work struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Slug          string        `json:"slug"`
	Genre         string        `json:"genre"`
	Content       string        `json:"content"`
	Excerpt       string        `json:"excerpt,omitempty"`
	CoverImageURL string        `json:"cover_image_url,omitempty"`
	Status        string        `json:"status"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`
	ScheduledAt   *time.Time    `json:"scheduled_at,omitempty"`
	IsFeatured    bool          `json:"is_featured"`
	FeaturedDate  *time.Time    `json:"featured_date,omitempty"`
	SEOTitle      string        `json:"seo_title,omitempty"`
	SEODesc       string        `json:"seo_description,omitempty"`
	OGImageURL    string        `json:"og_image_url,omitempty"`
	Tags          []*Tag        `json:"tags"`
	Collections   []*Collection `json:"collections"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	DeletedAt     *time.Time    `json:"-"`
}

// IsPublished reports whether the work is publicly visible.
func (w *Work) IsPublished() bool {
	return w.Status == StatusPublished && w.DeletedAt == nil
}

// ExcerptOrPreview returns the editor-provided excerpt, falling back to a
// prefix of the full content (maxRunes runes, cut at a rune boundary).
func (w *Work) ExcerptOrPreview(maxRunes int) string {
	if strings.TrimSpace(w.Excerpt) != "" {
		return w.Excerpt
	}
	return Truncate(w.Content, maxRunes)
}

// Truncate shortens s to at most maxRunes runes, trimming trailing space.
// Rune-based so multi-byte Vietnamese text is never cut mid-character.
func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return strings.TrimRightFunc(string(runes[:maxRunes]), unicode.IsSpace)
}

// Tag labels works for discovery ("Tình yêu", "Thiếu nhi", ...).
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	WorkCount int       `json:"work_count,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Collection groups works into a published volume or themed set.
type Collection struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	Order       int       `json:"order"`
	WorkCount   int       `json:"work_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Genre carries display metadata for a genre key. The fixed constants above
// are seeded as rows so the admin can adjust labels and ordering.
type Genre struct {
	ID        string    `json:"id"`
	Value     string    `json:"value"`
	Label     string    `json:"label"`
	Emoji     string    `json:"emoji"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// Book is a physical publication the author has released.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CoverImage  string    `json:"cover_image,omitempty"`
	BuyURL      string    `json:"buy_url,omitempty"`
	Publisher   string    `json:"publisher,omitempty"`
	Year        int       `json:"year,omitempty"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
}

// Media is an uploaded asset record. The service stores metadata only;
// the bytes live wherever the deployment's upload path points.
type Media struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
