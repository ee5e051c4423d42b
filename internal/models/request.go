// Package models - API request types and validation.
// Incoming payloads are decoded into these structures and validated before
// any storage or upstream call happens. Validation returns plain errors;
// the HTTP layer maps them to 400 responses.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// List request bounds. The page size cap prevents full-table dumps through
// the public listing endpoint.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListWorksRequest filters and paginates the works listing.
type ListWorksRequest struct {
	Status     string `json:"status,omitempty"`
	Genre      string `json:"genre,omitempty"`
	Search     string `json:"search,omitempty"`
	Collection string `json:"collection,omitempty"`
	Tag        string `json:"tag,omitempty"`
	Sort       string `json:"sort,omitempty"` // newest (default), oldest, title
	Page       int    `json:"page,omitempty"`
	PageSize   int    `json:"page_size,omitempty"`

	// IncludeUnpublished is set by the HTTP layer for authenticated admin
	// sessions; it is never decoded from the request body.
	IncludeUnpublished bool `json:"-"`
}

// Normalize clamps pagination and fills defaults.
func (r *ListWorksRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = DefaultPageSize
	}
	if r.PageSize > MaxPageSize {
		r.PageSize = MaxPageSize
	}
	switch r.Sort {
	case "oldest", "title":
	default:
		r.Sort = "newest"
	}
}

// Validate rejects unknown filter values.
func (r *ListWorksRequest) Validate() error {
	if r.Genre != "" && !IsKnownGenre(r.Genre) {
		return fmt.Errorf("unknown genre: %s", r.Genre)
	}
	switch r.Status {
	case "", StatusDraft, StatusPublished, StatusScheduled:
		return nil
	default:
		return fmt.Errorf("unknown status: %s", r.Status)
	}
}

// SaveWorkRequest carries the writable fields of a work for create and
// update. Pointer fields distinguish "not provided" from zero values on
// update.
type SaveWorkRequest struct {
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Genre         string   `json:"genre"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt"`
	CoverImageURL string   `json:"cover_image_url"`
	Status        string   `json:"status"`
	PublishedAt   string   `json:"published_at"`
	ScheduledAt   string   `json:"scheduled_at"`
	IsFeatured    bool     `json:"is_featured"`
	FeaturedDate  string   `json:"featured_date"`
	SEOTitle      string   `json:"seo_title"`
	SEODesc       string   `json:"seo_description"`
	OGImageURL    string   `json:"og_image_url"`
	TagIDs        []string `json:"tag_ids"`
	CollectionIDs []string `json:"collection_ids"`
}

// Validate checks required fields. Photo and video works may omit the
// title; a display title is generated on save.
func (r *SaveWorkRequest) Validate() error {
	if r.Slug == "" {
		return errors.New("slug is required")
	}
	if r.Genre == "" {
		return errors.New("genre is required")
	}
	if !IsKnownGenre(r.Genre) {
		return fmt.Errorf("unknown genre: %s", r.Genre)
	}
	isMedia := r.Genre == GenrePhoto || r.Genre == GenreVideo
	if !isMedia && strings.TrimSpace(r.Title) == "" {
		return errors.New("title is required")
	}
	switch r.Status {
	case "", StatusDraft, StatusPublished, StatusScheduled:
	default:
		return fmt.Errorf("unknown status: %s", r.Status)
	}
	return nil
}

// Comment limits. Content beyond MaxCommentLength and names beyond
// MaxCommentNameLength are rejected, not truncated.
const (
	MaxCommentLength     = 2000
	MaxCommentNameLength = 100
	MaxWorkIDLength      = 36
)

// CreateCommentRequest is the public comment submission payload. The
// workId key matches the query parameter of the comments listing.
type CreateCommentRequest struct {
	WorkID  string `json:"workId"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Validate enforces presence and length limits on the raw input.
func (r *CreateCommentRequest) Validate() error {
	if r.WorkID == "" || len(r.WorkID) > MaxWorkIDLength {
		return errors.New("work_id không hợp lệ")
	}
	if strings.TrimSpace(r.Content) == "" {
		return errors.New("nội dung bình luận không được để trống")
	}
	if len([]rune(r.Content)) > MaxCommentLength {
		return fmt.Errorf("bình luận tối đa %d ký tự", MaxCommentLength)
	}
	if len([]rune(r.Name)) > MaxCommentNameLength {
		return fmt.Errorf("tên tối đa %d ký tự", MaxCommentNameLength)
	}
	return nil
}

// Sanitize strips HTML from user-supplied fields and applies the anonymous
// name fallback. Call after Validate; returns an error when the content is
// empty once tags are removed.
func (r *CreateCommentRequest) Sanitize() error {
	r.Content = StripHTML(r.Content)
	r.Name = StripHTML(r.Name)
	if r.Name == "" {
		r.Name = AnonymousName
	}
	if r.Content == "" {
		return errors.New("nội dung bình luận không hợp lệ")
	}
	return nil
}

// AISearchRequest is the semantic search payload.
type AISearchRequest struct {
	Query string `json:"query"`
}

// SaveTagRequest creates or renames a tag.
type SaveTagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (r *SaveTagRequest) Validate() error {
	if r.Name == "" || r.Slug == "" {
		return errors.New("name and slug are required")
	}
	return nil
}

// SaveCollectionRequest creates or updates a collection.
type SaveCollectionRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	CoverImage  string `json:"cover_image"`
	Order       int    `json:"order"`
}

func (r *SaveCollectionRequest) Validate() error {
	if r.Title == "" || r.Slug == "" {
		return errors.New("title and slug are required")
	}
	return nil
}

// SaveBookRequest creates or updates a published book entry.
type SaveBookRequest struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	CoverImage  string `json:"cover_image"`
	BuyURL      string `json:"buy_url"`
	Publisher   string `json:"publisher"`
	Year        int    `json:"year"`
	Order       int    `json:"order"`
}

func (r *SaveBookRequest) Validate() error {
	if r.Title == "" || r.Slug == "" {
		return errors.New("title and slug are required")
	}
	return nil
}

// SaveGenreRequest creates or updates genre display metadata.
type SaveGenreRequest struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
	Order int    `json:"order"`
}

func (r *SaveGenreRequest) Validate() error {
	if r.Value == "" || r.Label == "" {
		return errors.New("value and label are required")
	}
	return nil
}

// SaveAuthorRequest upserts the author profile.
type SaveAuthorRequest struct {
	Name          string `json:"name"`
	Bio           string `json:"bio"`
	BioShort      string `json:"bio_short"`
	AvatarURL     string `json:"avatar_url"`
	CoverImageURL string `json:"cover_image_url"`
	SocialLinks   string `json:"social_links"`
	Awards        string `json:"awards"`
	Publications  string `json:"publications"`
}

// LoginRequest authenticates a CMS editor.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return errors.New("email and password are required")
	}
	return nil
}
