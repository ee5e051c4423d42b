// Package storage defines the persistence contract for the nthl catalog and
// provides memory, SQLite and PostgreSQL implementations behind a common
// interface.
package storage

import (
	"context"

	"github.com/vietdungregister/nthl/internal/models"
)

// SearchFilter narrows a catalog search. All provided conditions are
// combined with AND: Keywords is a case-insensitive substring match against
// title, content and excerpt; Genre is an exact match; Tags match when the
// work carries any of the listed tag names.
type SearchFilter struct {
	Keywords string
	Genre    string
	Tags     []string
	Limit    int
}

// Storage defines the persistence contract. All implementations must be
// safe for concurrent use.
//
// Reads of works resolve tag and collection associations to full objects.
// DeleteWork is a soft delete: the row is kept, stamped and excluded from
// every read path.
type Storage interface {
	// Works
	CreateWork(ctx context.Context, work *models.Work) error
	GetWork(ctx context.Context, id string) (*models.Work, error)
	GetWorkBySlug(ctx context.Context, slug string) (*models.Work, error)
	ListWorks(ctx context.Context, req *models.ListWorksRequest) ([]*models.Work, int, error)
	UpdateWork(ctx context.Context, work *models.Work) error
	DeleteWork(ctx context.Context, id string) error

	// SearchWorks returns published, non-deleted works matching the filter,
	// newest publication first.
	SearchWorks(ctx context.Context, filter SearchFilter) ([]*models.Work, error)

	// Tags
	ListTags(ctx context.Context) ([]*models.Tag, error)
	CreateTag(ctx context.Context, tag *models.Tag) error
	UpdateTag(ctx context.Context, tag *models.Tag) error
	DeleteTag(ctx context.Context, id string) error

	// Collections
	ListCollections(ctx context.Context) ([]*models.Collection, error)
	CreateCollection(ctx context.Context, collection *models.Collection) error
	UpdateCollection(ctx context.Context, collection *models.Collection) error
	DeleteCollection(ctx context.Context, id string) error

	// Genres (display metadata rows)
	ListGenres(ctx context.Context) ([]*models.Genre, error)
	SaveGenre(ctx context.Context, genre *models.Genre) error
	DeleteGenre(ctx context.Context, id string) error

	// Books
	ListBooks(ctx context.Context) ([]*models.Book, error)
	CreateBook(ctx context.Context, book *models.Book) error
	UpdateBook(ctx context.Context, book *models.Book) error
	DeleteBook(ctx context.Context, id string) error

	// Comments
	ListComments(ctx context.Context, workID string, limit int) ([]*models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id string) error

	// Author profile (single row, upsert semantics)
	GetAuthorProfile(ctx context.Context) (*models.AuthorProfile, error)
	SaveAuthorProfile(ctx context.Context, profile *models.AuthorProfile) error

	// Admin users
	GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	CreateAdminUser(ctx context.Context, user *models.AdminUser) error
	UpdateAdminUser(ctx context.Context, user *models.AdminUser) error

	// Media metadata
	CreateMedia(ctx context.Context, media *models.Media) error
	ListMedia(ctx context.Context) ([]*models.Media, error)
	DeleteMedia(ctx context.Context, id string) error

	// Ping checks backend connectivity for health reporting.
	Ping(ctx context.Context) error

	// Close releases held resources.
	Close() error
}
