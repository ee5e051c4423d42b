package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vietdungregister/nthl/internal/models"
)

// MemoryStorage is an in-memory Storage implementation used for tests and
// local development. All data is lost on restart.
type MemoryStorage struct {
	mu          sync.RWMutex
	works       map[string]*models.Work
	tags        map[string]*models.Tag
	collections map[string]*models.Collection
	genres      map[string]*models.Genre
	books       map[string]*models.Book
	comments    map[string]*models.Comment
	admins      map[string]*models.AdminUser // keyed by lowercased email
	media       map[string]*models.Media
	author      *models.AuthorProfile
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		works:       make(map[string]*models.Work),
		tags:        make(map[string]*models.Tag),
		collections: make(map[string]*models.Collection),
		genres:      make(map[string]*models.Genre),
		books:       make(map[string]*models.Book),
		comments:    make(map[string]*models.Comment),
		admins:      make(map[string]*models.AdminUser),
		media:       make(map[string]*models.Media),
	}
}

// Works

func (m *MemoryStorage) CreateWork(ctx context.Context, work *models.Work) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, w := range m.works {
		if w.Slug == work.Slug && w.DeletedAt == nil {
			return ErrSlugExists
		}
	}

	now := time.Now()
	work.CreatedAt = now
	work.UpdatedAt = now
	m.works[work.ID] = copyWork(work)
	return nil
}

func (m *MemoryStorage) GetWork(ctx context.Context, id string) (*models.Work, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.works[id]
	if !ok || w.DeletedAt != nil {
		return nil, ErrNotFound
	}
	return copyWork(w), nil
}

func (m *MemoryStorage) GetWorkBySlug(ctx context.Context, slug string) (*models.Work, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, w := range m.works {
		if w.Slug == slug && w.DeletedAt == nil {
			return copyWork(w), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStorage) ListWorks(ctx context.Context, req *models.ListWorksRequest) ([]*models.Work, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*models.Work
	for _, w := range m.works {
		if !matchListFilter(w, req) {
			continue
		}
		matched = append(matched, copyWork(w))
	}

	sortWorks(matched, req.Sort)

	total := len(matched)
	start := (req.Page - 1) * req.PageSize
	if start >= total {
		return []*models.Work{}, total, nil
	}
	end := start + req.PageSize
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *MemoryStorage) UpdateWork(ctx context.Context, work *models.Work) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.works[work.ID]
	if !ok || existing.DeletedAt != nil {
		return ErrNotFound
	}
	for id, w := range m.works {
		if id != work.ID && w.Slug == work.Slug && w.DeletedAt == nil {
			return ErrSlugExists
		}
	}

	work.CreatedAt = existing.CreatedAt
	work.UpdatedAt = time.Now()
	m.works[work.ID] = copyWork(work)
	return nil
}

func (m *MemoryStorage) DeleteWork(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.works[id]
	if !ok || w.DeletedAt != nil {
		return ErrNotFound
	}
	now := time.Now()
	w.DeletedAt = &now
	w.UpdatedAt = now
	return nil
}

func (m *MemoryStorage) SearchWorks(ctx context.Context, filter SearchFilter) ([]*models.Work, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*models.Work
	for _, w := range m.works {
		if !w.IsPublished() {
			continue
		}
		if filter.Genre != "" && w.Genre != filter.Genre {
			continue
		}
		if filter.Keywords != "" && !matchKeywords(w, filter.Keywords) {
			continue
		}
		if len(filter.Tags) > 0 && !hasAnyTag(w, filter.Tags) {
			continue
		}
		matched = append(matched, copyWork(w))
	}

	sortWorks(matched, "newest")

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// matchListFilter applies the public listing filters. Soft-deleted works
// never match; unpublished works match only for admin requests.
func matchListFilter(w *models.Work, req *models.ListWorksRequest) bool {
	if w.DeletedAt != nil {
		return false
	}
	if !req.IncludeUnpublished && w.Status != models.StatusPublished {
		return false
	}
	if req.Status != "" && w.Status != req.Status {
		return false
	}
	if req.Genre != "" && w.Genre != req.Genre {
		return false
	}
	if req.Search != "" && !matchKeywords(w, req.Search) {
		return false
	}
	if req.Tag != "" {
		found := false
		for _, t := range w.Tags {
			if t.Slug == req.Tag || t.ID == req.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if req.Collection != "" {
		found := false
		for _, c := range w.Collections {
			if c.Slug == req.Collection || c.ID == req.Collection {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// matchKeywords is a case-insensitive substring match against title, content
// and excerpt. Both query paths (public listing search and the catalog
// lookup) share this one normalization policy.
func matchKeywords(w *models.Work, keywords string) bool {
	needle := strings.ToLower(keywords)
	return strings.Contains(strings.ToLower(w.Title), needle) ||
		strings.Contains(strings.ToLower(w.Content), needle) ||
		strings.Contains(strings.ToLower(w.Excerpt), needle)
}

// hasAnyTag reports whether the work carries any of the given tag names.
func hasAnyTag(w *models.Work, names []string) bool {
	for _, t := range w.Tags {
		for _, name := range names {
			if strings.EqualFold(t.Name, name) {
				return true
			}
		}
	}
	return false
}

// sortWorks orders works newest-first by publication date (created date for
// unpublished rows), oldest-first, or by title.
func sortWorks(works []*models.Work, order string) {
	key := func(w *models.Work) time.Time {
		if w.PublishedAt != nil {
			return *w.PublishedAt
		}
		return w.CreatedAt
	}
	switch order {
	case "oldest":
		sort.Slice(works, func(i, j int) bool { return key(works[i]).Before(key(works[j])) })
	case "title":
		sort.Slice(works, func(i, j int) bool { return works[i].Title < works[j].Title })
	default:
		sort.Slice(works, func(i, j int) bool { return key(works[i]).After(key(works[j])) })
	}
}

// Tags

func (m *MemoryStorage) ListTags(ctx context.Context) ([]*models.Tag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]*models.Tag, 0, len(m.tags))
	for _, t := range m.tags {
		c := *t
		c.WorkCount = m.tagWorkCount(t.ID)
		tags = append(tags, &c)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// tagWorkCount counts published works carrying the tag. Caller holds the lock.
func (m *MemoryStorage) tagWorkCount(tagID string) int {
	n := 0
	for _, w := range m.works {
		if !w.IsPublished() {
			continue
		}
		for _, t := range w.Tags {
			if t.ID == tagID {
				n++
				break
			}
		}
	}
	return n
}

func (m *MemoryStorage) CreateTag(ctx context.Context, tag *models.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.tags {
		if t.Slug == tag.Slug {
			return ErrSlugExists
		}
	}
	tag.CreatedAt = time.Now()
	c := *tag
	m.tags[tag.ID] = &c
	return nil
}

func (m *MemoryStorage) UpdateTag(ctx context.Context, tag *models.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.tags[tag.ID]
	if !ok {
		return ErrNotFound
	}
	for id, t := range m.tags {
		if id != tag.ID && t.Slug == tag.Slug {
			return ErrSlugExists
		}
	}
	tag.CreatedAt = existing.CreatedAt
	c := *tag
	m.tags[tag.ID] = &c

	for _, w := range m.works {
		for i, t := range w.Tags {
			if t.ID == tag.ID {
				w.Tags[i] = &c
			}
		}
	}
	return nil
}

func (m *MemoryStorage) DeleteTag(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tags[id]; !ok {
		return ErrNotFound
	}
	delete(m.tags, id)

	for _, w := range m.works {
		kept := w.Tags[:0]
		for _, t := range w.Tags {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		w.Tags = kept
	}
	return nil
}

// Collections

func (m *MemoryStorage) ListCollections(ctx context.Context) ([]*models.Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	collections := make([]*models.Collection, 0, len(m.collections))
	for _, c := range m.collections {
		cc := *c
		cc.WorkCount = m.collectionWorkCount(c.ID)
		collections = append(collections, &cc)
	}
	sort.Slice(collections, func(i, j int) bool {
		if collections[i].Order != collections[j].Order {
			return collections[i].Order < collections[j].Order
		}
		return collections[i].Title < collections[j].Title
	})
	return collections, nil
}

func (m *MemoryStorage) collectionWorkCount(collectionID string) int {
	n := 0
	for _, w := range m.works {
		if !w.IsPublished() {
			continue
		}
		for _, c := range w.Collections {
			if c.ID == collectionID {
				n++
				break
			}
		}
	}
	return n
}

func (m *MemoryStorage) CreateCollection(ctx context.Context, collection *models.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.collections {
		if c.Slug == collection.Slug {
			return ErrSlugExists
		}
	}
	collection.CreatedAt = time.Now()
	c := *collection
	m.collections[collection.ID] = &c
	return nil
}

func (m *MemoryStorage) UpdateCollection(ctx context.Context, collection *models.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.collections[collection.ID]
	if !ok {
		return ErrNotFound
	}
	for id, c := range m.collections {
		if id != collection.ID && c.Slug == collection.Slug {
			return ErrSlugExists
		}
	}
	collection.CreatedAt = existing.CreatedAt
	c := *collection
	m.collections[collection.ID] = &c

	for _, w := range m.works {
		for i, wc := range w.Collections {
			if wc.ID == collection.ID {
				w.Collections[i] = &c
			}
		}
	}
	return nil
}

func (m *MemoryStorage) DeleteCollection(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[id]; !ok {
		return ErrNotFound
	}
	delete(m.collections, id)

	for _, w := range m.works {
		kept := w.Collections[:0]
		for _, c := range w.Collections {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		w.Collections = kept
	}
	return nil
}

// Genres

func (m *MemoryStorage) ListGenres(ctx context.Context) ([]*models.Genre, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	genres := make([]*models.Genre, 0, len(m.genres))
	for _, g := range m.genres {
		c := *g
		genres = append(genres, &c)
	}
	sort.Slice(genres, func(i, j int) bool {
		if genres[i].Order != genres[j].Order {
			return genres[i].Order < genres[j].Order
		}
		return genres[i].Value < genres[j].Value
	})
	return genres, nil
}

func (m *MemoryStorage) SaveGenre(ctx context.Context, genre *models.Genre) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Upsert by value: each genre key has at most one metadata row.
	for id, g := range m.genres {
		if g.Value == genre.Value {
			genre.ID = id
			genre.CreatedAt = g.CreatedAt
			c := *genre
			m.genres[id] = &c
			return nil
		}
	}
	genre.CreatedAt = time.Now()
	c := *genre
	m.genres[genre.ID] = &c
	return nil
}

func (m *MemoryStorage) DeleteGenre(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.genres[id]; !ok {
		return ErrNotFound
	}
	delete(m.genres, id)
	return nil
}

// Books

func (m *MemoryStorage) ListBooks(ctx context.Context) ([]*models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	books := make([]*models.Book, 0, len(m.books))
	for _, b := range m.books {
		c := *b
		books = append(books, &c)
	}
	sort.Slice(books, func(i, j int) bool {
		if books[i].Order != books[j].Order {
			return books[i].Order < books[j].Order
		}
		return books[i].Title < books[j].Title
	})
	return books, nil
}

func (m *MemoryStorage) CreateBook(ctx context.Context, book *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.books {
		if b.Slug == book.Slug {
			return ErrSlugExists
		}
	}
	book.CreatedAt = time.Now()
	c := *book
	m.books[book.ID] = &c
	return nil
}

func (m *MemoryStorage) UpdateBook(ctx context.Context, book *models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.books[book.ID]
	if !ok {
		return ErrNotFound
	}
	for id, b := range m.books {
		if id != book.ID && b.Slug == book.Slug {
			return ErrSlugExists
		}
	}
	book.CreatedAt = existing.CreatedAt
	c := *book
	m.books[book.ID] = &c
	return nil
}

func (m *MemoryStorage) DeleteBook(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return ErrNotFound
	}
	delete(m.books, id)
	return nil
}

// Comments

func (m *MemoryStorage) ListComments(ctx context.Context, workID string, limit int) ([]*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var comments []*models.Comment
	for _, c := range m.comments {
		if c.WorkID == workID {
			cc := *c
			comments = append(comments, &cc)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	if limit > 0 && len(comments) > limit {
		comments = comments[:limit]
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}

func (m *MemoryStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.works[comment.WorkID]
	if !ok || w.DeletedAt != nil {
		return ErrNotFound
	}
	comment.CreatedAt = time.Now()
	c := *comment
	m.comments[comment.ID] = &c
	return nil
}

func (m *MemoryStorage) DeleteComment(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.comments[id]; !ok {
		return ErrNotFound
	}
	delete(m.comments, id)
	return nil
}

// Author profile

func (m *MemoryStorage) GetAuthorProfile(ctx context.Context) (*models.AuthorProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.author == nil {
		return nil, ErrNotFound
	}
	c := *m.author
	return &c, nil
}

func (m *MemoryStorage) SaveAuthorProfile(ctx context.Context, profile *models.AuthorProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile.ID = models.AuthorProfileID
	profile.UpdatedAt = time.Now()
	c := *profile
	m.author = &c
	return nil
}

// Admin users

func (m *MemoryStorage) GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.admins[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *MemoryStorage) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := m.admins[key]; ok {
		return ErrEmailExists
	}
	user.CreatedAt = time.Now()
	c := *user
	m.admins[key] = &c
	return nil
}

func (m *MemoryStorage) UpdateAdminUser(ctx context.Context, user *models.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := m.admins[key]; !ok {
		return ErrNotFound
	}
	c := *user
	m.admins[key] = &c
	return nil
}

// Media

func (m *MemoryStorage) CreateMedia(ctx context.Context, media *models.Media) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	media.CreatedAt = time.Now()
	c := *media
	m.media[media.ID] = &c
	return nil
}

func (m *MemoryStorage) ListMedia(ctx context.Context) ([]*models.Media, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*models.Media, 0, len(m.media))
	for _, md := range m.media {
		c := *md
		items = append(items, &c)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (m *MemoryStorage) DeleteMedia(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.media[id]; !ok {
		return ErrNotFound
	}
	delete(m.media, id)
	return nil
}

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) Close() error { return nil }

// copyWork returns a copy with its own tag and collection slices so callers
// cannot mutate stored state.
func copyWork(w *models.Work) *models.Work {
	c := *w
	if w.Tags != nil {
		c.Tags = make([]*models.Tag, len(w.Tags))
		for i, t := range w.Tags {
			tc := *t
			c.Tags[i] = &tc
		}
	} else {
		c.Tags = []*models.Tag{}
	}
	if w.Collections != nil {
		c.Collections = make([]*models.Collection, len(w.Collections))
		for i, col := range w.Collections {
			cc := *col
			c.Collections[i] = &cc
		}
	} else {
		c.Collections = []*models.Collection{}
	}
	return &c
}
