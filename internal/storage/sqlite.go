package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vietdungregister/nthl/internal/models"
)

// SQLiteStorage is a Storage implementation backed by an embedded SQLite
// database. It is the default backend: a single file, no server to run.
type SQLiteStorage struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS works (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL,
	genre TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	excerpt TEXT NOT NULL DEFAULT '',
	cover_image_url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'draft',
	published_at TIMESTAMP,
	scheduled_at TIMESTAMP,
	is_featured INTEGER NOT NULL DEFAULT 0,
	featured_date TIMESTAMP,
	seo_title TEXT NOT NULL DEFAULT '',
	seo_description TEXT NOT NULL DEFAULT '',
	og_image_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	deleted_at TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_works_slug ON works(slug) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_works_status ON works(status);
CREATE INDEX IF NOT EXISTS idx_works_genre ON works(genre);

CREATE TABLE IF NOT EXISTS tags (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS collections (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	cover_image TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS work_tags (
	work_id TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
	tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (work_id, tag_id)
);

CREATE TABLE IF NOT EXISTS work_collections (
	work_id TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
	collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
	PRIMARY KEY (work_id, collection_id)
);

CREATE TABLE IF NOT EXISTS genres (
	id TEXT PRIMARY KEY,
	value TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL,
	emoji TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS books (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	cover_image TEXT NOT NULL DEFAULT '',
	buy_url TEXT NOT NULL DEFAULT '',
	publisher TEXT NOT NULL DEFAULT '',
	year INTEGER NOT NULL DEFAULT 0,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	work_id TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_comments_work ON comments(work_id, created_at);

CREATE TABLE IF NOT EXISTS author_profile (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT '',
	bio_short TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	cover_image_url TEXT NOT NULL DEFAULT '',
	social_links TEXT NOT NULL DEFAULT '',
	awards TEXT NOT NULL DEFAULT '',
	publications TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS admin_users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	login_attempts INTEGER NOT NULL DEFAULT 0,
	lock_until TIMESTAMP,
	last_login_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS media (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL,
	url TEXT NOT NULL,
	mime_type TEXT NOT NULL DEFAULT '',
	size INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
`

// NewSQLiteStorage opens (creating if needed) the database file named by the
// DSN and applies the schema.
func NewSQLiteStorage(ctx context.Context, cfg models.DatabaseConfig) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite serializes writes; a single connection avoids SQLITE_BUSY under
	// concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

const sqliteWorkColumns = `id, title, slug, genre, content, excerpt, cover_image_url, status,
	published_at, scheduled_at, is_featured, featured_date,
	seo_title, seo_description, og_image_url, created_at, updated_at`

func scanSQLiteWork(row interface{ Scan(...any) error }) (*models.Work, error) {
	var w models.Work
	var publishedAt, scheduledAt, featuredDate sql.NullTime
	err := row.Scan(
		&w.ID, &w.Title, &w.Slug, &w.Genre, &w.Content, &w.Excerpt, &w.CoverImageURL, &w.Status,
		&publishedAt, &scheduledAt, &w.IsFeatured, &featuredDate,
		&w.SEOTitle, &w.SEODesc, &w.OGImageURL, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		w.PublishedAt = &publishedAt.Time
	}
	if scheduledAt.Valid {
		w.ScheduledAt = &scheduledAt.Time
	}
	if featuredDate.Valid {
		w.FeaturedDate = &featuredDate.Time
	}
	return &w, nil
}

// Works

func (s *SQLiteStorage) CreateWork(ctx context.Context, work *models.Work) error {
	taken, err := s.slugTaken(ctx, work.Slug, "")
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugExists
	}

	now := time.Now()
	work.CreatedAt = now
	work.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO works (`+sqliteWorkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		work.ID, work.Title, work.Slug, work.Genre, work.Content, work.Excerpt,
		work.CoverImageURL, work.Status, work.PublishedAt, work.ScheduledAt,
		work.IsFeatured, work.FeaturedDate, work.SEOTitle, work.SEODesc,
		work.OGImageURL, work.CreatedAt, work.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert work: %w", err)
	}

	if err := sqliteReplaceAssociations(ctx, tx, work); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStorage) slugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM works WHERE slug = ? AND id != ? AND deleted_at IS NULL`,
		slug, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

func sqliteReplaceAssociations(ctx context.Context, tx *sql.Tx, work *models.Work) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM work_tags WHERE work_id = ?`, work.ID); err != nil {
		return fmt.Errorf("failed to clear work tags: %w", err)
	}
	for _, t := range work.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO work_tags (work_id, tag_id) VALUES (?, ?)`, work.ID, t.ID); err != nil {
			return fmt.Errorf("failed to link tag: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM work_collections WHERE work_id = ?`, work.ID); err != nil {
		return fmt.Errorf("failed to clear work collections: %w", err)
	}
	for _, c := range work.Collections {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO work_collections (work_id, collection_id) VALUES (?, ?)`, work.ID, c.ID); err != nil {
			return fmt.Errorf("failed to link collection: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStorage) GetWork(ctx context.Context, id string) (*models.Work, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteWorkColumns+` FROM works WHERE id = ? AND deleted_at IS NULL`, id)
	w, err := scanSQLiteWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work: %w", err)
	}
	if err := s.loadWorkAssociations(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *SQLiteStorage) GetWorkBySlug(ctx context.Context, slug string) (*models.Work, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteWorkColumns+` FROM works WHERE slug = ? AND deleted_at IS NULL`, slug)
	w, err := scanSQLiteWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work by slug: %w", err)
	}
	if err := s.loadWorkAssociations(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *SQLiteStorage) loadWorkAssociations(ctx context.Context, w *models.Work) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, t.created_at
		FROM tags t JOIN work_tags wt ON wt.tag_id = t.id
		WHERE wt.work_id = ? ORDER BY t.name`, w.ID)
	if err != nil {
		return fmt.Errorf("failed to load work tags: %w", err)
	}
	defer rows.Close()

	w.Tags = []*models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		w.Tags = append(w.Tags, &t)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	crows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.slug, c.description, c.cover_image, c.sort_order, c.created_at
		FROM collections c JOIN work_collections wc ON wc.collection_id = c.id
		WHERE wc.work_id = ? ORDER BY c.sort_order, c.title`, w.ID)
	if err != nil {
		return fmt.Errorf("failed to load work collections: %w", err)
	}
	defer crows.Close()

	w.Collections = []*models.Collection{}
	for crows.Next() {
		var c models.Collection
		if err := crows.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.CoverImage, &c.Order, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan collection: %w", err)
		}
		w.Collections = append(w.Collections, &c)
	}
	return crows.Err()
}

func (s *SQLiteStorage) ListWorks(ctx context.Context, req *models.ListWorksRequest) ([]*models.Work, int, error) {
	where, args := sqliteListConditions(req)

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM works w `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count works: %w", err)
	}

	order := "ORDER BY COALESCE(w.published_at, w.created_at) DESC"
	switch req.Sort {
	case "oldest":
		order = "ORDER BY COALESCE(w.published_at, w.created_at) ASC"
	case "title":
		order = "ORDER BY w.title ASC"
	}

	query := `SELECT ` + prefixColumns("w.", sqliteWorkColumns) + ` FROM works w ` +
		where + " " + order + " LIMIT ? OFFSET ?"
	args = append(args, req.PageSize, (req.Page-1)*req.PageSize)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list works: %w", err)
	}
	defer rows.Close()

	works := []*models.Work{}
	for rows.Next() {
		w, err := scanSQLiteWork(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan work: %w", err)
		}
		works = append(works, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, w := range works {
		if err := s.loadWorkAssociations(ctx, w); err != nil {
			return nil, 0, err
		}
	}
	return works, total, nil
}

func sqliteListConditions(req *models.ListWorksRequest) (string, []any) {
	conds := []string{"w.deleted_at IS NULL"}
	var args []any

	if !req.IncludeUnpublished {
		conds = append(conds, "w.status = ?")
		args = append(args, models.StatusPublished)
	}
	if req.Status != "" {
		conds = append(conds, "w.status = ?")
		args = append(args, req.Status)
	}
	if req.Genre != "" {
		conds = append(conds, "w.genre = ?")
		args = append(args, req.Genre)
	}
	if req.Search != "" {
		needle := "%" + strings.ToLower(req.Search) + "%"
		conds = append(conds, "(lower(w.title) LIKE ? OR lower(w.content) LIKE ? OR lower(w.excerpt) LIKE ?)")
		args = append(args, needle, needle, needle)
	}
	if req.Tag != "" {
		conds = append(conds, `w.id IN (
			SELECT wt.work_id FROM work_tags wt JOIN tags t ON t.id = wt.tag_id
			WHERE t.slug = ? OR t.id = ?)`)
		args = append(args, req.Tag, req.Tag)
	}
	if req.Collection != "" {
		conds = append(conds, `w.id IN (
			SELECT wc.work_id FROM work_collections wc JOIN collections c ON c.id = wc.collection_id
			WHERE c.slug = ? OR c.id = ?)`)
		args = append(args, req.Collection, req.Collection)
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// prefixColumns qualifies each column in a comma-separated list.
func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func (s *SQLiteStorage) UpdateWork(ctx context.Context, work *models.Work) error {
	taken, err := s.slugTaken(ctx, work.Slug, work.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugExists
	}

	work.UpdatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE works SET title = ?, slug = ?, genre = ?, content = ?, excerpt = ?,
			cover_image_url = ?, status = ?, published_at = ?, scheduled_at = ?,
			is_featured = ?, featured_date = ?, seo_title = ?, seo_description = ?,
			og_image_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		work.Title, work.Slug, work.Genre, work.Content, work.Excerpt,
		work.CoverImageURL, work.Status, work.PublishedAt, work.ScheduledAt,
		work.IsFeatured, work.FeaturedDate, work.SEOTitle, work.SEODesc,
		work.OGImageURL, work.UpdatedAt, work.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update work: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := sqliteReplaceAssociations(ctx, tx, work); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStorage) DeleteWork(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE works SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now(), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete work: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) SearchWorks(ctx context.Context, filter SearchFilter) ([]*models.Work, error) {
	conds := []string{"w.deleted_at IS NULL", "w.status = ?"}
	args := []any{models.StatusPublished}

	if filter.Genre != "" {
		conds = append(conds, "w.genre = ?")
		args = append(args, filter.Genre)
	}
	if filter.Keywords != "" {
		needle := "%" + strings.ToLower(filter.Keywords) + "%"
		conds = append(conds, "(lower(w.title) LIKE ? OR lower(w.content) LIKE ? OR lower(w.excerpt) LIKE ?)")
		args = append(args, needle, needle, needle)
	}
	if len(filter.Tags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Tags)), ",")
		conds = append(conds, `w.id IN (
			SELECT wt.work_id FROM work_tags wt JOIN tags t ON t.id = wt.tag_id
			WHERE lower(t.name) IN (`+placeholders+`))`)
		for _, name := range filter.Tags {
			args = append(args, strings.ToLower(name))
		}
	}

	query := `SELECT ` + prefixColumns("w.", sqliteWorkColumns) + ` FROM works w
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY COALESCE(w.published_at, w.created_at) DESC`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search works: %w", err)
	}
	defer rows.Close()

	works := []*models.Work{}
	for rows.Next() {
		w, err := scanSQLiteWork(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work: %w", err)
		}
		works = append(works, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, w := range works {
		if err := s.loadWorkAssociations(ctx, w); err != nil {
			return nil, err
		}
	}
	return works, nil
}

// Tags

func (s *SQLiteStorage) ListTags(ctx context.Context) ([]*models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, t.created_at,
			(SELECT COUNT(*) FROM work_tags wt
			 JOIN works w ON w.id = wt.work_id
			 WHERE wt.tag_id = t.id AND w.status = ? AND w.deleted_at IS NULL)
		FROM tags t ORDER BY t.name`, models.StatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.CreatedAt, &t.WorkCount); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

func (s *SQLiteStorage) CreateTag(ctx context.Context, tag *models.Tag) error {
	tag.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
		tag.ID, tag.Name, tag.Slug, tag.CreatedAt)
	if isSQLiteUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpdateTag(ctx context.Context, tag *models.Tag) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tags SET name = ?, slug = ? WHERE id = ?`, tag.Name, tag.Slug, tag.ID)
	if isSQLiteUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to update tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteTag(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Collections

func (s *SQLiteStorage) ListCollections(ctx context.Context) ([]*models.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.slug, c.description, c.cover_image, c.sort_order, c.created_at,
			(SELECT COUNT(*) FROM work_collections wc
			 JOIN works w ON w.id = wc.work_id
			 WHERE wc.collection_id = c.id AND w.status = ? AND w.deleted_at IS NULL)
		FROM collections c ORDER BY c.sort_order, c.title`, models.StatusPublished)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	collections := []*models.Collection{}
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.CoverImage, &c.Order, &c.CreatedAt, &c.WorkCount); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, &c)
	}
	return collections, rows.Err()
}

func (s *SQLiteStorage) CreateCollection(ctx context.Context, collection *models.Collection) error {
	collection.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (id, title, slug, description, cover_image, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		collection.ID, collection.Title, collection.Slug, collection.Description,
		collection.CoverImage, collection.Order, collection.CreatedAt)
	if isSQLiteUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpdateCollection(ctx context.Context, collection *models.Collection) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE collections SET title = ?, slug = ?, description = ?, cover_image = ?, sort_order = ?
		WHERE id = ?`,
		collection.Title, collection.Slug, collection.Description,
		collection.CoverImage, collection.Order, collection.ID)
	if isSQLiteUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteCollection(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Genres

func (s *SQLiteStorage) ListGenres(ctx context.Context) ([]*models.Genre, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, value, label, emoji, sort_order, created_at FROM genres ORDER BY sort_order, value`)
	if err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	defer rows.Close()

	genres := []*models.Genre{}
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Value, &g.Label, &g.Emoji, &g.Order, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan genre: %w", err)
		}
		genres = append(genres, &g)
	}
	return genres, rows.Err()
}

func (s *SQLiteStorage) SaveGenre(ctx context.Context, genre *models.Genre) error {
	genre.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO genres (id, value, label, emoji, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(value) DO UPDATE SET label = excluded.label,
			emoji = excluded.emoji, sort_order = excluded.sort_order`,
		genre.ID, genre.Value, genre.Label, genre.Emoji, genre.Order, genre.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save genre: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteGenre(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM genres WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete genre: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Books

func (s *SQLiteStorage) ListBooks(ctx context.Context) ([]*models.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, slug, description, cover_image, buy_url, publisher, year, sort_order, created_at
		FROM books ORDER BY sort_order, title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := []*models.Book{}
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Slug, &b.Description, &b.CoverImage,
			&b.BuyURL, &b.Publisher, &b.Year, &b.Order, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, &b)
	}
	return books, rows.Err()
}

func (s *SQLiteStorage) CreateBook(ctx context.Context, book *models.Book) error {
	book.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (id, title, slug, description, cover_image, buy_url, publisher, year, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID, book.Title, book.Slug, book.Description, book.CoverImage,
		book.BuyURL, book.Publisher, book.Year, book.Order, book.CreatedAt)
	if isSQLiteUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpdateBook(ctx context.Context, book *models.Book) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE books SET title = ?, slug = ?, description = ?, cover_image = ?,
			buy_url = ?, publisher = ?, year = ?, sort_order = ?
		WHERE id = ?`,
		book.Title, book.Slug, book.Description, book.CoverImage,
		book.BuyURL, book.Publisher, book.Year, book.Order, book.ID)
	if isSQLiteUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteBook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Comments

func (s *SQLiteStorage) ListComments(ctx context.Context, workID string, limit int) ([]*models.Comment, error) {
	query := `SELECT id, work_id, name, content, created_at FROM comments
		WHERE work_id = ? ORDER BY created_at DESC`
	args := []any{workID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.WorkID, &c.Name, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (s *SQLiteStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM works WHERE id = ? AND deleted_at IS NULL`, comment.WorkID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check work: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	comment.CreatedAt = time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO comments (id, work_id, name, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.WorkID, comment.Name, comment.Content, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteComment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Author profile

func (s *SQLiteStorage) GetAuthorProfile(ctx context.Context) (*models.AuthorProfile, error) {
	var p models.AuthorProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, bio, bio_short, avatar_url, cover_image_url, social_links, awards, publications, updated_at
		FROM author_profile WHERE id = ?`, models.AuthorProfileID).Scan(
		&p.ID, &p.Name, &p.Bio, &p.BioShort, &p.AvatarURL, &p.CoverImageURL,
		&p.SocialLinks, &p.Awards, &p.Publications, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get author profile: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStorage) SaveAuthorProfile(ctx context.Context, profile *models.AuthorProfile) error {
	profile.ID = models.AuthorProfileID
	profile.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO author_profile (id, name, bio, bio_short, avatar_url, cover_image_url, social_links, awards, publications, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, bio = excluded.bio,
			bio_short = excluded.bio_short, avatar_url = excluded.avatar_url,
			cover_image_url = excluded.cover_image_url, social_links = excluded.social_links,
			awards = excluded.awards, publications = excluded.publications,
			updated_at = excluded.updated_at`,
		profile.ID, profile.Name, profile.Bio, profile.BioShort, profile.AvatarURL,
		profile.CoverImageURL, profile.SocialLinks, profile.Awards, profile.Publications,
		profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save author profile: %w", err)
	}
	return nil
}

// Admin users

func (s *SQLiteStorage) GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var u models.AdminUser
	var lockUntil, lastLogin sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, login_attempts, lock_until, last_login_at, created_at
		FROM admin_users WHERE lower(email) = lower(?)`, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.LoginAttempts, &lockUntil, &lastLogin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	if lockUntil.Valid {
		u.LockUntil = &lockUntil.Time
	}
	if lastLogin.Valid {
		u.LastLoginAt = &lastLogin.Time
	}
	return &u, nil
}

func (s *SQLiteStorage) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	user.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_users (id, email, password_hash, login_attempts, lock_until, last_login_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.LoginAttempts,
		user.LockUntil, user.LastLoginAt, user.CreatedAt)
	if isSQLiteUniqueViolation(err) {
		return ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpdateAdminUser(ctx context.Context, user *models.AdminUser) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE admin_users SET password_hash = ?, login_attempts = ?, lock_until = ?, last_login_at = ?
		WHERE id = ?`,
		user.PasswordHash, user.LoginAttempts, user.LockUntil, user.LastLoginAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update admin user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Media

func (s *SQLiteStorage) CreateMedia(ctx context.Context, media *models.Media) error {
	media.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO media (id, file_name, url, mime_type, size, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		media.ID, media.FileName, media.URL, media.MimeType, media.Size, media.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListMedia(ctx context.Context) ([]*models.Media, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file_name, url, mime_type, size, created_at FROM media ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	items := []*models.Media{}
	for rows.Next() {
		var m models.Media
		if err := rows.Scan(&m.ID, &m.FileName, &m.URL, &m.MimeType, &m.Size, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		items = append(items, &m)
	}
	return items, rows.Err()
}

func (s *SQLiteStorage) DeleteMedia(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// isSQLiteUniqueViolation detects unique constraint failures without
// depending on driver error types.
func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
