package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vietdungregister/nthl/internal/models"
)

// PostgresStorage is a Storage implementation backed by PostgreSQL, for
// deployments where the catalog outgrows a single file.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS works (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL,
	genre TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	excerpt TEXT NOT NULL DEFAULT '',
	cover_image_url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'draft',
	published_at TIMESTAMPTZ,
	scheduled_at TIMESTAMPTZ,
	is_featured BOOLEAN NOT NULL DEFAULT FALSE,
	featured_date TIMESTAMPTZ,
	seo_title TEXT NOT NULL DEFAULT '',
	seo_description TEXT NOT NULL DEFAULT '',
	og_image_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	deleted_at TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_works_slug ON works(slug) WHERE deleted_at IS NULL;
CREATE INDEX IF NOT EXISTS idx_works_status ON works(status);
CREATE INDEX IF NOT EXISTS idx_works_genre ON works(genre);

CREATE TABLE IF NOT EXISTS tags (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS collections (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	cover_image TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
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
	created_at TIMESTAMPTZ NOT NULL
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
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
	id TEXT PRIMARY KEY,
	work_id TEXT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
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
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS admin_users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	login_attempts INTEGER NOT NULL DEFAULT 0,
	lock_until TIMESTAMPTZ,
	last_login_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS media (
	id TEXT PRIMARY KEY,
	file_name TEXT NOT NULL,
	url TEXT NOT NULL,
	mime_type TEXT NOT NULL DEFAULT '',
	size BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
`

// NewPostgresStorage connects to the database named by the DSN and applies
// the schema.
func NewPostgresStorage(ctx context.Context, cfg models.DatabaseConfig) (*PostgresStorage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	if cfg.ConnMaxIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

const pgWorkColumns = `id, title, slug, genre, content, excerpt, cover_image_url, status,
	published_at, scheduled_at, is_featured, featured_date,
	seo_title, seo_description, og_image_url, created_at, updated_at`

func scanPgWork(row pgx.Row) (*models.Work, error) {
	var w models.Work
	err := row.Scan(
		&w.ID, &w.Title, &w.Slug, &w.Genre, &w.Content, &w.Excerpt, &w.CoverImageURL, &w.Status,
		&w.PublishedAt, &w.ScheduledAt, &w.IsFeatured, &w.FeaturedDate,
		&w.SEOTitle, &w.SEODesc, &w.OGImageURL, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Works

func (s *PostgresStorage) CreateWork(ctx context.Context, work *models.Work) error {
	now := time.Now()
	work.CreatedAt = now
	work.UpdatedAt = now

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO works (`+pgWorkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		work.ID, work.Title, work.Slug, work.Genre, work.Content, work.Excerpt,
		work.CoverImageURL, work.Status, work.PublishedAt, work.ScheduledAt,
		work.IsFeatured, work.FeaturedDate, work.SEOTitle, work.SEODesc,
		work.OGImageURL, work.CreatedAt, work.UpdatedAt,
	)
	if isPgUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert work: %w", err)
	}

	if err := pgReplaceAssociations(ctx, tx, work); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func pgReplaceAssociations(ctx context.Context, tx pgx.Tx, work *models.Work) error {
	if _, err := tx.Exec(ctx, `DELETE FROM work_tags WHERE work_id = $1`, work.ID); err != nil {
		return fmt.Errorf("failed to clear work tags: %w", err)
	}
	for _, t := range work.Tags {
		if _, err := tx.Exec(ctx,
			`INSERT INTO work_tags (work_id, tag_id) VALUES ($1, $2)`, work.ID, t.ID); err != nil {
			return fmt.Errorf("failed to link tag: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM work_collections WHERE work_id = $1`, work.ID); err != nil {
		return fmt.Errorf("failed to clear work collections: %w", err)
	}
	for _, c := range work.Collections {
		if _, err := tx.Exec(ctx,
			`INSERT INTO work_collections (work_id, collection_id) VALUES ($1, $2)`, work.ID, c.ID); err != nil {
			return fmt.Errorf("failed to link collection: %w", err)
		}
	}
	return nil
}

func (s *PostgresStorage) GetWork(ctx context.Context, id string) (*models.Work, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgWorkColumns+` FROM works WHERE id = $1 AND deleted_at IS NULL`, id)
	w, err := scanPgWork(row)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStorage) GetWorkBySlug(ctx context.Context, slug string) (*models.Work, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgWorkColumns+` FROM works WHERE slug = $1 AND deleted_at IS NULL`, slug)
	w, err := scanPgWork(row)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStorage) loadWorkAssociations(ctx context.Context, w *models.Work) error {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.name, t.slug, t.created_at
		FROM tags t JOIN work_tags wt ON wt.tag_id = t.id
		WHERE wt.work_id = $1 ORDER BY t.name`, w.ID)
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

	crows, err := s.pool.Query(ctx, `
		SELECT c.id, c.title, c.slug, c.description, c.cover_image, c.sort_order, c.created_at
		FROM collections c JOIN work_collections wc ON wc.collection_id = c.id
		WHERE wc.work_id = $1 ORDER BY c.sort_order, c.title`, w.ID)
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

func (s *PostgresStorage) ListWorks(ctx context.Context, req *models.ListWorksRequest) ([]*models.Work, int, error) {
	where, args := pgListConditions(req)

	var total int
	if err := s.pool.QueryRow(ctx,
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

	query := fmt.Sprintf(`SELECT %s FROM works w %s %s LIMIT $%d OFFSET $%d`,
		prefixColumns("w.", pgWorkColumns), where, order, len(args)+1, len(args)+2)
	args = append(args, req.PageSize, (req.Page-1)*req.PageSize)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list works: %w", err)
	}
	defer rows.Close()

	works := []*models.Work{}
	for rows.Next() {
		w, err := scanPgWork(rows)
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

func pgListConditions(req *models.ListWorksRequest) (string, []any) {
	conds := []string{"w.deleted_at IS NULL"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !req.IncludeUnpublished {
		conds = append(conds, "w.status = "+arg(models.StatusPublished))
	}
	if req.Status != "" {
		conds = append(conds, "w.status = "+arg(req.Status))
	}
	if req.Genre != "" {
		conds = append(conds, "w.genre = "+arg(req.Genre))
	}
	if req.Search != "" {
		needle := "%" + req.Search + "%"
		p := arg(needle)
		conds = append(conds, fmt.Sprintf("(w.title ILIKE %s OR w.content ILIKE %s OR w.excerpt ILIKE %s)", p, p, p))
	}
	if req.Tag != "" {
		p := arg(req.Tag)
		conds = append(conds, fmt.Sprintf(`w.id IN (
			SELECT wt.work_id FROM work_tags wt JOIN tags t ON t.id = wt.tag_id
			WHERE t.slug = %s OR t.id = %s)`, p, p))
	}
	if req.Collection != "" {
		p := arg(req.Collection)
		conds = append(conds, fmt.Sprintf(`w.id IN (
			SELECT wc.work_id FROM work_collections wc JOIN collections c ON c.id = wc.collection_id
			WHERE c.slug = %s OR c.id = %s)`, p, p))
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStorage) UpdateWork(ctx context.Context, work *models.Work) error {
	work.UpdatedAt = time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
		UPDATE works SET title = $1, slug = $2, genre = $3, content = $4, excerpt = $5,
			cover_image_url = $6, status = $7, published_at = $8, scheduled_at = $9,
			is_featured = $10, featured_date = $11, seo_title = $12, seo_description = $13,
			og_image_url = $14, updated_at = $15
		WHERE id = $16 AND deleted_at IS NULL`,
		work.Title, work.Slug, work.Genre, work.Content, work.Excerpt,
		work.CoverImageURL, work.Status, work.PublishedAt, work.ScheduledAt,
		work.IsFeatured, work.FeaturedDate, work.SEOTitle, work.SEODesc,
		work.OGImageURL, work.UpdatedAt, work.ID,
	)
	if isPgUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to update work: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := pgReplaceAssociations(ctx, tx, work); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStorage) DeleteWork(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx,
		`UPDATE works SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete work: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) SearchWorks(ctx context.Context, filter SearchFilter) ([]*models.Work, error) {
	conds := []string{"w.deleted_at IS NULL"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	conds = append(conds, "w.status = "+arg(models.StatusPublished))

	if filter.Genre != "" {
		conds = append(conds, "w.genre = "+arg(filter.Genre))
	}
	if filter.Keywords != "" {
		p := arg("%" + filter.Keywords + "%")
		conds = append(conds, fmt.Sprintf("(w.title ILIKE %s OR w.content ILIKE %s OR w.excerpt ILIKE %s)", p, p, p))
	}
	if len(filter.Tags) > 0 {
		lowered := make([]string, len(filter.Tags))
		for i, name := range filter.Tags {
			lowered[i] = strings.ToLower(name)
		}
		p := arg(lowered)
		conds = append(conds, fmt.Sprintf(`w.id IN (
			SELECT wt.work_id FROM work_tags wt JOIN tags t ON t.id = wt.tag_id
			WHERE lower(t.name) = ANY(%s))`, p))
	}

	query := `SELECT ` + prefixColumns("w.", pgWorkColumns) + ` FROM works w
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY COALESCE(w.published_at, w.created_at) DESC`
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search works: %w", err)
	}
	defer rows.Close()

	works := []*models.Work{}
	for rows.Next() {
		w, err := scanPgWork(rows)
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

func (s *PostgresStorage) ListTags(ctx context.Context) ([]*models.Tag, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.name, t.slug, t.created_at,
			(SELECT COUNT(*) FROM work_tags wt
			 JOIN works w ON w.id = wt.work_id
			 WHERE wt.tag_id = t.id AND w.status = $1 AND w.deleted_at IS NULL)
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

func (s *PostgresStorage) CreateTag(ctx context.Context, tag *models.Tag) error {
	tag.CreatedAt = time.Now()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tags (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`,
		tag.ID, tag.Name, tag.Slug, tag.CreatedAt)
	if isPgUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func (s *PostgresStorage) UpdateTag(ctx context.Context, tag *models.Tag) error {
	res, err := s.pool.Exec(ctx,
		`UPDATE tags SET name = $1, slug = $2 WHERE id = $3`, tag.Name, tag.Slug, tag.ID)
	if isPgUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to update tag: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) DeleteTag(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Collections

func (s *PostgresStorage) ListCollections(ctx context.Context) ([]*models.Collection, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.title, c.slug, c.description, c.cover_image, c.sort_order, c.created_at,
			(SELECT COUNT(*) FROM work_collections wc
			 JOIN works w ON w.id = wc.work_id
			 WHERE wc.collection_id = c.id AND w.status = $1 AND w.deleted_at IS NULL)
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

func (s *PostgresStorage) CreateCollection(ctx context.Context, collection *models.Collection) error {
	collection.CreatedAt = time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO collections (id, title, slug, description, cover_image, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		collection.ID, collection.Title, collection.Slug, collection.Description,
		collection.CoverImage, collection.Order, collection.CreatedAt)
	if isPgUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *PostgresStorage) UpdateCollection(ctx context.Context, collection *models.Collection) error {
	res, err := s.pool.Exec(ctx, `
		UPDATE collections SET title = $1, slug = $2, description = $3, cover_image = $4, sort_order = $5
		WHERE id = $6`,
		collection.Title, collection.Slug, collection.Description,
		collection.CoverImage, collection.Order, collection.ID)
	if isPgUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) DeleteCollection(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Genres

func (s *PostgresStorage) ListGenres(ctx context.Context) ([]*models.Genre, error) {
	rows, err := s.pool.Query(ctx,
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

func (s *PostgresStorage) SaveGenre(ctx context.Context, genre *models.Genre) error {
	genre.CreatedAt = time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO genres (id, value, label, emoji, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (value) DO UPDATE SET label = EXCLUDED.label,
			emoji = EXCLUDED.emoji, sort_order = EXCLUDED.sort_order`,
		genre.ID, genre.Value, genre.Label, genre.Emoji, genre.Order, genre.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save genre: %w", err)
	}
	return nil
}

func (s *PostgresStorage) DeleteGenre(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM genres WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete genre: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Books

func (s *PostgresStorage) ListBooks(ctx context.Context) ([]*models.Book, error) {
	rows, err := s.pool.Query(ctx, `
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

func (s *PostgresStorage) CreateBook(ctx context.Context, book *models.Book) error {
	book.CreatedAt = time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO books (id, title, slug, description, cover_image, buy_url, publisher, year, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		book.ID, book.Title, book.Slug, book.Description, book.CoverImage,
		book.BuyURL, book.Publisher, book.Year, book.Order, book.CreatedAt)
	if isPgUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

func (s *PostgresStorage) UpdateBook(ctx context.Context, book *models.Book) error {
	res, err := s.pool.Exec(ctx, `
		UPDATE books SET title = $1, slug = $2, description = $3, cover_image = $4,
			buy_url = $5, publisher = $6, year = $7, sort_order = $8
		WHERE id = $9`,
		book.Title, book.Slug, book.Description, book.CoverImage,
		book.BuyURL, book.Publisher, book.Year, book.Order, book.ID)
	if isPgUniqueViolation(err) {
		return ErrSlugExists
	}
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) DeleteBook(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Comments

func (s *PostgresStorage) ListComments(ctx context.Context, workID string, limit int) ([]*models.Comment, error) {
	query := `SELECT id, work_id, name, content, created_at FROM comments
		WHERE work_id = $1 ORDER BY created_at DESC`
	args := []any{workID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
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

func (s *PostgresStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	var exists int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM works WHERE id = $1 AND deleted_at IS NULL`, comment.WorkID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check work: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	comment.CreatedAt = time.Now()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO comments (id, work_id, name, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		comment.ID, comment.WorkID, comment.Name, comment.Content, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

func (s *PostgresStorage) DeleteComment(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Author profile

func (s *PostgresStorage) GetAuthorProfile(ctx context.Context) (*models.AuthorProfile, error) {
	var p models.AuthorProfile
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, bio, bio_short, avatar_url, cover_image_url, social_links, awards, publications, updated_at
		FROM author_profile WHERE id = $1`, models.AuthorProfileID).Scan(
		&p.ID, &p.Name, &p.Bio, &p.BioShort, &p.AvatarURL, &p.CoverImageURL,
		&p.SocialLinks, &p.Awards, &p.Publications, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get author profile: %w", err)
	}
	return &p, nil
}

func (s *PostgresStorage) SaveAuthorProfile(ctx context.Context, profile *models.AuthorProfile) error {
	profile.ID = models.AuthorProfileID
	profile.UpdatedAt = time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO author_profile (id, name, bio, bio_short, avatar_url, cover_image_url, social_links, awards, publications, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, bio = EXCLUDED.bio,
			bio_short = EXCLUDED.bio_short, avatar_url = EXCLUDED.avatar_url,
			cover_image_url = EXCLUDED.cover_image_url, social_links = EXCLUDED.social_links,
			awards = EXCLUDED.awards, publications = EXCLUDED.publications,
			updated_at = EXCLUDED.updated_at`,
		profile.ID, profile.Name, profile.Bio, profile.BioShort, profile.AvatarURL,
		profile.CoverImageURL, profile.SocialLinks, profile.Awards, profile.Publications,
		profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save author profile: %w", err)
	}
	return nil
}

// Admin users

func (s *PostgresStorage) GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, login_attempts, lock_until, last_login_at, created_at
		FROM admin_users WHERE lower(email) = lower($1)`, email).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.LoginAttempts, &u.LockUntil, &u.LastLoginAt, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStorage) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	user.CreatedAt = time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admin_users (id, email, password_hash, login_attempts, lock_until, last_login_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Email, user.PasswordHash, user.LoginAttempts,
		user.LockUntil, user.LastLoginAt, user.CreatedAt)
	if isPgUniqueViolation(err) {
		return ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	return nil
}

func (s *PostgresStorage) UpdateAdminUser(ctx context.Context, user *models.AdminUser) error {
	res, err := s.pool.Exec(ctx, `
		UPDATE admin_users SET password_hash = $1, login_attempts = $2, lock_until = $3, last_login_at = $4
		WHERE id = $5`,
		user.PasswordHash, user.LoginAttempts, user.LockUntil, user.LastLoginAt, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update admin user: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Media

func (s *PostgresStorage) CreateMedia(ctx context.Context, media *models.Media) error {
	media.CreatedAt = time.Now()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO media (id, file_name, url, mime_type, size, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		media.ID, media.FileName, media.URL, media.MimeType, media.Size, media.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListMedia(ctx context.Context) ([]*models.Media, error) {
	rows, err := s.pool.Query(ctx,
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

func (s *PostgresStorage) DeleteMedia(ctx context.Context, id string) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
