package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/vietdungregister/nthl/internal/models"
	"github.com/vietdungregister/nthl/internal/storage"
)

// InstrumentedStorage wraps a storage.Storage implementation with
// OpenTelemetry tracing and metrics instrumentation.
type InstrumentedStorage struct {
	inner    storage.Storage
	tracer   trace.Tracer
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewInstrumentedStorage creates a storage wrapper that records trace spans,
// operation latency histograms, and error counters for every storage method
// call.
func NewInstrumentedStorage(inner storage.Storage) (*InstrumentedStorage, error) {
	tracer := otel.Tracer("nthl/storage")
	meter := otel.Meter("nthl/storage")

	duration, err := meter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Duration of storage operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter(
		"storage.operation.errors",
		metric.WithDescription("Number of storage operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedStorage{
		inner:    inner,
		tracer:   tracer,
		duration: duration,
		errors:   errCounter,
	}, nil
}

func (s *InstrumentedStorage) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "storage."+operation,
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("storage.operation", operation),
		}, attrs...)...),
	)
	return ctx, span
}

func (s *InstrumentedStorage) record(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	elapsed := time.Since(start).Seconds()
	attrs := metric.WithAttributes(attribute.String("operation", operation))

	s.duration.Record(ctx, elapsed, attrs)

	if err != nil {
		s.errors.Add(ctx, 1, attrs)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

func (s *InstrumentedStorage) CreateWork(ctx context.Context, work *models.Work) error {
	ctx, span := s.startSpan(ctx, "CreateWork", attribute.String("work_id", work.ID))
	start := time.Now()
	err := s.inner.CreateWork(ctx, work)
	s.record(ctx, span, "CreateWork", start, err)
	return err
}

func (s *InstrumentedStorage) GetWork(ctx context.Context, id string) (*models.Work, error) {
	ctx, span := s.startSpan(ctx, "GetWork", attribute.String("work_id", id))
	start := time.Now()
	result, err := s.inner.GetWork(ctx, id)
	s.record(ctx, span, "GetWork", start, err)
	return result, err
}

func (s *InstrumentedStorage) GetWorkBySlug(ctx context.Context, slug string) (*models.Work, error) {
	ctx, span := s.startSpan(ctx, "GetWorkBySlug", attribute.String("work_slug", slug))
	start := time.Now()
	result, err := s.inner.GetWorkBySlug(ctx, slug)
	s.record(ctx, span, "GetWorkBySlug", start, err)
	return result, err
}

func (s *InstrumentedStorage) ListWorks(ctx context.Context, req *models.ListWorksRequest) ([]*models.Work, int, error) {
	ctx, span := s.startSpan(ctx, "ListWorks")
	start := time.Now()
	result, total, err := s.inner.ListWorks(ctx, req)
	span.SetAttributes(attribute.Int("result_count", len(result)))
	s.record(ctx, span, "ListWorks", start, err)
	return result, total, err
}

func (s *InstrumentedStorage) UpdateWork(ctx context.Context, work *models.Work) error {
	ctx, span := s.startSpan(ctx, "UpdateWork", attribute.String("work_id", work.ID))
	start := time.Now()
	err := s.inner.UpdateWork(ctx, work)
	s.record(ctx, span, "UpdateWork", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteWork(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeleteWork", attribute.String("work_id", id))
	start := time.Now()
	err := s.inner.DeleteWork(ctx, id)
	s.record(ctx, span, "DeleteWork", start, err)
	return err
}

func (s *InstrumentedStorage) SearchWorks(ctx context.Context, filter storage.SearchFilter) ([]*models.Work, error) {
	ctx, span := s.startSpan(ctx, "SearchWorks",
		attribute.String("search_genre", filter.Genre),
		attribute.Int("search_limit", filter.Limit),
	)
	start := time.Now()
	result, err := s.inner.SearchWorks(ctx, filter)
	span.SetAttributes(attribute.Int("result_count", len(result)))
	s.record(ctx, span, "SearchWorks", start, err)
	return result, err
}

func (s *InstrumentedStorage) ListTags(ctx context.Context) ([]*models.Tag, error) {
	ctx, span := s.startSpan(ctx, "ListTags")
	start := time.Now()
	result, err := s.inner.ListTags(ctx)
	s.record(ctx, span, "ListTags", start, err)
	return result, err
}

func (s *InstrumentedStorage) CreateTag(ctx context.Context, tag *models.Tag) error {
	ctx, span := s.startSpan(ctx, "CreateTag", attribute.String("tag_id", tag.ID))
	start := time.Now()
	err := s.inner.CreateTag(ctx, tag)
	s.record(ctx, span, "CreateTag", start, err)
	return err
}

func (s *InstrumentedStorage) UpdateTag(ctx context.Context, tag *models.Tag) error {
	ctx, span := s.startSpan(ctx, "UpdateTag", attribute.String("tag_id", tag.ID))
	start := time.Now()
	err := s.inner.UpdateTag(ctx, tag)
	s.record(ctx, span, "UpdateTag", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteTag(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeleteTag", attribute.String("tag_id", id))
	start := time.Now()
	err := s.inner.DeleteTag(ctx, id)
	s.record(ctx, span, "DeleteTag", start, err)
	return err
}

func (s *InstrumentedStorage) ListCollections(ctx context.Context) ([]*models.Collection, error) {
	ctx, span := s.startSpan(ctx, "ListCollections")
	start := time.Now()
	result, err := s.inner.ListCollections(ctx)
	s.record(ctx, span, "ListCollections", start, err)
	return result, err
}

func (s *InstrumentedStorage) CreateCollection(ctx context.Context, collection *models.Collection) error {
	ctx, span := s.startSpan(ctx, "CreateCollection", attribute.String("collection_id", collection.ID))
	start := time.Now()
	err := s.inner.CreateCollection(ctx, collection)
	s.record(ctx, span, "CreateCollection", start, err)
	return err
}

func (s *InstrumentedStorage) UpdateCollection(ctx context.Context, collection *models.Collection) error {
	ctx, span := s.startSpan(ctx, "UpdateCollection", attribute.String("collection_id", collection.ID))
	start := time.Now()
	err := s.inner.UpdateCollection(ctx, collection)
	s.record(ctx, span, "UpdateCollection", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteCollection(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeleteCollection", attribute.String("collection_id", id))
	start := time.Now()
	err := s.inner.DeleteCollection(ctx, id)
	s.record(ctx, span, "DeleteCollection", start, err)
	return err
}

func (s *InstrumentedStorage) ListGenres(ctx context.Context) ([]*models.Genre, error) {
	ctx, span := s.startSpan(ctx, "ListGenres")
	start := time.Now()
	result, err := s.inner.ListGenres(ctx)
	s.record(ctx, span, "ListGenres", start, err)
	return result, err
}

func (s *InstrumentedStorage) SaveGenre(ctx context.Context, genre *models.Genre) error {
	ctx, span := s.startSpan(ctx, "SaveGenre", attribute.String("genre_value", genre.Value))
	start := time.Now()
	err := s.inner.SaveGenre(ctx, genre)
	s.record(ctx, span, "SaveGenre", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteGenre(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeleteGenre", attribute.String("genre_id", id))
	start := time.Now()
	err := s.inner.DeleteGenre(ctx, id)
	s.record(ctx, span, "DeleteGenre", start, err)
	return err
}

func (s *InstrumentedStorage) ListBooks(ctx context.Context) ([]*models.Book, error) {
	ctx, span := s.startSpan(ctx, "ListBooks")
	start := time.Now()
	result, err := s.inner.ListBooks(ctx)
	s.record(ctx, span, "ListBooks", start, err)
	return result, err
}

func (s *InstrumentedStorage) CreateBook(ctx context.Context, book *models.Book) error {
	ctx, span := s.startSpan(ctx, "CreateBook", attribute.String("book_id", book.ID))
	start := time.Now()
	err := s.inner.CreateBook(ctx, book)
	s.record(ctx, span, "CreateBook", start, err)
	return err
}

func (s *InstrumentedStorage) UpdateBook(ctx context.Context, book *models.Book) error {
	ctx, span := s.startSpan(ctx, "UpdateBook", attribute.String("book_id", book.ID))
	start := time.Now()
	err := s.inner.UpdateBook(ctx, book)
	s.record(ctx, span, "UpdateBook", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteBook(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeleteBook", attribute.String("book_id", id))
	start := time.Now()
	err := s.inner.DeleteBook(ctx, id)
	s.record(ctx, span, "DeleteBook", start, err)
	return err
}

func (s *InstrumentedStorage) ListComments(ctx context.Context, workID string, limit int) ([]*models.Comment, error) {
	ctx, span := s.startSpan(ctx, "ListComments", attribute.String("work_id", workID))
	start := time.Now()
	result, err := s.inner.ListComments(ctx, workID, limit)
	s.record(ctx, span, "ListComments", start, err)
	return result, err
}

func (s *InstrumentedStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	ctx, span := s.startSpan(ctx, "CreateComment", attribute.String("work_id", comment.WorkID))
	start := time.Now()
	err := s.inner.CreateComment(ctx, comment)
	s.record(ctx, span, "CreateComment", start, err)
	return err
}

func (s *InstrumentedStorage) DeleteComment(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeleteComment", attribute.String("comment_id", id))
	start := time.Now()
	err := s.inner.DeleteComment(ctx, id)
	s.record(ctx, span, "DeleteComment", start, err)
	return err
}

func (s *InstrumentedStorage) GetAuthorProfile(ctx context.Context) (*models.AuthorProfile, error) {
	ctx, span := s.startSpan(ctx, "GetAuthorProfile")
	start := time.Now()
	result, err := s.inner.GetAuthorProfile(ctx)
	s.record(ctx, span, "GetAuthorProfile", start, err)
	return result, err
}

func (s *InstrumentedStorage) SaveAuthorProfile(ctx context.Context, profile *models.AuthorProfile) error {
	ctx, span := s.startSpan(ctx, "SaveAuthorProfile")
	start := time.Now()
	err := s.inner.SaveAuthorProfile(ctx, profile)
	s.record(ctx, span, "SaveAuthorProfile", start, err)
	return err
}

func (s *InstrumentedStorage) GetAdminUserByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	// The email is deliberately not recorded as a span attribute.
	ctx, span := s.startSpan(ctx, "GetAdminUserByEmail")
	start := time.Now()
	result, err := s.inner.GetAdminUserByEmail(ctx, email)
	s.record(ctx, span, "GetAdminUserByEmail", start, err)
	return result, err
}

func (s *InstrumentedStorage) CreateAdminUser(ctx context.Context, user *models.AdminUser) error {
	ctx, span := s.startSpan(ctx, "CreateAdminUser", attribute.String("user_id", user.ID))
	start := time.Now()
	err := s.inner.CreateAdminUser(ctx, user)
	s.record(ctx, span, "CreateAdminUser", start, err)
	return err
}

func (s *InstrumentedStorage) UpdateAdminUser(ctx context.Context, user *models.AdminUser) error {
	ctx, span := s.startSpan(ctx, "UpdateAdminUser", attribute.String("user_id", user.ID))
	start := time.Now()
	err := s.inner.UpdateAdminUser(ctx, user)
	s.record(ctx, span, "UpdateAdminUser", start, err)
	return err
}

func (s *InstrumentedStorage) CreateMedia(ctx context.Context, media *models.Media) error {
	ctx, span := s.startSpan(ctx, "CreateMedia", attribute.String("media_id", media.ID))
	start := time.Now()
	err := s.inner.CreateMedia(ctx, media)
	s.record(ctx, span, "CreateMedia", start, err)
	return err
}

func (s *InstrumentedStorage) ListMedia(ctx context.Context) ([]*models.Media, error) {
	ctx, span := s.startSpan(ctx, "ListMedia")
	start := time.Now()
	result, err := s.inner.ListMedia(ctx)
	s.record(ctx, span, "ListMedia", start, err)
	return result, err
}

func (s *InstrumentedStorage) DeleteMedia(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeleteMedia", attribute.String("media_id", id))
	start := time.Now()
	err := s.inner.DeleteMedia(ctx, id)
	s.record(ctx, span, "DeleteMedia", start, err)
	return err
}

func (s *InstrumentedStorage) Ping(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Ping")
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.record(ctx, span, "Ping", start, err)
	return err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}
