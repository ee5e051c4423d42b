package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdungregister/nthl/internal/models"
	"github.com/vietdungregister/nthl/internal/storage"
	"github.com/vietdungregister/nthl/internal/version"
)

func setupTestProvider(t *testing.T) *Provider {
	t.Helper()
	metrics := models.MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090}
	obs := models.ObservabilityConfig{
		ServiceName: "test",
		Tracing: models.TracingConfig{
			Enabled:    true,
			Exporter:   "stdout",
			SampleRate: 1.0,
		},
	}
	provider, err := Setup(metrics, obs, version.Info{})
	require.NoError(t, err)
	t.Cleanup(func() { provider.Shutdown(context.Background()) })
	return provider
}

func newInstrumentedMemory(t *testing.T) *InstrumentedStorage {
	t.Helper()
	_ = setupTestProvider(t)
	instrumented, err := NewInstrumentedStorage(storage.NewMemoryStorage())
	require.NoError(t, err)
	return instrumented
}

func TestNewInstrumentedStorage(t *testing.T) {
	instrumented := newInstrumentedMemory(t)
	assert.NotNil(t, instrumented)
}

func TestInstrumentedStorage_Ping(t *testing.T) {
	instrumented := newInstrumentedMemory(t)
	assert.NoError(t, instrumented.Ping(context.Background()))
}

func TestInstrumentedStorage_WorkOperations(t *testing.T) {
	instrumented := newInstrumentedMemory(t)
	ctx := context.Background()

	now := time.Now()
	work := &models.Work{
		ID:          "work-1",
		Title:       "Bầu trời",
		Slug:        "bau-troi",
		Genre:       models.GenrePoem,
		Content:     "bầu trời xanh",
		Status:      models.StatusPublished,
		PublishedAt: &now,
	}
	require.NoError(t, instrumented.CreateWork(ctx, work))

	got, err := instrumented.GetWork(ctx, "work-1")
	require.NoError(t, err)
	assert.Equal(t, "Bầu trời", got.Title)

	got, err = instrumented.GetWorkBySlug(ctx, "bau-troi")
	require.NoError(t, err)
	assert.Equal(t, "work-1", got.ID)

	works, total, err := instrumented.ListWorks(ctx, &models.ListWorksRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, works, 1)

	matches, err := instrumented.SearchWorks(ctx, storage.SearchFilter{Keywords: "xanh", Limit: 5})
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	require.NoError(t, instrumented.DeleteWork(ctx, "work-1"))
	_, err = instrumented.GetWork(ctx, "work-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInstrumentedStorage_ErrorsPropagate(t *testing.T) {
	instrumented := newInstrumentedMemory(t)
	ctx := context.Background()

	_, err := instrumented.GetWork(ctx, "không có")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = instrumented.DeleteWork(ctx, "không có")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInstrumentedStorage_AuxiliaryOperations(t *testing.T) {
	instrumented := newInstrumentedMemory(t)
	ctx := context.Background()

	tag := &models.Tag{ID: "tag-1", Name: "thiếu nhi", Slug: "thieu-nhi"}
	require.NoError(t, instrumented.CreateTag(ctx, tag))
	tags, err := instrumented.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	require.NoError(t, instrumented.SaveAuthorProfile(ctx, &models.AuthorProfile{Name: "Nguyễn Thế Hoàng Linh"}))
	profile, err := instrumented.GetAuthorProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Nguyễn Thế Hoàng Linh", profile.Name)

	require.NoError(t, instrumented.DeleteTag(ctx, "tag-1"))
}
