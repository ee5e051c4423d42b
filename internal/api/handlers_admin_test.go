package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdungregister/nthl/internal/models"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "mật-khẩu-rất-dài"
)

func (ts *testServer) seedAdmin(t *testing.T) {
	t.Helper()
	user := &models.AdminUser{ID: uuid.New().String(), Email: testAdminEmail}
	require.NoError(t, user.SetPassword(testAdminPassword))
	require.NoError(t, ts.store.CreateAdminUser(context.Background(), user))
}

// login authenticates and returns the session cookie.
func (ts *testServer) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/admin/login", models.LoginRequest{
		Email:    testAdminEmail,
		Password: testAdminPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func withCookie(c *http.Cookie) func(*http.Request) {
	return func(r *http.Request) { r.AddCookie(c) }
}

func TestAdminLogin(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAdmin(t)

	cookie := ts.login(t)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
}

func TestAdminLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAdmin(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/admin/login", models.LoginRequest{
		Email:    testAdminEmail,
		Password: "sai mật khẩu",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLogin_UnknownEmailSameMessage(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAdmin(t)

	wrongPass := ts.do(t, http.MethodPost, "/api/v1/admin/login", models.LoginRequest{
		Email: testAdminEmail, Password: "sai",
	})
	unknown := ts.do(t, http.MethodPost, "/api/v1/admin/login", models.LoginRequest{
		Email: "ai-do@example.com", Password: "sai",
	})
	assert.Equal(t, wrongPass.Body.String(), unknown.Body.String(),
		"responses must not reveal whether the email exists")
}

func TestAdminLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAdmin(t)

	bad := models.LoginRequest{Email: testAdminEmail, Password: "sai"}
	for i := 0; i < models.MaxLoginAttempts; i++ {
		ts.do(t, http.MethodPost, "/api/v1/admin/login", bad)
	}

	// Even the correct password is refused while locked.
	rec := ts.do(t, http.MethodPost, "/api/v1/admin/login", models.LoginRequest{
		Email:    testAdminEmail,
		Password: testAdminPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	user, err := ts.store.GetAdminUserByEmail(context.Background(), testAdminEmail)
	require.NoError(t, err)
	assert.True(t, user.IsLocked(time.Now()))
}

func TestAdminRoutes_RequireSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/admin/works", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/admin/works", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "giả mạo"})
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLogout_RevokesSession(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAdmin(t)
	cookie := ts.login(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/admin/logout", nil, withCookie(cookie))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/admin/works", nil, withCookie(cookie))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminWorkLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAdmin(t)
	cookie := ts.login(t)

	// Create a draft.
	rec := ts.do(t, http.MethodPost, "/api/v1/admin/works", models.SaveWorkRequest{
		Title:   "Bài mới",
		Slug:    "bai-moi",
		Genre:   models.GenrePoem,
		Content: "nội dung",
	}, withCookie(cookie))
	require.Equal(t, http.StatusCreated, rec.Code)

	var work models.Work
	require.NoError(t, decodeBody(rec, &work))
	assert.Equal(t, models.StatusDraft, work.Status)

	// Drafts are invisible publicly but visible to the admin.
	pub := ts.do(t, http.MethodGet, "/api/v1/works/"+work.ID, nil)
	assert.Equal(t, http.StatusNotFound, pub.Code)
	adm := ts.do(t, http.MethodGet, "/api/v1/admin/works/"+work.ID, nil, withCookie(cookie))
	assert.Equal(t, http.StatusOK, adm.Code)

	// Publish; the timestamp is stamped automatically.
	rec = ts.do(t, http.MethodPut, "/api/v1/admin/works/"+work.ID, models.SaveWorkRequest{
		Title:   "Bài mới",
		Slug:    "bai-moi",
		Genre:   models.GenrePoem,
		Content: "nội dung",
		Status:  models.StatusPublished,
	}, withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, decodeBody(rec, &work))
	require.NotNil(t, work.PublishedAt)

	pub = ts.do(t, http.MethodGet, "/api/v1/works/bai-moi", nil)
	assert.Equal(t, http.StatusOK, pub.Code)

	// Delete hides it again.
	rec = ts.do(t, http.MethodDelete, "/api/v1/admin/works/"+work.ID, nil, withCookie(cookie))
	require.Equal(t, http.StatusNoContent, rec.Code)
	pub = ts.do(t, http.MethodGet, "/api/v1/works/bai-moi", nil)
	assert.Equal(t, http.StatusNotFound, pub.Code)
}

func TestAdminCreateWork_Validation(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAdmin(t)
	cookie := ts.login(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/admin/works", models.SaveWorkRequest{
		Slug: "thieu-the-loai",
	}, withCookie(cookie))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Photo works may omit the title; a display title is generated.
	rec = ts.do(t, http.MethodPost, "/api/v1/admin/works", models.SaveWorkRequest{
		Slug:  "anh-khong-ten",
		Genre: models.GenrePhoto,
	}, withCookie(cookie))
	require.Equal(t, http.StatusCreated, rec.Code)
	var work models.Work
	require.NoError(t, decodeBody(rec, &work))
	assert.NotEmpty(t, work.Title)
}

func TestAdminCreateWork_SlugConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAdmin(t)
	cookie := ts.login(t)

	payload := models.SaveWorkRequest{Title: "A", Slug: "trung", Genre: models.GenrePoem}
	rec := ts.do(t, http.MethodPost, "/api/v1/admin/works", payload, withCookie(cookie))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/admin/works", payload, withCookie(cookie))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminTagsAndAuthor(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAdmin(t)
	cookie := ts.login(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/admin/tags", models.SaveTagRequest{
		Name: "Tình yêu", Slug: "tinh-yeu",
	}, withCookie(cookie))
	require.Equal(t, http.StatusCreated, rec.Code)

	var tag models.Tag
	require.NoError(t, decodeBody(rec, &tag))

	rec = ts.do(t, http.MethodPut, "/api/v1/admin/tags/"+tag.ID, models.SaveTagRequest{
		Name: "Tình yêu và khác", Slug: "tinh-yeu",
	}, withCookie(cookie))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/admin/author", models.SaveAuthorRequest{
		Name: "Nguyễn Thế Hoàng Linh", BioShort: "nhà thơ",
	}, withCookie(cookie))
	require.Equal(t, http.StatusOK, rec.Code)

	pub := ts.do(t, http.MethodGet, "/api/v1/author", nil)
	require.Equal(t, http.StatusOK, pub.Code)
	var profile models.AuthorProfile
	require.NoError(t, decodeBody(pub, &profile))
	assert.Equal(t, "nhà thơ", profile.BioShort)
}

func TestAdminGenreValidation(t *testing.T) {
	ts := newTestServer(t)
	ts.seedAdmin(t)
	cookie := ts.login(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/admin/genres", models.SaveGenreRequest{
		Value: "opera", Label: "Opera",
	}, withCookie(cookie))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/admin/genres", models.SaveGenreRequest{
		Value: models.GenrePoem, Label: "Thơ", Emoji: "🪶", Order: 1,
	}, withCookie(cookie))
	assert.Equal(t, http.StatusOK, rec.Code)
}
