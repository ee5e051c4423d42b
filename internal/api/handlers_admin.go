package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/vietdungregister/nthl/internal/models"
	"github.com/vietdungregister/nthl/internal/storage"
)

// msgLoginFailed is deliberately identical for unknown emails and wrong
// passwords so login probing learns nothing.
const msgLoginFailed = "Email hoặc mật khẩu không đúng"

// AdminLogin authenticates a CMS editor and issues a session cookie.
// POST /api/v1/admin/login
func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	now := time.Now()
	user, err := h.store.GetAdminUserByEmail(r.Context(), req.Email)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("Login attempt for unknown email", "email", req.Email)
		h.writeErrorResponse(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, msgLoginFailed)
		return
	}
	if err != nil {
		h.writeStorageError(w, err)
		return
	}

	if user.IsLocked(now) {
		slog.Warn("Login attempt on locked account", "email", user.Email)
		h.writeErrorResponse(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized,
			"Tài khoản tạm khóa do đăng nhập sai nhiều lần. Thử lại sau 15 phút.")
		return
	}

	if !user.CheckPassword(req.Password) {
		user.RegisterFailedLogin(now)
		if err := h.store.UpdateAdminUser(r.Context(), user); err != nil {
			slog.Error("Failed to record failed login", "error", err)
		}
		slog.Warn("Failed login", "email", user.Email, "attempts", user.LoginAttempts)
		h.writeErrorResponse(w, http.StatusUnauthorized, models.ErrorCodeUnauthorized, msgLoginFailed)
		return
	}

	user.RegisterSuccessfulLogin(now)
	if err := h.store.UpdateAdminUser(r.Context(), user); err != nil {
		slog.Error("Failed to record login", "error", err)
	}

	session, err := h.sessions.Create(user.Email)
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
		return
	}

	http.SetCookie(w, sessionCookie(session, h.config.Security.SecureCookies))
	slog.Info("Admin logged in", "email", user.Email)
	h.writeJSONResponse(w, http.StatusOK, &models.LoginResponse{
		Email:     user.Email,
		ExpiresAt: session.ExpiresAt,
	})
}

// AdminLogout revokes the current session.
// POST /api/v1/admin/logout
func (h *Handlers) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		h.sessions.Delete(cookie.Value)
	}
	http.SetCookie(w, expiredSessionCookie(h.config.Security.SecureCookies))
	w.WriteHeader(http.StatusNoContent)
}

// AdminListWorks lists works including drafts and scheduled entries.
// GET /api/v1/admin/works
func (h *Handlers) AdminListWorks(w http.ResponseWriter, r *http.Request) {
	req := listWorksRequestFromQuery(r)
	req.Status = r.URL.Query().Get("status")
	req.IncludeUnpublished = true
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	works, total, err := h.store.ListWorks(r.Context(), req)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, &models.ListWorksResponse{
		Works:      works,
		Pagination: models.NewPagination(req.Page, req.PageSize, total),
	})
}

// AdminGetWork returns any non-deleted work by ID.
// GET /api/v1/admin/works/{id}
func (h *Handlers) AdminGetWork(w http.ResponseWriter, r *http.Request) {
	work, err := h.store.GetWork(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, work)
}

// AdminCreateWork creates a work.
// POST /api/v1/admin/works
func (h *Handlers) AdminCreateWork(w http.ResponseWriter, r *http.Request) {
	var req models.SaveWorkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	work := &models.Work{ID: newID()}
	if err := h.applySaveWorkRequest(r, work, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	if err := h.store.CreateWork(r.Context(), work); err != nil {
		h.writeStorageError(w, err)
		return
	}
	slog.Info("Work created", "id", work.ID, "slug", work.Slug, "status", work.Status)
	h.writeJSONResponse(w, http.StatusCreated, work)
}

// AdminUpdateWork updates a work.
// PUT /api/v1/admin/works/{id}
func (h *Handlers) AdminUpdateWork(w http.ResponseWriter, r *http.Request) {
	var req models.SaveWorkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	work, err := h.store.GetWork(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	if err := h.applySaveWorkRequest(r, work, &req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	if err := h.store.UpdateWork(r.Context(), work); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, work)
}

// applySaveWorkRequest copies request fields onto the work, resolving tag
// and collection IDs and filling publication timestamps.
func (h *Handlers) applySaveWorkRequest(r *http.Request, work *models.Work, req *models.SaveWorkRequest) error {
	work.Title = strings.TrimSpace(req.Title)
	work.Slug = req.Slug
	work.Genre = req.Genre
	work.Content = req.Content
	work.Excerpt = req.Excerpt
	work.CoverImageURL = req.CoverImageURL
	work.IsFeatured = req.IsFeatured
	work.SEOTitle = req.SEOTitle
	work.SEODesc = req.SEODesc
	work.OGImageURL = req.OGImageURL

	// Photos and videos may come in without a title.
	if work.Title == "" {
		work.Title = "Tác phẩm " + work.Genre
	}

	work.Status = req.Status
	if work.Status == "" {
		work.Status = models.StatusDraft
	}

	var err error
	if work.PublishedAt, err = parseOptionalTime(req.PublishedAt); err != nil {
		return errors.New("published_at không hợp lệ")
	}
	if work.ScheduledAt, err = parseOptionalTime(req.ScheduledAt); err != nil {
		return errors.New("scheduled_at không hợp lệ")
	}
	if work.FeaturedDate, err = parseOptionalTime(req.FeaturedDate); err != nil {
		return errors.New("featured_date không hợp lệ")
	}

	// Publishing without an explicit timestamp stamps now.
	if work.Status == models.StatusPublished && work.PublishedAt == nil {
		now := time.Now()
		work.PublishedAt = &now
	}

	work.Tags = make([]*models.Tag, 0, len(req.TagIDs))
	if len(req.TagIDs) > 0 {
		all, err := h.store.ListTags(r.Context())
		if err != nil {
			return err
		}
		byID := make(map[string]*models.Tag, len(all))
		for _, t := range all {
			byID[t.ID] = t
		}
		for _, id := range req.TagIDs {
			t, ok := byID[id]
			if !ok {
				return errors.New("tag không tồn tại: " + id)
			}
			work.Tags = append(work.Tags, t)
		}
	}

	work.Collections = make([]*models.Collection, 0, len(req.CollectionIDs))
	if len(req.CollectionIDs) > 0 {
		all, err := h.store.ListCollections(r.Context())
		if err != nil {
			return err
		}
		byID := make(map[string]*models.Collection, len(all))
		for _, c := range all {
			byID[c.ID] = c
		}
		for _, id := range req.CollectionIDs {
			c, ok := byID[id]
			if !ok {
				return errors.New("collection không tồn tại: " + id)
			}
			work.Collections = append(work.Collections, c)
		}
	}
	return nil
}

func parseOptionalTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AdminDeleteWork soft-deletes a work.
// DELETE /api/v1/admin/works/{id}
func (h *Handlers) AdminDeleteWork(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.DeleteWork(r.Context(), id); err != nil {
		h.writeStorageError(w, err)
		return
	}
	slog.Info("Work deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// AdminCreateTag creates a tag.
// POST /api/v1/admin/tags
func (h *Handlers) AdminCreateTag(w http.ResponseWriter, r *http.Request) {
	var req models.SaveTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	tag := &models.Tag{ID: newID(), Name: req.Name, Slug: req.Slug}
	if err := h.store.CreateTag(r.Context(), tag); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, tag)
}

// AdminUpdateTag renames a tag.
// PUT /api/v1/admin/tags/{id}
func (h *Handlers) AdminUpdateTag(w http.ResponseWriter, r *http.Request) {
	var req models.SaveTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	tag := &models.Tag{ID: mux.Vars(r)["id"], Name: req.Name, Slug: req.Slug}
	if err := h.store.UpdateTag(r.Context(), tag); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, tag)
}

// AdminDeleteTag removes a tag and detaches it from works.
// DELETE /api/v1/admin/tags/{id}
func (h *Handlers) AdminDeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTag(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminCreateCollection creates a collection.
// POST /api/v1/admin/collections
func (h *Handlers) AdminCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req models.SaveCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	collection := &models.Collection{
		ID:          newID(),
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Order:       req.Order,
	}
	if err := h.store.CreateCollection(r.Context(), collection); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, collection)
}

// AdminUpdateCollection updates a collection.
// PUT /api/v1/admin/collections/{id}
func (h *Handlers) AdminUpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req models.SaveCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	collection := &models.Collection{
		ID:          mux.Vars(r)["id"],
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Order:       req.Order,
	}
	if err := h.store.UpdateCollection(r.Context(), collection); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, collection)
}

// AdminDeleteCollection removes a collection.
// DELETE /api/v1/admin/collections/{id}
func (h *Handlers) AdminDeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteCollection(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminSaveGenre upserts genre display metadata.
// POST /api/v1/admin/genres
func (h *Handlers) AdminSaveGenre(w http.ResponseWriter, r *http.Request) {
	var req models.SaveGenreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}
	if !models.IsKnownGenre(req.Value) {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "unknown genre: "+req.Value)
		return
	}

	genre := &models.Genre{
		ID:    newID(),
		Value: req.Value,
		Label: req.Label,
		Emoji: req.Emoji,
		Order: req.Order,
	}
	if err := h.store.SaveGenre(r.Context(), genre); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, genre)
}

// AdminDeleteGenre removes a genre metadata row.
// DELETE /api/v1/admin/genres/{id}
func (h *Handlers) AdminDeleteGenre(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteGenre(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminCreateBook creates a book entry.
// POST /api/v1/admin/books
func (h *Handlers) AdminCreateBook(w http.ResponseWriter, r *http.Request) {
	var req models.SaveBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	book := bookFromRequest(newID(), &req)
	if err := h.store.CreateBook(r.Context(), book); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, book)
}

// AdminUpdateBook updates a book entry.
// PUT /api/v1/admin/books/{id}
func (h *Handlers) AdminUpdateBook(w http.ResponseWriter, r *http.Request) {
	var req models.SaveBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	book := bookFromRequest(mux.Vars(r)["id"], &req)
	if err := h.store.UpdateBook(r.Context(), book); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, book)
}

func bookFromRequest(id string, req *models.SaveBookRequest) *models.Book {
	return &models.Book{
		ID:          id,
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		BuyURL:      req.BuyURL,
		Publisher:   req.Publisher,
		Year:        req.Year,
		Order:       req.Order,
	}
}

// AdminDeleteBook removes a book entry.
// DELETE /api/v1/admin/books/{id}
func (h *Handlers) AdminDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteBook(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminSaveAuthor upserts the author profile.
// PUT /api/v1/admin/author
func (h *Handlers) AdminSaveAuthor(w http.ResponseWriter, r *http.Request) {
	var req models.SaveAuthorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	profile := &models.AuthorProfile{
		Name:          req.Name,
		Bio:           req.Bio,
		BioShort:      req.BioShort,
		AvatarURL:     req.AvatarURL,
		CoverImageURL: req.CoverImageURL,
		SocialLinks:   req.SocialLinks,
		Awards:        req.Awards,
		Publications:  req.Publications,
	}
	if err := h.store.SaveAuthorProfile(r.Context(), profile); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, profile)
}

// AdminDeleteComment removes a reader comment.
// DELETE /api/v1/admin/comments/{id}
func (h *Handlers) AdminDeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteComment(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminListMedia lists uploaded media records.
// GET /api/v1/admin/media
func (h *Handlers) AdminListMedia(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMedia(r.Context())
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, items)
}

// AdminCreateMedia records an uploaded asset's metadata.
// POST /api/v1/admin/media
func (h *Handlers) AdminCreateMedia(w http.ResponseWriter, r *http.Request) {
	var media models.Media
	if err := json.NewDecoder(r.Body).Decode(&media); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if media.FileName == "" || media.URL == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "file_name and url are required")
		return
	}

	media.ID = newID()
	if err := h.store.CreateMedia(r.Context(), &media); err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusCreated, &media)
}

// AdminDeleteMedia removes a media record.
// DELETE /api/v1/admin/media/{id}
func (h *Handlers) AdminDeleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteMedia(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
