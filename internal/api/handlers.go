// Package api wires the HTTP surface: public catalog browsing, the
// rate-limited AI search endpoint, reader comments and the
// session-authenticated admin CMS.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vietdungregister/nthl/internal/librarian"
	"github.com/vietdungregister/nthl/internal/models"
	"github.com/vietdungregister/nthl/internal/ratelimit"
	"github.com/vietdungregister/nthl/internal/storage"
	"github.com/vietdungregister/nthl/internal/version"
)

// MaxCommentsPerPage caps the public comment listing.
const MaxCommentsPerPage = 100

// User-facing Vietnamese messages for the public endpoints.
const (
	msgSearchRateLimited  = "Bạn đã hỏi quá nhiều lần. Thử lại sau khoảng %d phút nhé."
	msgCommentRateLimited = "Bạn đã bình luận quá nhiều lần. Thử lại sau 1 giờ nhé."
	msgLibrarianResting   = "Thủ thư đang nghỉ một chút, thử lại sau nhé."
)

// Librarian is the AI search contract the handlers depend on.
type Librarian interface {
	Answer(ctx context.Context, query string) (*models.AISearchResponse, error)
}

// Handlers contains the HTTP handlers for the site API.
type Handlers struct {
	store         storage.Storage
	librarian     Librarian
	searchLimiter ratelimit.Limiter
	sessions      *SessionStore
	config        *models.Config
	ver           version.Info
}

// NewHandlers creates a handlers instance.
func NewHandlers(store storage.Storage, lib Librarian, searchLimiter ratelimit.Limiter, sessions *SessionStore, config *models.Config, ver version.Info) *Handlers {
	return &Handlers{
		store:         store,
		librarian:     lib,
		searchLimiter: searchLimiter,
		sessions:      sessions,
		config:        config,
		ver:           ver,
	}
}

// ListWorks handles the public works listing.
// GET /api/v1/works
func (h *Handlers) ListWorks(w http.ResponseWriter, r *http.Request) {
	req := listWorksRequestFromQuery(r)
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

func listWorksRequestFromQuery(r *http.Request) *models.ListWorksRequest {
	q := r.URL.Query()
	req := &models.ListWorksRequest{
		Genre:      q.Get("genre"),
		Search:     q.Get("search"),
		Collection: q.Get("collection"),
		Tag:        q.Get("tag"),
		Sort:       q.Get("sort"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil {
		req.PageSize = size
	}
	return req
}

// GetWork returns a single published work by ID or slug.
// GET /api/v1/works/{id}
func (h *Handlers) GetWork(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["id"]

	work, err := h.store.GetWork(r.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		work, err = h.store.GetWorkBySlug(r.Context(), key)
	}
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	if !work.IsPublished() {
		h.writeErrorResponse(w, http.StatusNotFound, models.ErrorCodeNotFound, "Không tìm thấy tác phẩm")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, work)
}

// ListTags handles the public tag listing.
// GET /api/v1/tags
func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.store.ListTags(r.Context())
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, tags)
}

// ListGenres handles the public genre listing.
// GET /api/v1/genres
func (h *Handlers) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.store.ListGenres(r.Context())
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, genres)
}

// ListCollections handles the public collection listing.
// GET /api/v1/collections
func (h *Handlers) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.store.ListCollections(r.Context())
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, collections)
}

// ListBooks handles the public book listing.
// GET /api/v1/books
func (h *Handlers) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.store.ListBooks(r.Context())
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, books)
}

// GetAuthor returns the author profile.
// GET /api/v1/author
func (h *Handlers) GetAuthor(w http.ResponseWriter, r *http.Request) {
	profile, err := h.store.GetAuthorProfile(r.Context())
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, profile)
}

// ListComments returns the newest comments on a work.
// GET /api/v1/works/{id}/comments
func (h *Handlers) ListComments(w http.ResponseWriter, r *http.Request) {
	h.listComments(w, r, mux.Vars(r)["id"])
}

// ListCommentsByQuery is the flat form of the comments listing, keyed by
// the workId query parameter.
// GET /api/v1/comments?workId=...
func (h *Handlers) ListCommentsByQuery(w http.ResponseWriter, r *http.Request) {
	workID := r.URL.Query().Get("workId")
	if workID == "" {
		workID = r.URL.Query().Get("work_id")
	}
	if workID == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "workId là bắt buộc")
		return
	}
	h.listComments(w, r, workID)
}

func (h *Handlers) listComments(w http.ResponseWriter, r *http.Request, workID string) {
	limit := MaxCommentsPerPage
	if param := r.URL.Query().Get("limit"); param != "" {
		if n, err := strconv.Atoi(param); err == nil && n > 0 && n < MaxCommentsPerPage {
			limit = n
		}
	}

	comments, err := h.store.ListComments(r.Context(), workID, limit)
	if err != nil {
		h.writeStorageError(w, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, comments)
}

// CreateComment handles public comment submission. The route is wrapped in
// rate limiting middleware; by the time this runs the caller is admitted.
// POST /api/v1/comments
func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}
	if err := req.Sanitize(); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	comment := &models.Comment{
		ID:      newID(),
		WorkID:  req.WorkID,
		Name:    req.Name,
		Content: req.Content,
	}
	if err := h.store.CreateComment(r.Context(), comment); err != nil {
		h.writeStorageError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, comment)
}

// AISearch handles the librarian endpoint. The rate limit check happens
// inside the handler because the denial message carries a minute count
// derived from the retry delay.
// POST /api/v1/ai-search
func (h *Handlers) AISearch(w http.ResponseWriter, r *http.Request) {
	if h.searchLimiter != nil {
		key := ratelimit.ClientIP(r)

		allowed, info := h.searchLimiter.Allow(key)
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetAt.Unix()))

		if !allowed {
			minutes := int(math.Ceil(info.RetryAfter.Minutes()))
			if minutes < 1 {
				minutes = 1
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", info.RetryAfterSeconds()))
			slog.Warn("AI search rate limited", "key", key, "retry_after_minutes", minutes)
			h.writeErrorResponse(w, http.StatusTooManyRequests, models.ErrorCodeRateLimited,
				fmt.Sprintf(msgSearchRateLimited, minutes))
			return
		}
	}

	var req models.AISearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	resp, err := h.librarian.Answer(r.Context(), req.Query)
	switch {
	case err == nil:
		h.writeJSONResponse(w, http.StatusOK, resp)
	case errors.Is(err, librarian.ErrInvalidQuery):
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
	case errors.Is(err, librarian.ErrDisabled):
		h.writeErrorResponse(w, http.StatusServiceUnavailable, models.ErrorCodeUpstreamUnavailable, msgLibrarianResting)
	default:
		// Upstream details stay in the logs, never in the response.
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeUpstreamUnavailable, msgLibrarianResting)
	}
}

// HealthCheck handles health check requests.
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = h.ver.Version

	status := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		response.Status = models.StatusUnhealthy
		response.AddComponent("storage", models.StatusUnhealthy, err.Error())
		status = http.StatusServiceUnavailable
	} else {
		response.AddComponent("storage", models.StatusHealthy, "Storage is operational")
	}
	response.AddComponent("api", models.StatusHealthy, "API is operational")

	h.writeJSONResponse(w, status, response)
}

// newID mints a record identifier.
func newID() string {
	return uuid.New().String()
}

// writeJSONResponse writes a JSON response.
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already out; nothing more to send.
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes an error envelope.
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	h.writeJSONResponse(w, statusCode, models.NewErrorResponse(message, errorCode))
}

// writeStorageError maps storage sentinels onto HTTP statuses.
func (h *Handlers) writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.writeErrorResponse(w, http.StatusNotFound, models.ErrorCodeNotFound, "Không tìm thấy")
	case errors.Is(err, storage.ErrSlugExists):
		h.writeErrorResponse(w, http.StatusConflict, models.ErrorCodeConflict, "Slug đã tồn tại")
	case errors.Is(err, storage.ErrEmailExists):
		h.writeErrorResponse(w, http.StatusConflict, models.ErrorCodeConflict, "Email đã tồn tại")
	default:
		slog.Error("Storage error", "error", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
	}
}
