// Package models - API response types and error handling.
// Responses keep a consistent JSON shape across endpoints: domain objects
// are returned directly, lists carry pagination metadata, and failures use
// the ErrorResponse envelope with a machine-readable code.
package models

import "time"

// ListWorksResponse wraps a page of works with pagination metadata.
type ListWorksResponse struct {
	Works      []*Work    `json:"works"`
	Pagination Pagination `json:"pagination"`
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes the page count from a total row count.
func NewPagination(page, pageSize, total int) Pagination {
	pages := total / pageSize
	if total%pageSize != 0 {
		pages++
	}
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}

// AISearchResponse is the librarian endpoint payload: a prose explanation
// plus the works the model's catalog lookup surfaced (empty when the model
// answered without searching).
type AISearchResponse struct {
	Explanation string      `json:"explanation"`
	Works       []WorkMatch `json:"works"`
}

// WorkMatch is the catalog projection handed to the language model and
// echoed back to the caller. ContentPreview is always a bounded prefix of
// the full text so prompt payloads stay small.
type WorkMatch struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Genre          string     `json:"genre"`
	Excerpt        string     `json:"excerpt"`
	ContentPreview string     `json:"content_preview"`
	Tags           []string   `json:"tags"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
}

// ErrorResponse is the uniform failure envelope.
type ErrorResponse struct {
	Error     string    `json:"error"`           // Always "error"
	Message   string    `json:"message"`         // Human-readable description
	Code      string    `json:"code,omitempty"`  // Machine-readable error code
	Timestamp time.Time `json:"timestamp"`
}

// Machine-readable error codes, mapped onto HTTP statuses by the API layer.
const (
	ErrorCodeNotFound            = "NOT_FOUND"            // 404: resource doesn't exist
	ErrorCodeBadRequest          = "BAD_REQUEST"          // 400: invalid request format
	ErrorCodeInvalidRequest      = "INVALID_REQUEST"      // 400: invalid request data
	ErrorCodeRateLimited         = "RATE_LIMITED"         // 429: quota exceeded
	ErrorCodeUnauthorized        = "UNAUTHORIZED"         // 401: authentication required
	ErrorCodeConflict            = "CONFLICT"             // 409: slug or key collision
	ErrorCodeInternalError       = "INTERNAL_ERROR"       // 500: server-side error
	ErrorCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE" // 500: model or database failure
)

// NewErrorResponse builds an ErrorResponse with the current timestamp.
func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// HealthCheckResponse reports service liveness and component state.
type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth is one subsystem's health entry.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health status constants.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

// NewHealthCheckResponse creates an empty health report with the given
// overall status.
func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
	}
}

// AddComponent records one subsystem's state.
func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{Status: status, Message: message}
}

// LoginResponse confirms a successful CMS login.
type LoginResponse struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}
