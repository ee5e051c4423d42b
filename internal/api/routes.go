package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/vietdungregister/nthl/internal/models"
	"github.com/vietdungregister/nthl/internal/ratelimit"
)

// RouteOption configures optional route behavior.
type RouteOption func(*mux.Router)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(r *mux.Router) {
		r.Use(otelmux.Middleware(serviceName,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" &&
					r.URL.Path != "/api/v1/health" &&
					r.URL.Path != "/metrics"
			}),
		))
	}
}

// SetupRoutes configures the HTTP routes for the site API.
//
// commentLimiter guards public comment submission; nil disables the limit.
// The AI search limiter lives inside the handler because its denial message
// depends on the retry delay.
func SetupRoutes(handlers *Handlers, config *models.Config, commentLimiter ratelimit.Limiter, opts ...RouteOption) *mux.Router {
	router := mux.NewRouter()

	for _, opt := range opts {
		opt(router)
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	// Public catalog
	api.HandleFunc("/works", handlers.ListWorks).Methods("GET")
	api.HandleFunc("/works/{id}", handlers.GetWork).Methods("GET")
	api.HandleFunc("/works/{id}/comments", handlers.ListComments).Methods("GET")
	api.HandleFunc("/comments", handlers.ListCommentsByQuery).Methods("GET")
	api.HandleFunc("/tags", handlers.ListTags).Methods("GET")
	api.HandleFunc("/genres", handlers.ListGenres).Methods("GET")
	api.HandleFunc("/collections", handlers.ListCollections).Methods("GET")
	api.HandleFunc("/books", handlers.ListBooks).Methods("GET")
	api.HandleFunc("/author", handlers.GetAuthor).Methods("GET")

	// AI search; admission control happens in the handler.
	api.HandleFunc("/ai-search", handlers.AISearch).Methods("POST")

	// Comment submission sits behind its own limiter.
	commentRoute := api.PathPrefix("/comments").Subrouter()
	if commentLimiter != nil {
		commentRoute.Use(ratelimit.Middleware(commentLimiter, msgCommentRateLimited))
	}
	commentRoute.HandleFunc("", handlers.CreateComment).Methods("POST")

	// Admin CMS - cookie-authenticated; middleware exempts /login.
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(sessionMiddleware(handlers.sessions))
	admin.HandleFunc("/login", handlers.AdminLogin).Methods("POST")
	admin.HandleFunc("/logout", handlers.AdminLogout).Methods("POST")
	admin.HandleFunc("/works", handlers.AdminListWorks).Methods("GET")
	admin.HandleFunc("/works", handlers.AdminCreateWork).Methods("POST")
	admin.HandleFunc("/works/{id}", handlers.AdminGetWork).Methods("GET")
	admin.HandleFunc("/works/{id}", handlers.AdminUpdateWork).Methods("PUT")
	admin.HandleFunc("/works/{id}", handlers.AdminDeleteWork).Methods("DELETE")
	admin.HandleFunc("/tags", handlers.AdminCreateTag).Methods("POST")
	admin.HandleFunc("/tags/{id}", handlers.AdminUpdateTag).Methods("PUT")
	admin.HandleFunc("/tags/{id}", handlers.AdminDeleteTag).Methods("DELETE")
	admin.HandleFunc("/collections", handlers.AdminCreateCollection).Methods("POST")
	admin.HandleFunc("/collections/{id}", handlers.AdminUpdateCollection).Methods("PUT")
	admin.HandleFunc("/collections/{id}", handlers.AdminDeleteCollection).Methods("DELETE")
	admin.HandleFunc("/genres", handlers.AdminSaveGenre).Methods("POST")
	admin.HandleFunc("/genres/{id}", handlers.AdminDeleteGenre).Methods("DELETE")
	admin.HandleFunc("/books", handlers.AdminCreateBook).Methods("POST")
	admin.HandleFunc("/books/{id}", handlers.AdminUpdateBook).Methods("PUT")
	admin.HandleFunc("/books/{id}", handlers.AdminDeleteBook).Methods("DELETE")
	admin.HandleFunc("/author", handlers.AdminSaveAuthor).Methods("PUT")
	admin.HandleFunc("/comments/{id}", handlers.AdminDeleteComment).Methods("DELETE")
	admin.HandleFunc("/media", handlers.AdminListMedia).Methods("GET")
	admin.HandleFunc("/media", handlers.AdminCreateMedia).Methods("POST")
	admin.HandleFunc("/media/{id}", handlers.AdminDeleteMedia).Methods("DELETE")

	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	router.HandleFunc("/api/v1/health", handlers.HealthCheck).Methods("GET")

	if config.Server.CORS.Enabled {
		router.Use(corsMiddleware(config.Server.CORS))
	}

	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		errorResp := models.NewErrorResponse("Method not allowed", models.ErrorCodeInvalidRequest)
		json.NewEncoder(w).Encode(errorResp)
	})

	return router
}
