package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fsql/internal/middleware"
)

// NewRouter assembles the chi router with the full middleware stack and all
// API routes. Auth is only enforced when the config provides credentials.
func NewRouter(h *Handler) http.Handler {
	cfg := h.cfg
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		if cfg.AuthEnabled() {
			r.Use(middleware.Auth(cfg.JWTSecret, cfg.APIKey))
		}

		r.Post("/query", h.ExecuteQuery)
		r.Post("/query/export", h.ExportQuery)
		r.Post("/undo", h.UndoLastWrite)
		r.Get("/history", h.ListHistory)

		r.Route("/databases", func(r chi.Router) {
			r.Get("/", h.ListDatabases)
			r.Post("/", h.AttachDatabase)
			r.Delete("/{alias}", h.DetachDatabase)
			r.Post("/{alias}/refresh", h.RefreshDatabase)
		})
		r.Get("/recents", h.ListRecents)

		r.Route("/schemas/{schema}/tables", func(r chi.Router) {
			r.Get("/", h.ListTables)
			r.Get("/{table}/describe", h.DescribeTable)
			r.Get("/{table}/preview", h.PreviewTable)
			r.Get("/{table}/profile", h.ProfileTable)
		})

		r.Route("/saved-queries", func(r chi.Router) {
			r.Get("/", h.ListSavedQueries)
			r.Post("/", h.CreateSavedQuery)
			r.Get("/{id}", h.GetSavedQuery)
			r.Put("/{id}", h.UpdateSavedQuery)
			r.Delete("/{id}", h.DeleteSavedQuery)
		})
	})

	return r
}
