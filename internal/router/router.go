package router

import (
	"net/http"

	"cardvault-rest-api/internal/handler"
	"cardvault-rest-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler      *handler.Handler
	CardHandler  *handler.CardHandler
	AdminHandler *handler.AdminHandler
	AdminKey     func(http.Handler) http.Handler
	ImagesRoot   string
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Login-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC monitoring route
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// Card images - missing files 404, cards then render without thumbnails
	if cfg.ImagesRoot != "" {
		fileServer := http.FileServer(http.Dir(cfg.ImagesRoot))
		r.Handle("/images/*", http.StripPrefix("/images/", fileServer))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.CardHandler != nil {
			r.Route("/cards", func(r chi.Router) {
				r.Get("/", cfg.CardHandler.ListCards)
				r.Post("/import", cfg.CardHandler.ImportCSV)
				r.Get("/{card_id}", cfg.CardHandler.GetCard)
				r.Patch("/{card_id}/owned", cfg.CardHandler.SetOwned)
			})

			r.Get("/collection/stats", cfg.CardHandler.GetStats)
		}

		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				if cfg.AdminKey != nil {
					r.Use(cfg.AdminKey)
				}
				r.Get("/stats", cfg.AdminHandler.GetStats)
				r.Get("/health", cfg.AdminHandler.GetHealth)
			})
		}
	})

	return r
}
