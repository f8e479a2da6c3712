// Package server assembles the HTTP router.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/potty-buddy/backend/internal/auth"
	"github.com/ayush/potty-buddy/backend/internal/events"
	"github.com/ayush/potty-buddy/backend/internal/httpx"
	"github.com/ayush/potty-buddy/backend/internal/logging"
	"github.com/ayush/potty-buddy/backend/internal/middleware"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Users       *auth.Handler
	Events      *events.Handler
	Store       Pinger
	Logger      logging.Logger
	CORSOrigins []string
	AdminToken  string
}

// NewRouter wires middleware and routes. Every route is served both at the
// root and under /api.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteMessage(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	routes := func(r chi.Router) {
		r.Get("/health", health(d.Store, d.Logger))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", d.Users.LoginOrRegister)
			r.Get("/{username}", d.Users.Lookup)
			r.With(middleware.RequireAdminToken(d.AdminToken)).Delete("/{username}", d.Users.Delete)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", d.Events.Log)
			r.Get("/", d.Events.Summary)
			r.Get("/{userId}", d.Events.Summary)
		})
	}

	routes(r)
	r.Route("/api", routes)
	return r
}

func health(store Pinger, logger logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logger.Warn(r.Context(), "health check failed", "error", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
