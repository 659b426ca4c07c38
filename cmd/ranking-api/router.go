// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tastemap/ranking-engine/cmd/ranking-api/handlers"
	"github.com/tastemap/ranking-engine/cmd/ranking-api/middleware"
	"github.com/tastemap/ranking-engine/internal/app"
)

// NewRouter creates the API router with all routes configured.
func NewRouter(a *app.App) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(a.Config.Server.ReadTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"ranking-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := a.DB.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	searchHandler := handlers.NewSearchHandler(a.Logger, a.Engine)
	keywordHandler := handlers.NewKeywordHandler(a.Logger, a.Index, a.Expander)
	adminHandler := handlers.NewAdminHandler(a.Logger, a.Index)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Post("/places/keyword", searchHandler.Search)
			r.Get("/places", searchHandler.SearchByQuery)
		})

		r.Get("/keywords", keywordHandler.Suggest)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/index/rebuild", adminHandler.RebuildIndex)
		})
	})

	return r
}
