package guestd

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/rayarayu/checkin/internal/handler/health"
)

// API exposes a Store over HTTP.
type API struct {
	store  *Store
	logger *slog.Logger
}

func NewAPI(logger *slog.Logger, store *Store) *API {
	return &API{store: store, logger: logger}
}

func (a *API) Mount(r chi.Router) {
	r.Mount("/healthz", health.NewHandler(a.logger, map[string]health.Checker{
		"sqlite": health.CheckerFunc(a.store.Ping),
	}).Routes())

	r.Post("/api/login", handleLogin(a.store, a.logger))
	r.Post("/api/logout", handleLogout(a.store))

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(a.store))
		r.Get("/api/{role}/me", handleMe())
		r.Get("/api/summary", handleSummary(a.store, a.logger))
		r.Get("/api/invitations/search", handleSearch(a.store, a.logger))
		r.Patch("/api/invitations/checkin/{slug}", handleCheckIn(a.store, a.logger))
	})
}
