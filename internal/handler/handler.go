// Package handler wires the JSON API. Validation and error mapping follow a
// uniform shape: bad input is 400, missing/foreign resources are 404, and
// store failures are a plain 500 without leaking internals.
package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"watch-me-run-api/internal/live"
	"watch-me-run-api/internal/middleware"
	"watch-me-run-api/internal/notify"
	"watch-me-run-api/internal/store"
)

type Handler struct {
	store  *store.Store
	hub    *live.Hub
	policy *notify.Policy
	secret string
}

func New(st *store.Store, hub *live.Hub, policy *notify.Policy, secret string) *Handler {
	return &Handler{store: st, hub: hub, policy: policy, secret: secret}
}

// Routes builds the full router: open auth endpoints behind the rate
// limiter, everything else behind JWT auth.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	rl := middleware.NewRateLimiter(5, 10)
	r.Route("/auth", func(r chi.Router) {
		r.Use(rl.Limit)
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/refresh", h.handleRefresh)
		r.Post("/logout", h.handleLogout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(h.secret))

		r.Get("/meets", h.handleListMeets)
		r.Get("/meets/featured", h.handleListFeaturedMeets)
		r.Get("/meets/featured/{meetID}/events", h.handleListFeaturedEvents)

		r.Get("/races", h.handleListRaces)
		r.Post("/races", h.handleSaveRace)
		r.Put("/races/{raceID}", h.handleSaveRace)
		r.Delete("/races/{raceID}", h.handleDeleteRace)
		r.Get("/users/{userID}/races", h.handleFriendRaces)

		r.Get("/watching", h.handleGetWatching)
		r.Post("/watching/friends/{friendID}/toggle", h.handleToggleFriend)
		r.Post("/watching/featured/{meetID}/{eventID}/toggle", h.handleToggleFeaturedEvent)

		r.Get("/profile", h.handleGetProfile)
		r.Put("/profile", h.handleSaveProfile)
		r.Get("/users/search", h.handleSearchUsers)

		r.Get("/settings", h.handleGetSettings)
		r.Put("/settings", h.handleSaveSettings)
		r.Get("/reminders", h.handleListReminders)

		r.Get("/live", h.handleLive)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handler: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func uid(r *http.Request) string {
	return middleware.UserID(r.Context())
}
