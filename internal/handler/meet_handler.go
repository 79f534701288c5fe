package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"watch-me-run-api/internal/meets"
	"watch-me-run-api/internal/model"
)

// handleListMeets returns all meets grouped by lifecycle phase, each group
// keeping the priority-then-name order the store returns.
func (h *Handler) handleListMeets(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.ListMeets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	grouped := map[model.MeetStatus][]model.Meet{
		model.StatusPast:     {},
		model.StatusCurrent:  {},
		model.StatusUpcoming: {},
	}
	for _, m := range all {
		m.Status = meets.Status(m.Date, now)
		grouped[m.Status] = append(grouped[m.Status], m)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"past":     grouped[model.StatusPast],
		"current":  grouped[model.StatusCurrent],
		"upcoming": grouped[model.StatusUpcoming],
	})
}

func (h *Handler) handleListFeaturedMeets(w http.ResponseWriter, r *http.Request) {
	featured, err := h.store.ListFeaturedMeets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if featured == nil {
		featured = []model.FeaturedMeet{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"featured": featured})
}

func (h *Handler) handleListFeaturedEvents(w http.ResponseWriter, r *http.Request) {
	meetID := chi.URLParam(r, "meetID")
	events, err := h.store.ListFeaturedEvents(r.Context(), meetID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if events == nil {
		events = []model.FeaturedEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
