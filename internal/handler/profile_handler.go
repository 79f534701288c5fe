package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"watch-me-run-api/internal/live"
	"watch-me-run-api/internal/model"
	"watch-me-run-api/internal/notify"
)

const maxSearchResults = 20

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	details, err := h.store.UserDetails(r.Context(), uid(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if details == nil {
		details = &model.UserDetails{UserID: uid(r)}
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var details model.UserDetails
	if err := decode(r, &details); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	details.UserID = uid(r)
	details.Name = strings.TrimSpace(details.Name)
	details.Location = strings.TrimSpace(details.Location)
	details.Affiliation = strings.TrimSpace(details.Affiliation)
	switch details.Sex {
	case "M", "F", "N", "":
	default:
		writeError(w, http.StatusBadRequest, "sex must be M, F or N")
		return
	}

	if err := h.store.SaveUserDetails(r.Context(), &details); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Publish(live.DetailsTopic(details.UserID), details)
	writeJSON(w, http.StatusOK, details)
}

// handleSearchUsers does a case-insensitive name prefix search over
// searchable profiles. Queries shorter than two characters return nothing.
func (h *Handler) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len(query) < 2 {
		writeJSON(w, http.StatusOK, map[string]any{"results": []model.FriendSearchResult{}})
		return
	}

	results, err := h.store.SearchUsers(r.Context(), query, maxSearchResults)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if results == nil {
		results = []model.FriendSearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Settings(r.Context(), uid(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleSaveSettings persists the new preferences and resyncs every pending
// reminder against them: own races, each watched friend's races and every
// starred featured event.
func (h *Handler) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := uid(r)

	var st model.Settings
	if err := decode(r, &st); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if st.OwnerHoursBefore < 1 {
		st.OwnerHoursBefore = 1
	}
	if st.WatchingFirstMinutes < 0 || st.WatchingSecondMinutes < 0 {
		writeError(w, http.StatusBadRequest, "lead minutes cannot be negative")
		return
	}

	if err := h.store.SaveSettings(ctx, userID, st); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.resyncAllReminders(r, userID, st)
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) resyncAllReminders(r *http.Request, userID string, st model.Settings) {
	ctx := r.Context()
	now := time.Now()

	// opting out drops everything pending; the dispatcher must not deliver
	// reminders the user no longer wants
	if !st.NotificationsEnabled {
		if err := h.store.CancelAll(ctx, userID); err != nil {
			log.Printf("handler: cancel all reminders: %v", err)
		}
		return
	}

	own, err := h.store.FutureRaces(ctx, userID, now)
	if err != nil {
		log.Printf("handler: own future races: %v", err)
	}
	for _, race := range own {
		if err := h.policy.ScheduleOwnerReminder(ctx, st, race); err != nil {
			log.Printf("handler: resync owner reminder: %v", err)
		}
	}

	watching, err := h.store.Watching(ctx, userID)
	if err != nil {
		log.Printf("handler: watching of %s: %v", userID, err)
		return
	}
	for _, friendID := range watching.FriendIDs {
		races, err := h.store.FutureRaces(ctx, friendID, now)
		if err != nil {
			continue
		}
		if err := h.policy.ResyncFriendRaces(ctx, userID, st, races); err != nil {
			log.Printf("handler: resync friend %s: %v", friendID, err)
		}
	}

	events, err := h.store.WatchedFeaturedEvents(ctx, userID)
	if err != nil {
		log.Printf("handler: watched featured events: %v", err)
		return
	}
	for _, ev := range events {
		key := notify.FeaturedEventKey(ev.MeetID, ev.ID)
		if err := h.policy.ScheduleFeaturedEventReminder(ctx, userID, st, key, ev.Name, ev.Start); err != nil {
			log.Printf("handler: resync featured %s: %v", key, err)
		}
	}
}

func (h *Handler) handleListReminders(w http.ResponseWriter, r *http.Request) {
	pending, err := h.store.PendingFor(r.Context(), uid(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if pending == nil {
		pending = []notify.Reminder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": pending})
}
