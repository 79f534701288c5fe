package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"watch-me-run-api/internal/live"
	"watch-me-run-api/internal/model"
)

type raceRequest struct {
	Name           string    `json:"name"`
	Distance       string    `json:"distance"`
	Date           time.Time `json:"date"`
	TimeZone       string    `json:"timeZone"`
	Location       string    `json:"location"`
	LiveResultsURL string    `json:"liveResultsUrl"`
	WatchURL       string    `json:"watchUrl"`
	MeetPageURL    string    `json:"meetPageUrl"`
	Levels         []string  `json:"levels"`
	Instructions   string    `json:"instructions"`
	Comments       string    `json:"comments"`
}

func (h *Handler) handleListRaces(w http.ResponseWriter, r *http.Request) {
	races, err := h.store.ListRaces(r.Context(), uid(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if races == nil {
		races = []model.UserRace{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"races": races})
}

// handleSaveRace covers both create (POST /api/races) and update
// (PUT /api/races/{raceID}); a save is always a wholesale row replace.
func (h *Handler) handleSaveRace(w http.ResponseWriter, r *http.Request) {
	userID := uid(r)

	var req raceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date required")
		return
	}
	if req.TimeZone != "" {
		if _, err := time.LoadLocation(req.TimeZone); err != nil {
			writeError(w, http.StatusBadRequest, "unknown time zone")
			return
		}
	}

	raceID := chi.URLParam(r, "raceID")
	if raceID == "" {
		raceID = uuid.New().String()
	} else {
		// updates only touch rows the caller owns; hide foreign races
		existing, err := h.store.GetRace(r.Context(), raceID)
		if err != nil || existing.UserID != userID {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
	}

	race := &model.UserRace{
		ID:             raceID,
		UserID:         userID,
		Name:           strings.TrimSpace(req.Name),
		Distance:       strings.TrimSpace(req.Distance),
		Date:           req.Date,
		TimeZone:       req.TimeZone,
		Location:       strings.TrimSpace(req.Location),
		LiveResultsURL: strings.TrimSpace(req.LiveResultsURL),
		WatchURL:       strings.TrimSpace(req.WatchURL),
		MeetPageURL:    strings.TrimSpace(req.MeetPageURL),
		Levels:         req.Levels,
		Instructions:   strings.TrimSpace(req.Instructions),
		Comments:       strings.TrimSpace(req.Comments),
	}
	if race.Levels == nil {
		race.Levels = []string{}
	}

	if err := h.store.SaveRace(r.Context(), race); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// reminders and live snapshots ride along best-effort
	h.afterRaceChange(r, userID, race)

	writeJSON(w, http.StatusOK, map[string]any{"race": race})
}

func (h *Handler) handleDeleteRace(w http.ResponseWriter, r *http.Request) {
	userID := uid(r)
	raceID := chi.URLParam(r, "raceID")
	if raceID == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}

	existing, err := h.store.GetRace(r.Context(), raceID)
	if err != nil || existing.UserID != userID {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if err := h.store.DeleteRace(r.Context(), raceID, userID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.policy.CancelOwnerReminder(r.Context(), userID, raceID); err != nil {
		log.Printf("handler: cancel owner reminder: %v", err)
	}
	// watchers' reminders for this race go away too; resync below only
	// touches races that still exist
	if watchers, err := h.store.WatchersOfFriend(r.Context(), userID); err == nil {
		for _, watcherID := range watchers {
			if err := h.policy.CancelWatchingReminders(r.Context(), watcherID, raceID); err != nil {
				log.Printf("handler: cancel watch reminders: %v", err)
			}
		}
	}
	h.resyncWatchersOf(r, userID)
	h.publishRaces(r, userID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleFriendRaces serves another runner's schedule read-only.
func (h *Handler) handleFriendRaces(w http.ResponseWriter, r *http.Request) {
	friendID := chi.URLParam(r, "userID")
	races, err := h.store.ListRaces(r.Context(), friendID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if races == nil {
		races = []model.UserRace{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"races": races})
}

// afterRaceChange reschedules the owner reminder, resyncs every watcher of
// this runner, and publishes the fresh race snapshot. All best-effort.
func (h *Handler) afterRaceChange(r *http.Request, userID string, race *model.UserRace) {
	st, err := h.store.Settings(r.Context(), userID)
	if err == nil {
		if err := h.policy.ScheduleOwnerReminder(r.Context(), st, *race); err != nil {
			log.Printf("handler: schedule owner reminder: %v", err)
		}
	}
	h.resyncWatchersOf(r, userID)
	h.publishRaces(r, userID)
}

func (h *Handler) resyncWatchersOf(r *http.Request, subjectID string) {
	ctx := r.Context()
	watchers, err := h.store.WatchersOfFriend(ctx, subjectID)
	if err != nil {
		log.Printf("handler: watchers of %s: %v", subjectID, err)
		return
	}
	if len(watchers) == 0 {
		return
	}
	races, err := h.store.FutureRaces(ctx, subjectID, time.Now())
	if err != nil {
		log.Printf("handler: future races of %s: %v", subjectID, err)
		return
	}
	for _, watcherID := range watchers {
		st, err := h.store.Settings(ctx, watcherID)
		if err != nil {
			continue
		}
		if err := h.policy.ResyncFriendRaces(ctx, watcherID, st, races); err != nil {
			log.Printf("handler: resync watcher %s: %v", watcherID, err)
		}
	}
}

func (h *Handler) publishRaces(r *http.Request, userID string) {
	races, err := h.store.ListRaces(r.Context(), userID)
	if err != nil {
		return
	}
	if races == nil {
		races = []model.UserRace{}
	}
	h.hub.Publish(live.RacesTopic(userID), races)
}
