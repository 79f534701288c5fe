package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"watch-me-run-api/internal/live"
	"watch-me-run-api/internal/notify"
)

func (h *Handler) handleGetWatching(w http.ResponseWriter, r *http.Request) {
	watching, err := h.store.Watching(r.Context(), uid(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, watching)
}

// handleToggleFriend stars or unstars a friend. Starring schedules the
// watcher's reminders for all of the friend's future races; unstarring
// cancels them.
func (h *Handler) handleToggleFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := uid(r)
	friendID := chi.URLParam(r, "friendID")
	if friendID == userID {
		writeError(w, http.StatusBadRequest, "cannot watch yourself")
		return
	}

	watching, err := h.store.IsWatchingFriend(ctx, userID, friendID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if watching {
		races, err := h.store.ListRaces(ctx, friendID)
		if err == nil {
			if err := h.policy.CancelFriendRaces(ctx, userID, races); err != nil {
				log.Printf("handler: cancel friend races: %v", err)
			}
		}
		if err := h.store.UnwatchFriend(ctx, userID, friendID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	} else {
		if err := h.store.WatchFriend(ctx, userID, friendID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		races, err := h.store.FutureRaces(ctx, friendID, time.Now())
		if err == nil && len(races) > 0 {
			st, err := h.store.Settings(ctx, userID)
			if err == nil {
				if err := h.policy.ResyncFriendRaces(ctx, userID, st, races); err != nil {
					log.Printf("handler: schedule friend races: %v", err)
				}
			}
		}
	}

	h.publishWatching(r, userID)
	writeJSON(w, http.StatusOK, map[string]any{"watching": !watching})
}

// handleToggleFeaturedEvent stars or unstars a featured event. Starring
// schedules a reminder when the event has a known start time.
func (h *Handler) handleToggleFeaturedEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := uid(r)
	meetID := chi.URLParam(r, "meetID")
	eventID := chi.URLParam(r, "eventID")
	eventKey := notify.FeaturedEventKey(meetID, eventID)

	watching, err := h.store.IsWatchingFeaturedEvent(ctx, userID, eventKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if watching {
		if err := h.policy.CancelFeaturedEventReminder(ctx, userID, eventKey); err != nil {
			log.Printf("handler: cancel featured reminder: %v", err)
		}
		if err := h.store.UnwatchFeaturedEvent(ctx, userID, eventKey); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	} else {
		event, err := h.store.GetFeaturedEvent(ctx, meetID, eventID)
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err := h.store.WatchFeaturedEvent(ctx, userID, eventKey, meetID, eventID, event.Name); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		st, err := h.store.Settings(ctx, userID)
		if err == nil {
			if err := h.policy.ScheduleFeaturedEventReminder(ctx, userID, st, eventKey, event.Name, event.Start); err != nil {
				log.Printf("handler: schedule featured reminder: %v", err)
			}
		}
	}

	h.publishWatching(r, userID)
	writeJSON(w, http.StatusOK, map[string]any{"watching": !watching})
}

func (h *Handler) publishWatching(r *http.Request, userID string) {
	watching, err := h.store.Watching(r.Context(), userID)
	if err != nil {
		return
	}
	h.hub.Publish(live.WatchingTopic(userID), watching)
}
