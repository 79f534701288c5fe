package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"watch-me-run-api/internal/model"
)

// Policy turns races and settings into scheduled reminders. All methods are
// best-effort: a reminder that cannot or should not be scheduled is skipped
// silently, never an error to the caller's caller.
type Policy struct {
	sched Scheduler
	now   func() time.Time
}

func NewPolicy(sched Scheduler) *Policy {
	return &Policy{sched: sched, now: time.Now}
}

// NewPolicyAt pins the clock, for tests.
func NewPolicyAt(sched Scheduler, now func() time.Time) *Policy {
	return &Policy{sched: sched, now: now}
}

// ScheduleOwnerReminder schedules the pre-race details nudge for the race
// owner. No-ops silently when the user has not enabled notifications, when
// the owner reminder is switched off, or when the fire time already passed.
func (p *Policy) ScheduleOwnerReminder(ctx context.Context, st model.Settings, race model.UserRace) error {
	identity := OwnerIdentity(race.UserID, race.ID)

	if !st.NotificationsEnabled {
		return nil
	}
	if !st.OwnerReminderEnabled {
		return p.sched.Cancel(ctx, race.UserID, identity)
	}

	hours := st.OwnerHoursBefore
	if hours < 1 {
		hours = 1
	}

	fireAt := race.Date.Add(-time.Duration(hours) * time.Hour).Truncate(time.Minute)
	if !fireAt.After(p.now()) {
		log.Printf("notify: skipping owner reminder for %q, fire time already passed", race.Name)
		return nil
	}

	return p.sched.Schedule(ctx, Reminder{
		UserID:   race.UserID,
		Identity: identity,
		Title:    "Race coming up",
		Body: fmt.Sprintf("%s begins in %d hours! Please make sure to update your race information so friends can follow along.",
			race.Name, hours),
		FireAt: fireAt,
	})
}

// CancelOwnerReminder drops the pending owner reminder, used when a race is
// deleted.
func (p *Policy) CancelOwnerReminder(ctx context.Context, ownerID, raceID string) error {
	return p.sched.Cancel(ctx, ownerID, OwnerIdentity(ownerID, raceID))
}

// ScheduleWatchingReminders schedules both watching slots for one race of a
// watched runner, on behalf of the watcher. A slot with lead 0 is cancelled
// rather than scheduled, so slots that were disabled afterwards disappear.
func (p *Policy) ScheduleWatchingReminders(ctx context.Context, watcherID string, st model.Settings, race model.UserRace) error {
	if !st.NotificationsEnabled {
		return nil
	}
	if !st.WatchingEnabled {
		return p.CancelWatchingReminders(ctx, watcherID, race.ID)
	}
	if err := p.scheduleWatchSlot(ctx, watcherID, race, SlotFirst, st.WatchingFirstMinutes); err != nil {
		return err
	}
	return p.scheduleWatchSlot(ctx, watcherID, race, SlotSecond, st.WatchingSecondMinutes)
}

func (p *Policy) scheduleWatchSlot(ctx context.Context, watcherID string, race model.UserRace, slot string, leadMinutes int) error {
	identity := WatchIdentity(race.ID, slot)
	if leadMinutes <= 0 {
		return p.sched.Cancel(ctx, watcherID, identity)
	}

	fireAt := race.Date.Add(-time.Duration(leadMinutes) * time.Minute).Truncate(time.Minute)
	if !fireAt.After(p.now()) {
		return nil
	}

	return p.sched.Schedule(ctx, Reminder{
		UserID:   watcherID,
		Identity: identity,
		Title:    "Race starting soon",
		Body:     fmt.Sprintf("%s starts in %d minutes.", race.Name, leadMinutes),
		FireAt:   fireAt,
	})
}

// CancelWatchingReminders drops both slots for one race.
func (p *Policy) CancelWatchingReminders(ctx context.Context, watcherID, raceID string) error {
	if err := p.sched.Cancel(ctx, watcherID, WatchIdentity(raceID, SlotFirst)); err != nil {
		return err
	}
	return p.sched.Cancel(ctx, watcherID, WatchIdentity(raceID, SlotSecond))
}

// ResyncFriendRaces recomputes both watching slots for every future race of
// a watched runner. Safe to call repeatedly with unchanged inputs.
func (p *Policy) ResyncFriendRaces(ctx context.Context, watcherID string, st model.Settings, races []model.UserRace) error {
	for _, race := range races {
		if race.InPast(p.now()) {
			continue
		}
		if err := p.CancelWatchingReminders(ctx, watcherID, race.ID); err != nil {
			return err
		}
		if err := p.ScheduleWatchingReminders(ctx, watcherID, st, race); err != nil {
			return err
		}
	}
	return nil
}

// CancelFriendRaces drops both slots for every race of an unwatched runner.
func (p *Policy) CancelFriendRaces(ctx context.Context, watcherID string, races []model.UserRace) error {
	for _, race := range races {
		if err := p.CancelWatchingReminders(ctx, watcherID, race.ID); err != nil {
			return err
		}
	}
	return nil
}

// ScheduleFeaturedEventReminder schedules the single watching slot for a
// featured event. The first configured watching lead time is used; a lead of
// 0 or watching switched off cancels any pending reminder, like the per-race
// slots.
func (p *Policy) ScheduleFeaturedEventReminder(ctx context.Context, watcherID string, st model.Settings, eventKey, eventName string, start *time.Time) error {
	if !st.NotificationsEnabled {
		return nil
	}
	leadMinutes := st.WatchingFirstMinutes
	if !st.WatchingEnabled || leadMinutes <= 0 {
		return p.sched.Cancel(ctx, watcherID, FeaturedIdentity(eventKey))
	}
	if start == nil {
		log.Printf("notify: no start time for featured event %q, skipping reminder", eventName)
		return nil
	}

	fireAt := start.Add(-time.Duration(leadMinutes) * time.Minute).Truncate(time.Minute)
	if !fireAt.After(p.now()) {
		return nil
	}

	return p.sched.Schedule(ctx, Reminder{
		UserID:   watcherID,
		Identity: FeaturedIdentity(eventKey),
		Title:    "Event starting soon",
		Body:     fmt.Sprintf("%s starts in %d minutes.", eventName, leadMinutes),
		FireAt:   fireAt,
	})
}

func (p *Policy) CancelFeaturedEventReminder(ctx context.Context, watcherID, eventKey string) error {
	return p.sched.Cancel(ctx, watcherID, FeaturedIdentity(eventKey))
}
