// Package notify computes race reminders and keeps the pending set
// duplicate-free. Every reminder carries a deterministic identity; scheduling
// is always cancel-then-add under that identity, so recomputing reminders is
// idempotent.
package notify

import (
	"context"
	"log"
	"time"
)

// Reminder is one pending local notification.
type Reminder struct {
	UserID   string    `json:"userId"`
	Identity string    `json:"identity"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	FireAt   time.Time `json:"fireAt"`
}

// Scheduler is the pending-notification set, keyed by (user, identity).
// Schedule must replace any existing entry under the same key; Cancel of an
// unknown identity must succeed.
type Scheduler interface {
	Schedule(ctx context.Context, r Reminder) error
	Cancel(ctx context.Context, userID, identity string) error
}

// Notifier delivers a fired reminder. Delivery failures are the caller's
// problem to log; they never block the dispatch sweep.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier writes deliveries to the process log. It stands in for a real
// push transport.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, r Reminder) error {
	log.Printf("notify: deliver %s to user %s: %s", r.Identity, r.UserID, r.Title)
	return nil
}
