package notify

import (
	"context"
	"log"
	"time"
)

// PendingSource is the due-reminder side of the scheduler store.
type PendingSource interface {
	DuePending(ctx context.Context, now time.Time) ([]Reminder, error)
	MarkDelivered(ctx context.Context, r Reminder) error
}

// Dispatcher sweeps due reminders and hands them to the notifier. Run from
// a cron entry once a minute; fire times are minute-truncated so a sweep per
// minute never skips one.
type Dispatcher struct {
	src      PendingSource
	notifier Notifier
}

func NewDispatcher(src PendingSource, notifier Notifier) *Dispatcher {
	return &Dispatcher{src: src, notifier: notifier}
}

// Sweep delivers everything due as of now. Per-reminder failures are logged
// and skipped; the reminder stays pending for the next sweep.
func (d *Dispatcher) Sweep(ctx context.Context) {
	due, err := d.src.DuePending(ctx, time.Now())
	if err != nil {
		log.Printf("notify: due query: %v", err)
		return
	}
	for _, r := range due {
		if err := d.notifier.Notify(ctx, r); err != nil {
			log.Printf("notify: deliver %s: %v", r.Identity, err)
			continue
		}
		if err := d.src.MarkDelivered(ctx, r); err != nil {
			log.Printf("notify: mark delivered %s: %v", r.Identity, err)
		}
	}
	if len(due) > 0 {
		log.Printf("notify: delivered %d reminders", len(due))
	}
}
