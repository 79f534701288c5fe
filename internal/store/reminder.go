package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"watch-me-run-api/internal/notify"
)

// Schedule implements notify.Scheduler. Cancel-then-add in one transaction
// so rescheduling can never leave two rows for one identity.
func (s *Store) Schedule(ctx context.Context, r notify.Reminder) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`DELETE FROM pending_notifications WHERE user_id = $1 AND identity = $2`,
		r.UserID, r.Identity,
	)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO pending_notifications (user_id, identity, title, body, fire_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		r.UserID, r.Identity, r.Title, r.Body, r.FireAt,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Cancel implements notify.Scheduler. Cancelling an identity that was never
// scheduled is not an error.
func (s *Store) Cancel(ctx context.Context, userID, identity string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM pending_notifications WHERE user_id = $1 AND identity = $2`,
		userID, identity,
	)
	return err
}

// CancelAll drops every pending reminder a user has, used when the user
// opts out of notifications entirely.
func (s *Store) CancelAll(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM pending_notifications WHERE user_id = $1`, userID,
	)
	return err
}

// DuePending returns every reminder whose fire time has arrived.
func (s *Store) DuePending(ctx context.Context, now time.Time) ([]notify.Reminder, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, identity, title, body, fire_at
		 FROM pending_notifications WHERE fire_at <= $1 ORDER BY fire_at`, now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notify.Reminder
	for rows.Next() {
		var r notify.Reminder
		if err := rows.Scan(&r.UserID, &r.Identity, &r.Title, &r.Body, &r.FireAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkDelivered moves a fired reminder out of pending into the delivery log.
func (s *Store) MarkDelivered(ctx context.Context, r notify.Reminder) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO notification_deliveries (id, identity, user_id, title, body, fire_at)
		 VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.New().String(), r.Identity, r.UserID, r.Title, r.Body, r.FireAt,
	)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`DELETE FROM pending_notifications WHERE user_id = $1 AND identity = $2`,
		r.UserID, r.Identity,
	)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// PendingFor lists a user's pending reminders, soonest first.
func (s *Store) PendingFor(ctx context.Context, userID string) ([]notify.Reminder, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, identity, title, body, fire_at
		 FROM pending_notifications WHERE user_id = $1 ORDER BY fire_at`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []notify.Reminder
	for rows.Next() {
		var r notify.Reminder
		if err := rows.Scan(&r.UserID, &r.Identity, &r.Title, &r.Body, &r.FireAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
