package store

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"watch-me-run-api/internal/model"
)

type Store struct {
	pool     *pgxpool.Pool
	defaults model.Settings
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, defaults: model.DefaultSettings()}
}

// SetReminderDefaults overrides the reminder timings seeded into new
// user_settings rows.
func (s *Store) SetReminderDefaults(ownerHours, firstMinutes, secondMinutes int) {
	s.defaults.OwnerHoursBefore = ownerHours
	s.defaults.WatchingFirstMinutes = firstMinutes
	s.defaults.WatchingSecondMinutes = secondMinutes
}
