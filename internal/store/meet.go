package store

import (
	"context"

	"watch-me-run-api/internal/model"
)

// ReplaceMeets swaps the whole meets table for the freshly parsed snapshot.
// No diffing: the CSV is the source of truth on every refresh.
func (s *Store) ReplaceMeets(ctx context.Context, meets []model.Meet) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM meets`); err != nil {
		return err
	}
	for _, m := range meets {
		_, err := tx.Exec(ctx,
			`INSERT INTO meets (id, name, date, level, priority, live_results_url, watch_url)
			 VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),NULLIF($7,''))`,
			m.ID, m.Name, m.Date, m.Level, m.Priority, m.LiveResultsURL, m.WatchURL,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListMeets returns all meets sorted by priority then name, the same order
// the parser emits.
func (s *Store) ListMeets(ctx context.Context) ([]model.Meet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, date, level, priority, live_results_url, watch_url
		 FROM meets ORDER BY priority ASC, LOWER(name) ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Meet
	for rows.Next() {
		var m model.Meet
		var live, watch *string
		if err := rows.Scan(&m.ID, &m.Name, &m.Date, &m.Level, &m.Priority, &live, &watch); err != nil {
			return nil, err
		}
		m.LiveResultsURL = deref(live)
		m.WatchURL = deref(watch)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ListFeaturedMeets(ctx context.Context) ([]model.FeaturedMeet, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, date, location, live_results_url, watch_url, home_meet_url
		 FROM featured_meets ORDER BY date ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FeaturedMeet
	for rows.Next() {
		var f model.FeaturedMeet
		var loc, live, watch, home *string
		if err := rows.Scan(&f.ID, &f.Name, &f.Date, &loc, &live, &watch, &home); err != nil {
			return nil, err
		}
		f.Location = deref(loc)
		f.LiveResultsURL = deref(live)
		f.WatchURL = deref(watch)
		f.HomeMeetURL = deref(home)
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) ListFeaturedEvents(ctx context.Context, meetID string) ([]model.FeaturedEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT meet_id, id, name, start_time
		 FROM featured_events WHERE meet_id = $1 ORDER BY start_time ASC NULLS LAST`, meetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FeaturedEvent
	for rows.Next() {
		var e model.FeaturedEvent
		if err := rows.Scan(&e.MeetID, &e.ID, &e.Name, &e.Start); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) GetFeaturedEvent(ctx context.Context, meetID, eventID string) (*model.FeaturedEvent, error) {
	e := &model.FeaturedEvent{}
	err := s.pool.QueryRow(ctx,
		`SELECT meet_id, id, name, start_time FROM featured_events
		 WHERE meet_id = $1 AND id = $2`, meetID, eventID,
	).Scan(&e.MeetID, &e.ID, &e.Name, &e.Start)
	if err != nil {
		return nil, err
	}
	return e, nil
}
