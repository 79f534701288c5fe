package store

import (
	"context"
	"time"

	"watch-me-run-api/internal/model"
)

// SaveRace upserts a race row wholesale, keyed by id. The remote source of
// truth wins; there is no field-level merging.
func (s *Store) SaveRace(ctx context.Context, r *model.UserRace) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO races (id, user_id, name, distance, date, time_zone, location,
		                    live_results_url, watch_url, meet_page_url, levels, instructions, comments)
		 VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),$7,NULLIF($8,''),NULLIF($9,''),NULLIF($10,''),$11,NULLIF($12,''),NULLIF($13,''))
		 ON CONFLICT (id) DO UPDATE SET
		   name=$3, distance=$4, date=$5, time_zone=NULLIF($6,''), location=$7,
		   live_results_url=NULLIF($8,''), watch_url=NULLIF($9,''), meet_page_url=NULLIF($10,''),
		   levels=$11, instructions=NULLIF($12,''), comments=NULLIF($13,''), updated_at=NOW()
		 WHERE races.user_id = $2`,
		r.ID, r.UserID, r.Name, r.Distance, r.Date, r.TimeZone, r.Location,
		r.LiveResultsURL, r.WatchURL, r.MeetPageURL, r.Levels, r.Instructions, r.Comments,
	)
	return err
}

func (s *Store) DeleteRace(ctx context.Context, id, userID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM races WHERE id = $1 AND user_id = $2`, id, userID,
	)
	return err
}

func (s *Store) GetRace(ctx context.Context, id string) (*model.UserRace, error) {
	r := &model.UserRace{}
	var tz, live, watch, meet, instr, comments *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, distance, date, time_zone, location,
		        live_results_url, watch_url, meet_page_url, levels, instructions, comments
		 FROM races WHERE id = $1`, id,
	).Scan(&r.ID, &r.UserID, &r.Name, &r.Distance, &r.Date, &tz, &r.Location,
		&live, &watch, &meet, &r.Levels, &instr, &comments)
	if err != nil {
		return nil, err
	}
	r.TimeZone = deref(tz)
	r.LiveResultsURL = deref(live)
	r.WatchURL = deref(watch)
	r.MeetPageURL = deref(meet)
	r.Instructions = deref(instr)
	r.Comments = deref(comments)
	return r, nil
}

// ListRaces returns a user's races ordered by date ascending.
func (s *Store) ListRaces(ctx context.Context, userID string) ([]model.UserRace, error) {
	return s.queryRaces(ctx,
		`SELECT id, user_id, name, distance, date, time_zone, location,
		        live_results_url, watch_url, meet_page_url, levels, instructions, comments
		 FROM races WHERE user_id = $1 ORDER BY date ASC`, userID)
}

// FutureRaces returns a user's races starting after the given instant,
// ordered by date ascending. This is the set reminders are computed over.
func (s *Store) FutureRaces(ctx context.Context, userID string, after time.Time) ([]model.UserRace, error) {
	return s.queryRaces(ctx,
		`SELECT id, user_id, name, distance, date, time_zone, location,
		        live_results_url, watch_url, meet_page_url, levels, instructions, comments
		 FROM races WHERE user_id = $1 AND date > $2 ORDER BY date ASC`, userID, after)
}

func (s *Store) queryRaces(ctx context.Context, q string, args ...any) ([]model.UserRace, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UserRace
	for rows.Next() {
		var r model.UserRace
		var tz, live, watch, meet, instr, comments *string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Distance, &r.Date, &tz, &r.Location,
			&live, &watch, &meet, &r.Levels, &instr, &comments); err != nil {
			return nil, err
		}
		r.TimeZone = deref(tz)
		r.LiveResultsURL = deref(live)
		r.WatchURL = deref(watch)
		r.MeetPageURL = deref(meet)
		r.Instructions = deref(instr)
		r.Comments = deref(comments)
		out = append(out, r)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
