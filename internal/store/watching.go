package store

import (
	"context"

	"watch-me-run-api/internal/model"
)

func (s *Store) Watching(ctx context.Context, uid string) (*model.Watching, error) {
	w := &model.Watching{
		FriendIDs:         []string{},
		FeaturedEventKeys: []string{},
	}

	rows, err := s.pool.Query(ctx,
		`SELECT friend_id FROM watching_friends WHERE user_id = $1 ORDER BY created_at`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		w.FriendIDs = append(w.FriendIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows2, err := s.pool.Query(ctx,
		`SELECT event_key FROM watching_featured_events WHERE user_id = $1 ORDER BY created_at`, uid)
	if err != nil {
		return nil, err
	}
	defer rows2.Close()
	for rows2.Next() {
		var key string
		if err := rows2.Scan(&key); err != nil {
			return nil, err
		}
		w.FeaturedEventKeys = append(w.FeaturedEventKeys, key)
	}
	return w, rows2.Err()
}

func (s *Store) IsWatchingFriend(ctx context.Context, uid, friendID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM watching_friends WHERE user_id = $1 AND friend_id = $2)`,
		uid, friendID,
	).Scan(&exists)
	return exists, err
}

func (s *Store) WatchFriend(ctx context.Context, uid, friendID string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO watching_friends (user_id, friend_id) VALUES ($1,$2)
		 ON CONFLICT DO NOTHING`, uid, friendID,
	)
	return err
}

func (s *Store) UnwatchFriend(ctx context.Context, uid, friendID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM watching_friends WHERE user_id = $1 AND friend_id = $2`, uid, friendID,
	)
	return err
}

func (s *Store) IsWatchingFeaturedEvent(ctx context.Context, uid, eventKey string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM watching_featured_events WHERE user_id = $1 AND event_key = $2)`,
		uid, eventKey,
	).Scan(&exists)
	return exists, err
}

func (s *Store) WatchFeaturedEvent(ctx context.Context, uid, eventKey, meetID, eventID, eventName string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO watching_featured_events (user_id, event_key, meet_id, event_id, event_name)
		 VALUES ($1,$2,$3,$4,$5) ON CONFLICT DO NOTHING`,
		uid, eventKey, meetID, eventID, eventName,
	)
	return err
}

// WatchersOfFriend lists every user watching the given runner. Used to
// resync watching reminders when the runner's race list changes.
func (s *Store) WatchersOfFriend(ctx context.Context, friendID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM watching_friends WHERE friend_id = $1`, friendID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// WatchedFeaturedEvents joins the user's watched event keys against the
// featured events so reminder resync has names and start times.
func (s *Store) WatchedFeaturedEvents(ctx context.Context, uid string) ([]model.FeaturedEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT w.meet_id, w.event_id, COALESCE(fe.name, w.event_name), fe.start_time
		 FROM watching_featured_events w
		 LEFT JOIN featured_events fe ON fe.meet_id = w.meet_id AND fe.id = w.event_id
		 WHERE w.user_id = $1`, uid)
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

func (s *Store) UnwatchFeaturedEvent(ctx context.Context, uid, eventKey string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM watching_featured_events WHERE user_id = $1 AND event_key = $2`,
		uid, eventKey,
	)
	return err
}
