package store

import (
	"context"
	"strings"

	"watch-me-run-api/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, name) VALUES ($1,$2,$3,$4)`,
		u.ID, u.Email, u.PasswordHash, u.Name,
	)
	if err != nil {
		return err
	}

	// seed profile and reminder settings rows
	_, err = tx.Exec(ctx,
		`INSERT INTO user_details (user_id, name, search_name_lower) VALUES ($1,$2,$3)`,
		u.ID, u.Name, strings.ToLower(strings.TrimSpace(u.Name)),
	)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO user_settings (user_id, owner_hours_before, watching_first_minutes, watching_second_minutes)
		 VALUES ($1,$2,$3,$4)`,
		u.ID, s.defaults.OwnerHoursBefore, s.defaults.WatchingFirstMinutes, s.defaults.WatchingSecondMinutes,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	u := &model.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, name, created_at, updated_at
		 FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) UserDetails(ctx context.Context, uid string) (*model.UserDetails, error) {
	d := &model.UserDetails{}
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, searchable, name, location, sex, birthday, affiliation
		 FROM user_details WHERE user_id = $1`, uid,
	).Scan(&d.UserID, &d.Searchable, &d.Name, &d.Location, &d.Sex, &d.Birthday, &d.Affiliation)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// SaveUserDetails upserts the profile row wholesale. The lowercase search
// field is derived here so every writer keeps it in sync.
func (s *Store) SaveUserDetails(ctx context.Context, d *model.UserDetails) error {
	name := strings.TrimSpace(d.Name)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_details (user_id, searchable, name, search_name_lower, location, sex, birthday, affiliation, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		   searchable=$2, name=$3, search_name_lower=$4, location=$5, sex=$6, birthday=$7, affiliation=$8, updated_at=NOW()`,
		d.UserID, d.Searchable, name, strings.ToLower(name), d.Location, d.Sex, d.Birthday, d.Affiliation,
	)
	return err
}

// SearchUsers does a prefix match on the derived lowercase name. Only
// searchable profiles are returned.
func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]model.FriendSearchResult, error) {
	prefix := strings.ToLower(strings.TrimSpace(query))
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, name, location, affiliation
		 FROM user_details
		 WHERE searchable AND search_name_lower LIKE $1 || '%'
		 ORDER BY search_name_lower
		 LIMIT $2`, prefix, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FriendSearchResult
	for rows.Next() {
		var r model.FriendSearchResult
		if err := rows.Scan(&r.ID, &r.Name, &r.Location, &r.Affiliation); err != nil {
			return nil, err
		}
		if r.Name == "" {
			r.Name = "Runner"
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Settings(ctx context.Context, uid string) (model.Settings, error) {
	st := model.DefaultSettings()
	err := s.pool.QueryRow(ctx,
		`SELECT notifications_enabled, owner_reminder_enabled, owner_hours_before,
		        watching_enabled, watching_first_minutes, watching_second_minutes
		 FROM user_settings WHERE user_id = $1`, uid,
	).Scan(&st.NotificationsEnabled, &st.OwnerReminderEnabled, &st.OwnerHoursBefore,
		&st.WatchingEnabled, &st.WatchingFirstMinutes, &st.WatchingSecondMinutes)
	if err != nil {
		return model.DefaultSettings(), err
	}
	return st, nil
}

func (s *Store) SaveSettings(ctx context.Context, uid string, st model.Settings) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_settings (user_id, notifications_enabled, owner_reminder_enabled, owner_hours_before,
		                            watching_enabled, watching_first_minutes, watching_second_minutes, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		   notifications_enabled=$2, owner_reminder_enabled=$3, owner_hours_before=$4,
		   watching_enabled=$5, watching_first_minutes=$6, watching_second_minutes=$7, updated_at=NOW()`,
		uid, st.NotificationsEnabled, st.OwnerReminderEnabled, st.OwnerHoursBefore,
		st.WatchingEnabled, st.WatchingFirstMinutes, st.WatchingSecondMinutes,
	)
	return err
}
