package analytics

import (
	"context"
	"time"
)

// UserSummary aggregates a user's recorded activity.
type UserSummary struct {
	UserID       string    `json:"user_id"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
	SessionCount int       `json:"session_count"`
	ErrorCount   int       `json:"error_count"`
}

// UserFilter narrows a user listing.
type UserFilter struct {
	ActiveSince *time.Time
}

// ListUsers pages through per-user activity summaries, most recently seen
// first.
func (s *Store) ListUsers(ctx context.Context, f UserFilter, req PageRequest) (Page[UserSummary], error) {
	c := &cond{}
	having := ""
	if f.ActiveSince != nil {
		c.args = append(c.args, *f.ActiveSince)
		having = ` HAVING max(started_at) >= $1`
	}

	base := `FROM ` + s.table("sessions") + ` GROUP BY user_id` + having

	var total int
	if err := s.pg.QueryRow(ctx, `SELECT count(*) FROM (SELECT user_id `+base+`) u`, c.args...).Scan(&total); err != nil {
		return Page[UserSummary]{}, err
	}

	limit, offset := req.LimitOffset()
	args := append(append([]any{}, c.args...), limit, offset)
	q := `SELECT user_id,
			min(started_at) AS first_seen,
			max(started_at) AS last_seen,
			count(*) AS session_count,
			coalesce(sum(error_count), 0) AS error_count
		` + base + `
		ORDER BY last_seen DESC
		LIMIT $` + itoa(len(c.args)+1) + ` OFFSET $` + itoa(len(c.args)+2)
	rows, err := s.pg.Query(ctx, q, args...)
	if err != nil {
		return Page[UserSummary]{}, err
	}
	defer rows.Close()

	var items []UserSummary
	for rows.Next() {
		var u UserSummary
		if err := rows.Scan(&u.UserID, &u.FirstSeen, &u.LastSeen, &u.SessionCount, &u.ErrorCount); err != nil {
			return Page[UserSummary]{}, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return Page[UserSummary]{}, err
	}
	return NewPage(items, total, req), nil
}
