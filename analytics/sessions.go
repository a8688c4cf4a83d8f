package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is one recorded app session.
type Session struct {
	ID              uuid.UUID  `json:"id"`
	UserID          string     `json:"user_id"`
	LGDCode         *string    `json:"lgd_code,omitempty"`
	Platform        string     `json:"platform"`
	AppVersion      string     `json:"app_version"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
}

// SessionFilter narrows a session listing.
type SessionFilter struct {
	UserID   string
	LGDCode  string
	Platform string
	From     *time.Time
	To       *time.Time
}

func (f SessionFilter) cond() *cond {
	c := &cond{}
	if f.UserID != "" {
		c.add("user_id = $%d", f.UserID)
	}
	if f.LGDCode != "" {
		c.add("lgd_code = $%d", f.LGDCode)
	}
	if f.Platform != "" {
		c.add("platform = $%d", f.Platform)
	}
	if f.From != nil {
		c.add("started_at >= $%d", *f.From)
	}
	if f.To != nil {
		c.add("started_at < $%d", *f.To)
	}
	return c
}

// ListSessions pages through sessions matching the filter, newest first.
func (s *Store) ListSessions(ctx context.Context, f SessionFilter, req PageRequest) (Page[Session], error) {
	c := f.cond()

	var total int
	if err := s.pg.QueryRow(ctx, `SELECT count(*) FROM `+s.table("sessions")+c.where(), c.args...).Scan(&total); err != nil {
		return Page[Session]{}, err
	}

	limit, offset := req.LimitOffset()
	args := append(append([]any{}, c.args...), limit, offset)
	q := `SELECT id, user_id, lgd_code, platform, app_version, started_at, ended_at, duration_seconds
		FROM ` + s.table("sessions") + c.where() + `
		ORDER BY started_at DESC
		LIMIT $` + itoa(len(c.args)+1) + ` OFFSET $` + itoa(len(c.args)+2)
	rows, err := s.pg.Query(ctx, q, args...)
	if err != nil {
		return Page[Session]{}, err
	}
	defer rows.Close()

	var items []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.LGDCode, &sess.Platform, &sess.AppVersion, &sess.StartedAt, &sess.EndedAt, &sess.DurationSeconds); err != nil {
			return Page[Session]{}, err
		}
		items = append(items, sess)
	}
	if err := rows.Err(); err != nil {
		return Page[Session]{}, err
	}
	return NewPage(items, total, req), nil
}
