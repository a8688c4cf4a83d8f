package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ErrorEvent is one reported client-side error.
type ErrorEvent struct {
	ID         uuid.UUID  `json:"id"`
	SessionID  *uuid.UUID `json:"session_id,omitempty"`
	UserID     string     `json:"user_id"`
	Level      string     `json:"level"`
	Message    string     `json:"message"`
	AppVersion string     `json:"app_version"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// ErrorFilter narrows an error-event listing.
type ErrorFilter struct {
	UserID string
	Level  string
	From   *time.Time
	To     *time.Time
}

func (f ErrorFilter) cond() *cond {
	c := &cond{}
	if f.UserID != "" {
		c.add("user_id = $%d", f.UserID)
	}
	if f.Level != "" {
		c.add("level = $%d", f.Level)
	}
	if f.From != nil {
		c.add("occurred_at >= $%d", *f.From)
	}
	if f.To != nil {
		c.add("occurred_at < $%d", *f.To)
	}
	return c
}

// ListErrors pages through error events matching the filter, newest first.
func (s *Store) ListErrors(ctx context.Context, f ErrorFilter, req PageRequest) (Page[ErrorEvent], error) {
	c := f.cond()

	var total int
	if err := s.pg.QueryRow(ctx, `SELECT count(*) FROM `+s.table("error_events")+c.where(), c.args...).Scan(&total); err != nil {
		return Page[ErrorEvent]{}, err
	}

	limit, offset := req.LimitOffset()
	args := append(append([]any{}, c.args...), limit, offset)
	q := `SELECT id, session_id, user_id, level, message, app_version, occurred_at
		FROM ` + s.table("error_events") + c.where() + `
		ORDER BY occurred_at DESC
		LIMIT $` + itoa(len(c.args)+1) + ` OFFSET $` + itoa(len(c.args)+2)
	rows, err := s.pg.Query(ctx, q, args...)
	if err != nil {
		return Page[ErrorEvent]{}, err
	}
	defer rows.Close()

	var items []ErrorEvent
	for rows.Next() {
		var e ErrorEvent
		if err := rows.Scan(&e.ID, &e.SessionID, &e.UserID, &e.Level, &e.Message, &e.AppVersion, &e.OccurredAt); err != nil {
			return Page[ErrorEvent]{}, err
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return Page[ErrorEvent]{}, err
	}
	return NewPage(items, total, req), nil
}
