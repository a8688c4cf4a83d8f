package analytics

import (
	"context"
	"time"
)

// DashboardSummary is the headline view the dashboard endpoint serves.
type DashboardSummary struct {
	TotalUsers      int `json:"total_users"`
	TotalSessions   int `json:"total_sessions"`
	TotalErrors     int `json:"total_errors"`
	TotalFeedback   int `json:"total_feedback"`
	ActiveUsers7d   int `json:"active_users_7d"`
	SessionsToday   int `json:"sessions_today"`
	RegisteredVills int `json:"registered_villages"`
}

// DashboardSummary computes the headline counters in one round trip.
func (s *Store) DashboardSummary(ctx context.Context, now time.Time) (DashboardSummary, error) {
	weekAgo := now.AddDate(0, 0, -7)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	q := `SELECT
		(SELECT count(DISTINCT user_id) FROM ` + s.table("sessions") + `),
		(SELECT count(*) FROM ` + s.table("sessions") + `),
		(SELECT count(*) FROM ` + s.table("error_events") + `),
		(SELECT count(*) FROM ` + s.table("feedback") + `),
		(SELECT count(DISTINCT user_id) FROM ` + s.table("sessions") + ` WHERE started_at >= $1),
		(SELECT count(*) FROM ` + s.table("sessions") + ` WHERE started_at >= $2),
		(SELECT count(DISTINCT lgd_code) FROM ` + s.table("sessions") + ` WHERE lgd_code IS NOT NULL)`

	var d DashboardSummary
	err := s.pg.QueryRow(ctx, q, weekAgo, dayStart).Scan(
		&d.TotalUsers, &d.TotalSessions, &d.TotalErrors, &d.TotalFeedback,
		&d.ActiveUsers7d, &d.SessionsToday, &d.RegisteredVills,
	)
	if err != nil {
		return DashboardSummary{}, err
	}
	return d, nil
}
