package analytics

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// LeaderboardEntry ranks a village by recorded activity.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	LGDCode     string `json:"lgd_code"`
	Sessions    int    `json:"sessions"`
	ActiveUsers int    `json:"active_users"`
}

// VillageLeaderboard returns the top villages by session count. limit is
// clamped to [1, MaxPerPage].
func (s *Store) VillageLeaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit < 1 {
		limit = DefaultPerPage
	}
	if limit > MaxPerPage {
		limit = MaxPerPage
	}
	q := `SELECT lgd_code, count(*) AS sessions, count(DISTINCT user_id) AS active_users
		FROM ` + s.table("sessions") + `
		WHERE lgd_code IS NOT NULL
		GROUP BY lgd_code
		ORDER BY sessions DESC, lgd_code
		LIMIT $1`
	rows, err := s.pg.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		e := LeaderboardEntry{Rank: rank}
		if err := rows.Scan(&e.LGDCode, &e.Sessions, &e.ActiveUsers); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// VillageRank returns the leaderboard entry for one village, or ok=false
// when the village has no recorded sessions.
func (s *Store) VillageRank(ctx context.Context, lgdCode string) (LeaderboardEntry, bool, error) {
	q := `SELECT rank, lgd_code, sessions, active_users FROM (
			SELECT lgd_code,
				count(*) AS sessions,
				count(DISTINCT user_id) AS active_users,
				rank() OVER (ORDER BY count(*) DESC) AS rank
			FROM ` + s.table("sessions") + `
			WHERE lgd_code IS NOT NULL
			GROUP BY lgd_code
		) ranked WHERE lgd_code = $1`
	var e LeaderboardEntry
	err := s.pg.QueryRow(ctx, q, lgdCode).Scan(&e.Rank, &e.LGDCode, &e.Sessions, &e.ActiveUsers)
	if errors.Is(err, pgx.ErrNoRows) {
		return LeaderboardEntry{}, false, nil
	}
	if err != nil {
		return LeaderboardEntry{}, false, err
	}
	return e, true, nil
}
