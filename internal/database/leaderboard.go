package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// LeaderboardEntry is one ranked row of the leaderboard response.
type LeaderboardEntry struct {
	Username      string `json:"username"`
	RankScore     int    `json:"rankScore"`
	Rank          int64  `json:"rank"`
	IsCurrentUser bool   `json:"isCurrentUser"`
}

// GetLeaderboard returns the top `limit` players by rank score. If username
// is non-empty and not already inside the top rows, that player's own ranked
// row is appended so a client can always show where the viewer stands.
func GetLeaderboard(ctx context.Context, username string, limit int) ([]LeaderboardEntry, error) {
	q := `
	SELECT username, rank_score, RANK() OVER (ORDER BY rank_score DESC) AS rank
	FROM users
	ORDER BY rank_score DESC
	LIMIT $1
	`
	rows, err := DB.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	inTop := false
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.RankScore, &e.Rank); err != nil {
			return nil, err
		}
		if e.Username == username {
			e.IsCurrentUser = true
			inTop = true
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if username == "" || inTop {
		return entries, nil
	}

	ownQ := `
	WITH ranks AS (
		SELECT username, rank_score, RANK() OVER (ORDER BY rank_score DESC) AS rank
		FROM users
	)
	SELECT username, rank_score, rank FROM ranks WHERE username = $1
	`
	var own LeaderboardEntry
	err = DB.QueryRow(ctx, ownQ, username).Scan(&own.Username, &own.RankScore, &own.Rank)
	if err == pgx.ErrNoRows {
		return entries, nil
	}
	if err != nil {
		return nil, err
	}
	own.IsCurrentUser = true
	return append(entries, own), nil
}
