package database

import (
	"context"

	"github.com/colorswipe/duel-service/internal/models"
	"github.com/jackc/pgx/v5"
)

// RatingStore adapts the users table to the storage interface consumed by
// the duel outcome processor.
type RatingStore struct{}

func NewRatingStore() *RatingStore {
	return &RatingStore{}
}

// GetRatingsByUsernames returns the rating records for the given usernames.
// Missing usernames simply yield fewer rows; callers decide whether a
// partial result is fatal.
func (s *RatingStore) GetRatingsByUsernames(ctx context.Context, usernames []string) ([]models.RatingRecord, error) {
	q := `SELECT username, rank_score FROM users WHERE username = ANY($1)`
	rows, err := DB.Query(ctx, q, usernames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.RatingRecord
	for rows.Next() {
		var rec models.RatingRecord
		if err := rows.Scan(&rec.Username, &rec.RankScore); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SetRating writes a player's new rank score.
func (s *RatingStore) SetRating(ctx context.Context, username string, rankScore int) error {
	q := `UPDATE users SET rank_score = $1 WHERE username = $2`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, rankScore, username)
		return err
	})
}
