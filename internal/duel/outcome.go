// internal/duel/outcome.go
package duel

import (
	"context"
	"errors"
	"time"

	"github.com/colorswipe/duel-service/internal/cache"
	"github.com/colorswipe/duel-service/internal/models"
	"github.com/colorswipe/duel-service/internal/rating"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrRatingNotFound is returned when one or both usernames have no stored
// rating record.
var ErrRatingNotFound = errors.New("rating record not found")

// RatingStore is the slice of the persistence collaborator this core
// consumes. The pgx-backed implementation lives in internal/database; tests
// substitute an in-memory fake.
type RatingStore interface {
	GetRatingsByUsernames(ctx context.Context, usernames []string) ([]models.RatingRecord, error)
	SetRating(ctx context.Context, username string, rankScore int) error
}

// OutcomeProcessor turns a match result into persisted rating updates. It is
// invoked on explicit game-over reports and on forfeits.
type OutcomeProcessor struct {
	Store  RatingStore
	Logger *logrus.Logger
}

func NewOutcomeProcessor(store RatingStore, logger *logrus.Logger) *OutcomeProcessor {
	return &OutcomeProcessor{Store: store, Logger: logger}
}

// Resolve reads both players' pre-match ratings, computes the Elo updates,
// and writes both new ratings. The two writes are independent: both are
// attempted even if one fails, and there is no rollback. A missing record or
// a read failure aborts the whole resolution without touching anything.
func (p *OutcomeProcessor) Resolve(ctx context.Context, roomID uuid.UUID, winnerUsername, loserUsername string, forfeit bool) (newWinner, newLoser int, err error) {
	records, err := p.Store.GetRatingsByUsernames(ctx, []string{winnerUsername, loserUsername})
	if err != nil {
		p.Logger.Errorf("outcome: failed to read ratings for %s/%s: %v", winnerUsername, loserUsername, err)
		return 0, 0, err
	}

	var winnerRec, loserRec *models.RatingRecord
	for i := range records {
		switch records[i].Username {
		case winnerUsername:
			winnerRec = &records[i]
		case loserUsername:
			loserRec = &records[i]
		}
	}
	if winnerRec == nil || loserRec == nil {
		p.Logger.Errorf("outcome: missing rating record for %s or %s, aborting", winnerUsername, loserUsername)
		return 0, 0, ErrRatingNotFound
	}

	// Both updates from the pre-match ratings, never a partially-updated one.
	newWinner, newLoser = rating.Duel(winnerRec.RankScore, loserRec.RankScore)

	if werr := p.Store.SetRating(ctx, winnerUsername, newWinner); werr != nil {
		p.Logger.Errorf("outcome: failed to persist winner rating for %s: %v", winnerUsername, werr)
	}
	if lerr := p.Store.SetRating(ctx, loserUsername, newLoser); lerr != nil {
		p.Logger.Errorf("outcome: failed to persist loser rating for %s: %v", loserUsername, lerr)
	}

	if perr := cache.PublishMatchResult(ctx, cache.MatchResultRecord{
		RoomID:         roomID,
		WinnerUsername: winnerUsername,
		LoserUsername:  loserUsername,
		WinnerRating:   newWinner,
		LoserRating:    newLoser,
		Forfeit:        forfeit,
		Timestamp:      time.Now().Unix(),
	}); perr != nil {
		p.Logger.Warnf("outcome: failed to publish match result for room %s: %v", roomID, perr)
	}

	return newWinner, newLoser, nil
}
