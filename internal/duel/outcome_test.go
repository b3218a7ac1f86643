package duel

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/colorswipe/duel-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRatingStore is an in-memory stand-in for the pgx-backed store.
type fakeRatingStore struct {
	mu       sync.Mutex
	ratings  map[string]int
	setCalls []string
	failSet  map[string]bool
	failRead bool
}

func newFakeRatingStore(ratings map[string]int) *fakeRatingStore {
	return &fakeRatingStore{
		ratings: ratings,
		failSet: make(map[string]bool),
	}
}

func (f *fakeRatingStore) GetRatingsByUsernames(ctx context.Context, usernames []string) ([]models.RatingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRead {
		return nil, errors.New("read failed")
	}
	var records []models.RatingRecord
	for _, u := range usernames {
		if score, ok := f.ratings[u]; ok {
			records = append(records, models.RatingRecord{Username: u, RankScore: score})
		}
	}
	return records, nil
}

func (f *fakeRatingStore) SetRating(ctx context.Context, username string, rankScore int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls = append(f.setCalls, username)
	if f.failSet[username] {
		return errors.New("write failed")
	}
	f.ratings[username] = rankScore
	return nil
}

func (f *fakeRatingStore) rating(username string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ratings[username]
}

func (f *fakeRatingStore) writes(username string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.setCalls {
		if u == username {
			n++
		}
	}
	return n
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestResolveEqualRatings(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000})
	p := NewOutcomeProcessor(store, quietLogger())

	newW, newL, err := p.Resolve(context.Background(), uuid.New(), "alice", "bob", false)
	require.NoError(t, err)
	assert.Equal(t, 1016, newW)
	assert.Equal(t, 984, newL)
	assert.Equal(t, 1016, store.rating("alice"))
	assert.Equal(t, 984, store.rating("bob"))
}

func TestResolveMissingUserAborts(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000})
	p := NewOutcomeProcessor(store, quietLogger())

	_, _, err := p.Resolve(context.Background(), uuid.New(), "alice", "ghost", false)
	assert.ErrorIs(t, err, ErrRatingNotFound)
	assert.Empty(t, store.setCalls, "no writes should be attempted when a record is missing")
	assert.Equal(t, 1000, store.rating("alice"))
}

func TestResolveReadFailureAborts(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000})
	store.failRead = true
	p := NewOutcomeProcessor(store, quietLogger())

	_, _, err := p.Resolve(context.Background(), uuid.New(), "alice", "bob", false)
	assert.Error(t, err)
	assert.Empty(t, store.setCalls)
}

func TestResolveBothWritesAttempted(t *testing.T) {
	// One write failing must not stop the other side's write; the ratings
	// are independent and there is no rollback.
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000})
	store.failSet["alice"] = true
	p := NewOutcomeProcessor(store, quietLogger())

	newW, newL, err := p.Resolve(context.Background(), uuid.New(), "alice", "bob", false)
	require.NoError(t, err)
	assert.Equal(t, 1016, newW)
	assert.Equal(t, 984, newL)
	assert.Equal(t, 1, store.writes("alice"))
	assert.Equal(t, 1, store.writes("bob"))
	assert.Equal(t, 984, store.rating("bob"))
}
