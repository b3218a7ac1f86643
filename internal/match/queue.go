// internal/match/queue.go
package match

import (
	"sync"

	"github.com/colorswipe/duel-service/internal/duel"
	"github.com/colorswipe/duel-service/internal/models"
	"github.com/google/uuid"
)

// MaxRankedGap is the widest rating difference two ranked players may have
// and still be paired.
const MaxRankedGap = 200

// Entry is one waiting player: their connection and the snapshot taken when
// they entered the queue.
type Entry struct {
	ConnID   uuid.UUID
	Snapshot models.PlayerSnapshot
	Conn     *duel.Conn
}

// Queue holds one FIFO of waiting players per game mode. A connection
// appears in at most one mode's queue at a time.
type Queue struct {
	mu     sync.Mutex
	queues map[string][]Entry
}

func NewQueue() *Queue {
	return &Queue{
		queues: make(map[string][]Entry),
	}
}

// Enqueue appends the entry to the mode's queue. Re-adding a connection
// first evicts its prior entry from every mode, so enqueue behaves as an
// idempotent replace.
func (q *Queue) Enqueue(mode string, e Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeUnsafe(e.ConnID)
	q.queues[mode] = append(q.queues[mode], e)
}

// Cancel removes the connection from every mode's queue.
func (q *Queue) Cancel(connID uuid.UUID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeUnsafe(connID)
}

func (q *Queue) removeUnsafe(connID uuid.UUID) {
	for mode, list := range q.queues {
		for i, e := range list {
			if e.ConnID == connID {
				q.queues[mode] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// Contains reports whether the connection is waiting in any mode's queue.
func (q *Queue) Contains(connID uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, list := range q.queues {
		for _, e := range list {
			if e.ConnID == connID {
				return true
			}
		}
	}
	return false
}

// TryPair scans all unordered pairs in queue order (outer loop over the
// earliest enqueued entries) and removes and returns the first pair that
// satisfies the mode's eligibility predicate. Both entries leave the queue
// atomically, so no entry can be matched twice.
//
// O(n²) per attempt; queues are small and pairing only runs once per
// enqueue, so a bucketed structure is not worth the complexity yet.
func (q *Queue) TryPair(mode string) (Entry, Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	list := q.queues[mode]
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if !eligible(mode, list[i], list[j]) {
				continue
			}
			a, b := list[i], list[j]
			list = append(list[:j], list[j+1:]...)
			list = append(list[:i], list[i+1:]...)
			q.queues[mode] = list
			return a, b, true
		}
	}
	return Entry{}, Entry{}, false
}

// eligible is the per-mode pairing predicate: ranked pairs must be within
// MaxRankedGap rating points, casual pairs always match.
func eligible(mode string, a, b Entry) bool {
	if mode != duel.ModeRanked {
		return true
	}
	gap := a.Snapshot.RankScore - b.Snapshot.RankScore
	if gap < 0 {
		gap = -gap
	}
	return gap <= MaxRankedGap
}
