package duel

import (
	"context"
	"testing"

	"github.com/colorswipe/duel-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vanishingRatingStore triggers a callback at the start of every rating read,
// modelling room-table mutations that land while a resolution is suspended on
// storage.
type vanishingRatingStore struct {
	*fakeRatingStore
	onRead func()
}

func (s *vanishingRatingStore) GetRatingsByUsernames(ctx context.Context, usernames []string) ([]models.RatingRecord, error) {
	if s.onRead != nil {
		s.onRead()
	}
	return s.fakeRatingStore.GetRatingsByUsernames(ctx, usernames)
}

func newTestRegistry(store RatingStore) *Registry {
	return NewRegistry(NewOutcomeProcessor(store, quietLogger()), quietLogger())
}

// startRoom creates a ranked/casual room and walks both players through the
// first readiness handshake, leaving the room IN_PROGRESS with clean
// channels.
func startRoom(t *testing.T, reg *Registry, mode string, a, b *Player) *Room {
	t.Helper()
	room := reg.CreateRoom(mode, a, b)
	room.HandleReady(a.ConnID)
	room.HandleReady(b.ConnID)
	require.Equal(t, StateInProgress, room.State)
	drain(a.Conn)
	drain(b.Conn)
	return room
}

func TestCreateRoomAnnouncesPairing(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000})
	reg := newTestRegistry(store)
	a := newTestPlayer("alice", 1000)
	b := newTestPlayer("bob", 1000)

	room := reg.CreateRoom(ModeRanked, a, b)

	for _, p := range []*Player{a, b} {
		msgs := drain(p.Conn)
		require.Equal(t, 1, countType(msgs, "gameReady"))
		assert.Equal(t, room.ID.String(), msgs[0]["roomId"])
	}
	_, ok := reg.Store.GetRoom(room.ID)
	assert.True(t, ok)
}

func TestGameOverIdempotent(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000})
	reg := newTestRegistry(store)
	a := newTestPlayer("alice", 1000)
	b := newTestPlayer("bob", 1000)
	room := startRoom(t, reg, ModeRanked, a, b)

	ctx := context.Background()
	reg.ResolveOutcome(ctx, room.ID, "alice", "bob")
	reg.ResolveOutcome(ctx, room.ID, "alice", "bob")
	reg.ResolveOutcome(ctx, room.ID, "bob", "alice")

	assert.Equal(t, 1016, store.rating("alice"), "duplicate reports must change ratings only once")
	assert.Equal(t, 984, store.rating("bob"))
	assert.Equal(t, 1, store.writes("alice"))
	assert.Equal(t, 1, store.writes("bob"))

	aMsgs := drain(a.Conn)
	require.Equal(t, 1, countType(aMsgs, "updateRankScore"))
	assert.Equal(t, 1016, aMsgs[0]["newRankScore"])
	bMsgs := drain(b.Conn)
	require.Equal(t, 1, countType(bMsgs, "updateRankScore"))
	assert.Equal(t, 984, bMsgs[0]["newRankScore"])

	// In-room snapshots track the new ratings for the next round's duration.
	assert.Equal(t, 1016, a.RankScore)
	assert.Equal(t, 984, b.RankScore)
}

func TestCasualOutcomeNoRatingChange(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1400})
	reg := newTestRegistry(store)
	a := newTestPlayer("alice", 1000)
	b := newTestPlayer("bob", 1400)
	room := startRoom(t, reg, ModeCasual, a, b)

	reg.ResolveOutcome(context.Background(), room.ID, "alice", "bob")

	assert.Empty(t, store.setCalls)
	assert.Equal(t, 0, countType(drain(a.Conn), "updateRankScore"))
	assert.True(t, room.Finished, "casual outcomes are still acknowledged")
}

func TestOutcomeUnknownRoomIgnored(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000})
	reg := newTestRegistry(store)

	reg.ResolveOutcome(context.Background(), newTestConn().ID, "alice", "bob")
	assert.Empty(t, store.setCalls)
}

func TestPreGameDepartureCancelsWithoutRating(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000})
	reg := newTestRegistry(store)
	a := newTestPlayer("alice", 1000)
	b := newTestPlayer("bob", 1000)
	room := reg.CreateRoom(ModeRanked, a, b)
	drain(a.Conn)
	drain(b.Conn)

	reg.HandleLeave(context.Background(), a.ConnID, room.ID)

	assert.Empty(t, store.setCalls, "pre-game departures never touch ratings")
	bMsgs := drain(b.Conn)
	assert.Equal(t, 1, countType(bMsgs, "opponentDisconnected"))
	assert.Equal(t, 0, countType(bMsgs, "opponentLeftRematch"))
	_, ok := reg.Store.GetRoom(room.ID)
	assert.False(t, ok, "rooms never survive a departure")
}

func TestMidRoundForfeitRanked(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000})
	reg := newTestRegistry(store)
	a := newTestPlayer("alice", 1000)
	b := newTestPlayer("bob", 1000)
	room := startRoom(t, reg, ModeRanked, a, b)

	reg.HandleLeave(context.Background(), a.ConnID, room.ID)

	assert.Equal(t, 1016, store.rating("bob"), "remaining player wins the forfeit")
	assert.Equal(t, 984, store.rating("alice"))

	bMsgs := drain(b.Conn)
	assert.Equal(t, 1, countType(bMsgs, "updateRankScore"))
	assert.Equal(t, 1, countType(bMsgs, "opponentDisconnected"))
	aMsgs := drain(a.Conn)
	assert.Equal(t, 1, countType(aMsgs, "updateRankScore"))

	_, ok := reg.Store.GetRoom(room.ID)
	assert.False(t, ok)
}

func TestMidRoundForfeitCasual(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000})
	reg := newTestRegistry(store)
	a := newTestPlayer("alice", 1000)
	b := newTestPlayer("bob", 1000)
	room := startRoom(t, reg, ModeCasual, a, b)

	reg.HandleLeave(context.Background(), a.ConnID, room.ID)

	assert.Empty(t, store.setCalls, "casual forfeits never touch ratings")
	assert.Equal(t, 1, countType(drain(b.Conn), "opponentDisconnected"))
	_, ok := reg.Store.GetRoom(room.ID)
	assert.False(t, ok)
}

func TestOutcomeRoomTornDownDuringResolve(t *testing.T) {
	// A disconnect can delete the room while the resolution is waiting on
	// storage. The ratings still persist, but nobody is left to notify.
	store := &vanishingRatingStore{
		fakeRatingStore: newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000}),
	}
	reg := newTestRegistry(store)
	a := newTestPlayer("alice", 1000)
	b := newTestPlayer("bob", 1000)
	room := startRoom(t, reg, ModeRanked, a, b)
	store.onRead = func() { reg.Store.DeleteRoom(room.ID) }

	reg.ResolveOutcome(context.Background(), room.ID, "alice", "bob")

	assert.Equal(t, 1, store.writes("alice"))
	assert.Equal(t, 1, store.writes("bob"))
	assert.Equal(t, 1016, store.rating("alice"))
	assert.Equal(t, 984, store.rating("bob"))

	assert.Equal(t, 0, countType(drain(a.Conn), "updateRankScore"), "vacated seats get no rating notice")
	assert.Equal(t, 0, countType(drain(b.Conn), "updateRankScore"))
	assert.Equal(t, 1000, a.RankScore, "seat snapshots of a torn-down room stay untouched")
	assert.Equal(t, 1000, b.RankScore)
}

func TestPostGameLobbyDeparture(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000})
	reg := newTestRegistry(store)
	a := newTestPlayer("alice", 1000)
	b := newTestPlayer("bob", 1000)
	room := startRoom(t, reg, ModeRanked, a, b)

	ctx := context.Background()
	reg.ResolveOutcome(ctx, room.ID, "alice", "bob")
	drain(a.Conn)
	drain(b.Conn)

	reg.HandleLeave(ctx, b.ConnID, room.ID)

	// The round was already resolved: no second scoring pass, and the
	// partner learns the lobby was declined rather than a mid-round drop.
	assert.Equal(t, 1, store.writes("alice"))
	assert.Equal(t, 1, store.writes("bob"))
	aMsgs := drain(a.Conn)
	assert.Equal(t, 1, countType(aMsgs, "opponentLeftRematch"))
	assert.Equal(t, 0, countType(aMsgs, "opponentDisconnected"))
	_, ok := reg.Store.GetRoom(room.ID)
	assert.False(t, ok)
}

func TestDisconnectFindsSeatedRoom(t *testing.T) {
	store := newFakeRatingStore(map[string]int{"alice": 1000, "bob": 1000})
	reg := newTestRegistry(store)
	a := newTestPlayer("alice", 1000)
	b := newTestPlayer("bob", 1000)
	room := startRoom(t, reg, ModeRanked, a, b)

	reg.HandleDisconnect(context.Background(), a.ConnID)

	assert.Equal(t, 1016, store.rating("bob"))
	_, ok := reg.Store.GetRoom(room.ID)
	assert.False(t, ok)
	assert.Nil(t, reg.Store.GetRoomByConn(b.ConnID))
}
