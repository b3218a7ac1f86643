// internal/duel/room.go
package duel

import (
	"sync"

	"github.com/colorswipe/duel-service/internal/models"
	"github.com/google/uuid"
)

// Game modes. Ranked outcomes move ratings; casual outcomes never do, even
// on forfeit.
const (
	ModeRanked = "ranked"
	ModeCasual = "casual"
)

// RoomState tracks where a room is in its lifecycle. PreGame lasts until the
// first round's readiness handshake completes; after that the room stays
// InProgress for every subsequent rematch round until teardown.
type RoomState string

const (
	StatePreGame    RoomState = "pre_game"
	StateInProgress RoomState = "in_progress"
)

// Player is a seat in a room: the per-connection snapshot of a stored player
// plus live connection state. Owned by the room; written back to storage
// only through the outcome processor.
type Player struct {
	ConnID    uuid.UUID
	Username  string
	RankScore int
	Ready     bool
	Conn      *Conn
}

// Snapshot returns the wire-facing view of the seat.
func (p *Player) Snapshot() models.PlayerSnapshot {
	return models.PlayerSnapshot{Username: p.Username, RankScore: p.RankScore}
}

// Room pairs exactly two players for one match and all its rounds.
//
// Finished tracks whether the CURRENT round's outcome was already resolved;
// it is the idempotence guard for duplicate or racing gameOver reports and
// must be set before any storage round-trip.
type Room struct {
	ID      uuid.UUID
	Mode    string
	State   RoomState
	Players map[uuid.UUID]*Player

	Finished     bool
	RematchReady map[uuid.UUID]bool

	Mu sync.Mutex
}

// NewRoom seats two players in a fresh PreGame room.
func NewRoom(mode string, a, b *Player) *Room {
	id, _ := uuid.NewRandom()
	return &Room{
		ID:    id,
		Mode:  mode,
		State: StatePreGame,
		Players: map[uuid.UUID]*Player{
			a.ConnID: a,
			b.ConnID: b,
		},
		RematchReady: make(map[uuid.UUID]bool),
	}
}

// opponentUnsafe returns the other seated player. Assumes lock is held.
func (r *Room) opponentUnsafe(connID uuid.UUID) *Player {
	for id, p := range r.Players {
		if id != connID {
			return p
		}
	}
	return nil
}

// snapshotsUnsafe returns both seats' wire views. Assumes lock is held.
func (r *Room) snapshotsUnsafe() []models.PlayerSnapshot {
	snaps := make([]models.PlayerSnapshot, 0, len(r.Players))
	for _, p := range r.Players {
		snaps = append(snaps, p.Snapshot())
	}
	return snaps
}

// broadcastUnsafe sends msg to every seated connection. Assumes lock is
// held; Conn.Write never blocks.
func (r *Room) broadcastUnsafe(msg map[string]interface{}) {
	for _, p := range r.Players {
		p.Conn.Write(msg)
	}
}

// HandleReady marks connID ready and relays a playerReady notice to the
// partner. The relay happens unconditionally, even for the second (round
// triggering) signal, so the partner's UI can always show waiting status.
// When both seats are ready the ready flags are cleared, a PreGame room
// transitions to InProgress, and a fresh round is broadcast.
//
// A ready signal from a connection not seated here is a silent no-op.
func (r *Room) HandleReady(connID uuid.UUID) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	p, seated := r.Players[connID]
	if !seated {
		return
	}
	p.Ready = true

	if opp := r.opponentUnsafe(connID); opp != nil {
		opp.Conn.Write(map[string]interface{}{
			"type":  "gameEvent",
			"event": "playerReady",
		})
	}

	for _, pl := range r.Players {
		if !pl.Ready {
			return
		}
	}
	r.startRoundUnsafe()
}

// startRoundUnsafe resets per-round state and broadcasts the next round's
// data to both seats. Assumes lock is held.
func (r *Room) startRoundUnsafe() {
	for _, p := range r.Players {
		p.Ready = false
	}
	r.RematchReady = make(map[uuid.UUID]bool)
	r.Finished = false
	if r.State == StatePreGame {
		r.State = StateInProgress
	}

	var ratings []int
	for _, p := range r.Players {
		ratings = append(ratings, p.RankScore)
	}
	params := GenerateRound(ratings[0], ratings[1])

	r.broadcastUnsafe(map[string]interface{}{
		"type":  "gameEvent",
		"event": "roundStartData",
		"payload": map[string]interface{}{
			"targetColor": params.TargetColor,
			"startColor":  params.StartColor,
			"duration":    params.Duration,
			"players":     r.snapshotsUnsafe(),
		},
	})
}

// Relay forwards an opaque game event verbatim to the sender's partner. The
// room never interprets these payloads (gameplay telemetry such as power-up
// usage).
func (r *Room) Relay(connID uuid.UUID, event string, payload map[string]interface{}) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if _, seated := r.Players[connID]; !seated {
		return
	}
	opp := r.opponentUnsafe(connID)
	if opp == nil {
		return
	}
	msg := map[string]interface{}{
		"type":  "gameEvent",
		"event": event,
	}
	if payload != nil {
		msg["payload"] = payload
	}
	opp.Conn.Write(msg)
}

// CastRematchVote records a rematch vote for connID. When both seats have
// voted, the votes are cleared and a new round starts without destroying
// the room.
func (r *Room) CastRematchVote(connID uuid.UUID) {
	r.Mu.Lock()
	defer r.Mu.Unlock()

	if _, seated := r.Players[connID]; !seated {
		return
	}
	r.RematchReady[connID] = true

	opp := r.opponentUnsafe(connID)
	if opp != nil && r.RematchReady[opp.ConnID] {
		r.startRoundUnsafe()
	}
}
