// internal/duel/registry.go
package duel

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Registry owns the live room table and drives the room lifecycle: creation
// from pairing, outcome resolution, rematch negotiation, and abandonment.
//
// Events referencing unknown rooms or unseated connections are silent
// no-ops; a racing disconnect can legitimately produce them.
type Registry struct {
	Store   *RoomStore
	Outcome *OutcomeProcessor
	Logger  *logrus.Logger
}

func NewRegistry(outcome *OutcomeProcessor, logger *logrus.Logger) *Registry {
	return &Registry{
		Store:   NewRoomStore(),
		Outcome: outcome,
		Logger:  logger,
	}
}

// CreateRoom seats two paired players, stores the room and announces it to
// both connections. Callers must have already removed both players from any
// queue or invite.
func (reg *Registry) CreateRoom(mode string, a, b *Player) *Room {
	room := NewRoom(mode, a, b)
	reg.Store.AddRoom(room)

	room.Mu.Lock()
	room.broadcastUnsafe(map[string]interface{}{
		"type":    "gameReady",
		"roomId":  room.ID.String(),
		"players": room.snapshotsUnsafe(),
	})
	room.Mu.Unlock()

	reg.Logger.Infof("room %s created (%s): %s vs %s", room.ID, mode, a.Username, b.Username)
	return room
}

// HandleGameEvent routes a gameEvent envelope to the addressed room.
// playerReady drives the readiness protocol; every other event name is
// relayed verbatim to the partner.
func (reg *Registry) HandleGameEvent(connID, roomID uuid.UUID, event string, payload map[string]interface{}) {
	room, ok := reg.Store.GetRoom(roomID)
	if !ok {
		return
	}
	if event == "playerReady" {
		room.HandleReady(connID)
		return
	}
	room.Relay(connID, event, payload)
}

// ResolveOutcome applies a reported game-over. The first valid report for a
// round flips the room's finished flag before any storage round-trip, which
// makes duplicate and racing reports no-ops. Ranked rooms go through the
// outcome processor and both seats are told their new ratings; casual rooms
// are acknowledged with no rating change.
func (reg *Registry) ResolveOutcome(ctx context.Context, roomID uuid.UUID, winnerUsername, loserUsername string) {
	room, ok := reg.Store.GetRoom(roomID)
	if !ok {
		return
	}

	room.Mu.Lock()
	if room.Finished {
		room.Mu.Unlock()
		return
	}
	room.Finished = true
	mode := room.Mode
	room.Mu.Unlock()

	if mode != ModeRanked {
		return
	}

	newWinner, newLoser, err := reg.Outcome.Resolve(ctx, roomID, winnerUsername, loserUsername, false)
	if err != nil {
		return
	}

	// The storage round-trip suspended us; re-validate the room still exists
	// before touching seats.
	room, ok = reg.Store.GetRoom(roomID)
	if !ok {
		return
	}
	room.Mu.Lock()
	for _, p := range room.Players {
		switch p.Username {
		case winnerUsername:
			p.RankScore = newWinner
			p.Conn.Write(map[string]interface{}{"type": "updateRankScore", "newRankScore": newWinner})
		case loserUsername:
			p.RankScore = newLoser
			p.Conn.Write(map[string]interface{}{"type": "updateRankScore", "newRankScore": newLoser})
		}
	}
	room.Mu.Unlock()
}

// HandleRematch records a rematch vote for connID in the addressed room.
func (reg *Registry) HandleRematch(connID, roomID uuid.UUID) {
	room, ok := reg.Store.GetRoom(roomID)
	if !ok {
		return
	}
	room.CastRematchVote(connID)
}

// HandleLeave processes an explicit departure (leaveGame or
// leavePostGameLobby, which share the abandonment policy).
func (reg *Registry) HandleLeave(ctx context.Context, connID, roomID uuid.UUID) {
	room, ok := reg.Store.GetRoom(roomID)
	if !ok {
		return
	}
	reg.abandon(ctx, room, connID)
}

// HandleDisconnect processes an implicit departure: whichever room the
// connection was seated in is resolved and torn down.
func (reg *Registry) HandleDisconnect(ctx context.Context, connID uuid.UUID) {
	room := reg.Store.GetRoomByConn(connID)
	if room == nil {
		return
	}
	reg.abandon(ctx, room, connID)
}

// abandon applies the departure policy:
//
//  1. PreGame rooms cancel with no rating consequence.
//  2. An unresolved InProgress round scores as a forfeit for the remaining
//     player through the normal outcome path (ranked only).
//  3. A resolved round (post-game lobby) scores nothing; the partner gets a
//     distinct opponentLeftRematch signal instead of opponentDisconnected.
//
// The room never survives a departure.
func (reg *Registry) abandon(ctx context.Context, room *Room, leavingID uuid.UUID) {
	room.Mu.Lock()
	leaver, seated := room.Players[leavingID]
	if !seated {
		room.Mu.Unlock()
		return
	}
	opp := room.opponentUnsafe(leavingID)
	finished := room.Finished
	forfeit := room.State == StateInProgress && !finished
	if forfeit {
		room.Finished = true
	}
	mode := room.Mode
	room.Mu.Unlock()

	if forfeit && opp != nil && mode == ModeRanked {
		newWinner, newLoser, err := reg.Outcome.Resolve(ctx, room.ID, opp.Username, leaver.Username, true)
		if err == nil {
			opp.Conn.Write(map[string]interface{}{"type": "updateRankScore", "newRankScore": newWinner})
			leaver.Conn.Write(map[string]interface{}{"type": "updateRankScore", "newRankScore": newLoser})
		}
	}

	if opp != nil {
		if finished {
			opp.Conn.Write(map[string]interface{}{"type": "opponentLeftRematch"})
		} else {
			opp.Conn.Write(map[string]interface{}{"type": "opponentDisconnected"})
		}
	}

	reg.Store.DeleteRoom(room.ID)
	reg.Logger.Infof("room %s deleted after departure of %s", room.ID, leaver.Username)
}
