// internal/handlers/duel_server.go
package handlers

import (
	"context"

	"github.com/colorswipe/duel-service/internal/duel"
	"github.com/colorswipe/duel-service/internal/match"
	"github.com/colorswipe/duel-service/internal/models"
	"github.com/sirupsen/logrus"
)

var validGameModes = map[string]bool{
	duel.ModeRanked: true,
	duel.ModeCasual: true,
}

// DuelServer wires the matchmaking queue, private invite registry and room
// registry together and exposes one method per inbound event. All shared
// state lives in the injected components, so tests can instantiate isolated
// servers.
type DuelServer struct {
	Logger  *logrus.Logger
	Queue   *match.Queue
	Invites *match.InviteRegistry
	Rooms   *duel.Registry
}

// NewDuelServer builds a server around the given rating storage collaborator.
func NewDuelServer(logger *logrus.Logger, store duel.RatingStore) *DuelServer {
	return &DuelServer{
		Logger:  logger,
		Queue:   match.NewQueue(),
		Invites: match.NewInviteRegistry(),
		Rooms:   duel.NewRegistry(duel.NewOutcomeProcessor(store, logger), logger),
	}
}

func entryFor(conn *duel.Conn, snap models.PlayerSnapshot) match.Entry {
	return match.Entry{ConnID: conn.ID, Snapshot: snap, Conn: conn}
}

func seatFor(e match.Entry) *duel.Player {
	return &duel.Player{
		ConnID:    e.ConnID,
		Username:  e.Snapshot.Username,
		RankScore: e.Snapshot.RankScore,
		Conn:      e.Conn,
	}
}

// HandleFindMatch enqueues the player and immediately attempts pairing.
// Pairing runs once per enqueue; a lone player waits until a compatible
// partner arrives or they cancel.
func (s *DuelServer) HandleFindMatch(conn *duel.Conn, mode string, snap models.PlayerSnapshot) {
	if !validGameModes[mode] {
		conn.WriteError("unknown game mode: " + mode)
		return
	}
	conn.Username = snap.Username

	s.Queue.Enqueue(mode, entryFor(conn, snap))
	s.Logger.Infof("%s searching for a %s match", snap.Username, mode)

	a, b, ok := s.Queue.TryPair(mode)
	if !ok {
		return
	}
	s.Rooms.CreateRoom(mode, seatFor(a), seatFor(b))
}

// HandleCancelFindMatch removes the connection from every mode's queue.
func (s *DuelServer) HandleCancelFindMatch(conn *duel.Conn) {
	s.Queue.Cancel(conn.ID)
}

// HandleCreatePrivateRoom stores an invite and tells the creator its code.
func (s *DuelServer) HandleCreatePrivateRoom(conn *duel.Conn, mode string, snap models.PlayerSnapshot) {
	if !validGameModes[mode] {
		conn.WriteError("unknown game mode: " + mode)
		return
	}
	conn.Username = snap.Username

	code := s.Invites.Create(mode, entryFor(conn, snap))
	s.Logger.Infof("private room %s created by %s", code, snap.Username)
	conn.Write(map[string]interface{}{
		"type": "privateRoomCreated",
		"code": code,
	})
}

// HandleJoinPrivateRoom pairs the joiner with a waiting creator, or reports
// joinRoomError on an unknown code.
func (s *DuelServer) HandleJoinPrivateRoom(conn *duel.Conn, code string, snap models.PlayerSnapshot) {
	inv, err := s.Invites.Join(code)
	if err != nil {
		conn.Write(map[string]interface{}{
			"type":    "joinRoomError",
			"message": "Room not found or expired.",
		})
		return
	}
	conn.Username = snap.Username

	s.Logger.Infof("%s joins private room %s", snap.Username, code)
	s.Rooms.CreateRoom(inv.Mode, seatFor(inv.Creator), seatFor(entryFor(conn, snap)))
}

// HandleCancelPrivateRoom removes any invite this connection created.
func (s *DuelServer) HandleCancelPrivateRoom(conn *duel.Conn) {
	s.Invites.Cancel(conn.ID)
}

// HandleDisconnect performs the full cleanup for a closed connection:
// eviction from every queue, cancellation of any invite, and abandonment of
// whichever room the connection was seated in.
func (s *DuelServer) HandleDisconnect(ctx context.Context, conn *duel.Conn) {
	s.Queue.Cancel(conn.ID)
	s.Invites.Cancel(conn.ID)
	s.Rooms.HandleDisconnect(ctx, conn.ID)
}
