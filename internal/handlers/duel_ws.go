// internal/handlers/duel_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/colorswipe/duel-service/internal/duel"
	"github.com/colorswipe/duel-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ClientMessage is the closed set of inbound events. Type selects the
// variant; the remaining fields are populated per event and ignored
// otherwise. Malformed messages are rejected at this boundary rather than
// trusted at point of use.
type ClientMessage struct {
	Type string `json:"type"`

	GameMode   string                 `json:"gameMode,omitempty"`
	PlayerData *models.PlayerSnapshot `json:"playerData,omitempty"`
	Code       string                 `json:"code,omitempty"`
	RoomID     string                 `json:"roomId,omitempty"`
	Event      string                 `json:"event,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`

	WinnerUsername string `json:"winnerUsername,omitempty"`
	LoserUsername  string `json:"loserUsername,omitempty"`
}

// DuelWSHandler upgrades the HTTP connection to the duel websocket. Each
// connection gets a fresh conn id, a write pump, and a blocking read loop;
// when the loop exits the connection is cleaned out of every queue, invite
// and room.
func DuelWSHandler(logger *logrus.Logger, srv *DuelServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"duel"},
			OriginPatterns: []string{"*"}, // Adjust for production security.
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "duel" {
			c.Close(BadSubprotocolError, "client must speak the duel subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		conn := &duel.Conn{
			ID:      uuid.New(),
			Cancel:  cancel,
			OutChan: make(chan map[string]interface{}, 16),
		}
		logger.Infof("conn %s connected from %s", conn.ID, r.RemoteAddr)

		go writePump(ctx, c, conn, logger)

		readPump(ctx, c, conn, srv, logger)

		logger.Infof("conn %s read loop exited, cleaning up", conn.ID)
		srv.HandleDisconnect(context.Background(), conn)
		cancel()
	}
}

// readPump reads and dispatches client messages until the connection closes.
func readPump(ctx context.Context, c *websocket.Conn, conn *duel.Conn, srv *DuelServer, logger *logrus.Logger) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("conn %s closed normally", conn.ID)
			} else if strings.Contains(err.Error(), "context canceled") {
				logger.Infof("conn %s context canceled", conn.ID)
			} else {
				logger.Warnf("conn %s read error: %v (CloseStatus: %d)", conn.ID, err, closeStatus)
			}
			return
		}

		if typ != websocket.MessageText {
			logger.Warnf("conn %s sent non-text message type %d, ignoring", conn.ID, typ)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warnf("conn %s sent invalid json: %v", conn.ID, err)
			conn.WriteError("Invalid JSON format")
			continue
		}

		dispatch(ctx, conn, srv, msg, logger)
	}
}

// dispatch routes one inbound event. Events addressed to rooms the
// connection no longer belongs to are silent no-ops inside the registry.
func dispatch(ctx context.Context, conn *duel.Conn, srv *DuelServer, msg ClientMessage, logger *logrus.Logger) {
	switch msg.Type {
	case "findMatch":
		if msg.PlayerData == nil {
			conn.WriteError("findMatch requires playerData")
			return
		}
		srv.HandleFindMatch(conn, msg.GameMode, *msg.PlayerData)

	case "cancelFindMatch":
		srv.HandleCancelFindMatch(conn)

	case "createPrivateRoom":
		if msg.PlayerData == nil {
			conn.WriteError("createPrivateRoom requires playerData")
			return
		}
		srv.HandleCreatePrivateRoom(conn, msg.GameMode, *msg.PlayerData)

	case "joinPrivateRoom":
		if msg.PlayerData == nil || msg.Code == "" {
			conn.WriteError("joinPrivateRoom requires code and playerData")
			return
		}
		srv.HandleJoinPrivateRoom(conn, msg.Code, *msg.PlayerData)

	case "cancelPrivateRoom":
		srv.HandleCancelPrivateRoom(conn)

	case "gameEvent":
		roomID, err := uuid.Parse(msg.RoomID)
		if err != nil {
			return
		}
		srv.Rooms.HandleGameEvent(conn.ID, roomID, msg.Event, msg.Payload)

	case "gameOver":
		roomID, err := uuid.Parse(msg.RoomID)
		if err != nil {
			return
		}
		if msg.WinnerUsername == "" || msg.LoserUsername == "" {
			return
		}
		srv.Rooms.ResolveOutcome(ctx, roomID, msg.WinnerUsername, msg.LoserUsername)

	case "requestRematch":
		roomID, err := uuid.Parse(msg.RoomID)
		if err != nil {
			return
		}
		srv.Rooms.HandleRematch(conn.ID, roomID)

	case "leavePostGameLobby", "leaveGame":
		roomID, err := uuid.Parse(msg.RoomID)
		if err != nil {
			return
		}
		srv.Rooms.HandleLeave(ctx, conn.ID, roomID)

	default:
		logger.Warnf("conn %s sent unknown event type '%s'", conn.ID, msg.Type)
		conn.WriteError("Unknown event type: " + msg.Type)
	}
}

// writePump drains the connection's OutChan onto the websocket and pings
// periodically so dead peers are detected.
func writePump(ctx context.Context, c *websocket.Conn, conn *duel.Conn, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-conn.OutChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				logger.Warnf("conn %s: failed to marshal outgoing msg: %v", conn.ID, err)
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("conn %s: websocket write failed: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("conn %s: ping failed: %v, assuming disconnect", conn.ID, err)
				return
			}
		}
	}
}
