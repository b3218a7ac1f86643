// internal/duel/conn.go
package duel

import (
	"log"

	"github.com/google/uuid"
)

// Conn is a single client's presence on the duel server. One Conn exists per
// websocket connection; the conn id is the identity used by queues, invites
// and rooms.
type Conn struct {
	ID       uuid.UUID
	Username string
	Cancel   func()
	OutChan  chan map[string]interface{}
}

// Write pushes a message onto the connection's OutChan non-blockingly.
// Logs if the channel is closed or full and the message is dropped.
func (c *Conn) Write(msg map[string]interface{}) {
	if c == nil {
		return
	}
	select {
	case c.OutChan <- msg:
	default:
		msgType, _ := msg["type"].(string)
		log.Printf("Conn Write WARNING: OutChan for conn %s closed or full. Dropped message type '%s'.", c.ID, msgType)
	}
}

// WriteError is a convenience to send an error object.
func (c *Conn) WriteError(msg string) {
	c.Write(map[string]interface{}{
		"type":    "error",
		"message": msg,
	})
}
