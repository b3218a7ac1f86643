// internal/match/invites.go
package match

import (
	"errors"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrInviteNotFound signals a join against an unknown or expired code.
var ErrInviteNotFound = errors.New("invite code not found")

// codeAlphabet deliberately omits characters that read ambiguously on a
// phone screen (O vs 0).
const codeAlphabet = "ABCDEFGHIJKLMNPQRSTUVWXYZ123456789"

const codeLength = 5

// Invite is one private room waiting for its second player. Only the
// creator side ever waits; a code never holds more than one pending party.
type Invite struct {
	Code    string
	Mode    string
	Creator Entry
}

// InviteRegistry maps short invite codes to waiting creators.
type InviteRegistry struct {
	mu      sync.Mutex
	invites map[string]*Invite
}

func NewInviteRegistry() *InviteRegistry {
	return &InviteRegistry{
		invites: make(map[string]*Invite),
	}
}

// Create allocates a unique code and stores the invite. A creator holds at
// most one outstanding invite: creating a second one cancels the first.
func (r *InviteRegistry) Create(mode string, creator Entry) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelUnsafe(creator.ConnID)

	var code string
	for {
		code = generateCode()
		if _, taken := r.invites[code]; !taken {
			break
		}
	}
	r.invites[code] = &Invite{Code: code, Mode: mode, Creator: creator}
	return code
}

// Join consumes the invite for code, returning the waiting creator and the
// stored mode, or ErrInviteNotFound. The registry is unchanged on a miss.
func (r *InviteRegistry) Join(code string) (*Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invites[strings.ToUpper(code)]
	if !ok {
		return nil, ErrInviteNotFound
	}
	delete(r.invites, inv.Code)
	return inv, nil
}

// Cancel removes any invite this connection created. Disconnection uses the
// same path.
func (r *InviteRegistry) Cancel(connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelUnsafe(connID)
}

func (r *InviteRegistry) cancelUnsafe(connID uuid.UUID) {
	for code, inv := range r.invites {
		if inv.Creator.ConnID == connID {
			delete(r.invites, code)
		}
	}
}

// HasInvite reports whether the connection has an outstanding invite.
func (r *InviteRegistry) HasInvite(connID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invites {
		if inv.Creator.ConnID == connID {
			return true
		}
	}
	return false
}

func generateCode() string {
	var b strings.Builder
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}
	return b.String()
}
