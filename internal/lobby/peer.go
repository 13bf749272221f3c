package lobby

import (
	"arcade/internal/apperr"
	"arcade/internal/network"
)

// MaxNameLength bounds display names; the allowed alphabet is letters,
// digits, spaces, '-' and '_'.
const MaxNameLength = 20

// Peer is one connected participant: a transport handle plus just enough
// identity to be invited and seated. Created on connect, gone on disconnect.
type Peer struct {
	ID   string
	Name string

	// Identity is the persistent identity resolved at connect time, empty
	// for guests. Accounts themselves live outside this core.
	Identity string

	// RoomID is the room currently holding one of this peer's slots, empty
	// while in the lobby.
	RoomID string

	Conn network.Sender
}

// IdentityResolver is the outward collaborator that maps a connecting peer
// to a persistent identity. Absence of a resolver, or a miss, means guest.
type IdentityResolver interface {
	Resolve(remoteAddr string) (name string, ok bool)
}

// ValidateName enforces the display-name rules shared by remote joins and
// local rosters.
func ValidateName(name string) *apperr.Error {
	if name == "" || len(name) > MaxNameLength {
		return apperr.Validationf(apperr.CodeInvalidName, "name must be 1-%d characters", MaxNameLength)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == ' ' || r == '-' || r == '_':
		default:
			return apperr.Validationf(apperr.CodeInvalidName, "name contains an invalid character %q", r)
		}
	}
	return nil
}
