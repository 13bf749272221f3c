package message

// Payloads accepted from clients. Decoding happens at the routing layer;
// field validation happens in the lobby and session packages so the wire
// shape stays dumb.

// CreateRoomRequest opens a room. Remote rooms take the creator's display
// name; local rooms take the full roster under Names.
type CreateRoomRequest struct {
	Kind   string   `json:"kind"`
	Mode   string   `json:"mode"`
	Format string   `json:"format"`
	Name   string   `json:"name,omitempty"`
	Names  []string `json:"names,omitempty"`
}

// JoinRoomRequest joins a specific room. Side is a seat hint, honored only
// when that seat is free.
type JoinRoomRequest struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name,omitempty"`
	Side   string `json:"side,omitempty"`
}

// JoinOpenRoomRequest joins any open remote room of the given kind and
// format.
type JoinOpenRoomRequest struct {
	Kind   string `json:"kind"`
	Format string `json:"format"`
	Name   string `json:"name,omitempty"`
}

// MoveRequest drives a paddle. Side matters only in local mode, where one
// connection speaks for both seats.
type MoveRequest struct {
	Side      string `json:"side,omitempty"`
	Direction string `json:"direction"`
	Pressed   bool   `json:"pressed"`
}

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// KeypressRequest is one reflex key. Side is ignored in remote mode.
type KeypressRequest struct {
	Key  string `json:"key"`
	Side string `json:"side,omitempty"`
}

type SendInvitationRequest struct {
	To   string `json:"to"`
	Kind string `json:"kind"`
}

type RespondToInvitationRequest struct {
	ID     string `json:"id"`
	Accept bool   `json:"accept"`
}

type CancelInvitationRequest struct {
	ID string `json:"id"`
}

type StartPairedGameRequest struct {
	Kind string `json:"kind"`
}
