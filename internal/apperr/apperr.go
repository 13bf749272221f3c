package apperr

import "fmt"

// Kind buckets an error by how the client should treat the ack.
type Kind string

const (
	// Validation is a malformed request: bad name, bad payload, mismatched
	// game kind. Always the caller's fault, never the room's.
	Validation Kind = "validation"

	// Conflict is a legal request that lost a race or repeats an existing
	// one: room full, duplicate invitation, not the owner.
	Conflict Kind = "conflict"

	// NotFound is a stale reference: unknown room, invitation or pairing id.
	// Treated as benign; clients routinely act on snapshots that just aged.
	NotFound Kind = "not_found"

	// State is an action that is valid in principle but not for the current
	// status (keypress before start). These are dropped silently.
	State Kind = "state"
)

// Error is the ack-level error surfaced back to clients. Code is a stable
// machine-readable token, the message is for humans.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Validationf(code, format string, args ...any) *Error {
	return New(Validation, code, format, args...)
}

func Conflictf(code, format string, args ...any) *Error {
	return New(Conflict, code, format, args...)
}

func NotFoundf(code, format string, args ...any) *Error {
	return New(NotFound, code, format, args...)
}

// Codes shared between the lobby and the room layer.
const (
	CodeDuplicateInvitation = "DuplicateInvitation"
	CodeSelfInvite          = "SelfInvite"
	CodePeerOffline         = "PeerOffline"
	CodeNotFound            = "NotFound"
	CodeAlreadyResolved     = "AlreadyResolved"
	CodeNotOwner            = "NotOwner"
	CodeNoPairing           = "NoPairing"
	CodeGameKindMismatch    = "GameKindMismatch"
	CodeRoomNotFound        = "RoomNotFound"
	CodeAlreadyInRoom       = "AlreadyInRoom"
	CodeRoomFull            = "RoomFull"
	CodeAlreadyStarted      = "AlreadyStarted"
	CodeInvalidName         = "InvalidName"
	CodeDuplicateName       = "DuplicateName"
	CodeInvalidRequest      = "InvalidRequest"
)
