package message

// Messages flowing server -> client. Every constructor returns a ready
// network.Message envelope; payload structs live next to the constructor that
// uses them so the wire shape is easy to audit.

import (
	"encoding/json"

	"arcade/internal/apperr"
	"arcade/internal/network"
)

// Envelope types emitted by the server.
const (
	TypeAck               = "ack"
	TypeLobbyUpdate       = "lobby_update"
	TypePlayerSide        = "playerSide"
	TypeStateUpdate       = "stateUpdate"
	TypeWaiting           = "waiting"
	TypeGameStart         = "gameStart"
	TypeGameOver          = "gameOver"
	TypeCorrectHit        = "correctHit"
	TypeInvitationSent    = "invitation_sent"
	TypeInvitationRecv    = "invitation_received"
	TypeInvitationDecline = "invitation_declined"
	TypeInvitationCancel  = "invitation_cancelled"
	TypeInvitationExpired = "invitation_expired"
	TypePlayersPaired     = "players_paired"
	TypePairingExpired    = "pairing_expired"
	TypePairingCancelled  = "pairing_cancelled"
	TypeGameSetupComplete = "game_setup_complete"
)

// Envelope types accepted from clients.
const (
	TypeCreateRoom       = "create_room"
	TypeJoinRoom         = "join_room"
	TypeJoinOpenRoom     = "join_open_room"
	TypeMove             = "move"
	TypePause            = "pause"
	TypeRestart          = "restart"
	TypeSetReady         = "set_ready"
	TypeKeypress         = "keypress"
	TypeSendInvitation   = "send_invitation"
	TypeRespondToInvite  = "respond_to_invitation"
	TypeCancelInvitation = "cancel_invitation"
	TypeCancelPairing    = "cancel_pairing"
	TypeStartPairedGame  = "start_paired_game"
)

func envelope(msgType string, payload any) network.Message {
	raw, _ := json.Marshal(payload)
	return network.Message{Type: msgType, Payload: raw}
}

// AckPayload acknowledges a client request. A nil error marshals to an ack
// with Error omitted, which clients read as success.
type AckPayload struct {
	Request string    `json:"request"`
	Data    any       `json:"data,omitempty"`
	Error   *AckError `json:"error,omitempty"`
}

type AckError struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func CreateAck(request string, err *apperr.Error) network.Message {
	return CreateAckData(request, nil, err)
}

// CreateAckData is an ack that carries a result, such as the room id and
// side assigned by create_room.
func CreateAckData(request string, data any, err *apperr.Error) network.Message {
	p := AckPayload{Request: request, Data: data}
	if err != nil {
		p.Error = &AckError{Kind: string(err.Kind), Code: err.Code, Message: err.Message}
	}
	return envelope(TypeAck, p)
}

// RoomJoinedData rides the create_room / join_room ack.
type RoomJoinedData struct {
	RoomID string `json:"roomId"`
	Side   string `json:"side,omitempty"`
}

func CreateLobbyUpdate(snapshot any) network.Message {
	return envelope(TypeLobbyUpdate, snapshot)
}

type SidePayload struct {
	Side string `json:"side"`
}

func CreatePlayerSide(side string) network.Message {
	return envelope(TypePlayerSide, SidePayload{Side: side})
}

func CreateStateUpdate(snapshot any) network.Message {
	return envelope(TypeStateUpdate, snapshot)
}

func CreateWaiting(snapshot any) network.Message {
	return envelope(TypeWaiting, snapshot)
}

func CreateGameStart(snapshot any) network.Message {
	return envelope(TypeGameStart, snapshot)
}

func CreateGameOver(snapshot any) network.Message {
	return envelope(TypeGameOver, snapshot)
}

func CreateCorrectHit(side string) network.Message {
	return envelope(TypeCorrectHit, SidePayload{Side: side})
}

// --- Negotiation notices ---

type InvitationSentPayload struct {
	ID   string `json:"id"`
	To   string `json:"to"`
	Kind string `json:"kind"`
}

func CreateInvitationSent(id, to, kind string) network.Message {
	return envelope(TypeInvitationSent, InvitationSentPayload{ID: id, To: to, Kind: kind})
}

type InvitationReceivedPayload struct {
	ID       string `json:"id"`
	From     string `json:"from"`
	FromName string `json:"fromName"`
	Kind     string `json:"kind"`
}

func CreateInvitationReceived(id, from, fromName, kind string) network.Message {
	return envelope(TypeInvitationRecv, InvitationReceivedPayload{ID: id, From: from, FromName: fromName, Kind: kind})
}

type InvitationNoticePayload struct {
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}

func CreateInvitationDeclined(id string) network.Message {
	return envelope(TypeInvitationDecline, InvitationNoticePayload{ID: id})
}

func CreateInvitationCancelled(id, reason string) network.Message {
	return envelope(TypeInvitationCancel, InvitationNoticePayload{ID: id, Reason: reason})
}

func CreateInvitationExpired(id string) network.Message {
	return envelope(TypeInvitationExpired, InvitationNoticePayload{ID: id})
}

type PlayersPairedPayload struct {
	PairID      string `json:"pairId"`
	Partner     string `json:"partner"`
	PartnerName string `json:"partnerName"`
	Role        string `json:"role"`
	Kind        string `json:"kind,omitempty"`
}

func CreatePlayersPaired(pairID, partner, partnerName, role, kind string) network.Message {
	return envelope(TypePlayersPaired, PlayersPairedPayload{
		PairID:      pairID,
		Partner:     partner,
		PartnerName: partnerName,
		Role:        role,
		Kind:        kind,
	})
}

type PairingNoticePayload struct {
	PairID string `json:"pairId"`
	By     string `json:"by,omitempty"`
}

func CreatePairingExpired(pairID string) network.Message {
	return envelope(TypePairingExpired, PairingNoticePayload{PairID: pairID})
}

func CreatePairingCancelled(pairID, by string) network.Message {
	return envelope(TypePairingCancelled, PairingNoticePayload{PairID: pairID, By: by})
}

type GameSetupCompletePayload struct {
	RoomID string `json:"roomId"`
	Side   string `json:"side"`
	Kind   string `json:"kind"`
}

func CreateGameSetupComplete(roomID, side, kind string) network.Message {
	return envelope(TypeGameSetupComplete, GameSetupCompletePayload{RoomID: roomID, Side: side, Kind: kind})
}
