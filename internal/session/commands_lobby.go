package session

import (
	"encoding/json"

	"arcade/internal/apperr"
	"arcade/internal/game"
	"arcade/internal/lobby"
	"arcade/internal/message"
)

// Lobby-state command router, one entry per client command that is legal
// while the peer is not seated in a room.

func (h *Handler) newLobbyRouter() map[string]commandFunc {
	return map[string]commandFunc{
		message.TypeCreateRoom:       h.cmdCreateRoom,
		message.TypeJoinRoom:         h.cmdJoinRoom,
		message.TypeJoinOpenRoom:     h.cmdJoinOpenRoom,
		message.TypeSendInvitation:   h.cmdSendInvitation,
		message.TypeRespondToInvite:  h.cmdRespondToInvitation,
		message.TypeCancelInvitation: h.cmdCancelInvitation,
		message.TypeCancelPairing:    h.cmdCancelPairing,
		message.TypeStartPairedGame:  h.cmdStartPairedGame,
	}
}

func decode(raw []byte, v any) *apperr.Error {
	if err := json.Unmarshal(raw, v); err != nil {
		return apperr.Validationf(apperr.CodeInvalidRequest, "malformed payload: %v", err)
	}
	return nil
}

func (h *Handler) cmdCreateRoom(peer *lobby.Peer, raw []byte) (any, *apperr.Error) {
	var req message.CreateRoomRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	kind, ok := game.ParseKind(req.Kind)
	if !ok {
		return nil, apperr.Validationf(apperr.CodeInvalidRequest, "unknown game kind %q", req.Kind)
	}
	mode, ok := game.ParseMode(req.Mode)
	if !ok {
		return nil, apperr.Validationf(apperr.CodeInvalidRequest, "unknown mode %q", req.Mode)
	}
	format, ok := game.ParseFormat(req.Format)
	if !ok {
		return nil, apperr.Validationf(apperr.CodeInvalidRequest, "unknown format %q", req.Format)
	}

	room := h.registry.Create(kind, mode, format, h.roomDeps())

	if mode == game.ModeLocal {
		if err := room.JoinLocal(peer.ID, peer.Conn, req.Names); err != nil {
			h.registry.Remove(room.ID)
			room.Shutdown()
			return nil, err
		}
		peer.RoomID = room.ID
		h.roster.Broadcast()
		return message.RoomJoinedData{RoomID: room.ID}, nil
	}

	name := req.Name
	if name == "" {
		name = peer.Name
	}
	side, err := room.Join(peer.ID, name, "", peer.Conn)
	if err != nil {
		h.registry.Remove(room.ID)
		room.Shutdown()
		return nil, err
	}
	peer.Name = name
	peer.RoomID = room.ID
	h.roster.Broadcast()
	return message.RoomJoinedData{RoomID: room.ID, Side: side}, nil
}

func (h *Handler) cmdJoinRoom(peer *lobby.Peer, raw []byte) (any, *apperr.Error) {
	var req message.JoinRoomRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	room, ok := h.registry.Get(req.RoomID)
	if !ok {
		return nil, apperr.NotFoundf(apperr.CodeRoomNotFound, "room %s not found", req.RoomID)
	}
	return h.joinRemote(peer, room, req.Name, req.Side)
}

func (h *Handler) cmdJoinOpenRoom(peer *lobby.Peer, raw []byte) (any, *apperr.Error) {
	var req message.JoinOpenRoomRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	kind, ok := game.ParseKind(req.Kind)
	if !ok {
		return nil, apperr.Validationf(apperr.CodeInvalidRequest, "unknown game kind %q", req.Kind)
	}
	format, ok := game.ParseFormat(req.Format)
	if !ok {
		return nil, apperr.Validationf(apperr.CodeInvalidRequest, "unknown format %q", req.Format)
	}
	room, ok := h.registry.FirstJoinable(kind, format)
	if !ok {
		return nil, apperr.NotFoundf(apperr.CodeRoomNotFound, "no open %s %s room", kind, format)
	}
	return h.joinRemote(peer, room, req.Name, "")
}

func (h *Handler) joinRemote(peer *lobby.Peer, room *Room, name, hint string) (any, *apperr.Error) {
	if name == "" {
		name = peer.Name
	}
	side, err := room.Join(peer.ID, name, hint, peer.Conn)
	if err != nil {
		return nil, err
	}
	peer.Name = name
	peer.RoomID = room.ID
	h.roster.Broadcast()
	return message.RoomJoinedData{RoomID: room.ID, Side: side}, nil
}

func (h *Handler) cmdSendInvitation(peer *lobby.Peer, raw []byte) (any, *apperr.Error) {
	var req message.SendInvitationRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	kind, ok := game.ParseKind(req.Kind)
	if !ok {
		return nil, apperr.Validationf(apperr.CodeInvalidRequest, "unknown game kind %q", req.Kind)
	}
	return nil, h.neg.Send(peer, req.To, kind)
}

func (h *Handler) cmdRespondToInvitation(peer *lobby.Peer, raw []byte) (any, *apperr.Error) {
	var req message.RespondToInvitationRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return nil, h.neg.Respond(req.ID, peer, req.Accept)
}

func (h *Handler) cmdCancelInvitation(peer *lobby.Peer, raw []byte) (any, *apperr.Error) {
	var req message.CancelInvitationRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	return nil, h.neg.Cancel(req.ID, peer)
}

func (h *Handler) cmdCancelPairing(peer *lobby.Peer, _ []byte) (any, *apperr.Error) {
	return nil, h.neg.CancelPairing(peer)
}

func (h *Handler) cmdStartPairedGame(peer *lobby.Peer, raw []byte) (any, *apperr.Error) {
	var req message.StartPairedGameRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	kind, ok := game.ParseKind(req.Kind)
	if !ok {
		return nil, apperr.Validationf(apperr.CodeInvalidRequest, "unknown game kind %q", req.Kind)
	}
	return nil, h.neg.StartPairedGame(peer, kind)
}
