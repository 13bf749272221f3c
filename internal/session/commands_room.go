package session

import (
	"arcade/internal/apperr"
	"arcade/internal/lobby"
	"arcade/internal/message"
)

// In-room command router. These run on the hub goroutine and only post into
// the room mailbox; the room goroutine does the real work.

func (h *Handler) newRoomRouter() map[string]commandFunc {
	return map[string]commandFunc{
		message.TypeMove:     h.cmdMove,
		message.TypeKeypress: h.cmdKeypress,
		message.TypePause:    h.cmdPause,
		message.TypeRestart:  h.cmdRestart,
		message.TypeSetReady: h.cmdSetReady,
	}
}

// room returns the peer's current room. route already checked existence,
// but the commands re-check so they stay safe to call directly.
func (h *Handler) room(peer *lobby.Peer) (*Room, *apperr.Error) {
	room, ok := h.registry.Get(peer.RoomID)
	if !ok {
		return nil, apperr.NotFoundf(apperr.CodeRoomNotFound, "room %s not found", peer.RoomID)
	}
	return room, nil
}

// parseSide maps a wire side label to an engine side, -1 when absent.
func parseSide(label string) int {
	switch label {
	case singleLabels[0]:
		return 0
	case singleLabels[1]:
		return 1
	}
	return -1
}

func (h *Handler) cmdMove(peer *lobby.Peer, raw []byte) (any, *apperr.Error) {
	var req message.MoveRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if req.Direction != message.DirectionUp && req.Direction != message.DirectionDown {
		return nil, apperr.Validationf(apperr.CodeInvalidRequest, "direction must be %q or %q",
			message.DirectionUp, message.DirectionDown)
	}
	room, err := h.room(peer)
	if err != nil {
		return nil, err
	}
	room.Post(peer.ID, MoveInput{
		Side:    parseSide(req.Side),
		Up:      req.Direction == message.DirectionUp,
		Pressed: req.Pressed,
	})
	return nil, nil
}

func (h *Handler) cmdKeypress(peer *lobby.Peer, raw []byte) (any, *apperr.Error) {
	var req message.KeypressRequest
	if err := decode(raw, &req); err != nil {
		return nil, err
	}
	if req.Key == "" {
		return nil, apperr.Validationf(apperr.CodeInvalidRequest, "keypress needs a key")
	}
	room, err := h.room(peer)
	if err != nil {
		return nil, err
	}
	room.Post(peer.ID, KeyInput{Side: parseSide(req.Side), Key: req.Key})
	return nil, nil
}

func (h *Handler) cmdPause(peer *lobby.Peer, _ []byte) (any, *apperr.Error) {
	room, err := h.room(peer)
	if err != nil {
		return nil, err
	}
	room.PostPause(peer.ID)
	return nil, nil
}

func (h *Handler) cmdRestart(peer *lobby.Peer, _ []byte) (any, *apperr.Error) {
	room, err := h.room(peer)
	if err != nil {
		return nil, err
	}
	room.PostRestart(peer.ID)
	return nil, nil
}

func (h *Handler) cmdSetReady(peer *lobby.Peer, _ []byte) (any, *apperr.Error) {
	room, err := h.room(peer)
	if err != nil {
		return nil, err
	}
	room.PostReady(peer.ID)
	return nil, nil
}
