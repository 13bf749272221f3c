package session

import (
	"log"

	"arcade/internal/apperr"
	"arcade/internal/archive"
	"arcade/internal/game"
	"arcade/internal/lobby"
	"arcade/internal/message"
	"arcade/internal/network"

	"github.com/google/uuid"
)

// Handler is the game-side endpoint of the network layer. All state it owns
// lives on the hub goroutine: peers, roster, registry and negotiator are
// never touched from anywhere else. Rooms run on their own goroutines and
// come back in through run.
type Handler struct {
	peers    map[*network.Client]*lobby.Peer
	roster   *lobby.Roster
	registry *Registry
	neg      *lobby.Negotiator
	archive  *archive.Recorder
	resolver lobby.IdentityResolver

	// run schedules a closure onto the hub goroutine. Set by Bind in
	// production, synchronous in tests.
	run func(func())

	lobbyRouter map[string]commandFunc
	roomRouter  map[string]commandFunc
}

// commandFunc handles one decoded client command. Returned data rides the
// ack; a non-nil error turns the ack into a rejection.
type commandFunc func(p *lobby.Peer, raw []byte) (data any, err *apperr.Error)

func NewHandler(arch *archive.Recorder, resolver lobby.IdentityResolver, run func(func())) *Handler {
	h := &Handler{
		peers:    make(map[*network.Client]*lobby.Peer),
		registry: NewRegistry(),
		archive:  arch,
		resolver: resolver,
		run:      run,
	}
	h.roster = lobby.NewRoster(h.registry.Summaries)
	h.neg = lobby.NewNegotiator(h.roster, h, h.exec)
	h.lobbyRouter = h.newLobbyRouter()
	h.roomRouter = h.newRoomRouter()
	return h
}

// Bind points run at the hub once the server exists. Must be called before
// the hub starts accepting clients.
func (h *Handler) Bind(run func(func())) {
	h.run = run
}

func (h *Handler) exec(fn func()) {
	h.run(fn)
}

func (h *Handler) roomDeps() Deps {
	return Deps{
		Exec:      h.exec,
		Archive:   h.archive,
		OnSummary: h.onRoomSummary,
		OnClosed:  h.onRoomClosed,
	}
}

// --- network.EventHandler ---

func (h *Handler) OnConnect(c *network.Client) {
	id := uuid.NewString()
	name := "guest-" + id[:8]
	identity := ""
	if h.resolver != nil {
		if resolved, ok := h.resolver.Resolve(c.Conn().RemoteAddr().String()); ok {
			name = resolved
			identity = resolved
		}
	}
	peer := &lobby.Peer{ID: id, Name: name, Identity: identity, Conn: c}
	h.peers[c] = peer
	h.roster.Join(peer)
	log.Printf("[Handler] %s connected as %s", peer.ID, peer.Name)
}

func (h *Handler) OnDisconnect(c *network.Client) {
	peer, ok := h.peers[c]
	if !ok {
		return
	}
	delete(h.peers, c)
	h.dropPeer(peer)
}

// dropPeer runs the full departure sequence for a peer that is gone.
func (h *Handler) dropPeer(peer *lobby.Peer) {
	h.neg.DropPeer(peer)
	if peer.RoomID != "" {
		if room, ok := h.registry.Get(peer.RoomID); ok {
			room.Disconnect(peer.ID)
		}
		peer.RoomID = ""
	}
	h.roster.Leave(peer.ID)
	log.Printf("[Handler] %s disconnected", peer.ID)
}

func (h *Handler) OnMessage(c *network.Client, msg network.Message) {
	peer, ok := h.peers[c]
	if !ok {
		return
	}
	h.route(peer, msg)
}

// route dispatches one command for a peer. Lobby commands are always acked;
// in-room gameplay commands are acked only on rejection, so the 60Hz input
// stream does not echo.
func (h *Handler) route(peer *lobby.Peer, msg network.Message) {
	if peer.RoomID == "" {
		fn, ok := h.lobbyRouter[msg.Type]
		if !ok {
			message.Push(peer.Conn, message.CreateAck(msg.Type,
				apperr.Validationf(apperr.CodeInvalidRequest, "unknown lobby command %q", msg.Type)))
			return
		}
		data, err := fn(peer, msg.Payload)
		message.Push(peer.Conn, message.CreateAckData(msg.Type, data, err))
		return
	}

	if _, ok := h.registry.Get(peer.RoomID); !ok {
		// Stale binding to a room that already closed. Drop the command and
		// put the peer back in the lobby.
		peer.RoomID = ""
		h.roster.Broadcast()
		return
	}
	fn, ok := h.roomRouter[msg.Type]
	if !ok {
		message.Push(peer.Conn, message.CreateAck(msg.Type,
			apperr.Validationf(apperr.CodeInvalidRequest, "command %q is not valid inside a room", msg.Type)))
		return
	}
	if _, err := fn(peer, msg.Payload); err != nil {
		message.Push(peer.Conn, message.CreateAck(msg.Type, err))
	}
}

// --- room callbacks, already on the hub goroutine ---

func (h *Handler) onRoomSummary(s lobby.RoomSummary) {
	h.registry.Update(s)
	h.roster.Broadcast()
}

func (h *Handler) onRoomClosed(roomID string) {
	h.registry.Remove(roomID)
	for _, peer := range h.peers {
		if peer.RoomID == roomID {
			peer.RoomID = ""
		}
	}
	h.roster.Broadcast()
}

// --- lobby.GameStarter ---

// StartPairedGame creates the remote 1v1 room behind a committed pairing.
// The inviter takes the left seat.
func (h *Handler) StartPairedGame(a, b *lobby.Peer, kind game.Kind) (string, [2]string, *apperr.Error) {
	// A peer holds at most one seat. Seating a paired peer who joined some
	// other room in the meantime would orphan that room's slot: their later
	// disconnect only reaches the newer binding.
	if a.RoomID != "" {
		return "", [2]string{}, apperr.Conflictf(apperr.CodeAlreadyInRoom, "%s is already in a room", a.Name)
	}
	if b.RoomID != "" {
		return "", [2]string{}, apperr.Conflictf(apperr.CodeAlreadyInRoom, "%s is already in a room", b.Name)
	}

	room := h.registry.Create(kind, game.ModeRemote, game.FormatSingle, h.roomDeps())

	sideA, err := room.Join(a.ID, a.Name, singleLabels[0], a.Conn)
	if err == nil {
		var sideB string
		sideB, err = room.Join(b.ID, b.Name, singleLabels[1], b.Conn)
		if err == nil {
			a.RoomID = room.ID
			b.RoomID = room.ID
			h.roster.Broadcast()
			return room.ID, [2]string{sideA, sideB}, nil
		}
	}
	h.registry.Remove(room.ID)
	room.Shutdown()
	return "", [2]string{}, err
}
