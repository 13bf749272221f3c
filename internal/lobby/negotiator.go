package lobby

import (
	"log"
	"time"

	"github.com/google/uuid"

	"arcade/internal/apperr"
	"arcade/internal/game"
	"arcade/internal/message"
)

const (
	// InvitationTTL is how long a proposal stays open before both parties
	// are told it expired.
	InvitationTTL = 120 * time.Second

	// PairingTTL bounds how long an accepted pairing may sit idle before a
	// game is started from it.
	PairingTTL = 10 * time.Minute
)

// Invitation is a directed, time-limited proposal from Sender to Receiver to
// play Kind. It is terminal after accept, decline, cancel or expiry.
type Invitation struct {
	ID       string
	Sender   *Peer
	Receiver *Peer
	Kind     game.Kind

	timer    *time.Timer
	resolved bool
}

// Pairing is the mutual agreement produced by an accepted invitation. Kind
// may stay empty until one side commits via start_paired_game.
type Pairing struct {
	ID    string
	Peers [2]*Peer // inviter first
	Kind  game.Kind

	timer *time.Timer
}

func (p *Pairing) other(peer *Peer) *Peer {
	if p.Peers[0] == peer {
		return p.Peers[1]
	}
	return p.Peers[0]
}

// GameStarter is the room layer's entry point for turning a pairing into a
// live remote session. Sides come back in pairing order (inviter, invitee).
type GameStarter interface {
	StartPairedGame(a, b *Peer, kind game.Kind) (roomID string, sides [2]string, err *apperr.Error)
}

// Negotiator runs the invitation handshake: roster entry -> invitation ->
// pairing -> room. All methods must be called on the hub goroutine; TTL
// timers re-enter through the injected run function.
type Negotiator struct {
	roster  *Roster
	starter GameStarter

	// run schedules a closure onto the hub goroutine (network.Hub.Do in
	// production, synchronous in tests).
	run func(func())

	invitations map[string]*Invitation
	pairings    map[string]*Pairing // both peer ids point at the same Pairing

	invitationTTL time.Duration
	pairingTTL    time.Duration
}

func NewNegotiator(roster *Roster, starter GameStarter, run func(func())) *Negotiator {
	return &Negotiator{
		roster:        roster,
		starter:       starter,
		run:           run,
		invitations:   make(map[string]*Invitation),
		pairings:      make(map[string]*Pairing),
		invitationTTL: InvitationTTL,
		pairingTTL:    PairingTTL,
	}
}

// Send opens an invitation from sender to the peer with receiverID.
func (n *Negotiator) Send(sender *Peer, receiverID string, kind game.Kind) *apperr.Error {
	if receiverID == sender.ID {
		return apperr.Validationf(apperr.CodeSelfInvite, "cannot invite yourself")
	}
	receiver, ok := n.roster.Get(receiverID)
	if !ok {
		return apperr.NotFoundf(apperr.CodePeerOffline, "peer %s is not online", receiverID)
	}
	for _, inv := range n.invitations {
		if !inv.resolved && inv.Sender == sender && inv.Receiver == receiver && inv.Kind == kind {
			return apperr.Conflictf(apperr.CodeDuplicateInvitation, "an identical invitation is already pending")
		}
	}

	inv := &Invitation{
		ID:       uuid.NewString(),
		Sender:   sender,
		Receiver: receiver,
		Kind:     kind,
	}
	inv.timer = time.AfterFunc(n.invitationTTL, func() {
		n.run(func() { n.expireInvitation(inv.ID) })
	})
	n.invitations[inv.ID] = inv

	message.Push(receiver.Conn, message.CreateInvitationReceived(inv.ID, sender.ID, sender.Name, string(kind)))
	message.Push(sender.Conn, message.CreateInvitationSent(inv.ID, receiver.ID, string(kind)))
	log.Printf("[Negotiator] invitation %s: %s -> %s (%s)", inv.ID, sender.Name, receiver.Name, kind)
	return nil
}

// Respond resolves an invitation from the receiver's side.
func (n *Negotiator) Respond(id string, by *Peer, accept bool) *apperr.Error {
	inv, ok := n.invitations[id]
	if !ok || inv.Receiver != by {
		return apperr.NotFoundf(apperr.CodeNotFound, "invitation %s not found", id)
	}
	if inv.resolved {
		return apperr.Conflictf(apperr.CodeAlreadyResolved, "invitation %s is already resolved", id)
	}
	n.resolve(inv)

	if !accept {
		message.Push(inv.Sender.Conn, message.CreateInvitationDeclined(inv.ID))
		log.Printf("[Negotiator] invitation %s declined by %s", inv.ID, by.Name)
		return nil
	}

	n.createPairing(inv)
	return nil
}

// Cancel withdraws a pending invitation. Only the sender may do this.
func (n *Negotiator) Cancel(id string, by *Peer) *apperr.Error {
	inv, ok := n.invitations[id]
	if !ok || inv.resolved {
		return apperr.NotFoundf(apperr.CodeNotFound, "invitation %s not found", id)
	}
	if inv.Sender != by {
		return apperr.Conflictf(apperr.CodeNotOwner, "only the sender may cancel an invitation")
	}
	n.resolve(inv)
	message.Push(inv.Receiver.Conn, message.CreateInvitationCancelled(inv.ID, "cancelled by sender"))
	return nil
}

// StartPairedGame turns the caller's pairing into a live remote room. The
// first caller fixes the game kind; a second caller asking for something
// else is rejected.
func (n *Negotiator) StartPairedGame(peer *Peer, kind game.Kind) *apperr.Error {
	pairing, ok := n.pairings[peer.ID]
	if !ok {
		return apperr.NotFoundf(apperr.CodeNoPairing, "no active pairing")
	}
	if pairing.Kind == "" {
		pairing.Kind = kind
	} else if pairing.Kind != kind {
		return apperr.Validationf(apperr.CodeGameKindMismatch, "pairing is already committed to %s", pairing.Kind)
	}

	a, b := pairing.Peers[0], pairing.Peers[1]
	roomID, sides, err := n.starter.StartPairedGame(a, b, pairing.Kind)
	if err != nil {
		return err
	}

	n.removePairing(pairing)
	message.Push(a.Conn, message.CreateGameSetupComplete(roomID, sides[0], string(pairing.Kind)))
	message.Push(b.Conn, message.CreateGameSetupComplete(roomID, sides[1], string(pairing.Kind)))
	log.Printf("[Negotiator] pairing %s started room %s (%s)", pairing.ID, roomID, pairing.Kind)
	return nil
}

// CancelPairing dissolves the caller's pairing and tells the partner.
func (n *Negotiator) CancelPairing(peer *Peer) *apperr.Error {
	pairing, ok := n.pairings[peer.ID]
	if !ok {
		return apperr.NotFoundf(apperr.CodeNoPairing, "no active pairing")
	}
	n.removePairing(pairing)
	message.Push(pairing.other(peer).Conn, message.CreatePairingCancelled(pairing.ID, peer.ID))
	return nil
}

// DropPeer cleans up after a disconnect: open invitations either way are
// cancelled with notice, and any pairing is dissolved.
func (n *Negotiator) DropPeer(peer *Peer) {
	for _, inv := range n.invitations {
		if inv.resolved {
			continue
		}
		switch peer {
		case inv.Sender:
			n.resolve(inv)
			message.Push(inv.Receiver.Conn, message.CreateInvitationCancelled(inv.ID, "peer disconnected"))
		case inv.Receiver:
			n.resolve(inv)
			message.Push(inv.Sender.Conn, message.CreateInvitationCancelled(inv.ID, "peer disconnected"))
		}
	}
	if pairing, ok := n.pairings[peer.ID]; ok {
		n.removePairing(pairing)
		message.Push(pairing.other(peer).Conn, message.CreatePairingCancelled(pairing.ID, peer.ID))
	}
}

// createPairing seeds a pairing from an accepted invitation and clears out
// everything it supersedes: other live invitations either party holds, and
// any pairing either party already had.
func (n *Negotiator) createPairing(inv *Invitation) {
	for _, other := range n.invitations {
		if other.resolved || other == inv {
			continue
		}
		if other.involves(inv.Sender) || other.involves(inv.Receiver) {
			n.resolve(other)
			notice := message.CreateInvitationCancelled(other.ID, "participant entered another pairing")
			message.Push(other.Sender.Conn, notice)
			message.Push(other.Receiver.Conn, notice)
		}
	}
	for _, peer := range []*Peer{inv.Sender, inv.Receiver} {
		if prior, ok := n.pairings[peer.ID]; ok {
			n.removePairing(prior)
			message.Push(prior.other(peer).Conn, message.CreatePairingCancelled(prior.ID, peer.ID))
		}
	}

	pairing := &Pairing{
		ID:    uuid.NewString(),
		Peers: [2]*Peer{inv.Sender, inv.Receiver},
		Kind:  inv.Kind,
	}
	pairing.timer = time.AfterFunc(n.pairingTTL, func() {
		n.run(func() { n.expirePairing(pairing) })
	})
	n.pairings[inv.Sender.ID] = pairing
	n.pairings[inv.Receiver.ID] = pairing

	message.Push(inv.Sender.Conn, message.CreatePlayersPaired(pairing.ID, inv.Receiver.ID, inv.Receiver.Name, "inviter", string(pairing.Kind)))
	message.Push(inv.Receiver.Conn, message.CreatePlayersPaired(pairing.ID, inv.Sender.ID, inv.Sender.Name, "invitee", string(pairing.Kind)))
	log.Printf("[Negotiator] pairing %s created: %s + %s", pairing.ID, inv.Sender.Name, inv.Receiver.Name)
}

func (inv *Invitation) involves(p *Peer) bool {
	return inv.Sender == p || inv.Receiver == p
}

// resolve marks an invitation terminal. The entry lingers briefly so a late
// respond gets AlreadyResolved instead of NotFound, then the rearmed timer
// removes it.
func (n *Negotiator) resolve(inv *Invitation) {
	inv.resolved = true
	inv.timer.Stop()
	inv.timer = time.AfterFunc(n.invitationTTL, func() {
		n.run(func() { delete(n.invitations, inv.ID) })
	})
}

func (n *Negotiator) expireInvitation(id string) {
	inv, ok := n.invitations[id]
	if !ok || inv.resolved {
		return
	}
	inv.resolved = true
	delete(n.invitations, id)
	notice := message.CreateInvitationExpired(inv.ID)
	message.Push(inv.Sender.Conn, notice)
	message.Push(inv.Receiver.Conn, notice)
	log.Printf("[Negotiator] invitation %s expired", inv.ID)
}

func (n *Negotiator) expirePairing(pairing *Pairing) {
	if n.pairings[pairing.Peers[0].ID] != pairing && n.pairings[pairing.Peers[1].ID] != pairing {
		return // already dissolved
	}
	n.removePairing(pairing)
	notice := message.CreatePairingExpired(pairing.ID)
	message.Push(pairing.Peers[0].Conn, notice)
	message.Push(pairing.Peers[1].Conn, notice)
	log.Printf("[Negotiator] pairing %s expired", pairing.ID)
}

func (n *Negotiator) removePairing(pairing *Pairing) {
	pairing.timer.Stop()
	if n.pairings[pairing.Peers[0].ID] == pairing {
		delete(n.pairings, pairing.Peers[0].ID)
	}
	if n.pairings[pairing.Peers[1].ID] == pairing {
		delete(n.pairings, pairing.Peers[1].ID)
	}
}

// PairingOf reports the caller's live pairing, if any.
func (n *Negotiator) PairingOf(peer *Peer) (*Pairing, bool) {
	p, ok := n.pairings[peer.ID]
	return p, ok
}
