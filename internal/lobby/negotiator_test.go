package lobby

import (
	"testing"

	"arcade/internal/apperr"
	"arcade/internal/game"
	"arcade/internal/message"
	"arcade/internal/network"
)

type fakeConn struct {
	msgs []network.Message
}

func (f *fakeConn) TrySend(m network.Message) bool {
	f.msgs = append(f.msgs, m)
	return true
}

func (f *fakeConn) count(msgType string) int {
	n := 0
	for _, m := range f.msgs {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

func (f *fakeConn) last() network.Message {
	if len(f.msgs) == 0 {
		return network.Message{}
	}
	return f.msgs[len(f.msgs)-1]
}

type fakeStarter struct {
	calls int
	kind  game.Kind
	err   *apperr.Error
}

func (s *fakeStarter) StartPairedGame(a, b *Peer, kind game.Kind) (string, [2]string, *apperr.Error) {
	s.calls++
	s.kind = kind
	if s.err != nil {
		return "", [2]string{}, s.err
	}
	return "room-1", [2]string{"left", "right"}, nil
}

func newTestPeer(id, name string) (*Peer, *fakeConn) {
	conn := &fakeConn{}
	return &Peer{ID: id, Name: name, Conn: conn}, conn
}

func newTestNegotiator(t *testing.T) (*Negotiator, *Roster, *fakeStarter) {
	t.Helper()
	roster := NewRoster(nil)
	starter := &fakeStarter{}
	// Synchronous run: timer callbacks would apply immediately, but TTLs are
	// long enough that they never fire inside a test.
	n := NewNegotiator(roster, starter, func(fn func()) { fn() })
	return n, roster, starter
}

func sentInvitationID(t *testing.T, conn *fakeConn) string {
	t.Helper()
	for _, m := range conn.msgs {
		if m.Type == message.TypeInvitationSent {
			var p message.InvitationSentPayload
			if err := unmarshal(m.Payload, &p); err != nil {
				t.Fatalf("bad invitation_sent payload: %v", err)
			}
			return p.ID
		}
	}
	t.Fatalf("no invitation_sent seen")
	return ""
}

func TestSendNotifiesBothSides(t *testing.T) {
	n, roster, _ := newTestNegotiator(t)
	alice, aliceConn := newTestPeer("a", "alice")
	bob, bobConn := newTestPeer("b", "bob")
	roster.Join(alice)
	roster.Join(bob)

	if err := n.Send(alice, "b", game.KindPaddle); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if bobConn.count(message.TypeInvitationRecv) != 1 {
		t.Fatalf("receiver did not get invitation_received")
	}
	if aliceConn.count(message.TypeInvitationSent) != 1 {
		t.Fatalf("sender did not get invitation_sent echo")
	}
}

func TestSendRejections(t *testing.T) {
	n, roster, _ := newTestNegotiator(t)
	alice, _ := newTestPeer("a", "alice")
	bob, _ := newTestPeer("b", "bob")
	roster.Join(alice)
	roster.Join(bob)

	if err := n.Send(alice, "a", game.KindPaddle); err == nil || err.Code != apperr.CodeSelfInvite {
		t.Fatalf("expected SelfInvite, got %v", err)
	}
	if err := n.Send(alice, "ghost", game.KindPaddle); err == nil || err.Code != apperr.CodePeerOffline {
		t.Fatalf("expected PeerOffline, got %v", err)
	}
	if err := n.Send(alice, "b", game.KindPaddle); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if err := n.Send(alice, "b", game.KindPaddle); err == nil || err.Code != apperr.CodeDuplicateInvitation {
		t.Fatalf("expected DuplicateInvitation, got %v", err)
	}
	// A different kind toward the same peer is a distinct proposal.
	if err := n.Send(alice, "b", game.KindReflex); err != nil {
		t.Fatalf("different kind should be allowed: %v", err)
	}
}

func TestDeclineNotifiesSenderOnly(t *testing.T) {
	n, roster, _ := newTestNegotiator(t)
	alice, aliceConn := newTestPeer("a", "alice")
	bob, _ := newTestPeer("b", "bob")
	roster.Join(alice)
	roster.Join(bob)

	if err := n.Send(alice, "b", game.KindReflex); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	id := sentInvitationID(t, aliceConn)

	if err := n.Respond(id, bob, false); err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	if aliceConn.count(message.TypeInvitationDecline) != 1 {
		t.Fatalf("sender did not get decline notice")
	}
	if _, ok := n.PairingOf(alice); ok {
		t.Fatalf("decline must not create a pairing")
	}
	if roster.Len() != 2 {
		t.Fatalf("roster must be untouched by a decline")
	}
	// Terminal invitation: responding again resolves to AlreadyResolved.
	if err := n.Respond(id, bob, true); err == nil || err.Code != apperr.CodeAlreadyResolved {
		t.Fatalf("expected AlreadyResolved, got %v", err)
	}
}

func TestAcceptCreatesPairingWithKind(t *testing.T) {
	n, roster, _ := newTestNegotiator(t)
	alice, aliceConn := newTestPeer("a", "alice")
	bob, bobConn := newTestPeer("b", "bob")
	roster.Join(alice)
	roster.Join(bob)

	if err := n.Send(alice, "b", game.KindPaddle); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	id := sentInvitationID(t, aliceConn)
	if err := n.Respond(id, bob, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	pairing, ok := n.PairingOf(alice)
	if !ok {
		t.Fatalf("sender has no pairing after accept")
	}
	if p2, _ := n.PairingOf(bob); p2 != pairing {
		t.Fatalf("both peers must share the same pairing")
	}
	if pairing.Kind != game.KindPaddle {
		t.Fatalf("pairing must be seeded with the invitation kind, got %q", pairing.Kind)
	}
	if aliceConn.count(message.TypePlayersPaired) != 1 || bobConn.count(message.TypePlayersPaired) != 1 {
		t.Fatalf("both sides must be told they are paired")
	}
}

func TestNewPairingInvalidatesPriorOne(t *testing.T) {
	n, roster, _ := newTestNegotiator(t)
	alice, aliceConn := newTestPeer("a", "alice")
	bob, bobConn := newTestPeer("b", "bob")
	carol, carolConn := newTestPeer("c", "carol")
	roster.Join(alice)
	roster.Join(bob)
	roster.Join(carol)

	if err := n.Send(alice, "b", game.KindPaddle); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := n.Respond(sentInvitationID(t, aliceConn), bob, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// Bob accepts a second invitation while still paired with alice.
	if err := n.Send(carol, "b", game.KindReflex); err != nil {
		t.Fatalf("second send failed: %v", err)
	}
	if err := n.Respond(sentInvitationID(t, carolConn), bob, true); err != nil {
		t.Fatalf("second accept failed: %v", err)
	}

	if _, ok := n.PairingOf(alice); ok {
		t.Fatalf("alice's pairing should have been invalidated")
	}
	if aliceConn.count(message.TypePairingCancelled) != 1 {
		t.Fatalf("prior pairing's other member must be notified")
	}
	pairing, ok := n.PairingOf(bob)
	if !ok || pairing.other(bob) != carol {
		t.Fatalf("bob should now be paired with carol")
	}
	_ = bobConn
}

func TestAcceptInvalidatesOtherLiveInvitations(t *testing.T) {
	n, roster, _ := newTestNegotiator(t)
	alice, aliceConn := newTestPeer("a", "alice")
	bob, _ := newTestPeer("b", "bob")
	carol, carolConn := newTestPeer("c", "carol")
	roster.Join(alice)
	roster.Join(bob)
	roster.Join(carol)

	// Carol also has an open invitation toward alice.
	if err := n.Send(carol, "a", game.KindPaddle); err != nil {
		t.Fatalf("carol send failed: %v", err)
	}
	if err := n.Send(alice, "b", game.KindPaddle); err != nil {
		t.Fatalf("alice send failed: %v", err)
	}
	if err := n.Respond(sentInvitationID(t, aliceConn), bob, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if carolConn.count(message.TypeInvitationCancel) != 1 {
		t.Fatalf("carol's dangling invitation should have been cancelled with notice")
	}
}

func TestCancelIsSenderOnly(t *testing.T) {
	n, roster, _ := newTestNegotiator(t)
	alice, aliceConn := newTestPeer("a", "alice")
	bob, bobConn := newTestPeer("b", "bob")
	roster.Join(alice)
	roster.Join(bob)

	if err := n.Send(alice, "b", game.KindPaddle); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	id := sentInvitationID(t, aliceConn)

	if err := n.Cancel(id, bob); err == nil || err.Code != apperr.CodeNotOwner {
		t.Fatalf("expected NotOwner, got %v", err)
	}
	if err := n.Cancel(id, alice); err != nil {
		t.Fatalf("cancel by sender failed: %v", err)
	}
	if bobConn.count(message.TypeInvitationCancel) != 1 {
		t.Fatalf("receiver must learn about the cancellation")
	}
	if err := n.Cancel("nope", alice); err == nil || err.Code != apperr.CodeNotFound {
		t.Fatalf("expected NotFound for unknown id, got %v", err)
	}
}

func TestExpiryNotifiesBothParties(t *testing.T) {
	n, roster, _ := newTestNegotiator(t)
	alice, aliceConn := newTestPeer("a", "alice")
	bob, bobConn := newTestPeer("b", "bob")
	roster.Join(alice)
	roster.Join(bob)

	if err := n.Send(alice, "b", game.KindPaddle); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	id := sentInvitationID(t, aliceConn)

	n.expireInvitation(id)

	if aliceConn.count(message.TypeInvitationExpired) != 1 || bobConn.count(message.TypeInvitationExpired) != 1 {
		t.Fatalf("both parties must be told about expiry")
	}
	if err := n.Respond(id, bob, true); err == nil || err.Code != apperr.CodeNotFound {
		t.Fatalf("expired invitation must be gone, got %v", err)
	}
}

func TestPairingExpiryNotifiesBothPeers(t *testing.T) {
	n, roster, starter := newTestNegotiator(t)
	alice, aliceConn := newTestPeer("a", "alice")
	bob, bobConn := newTestPeer("b", "bob")
	roster.Join(alice)
	roster.Join(bob)

	if err := n.Send(alice, "b", game.KindPaddle); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := n.Respond(sentInvitationID(t, aliceConn), bob, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	pairing, ok := n.PairingOf(alice)
	if !ok {
		t.Fatalf("sender has no pairing after accept")
	}

	n.expirePairing(pairing)

	if aliceConn.count(message.TypePairingExpired) != 1 || bobConn.count(message.TypePairingExpired) != 1 {
		t.Fatalf("both peers must be told their pairing expired")
	}
	if _, ok := n.PairingOf(alice); ok {
		t.Fatalf("expired pairing must be dissolved")
	}
	if err := n.StartPairedGame(bob, game.KindPaddle); err == nil || err.Code != apperr.CodeNoPairing {
		t.Fatalf("starting on an expired pairing must fail NoPairing, got %v", err)
	}
	if starter.calls != 0 {
		t.Fatalf("no room may be created for an expired pairing")
	}

	// A second expiry of the same pairing is a no-op.
	n.expirePairing(pairing)
	if aliceConn.count(message.TypePairingExpired) != 1 {
		t.Fatalf("repeated expiry must not renotify")
	}
}

func TestStartPairedGameKindNegotiation(t *testing.T) {
	n, roster, starter := newTestNegotiator(t)
	alice, aliceConn := newTestPeer("a", "alice")
	bob, bobConn := newTestPeer("b", "bob")
	roster.Join(alice)
	roster.Join(bob)

	if err := n.StartPairedGame(alice, game.KindPaddle); err == nil || err.Code != apperr.CodeNoPairing {
		t.Fatalf("start without a pairing must fail, got %v", err)
	}

	if err := n.Send(alice, "b", game.KindPaddle); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := n.Respond(sentInvitationID(t, aliceConn), bob, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if err := n.StartPairedGame(bob, game.KindReflex); err == nil || err.Code != apperr.CodeGameKindMismatch {
		t.Fatalf("expected GameKindMismatch, got %v", err)
	}
	if err := n.StartPairedGame(bob, game.KindPaddle); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if starter.calls != 1 || starter.kind != game.KindPaddle {
		t.Fatalf("starter not invoked as expected: calls=%d kind=%q", starter.calls, starter.kind)
	}
	if aliceConn.count(message.TypeGameSetupComplete) != 1 || bobConn.count(message.TypeGameSetupComplete) != 1 {
		t.Fatalf("both sides must receive game_setup_complete")
	}
	if _, ok := n.PairingOf(alice); ok {
		t.Fatalf("pairing must be consumed by a started game")
	}
}

func TestCancelPairingNotifiesPartner(t *testing.T) {
	n, roster, _ := newTestNegotiator(t)
	alice, aliceConn := newTestPeer("a", "alice")
	bob, bobConn := newTestPeer("b", "bob")
	roster.Join(alice)
	roster.Join(bob)

	if err := n.Send(alice, "b", game.KindPaddle); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := n.Respond(sentInvitationID(t, aliceConn), bob, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if err := n.CancelPairing(alice); err != nil {
		t.Fatalf("cancel pairing failed: %v", err)
	}
	if bobConn.count(message.TypePairingCancelled) != 1 {
		t.Fatalf("partner must be notified of pairing cancellation")
	}
	if _, ok := n.PairingOf(bob); ok {
		t.Fatalf("pairing must be gone for both peers")
	}
}

func TestDropPeerCleansUpNegotiationState(t *testing.T) {
	n, roster, _ := newTestNegotiator(t)
	alice, aliceConn := newTestPeer("a", "alice")
	bob, bobConn := newTestPeer("b", "bob")
	carol, carolConn := newTestPeer("c", "carol")
	roster.Join(alice)
	roster.Join(bob)
	roster.Join(carol)

	if err := n.Send(alice, "b", game.KindPaddle); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := n.Respond(sentInvitationID(t, aliceConn), bob, true); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if err := n.Send(carol, "a", game.KindReflex); err != nil {
		t.Fatalf("carol send failed: %v", err)
	}

	n.DropPeer(alice)

	if bobConn.count(message.TypePairingCancelled) != 1 {
		t.Fatalf("partner must learn the pairing died with the disconnect")
	}
	if carolConn.count(message.TypeInvitationCancel) != 1 {
		t.Fatalf("open invitations toward the dropped peer must be cancelled")
	}
	if _, ok := n.PairingOf(bob); ok {
		t.Fatalf("pairing must not survive a disconnect")
	}
}
