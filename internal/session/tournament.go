package session

import (
	"log"
	"time"

	"arcade/internal/game"
	"arcade/internal/message"

	"github.com/google/uuid"
)

var tournamentLabels = [4]string{"player1", "player2", "player3", "player4"}

// leg is one match inside a bracket. slotA plays engine side 0 (left) and
// slotB side 1 (right), regardless of their room slot numbers.
type leg struct {
	id     string
	name   string
	slotA  int
	slotB  int
	engine Engine
	winner int // room slot index, -1 while undetermined
	ready  [2]bool

	startedAt time.Time
}

func (l *leg) determined() bool { return l.winner != -1 }

func (l *leg) participant(slot int) int {
	switch slot {
	case l.slotA:
		return 0
	case l.slotB:
		return 1
	}
	return -1
}

// bracket is a four player single elimination tree: two semifinals, then a
// final seeded from their winners. Legs run strictly one at a time.
type bracket struct {
	kind game.Kind
	seed uint64

	round int // 1..3, one per leg; the final is round 3
	idx   int // index into legs of the active leg, -1 before play
	legs  [3]*leg
}

func newBracket(kind game.Kind, seed uint64) *bracket {
	b := &bracket{kind: kind, seed: seed, idx: -1}
	b.legs[0] = b.newLeg("semifinal-A", 0, 1)
	b.legs[1] = b.newLeg("semifinal-B", 2, 3)
	return b
}

func (b *bracket) newLeg(name string, slotA, slotB int) *leg {
	b.seed++
	return &leg{
		id:     uuid.NewString(),
		name:   name,
		slotA:  slotA,
		slotB:  slotB,
		engine: newEngine(b.kind, b.seed),
		winner: -1,
	}
}

// next advances to the following leg, seeding the final once both
// semifinals are settled. Returns nil when the bracket is complete.
func (b *bracket) next() *leg {
	b.idx++
	if b.idx == 2 {
		b.legs[2] = b.newLeg("final", b.legs[0].winner, b.legs[1].winner)
	}
	if b.idx >= len(b.legs) {
		return nil
	}
	b.round = b.idx + 1
	return b.legs[b.idx]
}

func (b *bracket) active() *leg {
	if b.idx < 0 || b.idx >= len(b.legs) {
		return nil
	}
	return b.legs[b.idx]
}

// sideOfSlot maps a room slot to its engine side in the active leg, or -1
// for spectators and eliminated players.
func (b *bracket) sideOfSlot(slot int) int {
	l := b.active()
	if l == nil {
		return -1
	}
	return l.participant(slot)
}

// slotOfSide is the inverse mapping for the active leg.
func (b *bracket) slotOfSide(side int) int {
	l := b.active()
	if l == nil {
		return -1
	}
	if side == 0 {
		return l.slotA
	}
	return l.slotB
}

func (b *bracket) activeScores() [2]int {
	if l := b.active(); l != nil {
		return l.engine.Scores()
	}
	return [2]int{}
}

// eliminated reports whether a slot has already lost a determined leg. Only
// eliminated players may leave without ending the tournament.
func (b *bracket) eliminated(slot int) bool {
	for _, l := range b.legs {
		if l == nil || !l.determined() {
			continue
		}
		if l.winner != slot && l.participant(slot) != -1 {
			return true
		}
	}
	return false
}

func (b *bracket) champion() int {
	if b.legs[2] != nil && b.legs[2].determined() {
		return b.legs[2].winner
	}
	return -1
}

// --- room side of the bracket, all on the room goroutine ---

// startNextLeg arms the next match of the bracket, or crowns the champion
// when none remain.
func (r *Room) startNextLeg() {
	l := r.bracket.next()
	if l == nil {
		r.finishTournament(r.bracket.champion())
		return
	}
	r.status = game.StatusStarting
	r.suspendTick()
	log.Printf("[Room %s] %s: %s vs %s", r.ID, l.name,
		r.slots[l.slotA].Name, r.slots[l.slotB].Name)

	// Sides are fresh per leg, so participants are told again.
	if r.Mode == game.ModeRemote {
		message.Push(r.slots[l.slotA].Conn, message.CreatePlayerSide(singleLabels[0]))
		message.Push(r.slots[l.slotB].Conn, message.CreatePlayerSide(singleLabels[1]))
	}

	if r.Kind == game.KindPaddle {
		r.beginLeg(l)
		return
	}
	r.broadcast(message.CreateWaiting(r.snapshot("")))
	r.notifySummary()
}

func (r *Room) beginLeg(l *leg) {
	l.engine.Start()
	l.startedAt = time.Now()
	r.status = game.StatusInProgress
	r.resumeTick(l.engine.TickInterval())
	r.broadcast(message.CreateGameStart(r.snapshot("")))
	r.notifySummary()
}

func (r *Room) legReady(peerID string) {
	l := r.bracket.active()
	if l == nil || r.Kind != game.KindReflex || r.status != game.StatusStarting {
		return
	}
	if r.Mode == game.ModeLocal {
		r.beginLeg(l)
		return
	}
	side := l.participant(r.slotIndexOf(peerID))
	if side == -1 {
		return
	}
	l.ready[side] = true
	if l.ready[0] && l.ready[1] {
		r.beginLeg(l)
	}
}

func (r *Room) legInput(peerID string, in Input) {
	l := r.bracket.active()
	if l == nil || r.status != game.StatusInProgress {
		return
	}
	in, ok := r.bindSide(peerID, in, r.slotIndexOf(peerID))
	if !ok {
		return
	}
	r.legEmit(l, l.engine.Apply(in))
	if _, isKey := in.(KeyInput); isKey && r.status == game.StatusInProgress {
		r.broadcast(message.CreateStateUpdate(r.snapshot("")))
	}
}

func (r *Room) legStep() {
	l := r.bracket.active()
	if l == nil || r.status != game.StatusInProgress {
		return
	}
	r.legEmit(l, l.engine.Tick())
	if r.status == game.StatusInProgress {
		r.broadcast(message.CreateStateUpdate(r.snapshot("")))
	}
}

func (r *Room) legEmit(l *leg, events []Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case HitEvent:
			r.broadcast(message.CreateCorrectHit(r.labelOfSide(e.Side)))
		case FinishedEvent:
			r.finishLeg(l, e.Winner)
		}
	}
}

// finishLeg settles one bracket match. A drawn reflex leg is replayed in
// place, since elimination needs a winner.
func (r *Room) finishLeg(l *leg, winnerSide int) {
	if winnerSide < 0 {
		log.Printf("[Room %s] %s drawn, replaying", r.ID, l.name)
		l.engine.Reset()
		l.engine.Start()
		l.startedAt = time.Now()
		r.broadcast(message.CreateGameStart(r.snapshotWithReason("", "draw, leg replayed")))
		return
	}

	duration := time.Since(l.startedAt)
	r.record(l.name, winnerSide, duration)

	winnerSlot := l.slotA
	if winnerSide == 1 {
		winnerSlot = l.slotB
	}
	l.winner = winnerSlot
	winnerName := r.slots[winnerSlot].Name
	log.Printf("[Room %s] %s won by %s", r.ID, l.name, winnerName)

	r.suspendTick()
	r.broadcast(message.CreateGameOver(r.snapshot(winnerName)))
	r.startNextLeg()
}

func (r *Room) finishTournament(championSlot int) {
	r.status = game.StatusFinished
	r.suspendTick()
	winnerName := ""
	if championSlot >= 0 && r.slots[championSlot] != nil {
		winnerName = r.slots[championSlot].Name
	}
	log.Printf("[Room %s] tournament won by %q", r.ID, winnerName)
	r.broadcast(message.CreateGameOver(r.snapshotWithReason(winnerName, "tournament complete")))
	r.notifySummary()
}

// tournamentDisconnect handles a remote participant leaving. A player who
// is still in contention takes the bracket down with them; eliminated
// players can leave freely.
func (r *Room) tournamentDisconnect(idx int) bool {
	name := r.slots[idx].Name
	stillNeeded := r.status != game.StatusWaiting &&
		r.status != game.StatusFinished &&
		!r.bracket.eliminated(idx)

	r.slots[idx] = nil
	log.Printf("[Room %s] %s disconnected (tournament)", r.ID, name)

	if r.occupied() == 0 {
		return r.close()
	}
	if stillNeeded {
		r.status = game.StatusFinished
		r.suspendTick()
		r.broadcast(message.CreateGameOver(r.snapshotWithReason("", name+" disconnected, tournament terminated")))
		r.notifySummary()
		return false
	}
	r.broadcast(message.CreateWaiting(r.snapshotWithReason("", name+" disconnected")))
	r.notifySummary()
	return false
}
