package session

import (
	"log"
	"time"

	"arcade/internal/apperr"
	"arcade/internal/archive"
	"arcade/internal/game"
	"arcade/internal/lobby"
	"arcade/internal/message"
	"arcade/internal/network"
)

// minPlayers is the floor below which a live match cannot continue.
const minPlayers = 2

// Slot binds one side of a room to a remote peer or a local alias. Local
// aliases have no peer id and no connection of their own; the host receives
// everything on their behalf.
type Slot struct {
	Label  string
	Name   string
	PeerID string
	Conn   network.Sender
	Ready  bool
}

// Deps is everything a room needs from the outside world. Exec re-enters
// the hub goroutine; OnSummary and OnClosed always run there.
type Deps struct {
	Exec      func(func())
	Archive   *archive.Recorder
	OnSummary func(lobby.RoomSummary)
	OnClosed  func(roomID string)
}

// Room is one addressable game instance: a single match or a tournament.
// All fields below mailbox are confined to the room goroutine; the public
// methods are safe entry points for the hub goroutine.
type Room struct {
	ID     string
	Kind   game.Kind
	Mode   game.Mode
	Format game.Format

	deps Deps

	mailbox chan any
	quit    chan struct{}

	status     game.Status
	slots      []*Slot
	host       network.Sender
	hostPeerID string
	engine     Engine
	bracket    *bracket

	ticker *time.Ticker
	tickC  <-chan time.Time

	startedAt time.Time
	pausedAt  time.Time
}

var singleLabels = [2]string{"left", "right"}

func NewRoom(id string, kind game.Kind, mode game.Mode, format game.Format, deps Deps) *Room {
	r := &Room{
		ID:      id,
		Kind:    kind,
		Mode:    mode,
		Format:  format,
		deps:    deps,
		mailbox: make(chan any, 256),
		quit:    make(chan struct{}),
		status:  game.StatusWaiting,
	}
	seed := uint64(time.Now().UnixNano())
	if format == game.FormatTournament {
		r.slots = make([]*Slot, 4)
		r.bracket = newBracket(kind, seed)
	} else {
		r.slots = make([]*Slot, 2)
		r.engine = newEngine(kind, seed)
	}
	return r
}

// --- mailbox messages ---

type joinResult struct {
	side string
	err  *apperr.Error
}

type joinMsg struct {
	peerID string
	name   string
	hint   string
	conn   network.Sender
	reply  chan joinResult
}

type joinLocalMsg struct {
	hostPeerID string
	host       network.Sender
	names      []string
	reply      chan *apperr.Error
}

type inputMsg struct {
	peerID string
	in     Input
}

type pauseMsg struct{ peerID string }
type restartMsg struct{ peerID string }
type readyMsg struct{ peerID string }
type disconnectMsg struct{ peerID string }

// --- hub-side API ---

// Run is the room's actor loop. One per room; rooms never share state.
func (r *Room) Run() {
	log.Printf("[Room %s] started (%s %s %s)", r.ID, r.Kind, r.Mode, r.Format)
	defer log.Printf("[Room %s] stopped", r.ID)
	for {
		select {
		case m := <-r.mailbox:
			if closed := r.dispatch(m); closed {
				return
			}
		case <-r.tickC:
			r.step()
		case <-r.quit:
			return
		}
	}
}

// Join seats one remote peer and reports the assigned side.
func (r *Room) Join(peerID, name, hint string, conn network.Sender) (string, *apperr.Error) {
	reply := make(chan joinResult, 1)
	r.mailbox <- joinMsg{peerID: peerID, name: name, hint: hint, conn: conn, reply: reply}
	res := <-reply
	return res.side, res.err
}

// JoinLocal seats a full local roster under one host connection.
func (r *Room) JoinLocal(hostPeerID string, host network.Sender, names []string) *apperr.Error {
	reply := make(chan *apperr.Error, 1)
	r.mailbox <- joinLocalMsg{hostPeerID: hostPeerID, host: host, names: names, reply: reply}
	return <-reply
}

// Post forwards a gameplay input. Never blocks: under pathological load a
// late input is dropped, which is the same as it arriving after the tick.
func (r *Room) Post(peerID string, in Input) {
	select {
	case r.mailbox <- inputMsg{peerID: peerID, in: in}:
	default:
		log.Printf("[Room %s] mailbox full, input dropped", r.ID)
	}
}

func (r *Room) PostPause(peerID string)   { r.mailbox <- pauseMsg{peerID: peerID} }
func (r *Room) PostRestart(peerID string) { r.mailbox <- restartMsg{peerID: peerID} }
func (r *Room) PostReady(peerID string)   { r.mailbox <- readyMsg{peerID: peerID} }

// Disconnect removes a peer's slot. Applied atomically between ticks, so a
// step never sees a half-removed slot.
func (r *Room) Disconnect(peerID string) {
	r.mailbox <- disconnectMsg{peerID: peerID}
}

// Shutdown stops the room loop without the close handshake. Only for
// abandoning a room whose setup failed partway.
func (r *Room) Shutdown() {
	close(r.quit)
}

// --- room-goroutine internals ---

func (r *Room) dispatch(m any) bool {
	switch m := m.(type) {
	case joinMsg:
		m.reply <- r.handleJoin(m.peerID, m.name, m.hint, m.conn)
	case joinLocalMsg:
		m.reply <- r.handleJoinLocal(m.hostPeerID, m.host, m.names)
	case inputMsg:
		r.handleInput(m.peerID, m.in)
	case pauseMsg:
		r.handlePause()
	case restartMsg:
		r.handleRestart()
	case readyMsg:
		r.handleReady(m.peerID)
	case disconnectMsg:
		return r.handleDisconnect(m.peerID)
	}
	return false
}

func (r *Room) handleJoin(peerID, name, hint string, conn network.Sender) joinResult {
	if r.Mode != game.ModeRemote {
		return joinResult{err: apperr.Validationf(apperr.CodeInvalidRequest, "local rooms are joined with a local roster")}
	}
	if r.status != game.StatusWaiting {
		return joinResult{err: apperr.Conflictf(apperr.CodeAlreadyStarted, "room %s has already started", r.ID)}
	}
	if err := lobby.ValidateName(name); err != nil {
		return joinResult{err: err}
	}
	for _, s := range r.slots {
		if s != nil && s.Name == name {
			return joinResult{err: apperr.Validationf(apperr.CodeDuplicateName, "name %q is taken in this room", name)}
		}
	}

	idx := -1
	for i, s := range r.slots {
		if s == nil {
			if hint == "" || hint == r.label(i) {
				idx = i
				break
			}
			if idx == -1 {
				idx = i
			}
		}
	}
	if idx == -1 {
		return joinResult{err: apperr.Conflictf(apperr.CodeRoomFull, "room %s is full", r.ID)}
	}

	slot := &Slot{Label: r.label(idx), Name: name, PeerID: peerID, Conn: conn}
	r.slots[idx] = slot
	message.Push(conn, message.CreatePlayerSide(slot.Label))
	log.Printf("[Room %s] %s joined as %s", r.ID, name, slot.Label)

	if r.occupied() == len(r.slots) {
		r.startMatch()
	} else {
		r.broadcast(message.CreateWaiting(r.snapshot("")))
	}
	r.notifySummary()
	return joinResult{side: slot.Label}
}

func (r *Room) handleJoinLocal(hostPeerID string, host network.Sender, names []string) *apperr.Error {
	if r.Mode != game.ModeLocal {
		return apperr.Validationf(apperr.CodeInvalidRequest, "remote rooms are joined one peer at a time")
	}
	if r.status != game.StatusWaiting {
		return apperr.Conflictf(apperr.CodeAlreadyStarted, "room %s has already started", r.ID)
	}
	if len(names) != len(r.slots) {
		return apperr.Validationf(apperr.CodeInvalidRequest, "a local %s needs exactly %d names", r.Format, len(r.slots))
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if err := lobby.ValidateName(name); err != nil {
			return err
		}
		if seen[name] {
			return apperr.Validationf(apperr.CodeDuplicateName, "duplicate local name %q", name)
		}
		seen[name] = true
	}

	r.host = host
	r.hostPeerID = hostPeerID
	for i, name := range names {
		r.slots[i] = &Slot{Label: r.label(i), Name: name}
	}
	log.Printf("[Room %s] local roster of %d seated", r.ID, len(names))
	r.startMatch()
	r.notifySummary()
	return nil
}

// startMatch fires once the room reaches full occupancy.
func (r *Room) startMatch() {
	r.status = game.StatusStarting
	if r.Format == game.FormatTournament {
		r.startNextLeg()
		return
	}
	if r.Kind == game.KindPaddle {
		// Paddle starts the moment both seats are filled.
		r.begin()
		return
	}
	// Reflex waits for the ready gate.
	r.broadcast(message.CreateWaiting(r.snapshot("")))
}

// begin moves a single-format room into live play.
func (r *Room) begin() {
	r.engine.Start()
	r.status = game.StatusInProgress
	r.startedAt = time.Now()
	r.resumeTick(r.engine.TickInterval())
	r.broadcast(message.CreateGameStart(r.snapshot("")))
	r.notifySummary()
}

func (r *Room) handleReady(peerID string) {
	if r.Format == game.FormatTournament {
		r.legReady(peerID)
		return
	}
	if r.Kind != game.KindReflex || r.status != game.StatusStarting {
		return // includes the restart gate: a finished match ignores ready
	}
	if r.occupied() < minPlayers {
		return
	}
	if r.Mode == game.ModeLocal {
		r.begin()
		return
	}
	idx := r.slotIndexOf(peerID)
	if idx == -1 {
		return
	}
	r.slots[idx].Ready = true
	for _, s := range r.slots {
		if s == nil || !s.Ready {
			return
		}
	}
	r.begin()
}

func (r *Room) handleInput(peerID string, in Input) {
	if r.Format == game.FormatTournament {
		r.legInput(peerID, in)
		return
	}
	if r.status != game.StatusInProgress {
		return
	}
	in, ok := r.bindSide(peerID, in, r.slotIndexOf(peerID))
	if !ok {
		return
	}
	r.emit(r.engine.Apply(in))
	if _, isKey := in.(KeyInput); isKey && r.status == game.StatusInProgress {
		// Reflex feedback should not wait for the next 1Hz tick.
		r.broadcast(message.CreateStateUpdate(r.snapshot("")))
	}
}

// bindSide pins an input to the seat it is allowed to act for. Remote peers
// can only ever drive their own slot; local hosts say which side they mean,
// and local reflex keys carry their side in the alphabet.
func (r *Room) bindSide(peerID string, in Input, slotIdx int) (Input, bool) {
	if r.Mode == game.ModeLocal {
		if key, ok := in.(KeyInput); ok {
			key.Side = -1
			return key, true
		}
		return in, true
	}
	if slotIdx == -1 {
		return in, false
	}
	side := r.sideOfSlot(slotIdx)
	if side == -1 {
		return in, false
	}
	switch v := in.(type) {
	case MoveInput:
		v.Side = side
		return v, true
	case KeyInput:
		v.Side = side
		return v, true
	}
	return in, false
}

// sideOfSlot maps a slot index to an engine side. Identity for single
// format; tournaments remap per leg.
func (r *Room) sideOfSlot(idx int) int {
	if r.Format == game.FormatTournament {
		return r.bracket.sideOfSlot(idx)
	}
	return idx
}

func (r *Room) handlePause() {
	if r.Kind != game.KindPaddle || r.Format == game.FormatTournament {
		return
	}
	switch r.status {
	case game.StatusInProgress:
		r.status = game.StatusPaused
		r.pausedAt = time.Now()
		r.suspendTick()
		r.broadcast(message.CreateStateUpdate(r.snapshot("")))
		r.notifySummary()
	case game.StatusPaused:
		// Shift wall-clock deadlines forward by the paused duration so the
		// match duration excludes the pause.
		r.startedAt = r.startedAt.Add(time.Since(r.pausedAt))
		r.status = game.StatusInProgress
		r.resumeTick(r.engine.TickInterval())
		r.broadcast(message.CreateStateUpdate(r.snapshot("")))
		r.notifySummary()
	}
}

func (r *Room) handleRestart() {
	if r.Kind != game.KindPaddle || r.Format != game.FormatSingle {
		return
	}
	if r.status != game.StatusFinished || r.occupied() != len(r.slots) {
		return
	}
	r.engine.Reset()
	log.Printf("[Room %s] restart", r.ID)
	r.begin()
}

func (r *Room) step() {
	if r.Format == game.FormatTournament {
		r.legStep()
		return
	}
	if r.status != game.StatusInProgress {
		return
	}
	r.emit(r.engine.Tick())
	if r.status == game.StatusInProgress {
		r.broadcast(message.CreateStateUpdate(r.snapshot("")))
	}
}

func (r *Room) emit(events []Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case HitEvent:
			r.broadcast(message.CreateCorrectHit(r.labelOfSide(e.Side)))
		case FinishedEvent:
			r.finish(e.Winner)
		}
	}
}

// finish ends a single-format match. winner is an engine side or -1.
func (r *Room) finish(winner int) {
	r.status = game.StatusFinished
	r.suspendTick()
	for _, s := range r.slots {
		if s != nil {
			s.Ready = false
		}
	}

	winnerName := ""
	if winner >= 0 && r.slots[winner] != nil {
		winnerName = r.slots[winner].Name
	}
	log.Printf("[Room %s] finished, winner=%q", r.ID, winnerName)
	r.broadcast(message.CreateGameOver(r.snapshot(winnerName)))
	r.record("", winner, time.Since(r.startedAt))
	r.notifySummary()
}

// record hands a finished match to the archive collaborator.
func (r *Room) record(leg string, winner int, duration time.Duration) {
	scores := r.activeScores()
	rec := archive.MatchRecord{
		RoomID:     r.ID,
		Leg:        leg,
		Kind:       r.Kind,
		Mode:       r.Mode,
		DurationMs: duration.Milliseconds(),
		FinishedAt: time.Now(),
	}
	for side := 0; side < 2; side++ {
		idx := side
		if r.Format == game.FormatTournament {
			idx = r.bracket.slotOfSide(side)
		}
		name := ""
		if idx >= 0 && idx < len(r.slots) && r.slots[idx] != nil {
			name = r.slots[idx].Name
		}
		rec.Participants = append(rec.Participants, archive.Participant{
			Name:  name,
			Side:  singleLabels[side],
			Score: scores[side],
		})
	}
	if winner >= 0 {
		rec.Winner = rec.Participants[winner].Name
	}
	r.deps.Archive.Record(rec)
}

func (r *Room) activeScores() [2]int {
	if r.Format == game.FormatTournament {
		return r.bracket.activeScores()
	}
	return r.engine.Scores()
}

func (r *Room) handleDisconnect(peerID string) bool {
	if r.Mode == game.ModeLocal {
		if peerID == r.hostPeerID {
			// A local room has no life beyond its host connection.
			log.Printf("[Room %s] host disconnected, destroying room", r.ID)
			return r.close()
		}
		return false
	}

	idx := r.slotIndexOf(peerID)
	if idx == -1 {
		return false
	}
	if r.Format == game.FormatTournament {
		return r.tournamentDisconnect(idx)
	}

	name := r.slots[idx].Name
	r.slots[idx] = nil
	log.Printf("[Room %s] %s disconnected", r.ID, name)

	if r.occupied() == 0 {
		return r.close()
	}
	switch r.status {
	case game.StatusStarting, game.StatusInProgress, game.StatusPaused:
		r.status = game.StatusWaiting
		r.suspendTick()
		for _, s := range r.slots {
			if s != nil {
				s.Ready = false
			}
		}
	}
	r.broadcast(message.CreateWaiting(r.snapshotWithReason("", name+" disconnected")))
	r.notifySummary()
	return false
}

// close tears the room down and tells the registry. Returns true so the
// dispatch loop exits.
func (r *Room) close() bool {
	r.suspendTick()
	id := r.ID
	r.deps.Exec(func() { r.deps.OnClosed(id) })
	return true
}

// --- small helpers, all room-goroutine only ---

func (r *Room) label(i int) string {
	if r.Format == game.FormatTournament {
		return tournamentLabels[i]
	}
	return singleLabels[i]
}

// labelOfSide maps an engine side back to a broadcastable label.
func (r *Room) labelOfSide(side int) string {
	if side < 0 || side > 1 {
		return ""
	}
	return singleLabels[side]
}

func (r *Room) occupied() int {
	n := 0
	for _, s := range r.slots {
		if s != nil {
			n++
		}
	}
	return n
}

func (r *Room) slotIndexOf(peerID string) int {
	if peerID == "" {
		return -1
	}
	for i, s := range r.slots {
		if s != nil && s.PeerID == peerID {
			return i
		}
	}
	return -1
}

func (r *Room) resumeTick(interval time.Duration) {
	if r.ticker != nil {
		r.ticker.Stop()
	}
	r.ticker = time.NewTicker(interval)
	r.tickC = r.ticker.C
}

func (r *Room) suspendTick() {
	if r.ticker != nil {
		r.ticker.Stop()
		r.ticker = nil
	}
	r.tickC = nil
}

// broadcast fans a message out to every connection in the room. Local mode
// has exactly one, the host.
func (r *Room) broadcast(msg network.Message) {
	if r.Mode == game.ModeLocal {
		message.Push(r.host, msg)
		return
	}
	for _, s := range r.slots {
		if s != nil {
			message.Push(s.Conn, msg)
		}
	}
}

// SlotView is the per-seat part of a snapshot.
type SlotView struct {
	Side     string `json:"side"`
	Name     string `json:"name,omitempty"`
	Occupied bool   `json:"occupied"`
	Ready    bool   `json:"ready,omitempty"`
}

// RoomSnapshot is the payload behind stateUpdate, waiting, gameStart and
// gameOver.
type RoomSnapshot struct {
	RoomID  string      `json:"roomId"`
	Kind    game.Kind   `json:"kind"`
	Mode    game.Mode   `json:"mode"`
	Format  game.Format `json:"format"`
	Status  game.Status `json:"status"`
	Players []SlotView  `json:"players"`
	Round   int         `json:"round,omitempty"`
	Leg     string      `json:"leg,omitempty"`
	State   any         `json:"state,omitempty"`
	Winner  string      `json:"winner,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

func (r *Room) snapshot(winner string) RoomSnapshot {
	return r.snapshotWithReason(winner, "")
}

func (r *Room) snapshotWithReason(winner, reason string) RoomSnapshot {
	snap := RoomSnapshot{
		RoomID: r.ID,
		Kind:   r.Kind,
		Mode:   r.Mode,
		Format: r.Format,
		Status: r.status,
		Winner: winner,
		Reason: reason,
	}
	for i, s := range r.slots {
		view := SlotView{Side: r.label(i)}
		if s != nil {
			view.Name = s.Name
			view.Occupied = true
			view.Ready = s.Ready
		}
		snap.Players = append(snap.Players, view)
	}
	if r.Format == game.FormatTournament {
		snap.Round = r.bracket.round
		if leg := r.bracket.active(); leg != nil {
			snap.Leg = leg.name
			snap.State = leg.engine.Snapshot()
		}
	} else if r.engine != nil {
		snap.State = r.engine.Snapshot()
	}
	return snap
}

func (r *Room) notifySummary() {
	s := lobby.RoomSummary{
		ID:       r.ID,
		Kind:     r.Kind,
		Mode:     r.Mode,
		Format:   r.Format,
		Status:   r.status,
		Seats:    len(r.slots),
		Occupied: r.occupied(),
	}
	s.Joinable = r.Mode == game.ModeRemote && r.status == game.StatusWaiting && s.Occupied < s.Seats
	r.deps.Exec(func() { r.deps.OnSummary(s) })
}
