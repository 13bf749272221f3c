package session

import (
	"time"

	"arcade/internal/game"
	"arcade/internal/game/paddle"
	"arcade/internal/game/reflex"
)

// Input is a gameplay action routed into a room. Each game kind understands
// its own variants and silently ignores the rest, which is how out-of-state
// client races degrade.
type Input interface{ isInput() }

// MoveInput latches a paddle movement flag.
type MoveInput struct {
	Side    int
	Up      bool
	Pressed bool
}

// KeyInput is one reflex keypress. Side -1 means "infer from the alphabet",
// used by local mode where both players share a keyboard.
type KeyInput struct {
	Side int
	Key  string
}

func (MoveInput) isInput() {}
func (KeyInput) isInput()  {}

// Event is what an engine reports back to its room.
type Event interface{ isEvent() }

// ScoredEvent: a point was won (paddle goal).
type ScoredEvent struct{ Side int }

// HitEvent: a correct reflex keypress, broadcast as correctHit.
type HitEvent struct{ Side int }

// FinishedEvent: the match is decided. Winner is a side index, or -1 for a
// draw.
type FinishedEvent struct{ Winner int }

func (ScoredEvent) isEvent()   {}
func (HitEvent) isEvent()      {}
func (FinishedEvent) isEvent() {}

// Engine is the tagged-variant boundary between a room and its simulation.
// One implementation per game kind; rooms drive either through the same
// tick/apply surface.
type Engine interface {
	Reset()
	Start()
	Running() bool
	Tick() []Event
	Apply(in Input) []Event
	TickInterval() time.Duration
	Snapshot() any
	Scores() [2]int
}

func newEngine(kind game.Kind, seed uint64) Engine {
	switch kind {
	case game.KindReflex:
		return &reflexEngine{e: reflex.New(seed)}
	default:
		return &paddleEngine{e: paddle.New(seed)}
	}
}

// --- paddle adapter ---

type paddleEngine struct {
	e *paddle.Engine
}

func (p *paddleEngine) Reset() { p.e.Reset() }

// Start is a no-op: a paddle match runs whenever its room ticks it.
func (p *paddleEngine) Start() {}

func (p *paddleEngine) Running() bool { return !p.e.Finished() }

func (p *paddleEngine) Tick() []Event {
	return translatePaddle(p.e.Step())
}

func (p *paddleEngine) Apply(in Input) []Event {
	if mv, ok := in.(MoveInput); ok {
		p.e.SetMoving(mv.Side, mv.Up, mv.Pressed)
	}
	return nil
}

func (p *paddleEngine) TickInterval() time.Duration {
	return time.Second / paddle.TickRate
}

func (p *paddleEngine) Snapshot() any  { return p.e.Snapshot() }
func (p *paddleEngine) Scores() [2]int { return p.e.Scores() }

func translatePaddle(events []paddle.Event) []Event {
	var out []Event
	for _, ev := range events {
		switch e := ev.(type) {
		case paddle.Scored:
			out = append(out, ScoredEvent{Side: e.Side})
		case paddle.Finished:
			out = append(out, FinishedEvent{Winner: e.Winner})
		}
	}
	return out
}

// --- reflex adapter ---

type reflexEngine struct {
	e *reflex.Engine
}

func (r *reflexEngine) Reset()        { r.e.Reset() }
func (r *reflexEngine) Start()        { r.e.Start() }
func (r *reflexEngine) Running() bool { return r.e.Running() }

func (r *reflexEngine) Tick() []Event {
	return translateReflex(r.e.Tick())
}

func (r *reflexEngine) Apply(in Input) []Event {
	if key, ok := in.(KeyInput); ok {
		return translateReflex(r.e.Keypress(key.Side, key.Key))
	}
	return nil
}

func (r *reflexEngine) TickInterval() time.Duration {
	return time.Second / reflex.TickRate
}

func (r *reflexEngine) Snapshot() any  { return r.e.Snapshot() }
func (r *reflexEngine) Scores() [2]int { return r.e.Scores() }

func translateReflex(events []reflex.Event) []Event {
	var out []Event
	for _, ev := range events {
		switch e := ev.(type) {
		case reflex.Hit:
			out = append(out, HitEvent{Side: e.Side})
		case reflex.Finished:
			out = append(out, FinishedEvent{Winner: e.Winner})
		}
	}
	return out
}
