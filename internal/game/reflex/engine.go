package reflex

import (
	"math/rand/v2"
)

// The reflex game gives each side a required key drawn from its own four-key
// alphabet. Matching the prompt scores a point and redraws it, pressing the
// wrong key from your own alphabet costs one, anything else is ignored. The
// two alphabets are disjoint so local play can share a single keyboard.
const (
	TickRate         = 1 // countdown steps per second
	CountdownSeconds = 30
)

const (
	Left  = 0
	Right = 1
)

var alphabets = [2][]string{
	{"a", "s", "d", "f"},
	{"h", "j", "k", "l"},
}

// Event is a notable outcome of a keypress or a countdown tick.
type Event interface{ isEvent() }

// Hit reports a correct keypress by Side.
type Hit struct{ Side int }

// Missed reports an in-alphabet wrong keypress by Side.
type Missed struct{ Side int }

// Finished reports the countdown reaching zero. Winner is the leading side,
// or Draw when the scores tie.
type Finished struct{ Winner int }

// Draw is the Finished.Winner value for tied scores.
const Draw = -1

func (Hit) isEvent()      {}
func (Missed) isEvent()   {}
func (Finished) isEvent() {}

// Engine holds one match of prompts, scores and countdown. Like the paddle
// engine it is confined to the owning room's goroutine.
type Engine struct {
	rng       *rand.Rand
	prompts   [2]string
	scores    [2]int
	remaining int
	running   bool
}

func New(seed uint64) *Engine {
	e := &Engine{rng: rand.New(rand.NewPCG(seed, 1))}
	e.Reset()
	return e
}

// Reset redraws both prompts and rearms the countdown without starting it.
func (e *Engine) Reset() {
	e.scores = [2]int{}
	e.remaining = CountdownSeconds
	e.running = false
	e.prompts[Left] = e.draw(Left)
	e.prompts[Right] = e.draw(Right)
}

// Start begins the countdown. A no-op while already running.
func (e *Engine) Start() {
	if e.running {
		return
	}
	e.running = true
}

// Running reports whether the countdown is live.
func (e *Engine) Running() bool { return e.running }

// Scores returns the current score pair. Scores have no floor.
func (e *Engine) Scores() [2]int { return e.scores }

// SideOfKey maps a key to the alphabet that owns it, for local mode where
// both players share one input surface. Returns -1 for foreign keys.
func SideOfKey(key string) int {
	for side, alphabet := range alphabets {
		for _, k := range alphabet {
			if k == key {
				return side
			}
		}
	}
	return -1
}

// Keypress applies one key from the given side. Pass side -1 to infer it
// from the alphabet (local mode). Ignored entirely while the countdown is
// not running.
func (e *Engine) Keypress(side int, key string) []Event {
	if !e.running {
		return nil
	}
	owner := SideOfKey(key)
	if owner == -1 {
		return nil
	}
	if side == -1 {
		side = owner
	}
	if owner != side {
		// A key from the opponent's alphabet is not a miss, just noise.
		return nil
	}

	if key == e.prompts[side] {
		e.scores[side]++
		e.prompts[side] = e.draw(side)
		return []Event{Hit{Side: side}}
	}
	e.scores[side]--
	return []Event{Missed{Side: side}}
}

// Tick advances the countdown by one second.
func (e *Engine) Tick() []Event {
	if !e.running {
		return nil
	}
	e.remaining--
	if e.remaining > 0 {
		return nil
	}
	e.running = false

	winner := Draw
	switch {
	case e.scores[Left] > e.scores[Right]:
		winner = Left
	case e.scores[Right] > e.scores[Left]:
		winner = Right
	}
	return []Event{Finished{Winner: winner}}
}

// draw picks the next prompt uniformly from the side's alphabet. Repeats are
// allowed.
func (e *Engine) draw(side int) string {
	a := alphabets[side]
	return a[e.rng.IntN(len(a))]
}

// Snapshot is the JSON shape broadcast on ticks and transitions.
type Snapshot struct {
	LeftPrompt  string `json:"leftPrompt"`
	RightPrompt string `json:"rightPrompt"`
	LeftScore   int    `json:"leftScore"`
	RightScore  int    `json:"rightScore"`
	Remaining   int    `json:"remaining"`
	Running     bool   `json:"running"`
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		LeftPrompt:  e.prompts[Left],
		RightPrompt: e.prompts[Right],
		LeftScore:   e.scores[Left],
		RightScore:  e.scores[Right],
		Remaining:   e.remaining,
		Running:     e.running,
	}
}
