package paddle

import (
	"math"
	"math/rand/v2"
)

// Fixed-step simulation of the paddle game. All tuning lives here; one unit
// of distance is one world unit, one step is one tick at TickRate.
const (
	TickRate = 60 // simulation steps per second

	PaddleLimit     = 3.5 // paddles clamp to z in [-3.5, 3.5]
	PaddleStep      = 0.2 // z movement per tick while a flag is held
	WallZ           = 4.0 // lateral walls the ball reflects off
	PaddleBandNear  = 8.5 // contact band around each paddle's line of travel
	PaddleBandFar   = 9.5
	PaddleHalfWidth = 1.5
	GoalX           = 10.0 // crossing this concedes a point
	Spin            = 0.3  // vz gained per unit of off-center contact

	ServeSpeed       = 0.15 // ball speed along x at serve, per tick
	ServeAngleMaxDeg = 30.0 // serve angle drawn uniformly in +/- this
	WinScore         = 5
)

// Sides, also used as indexes into the per-side arrays.
const (
	Left  = 0
	Right = 1
)

type Ball struct {
	X  float64 `json:"x"`
	Z  float64 `json:"z"`
	VX float64 `json:"vx"`
	VZ float64 `json:"vz"`
}

type Paddle struct {
	Z          float64 `json:"z"`
	movingUp   bool
	movingDown bool
}

// Event is something a step produced beyond plain motion. The session layer
// turns these into broadcasts and lifecycle transitions.
type Event interface{ isEvent() }

// Scored reports that Side won a point and the ball was re-served.
type Scored struct{ Side int }

// Finished reports that Winner reached the win score.
type Finished struct{ Winner int }

func (Scored) isEvent()   {}
func (Finished) isEvent() {}

// Engine holds one match worth of simulation state. It is not safe for
// concurrent use; the owning room confines it to a single goroutine.
type Engine struct {
	rng     *rand.Rand
	ball    Ball
	paddles [2]Paddle
	scores  [2]int
	done    bool
}

// New creates an engine and serves the first ball. The seed makes serves
// reproducible in tests; production passes the clock.
func New(seed uint64) *Engine {
	e := &Engine{rng: rand.New(rand.NewPCG(seed, 1))}
	e.serve()
	return e
}

// Reset returns the engine to a fresh match, keeping the rng stream.
func (e *Engine) Reset() {
	e.ball = Ball{}
	e.paddles = [2]Paddle{}
	e.scores = [2]int{}
	e.done = false
	e.serve()
}

// SetMoving latches a movement flag for one side. up selects which flag,
// pressed is whether the key went down or up.
func (e *Engine) SetMoving(side int, up, pressed bool) {
	if side != Left && side != Right {
		return
	}
	if up {
		e.paddles[side].movingUp = pressed
	} else {
		e.paddles[side].movingDown = pressed
	}
}

// Scores returns the current score pair.
func (e *Engine) Scores() [2]int { return e.scores }

// Finished reports whether a side has reached the win score.
func (e *Engine) Finished() bool { return e.done }

// Step advances the simulation by one tick.
func (e *Engine) Step() []Event {
	if e.done {
		return nil
	}

	var events []Event

	// Paddles first, so contact checks see this tick's positions.
	for i := range e.paddles {
		p := &e.paddles[i]
		if p.movingUp {
			p.Z += PaddleStep
		}
		if p.movingDown {
			p.Z -= PaddleStep
		}
		p.Z = clamp(p.Z, -PaddleLimit, PaddleLimit)
	}

	e.ball.X += e.ball.VX
	e.ball.Z += e.ball.VZ

	// Lateral walls.
	if e.ball.Z > WallZ {
		e.ball.Z = WallZ
		e.ball.VZ = -e.ball.VZ
	} else if e.ball.Z < -WallZ {
		e.ball.Z = -WallZ
		e.ball.VZ = -e.ball.VZ
	}

	// Paddle contact. Only a ball moving toward a paddle can bounce off it,
	// otherwise one contact band could reflect the same ball twice.
	if e.ball.VX < 0 && e.ball.X <= -PaddleBandNear && e.ball.X >= -PaddleBandFar {
		if math.Abs(e.ball.Z-e.paddles[Left].Z) <= PaddleHalfWidth {
			e.ball.VX = -e.ball.VX
			e.ball.VZ = (e.ball.Z - e.paddles[Left].Z) * Spin
		}
	} else if e.ball.VX > 0 && e.ball.X >= PaddleBandNear && e.ball.X <= PaddleBandFar {
		if math.Abs(e.ball.Z-e.paddles[Right].Z) <= PaddleHalfWidth {
			e.ball.VX = -e.ball.VX
			e.ball.VZ = (e.ball.Z - e.paddles[Right].Z) * Spin
		}
	}

	// Goals.
	if e.ball.X < -GoalX {
		e.scores[Right]++
		events = append(events, Scored{Side: Right})
		e.serve()
	} else if e.ball.X > GoalX {
		e.scores[Left]++
		events = append(events, Scored{Side: Left})
		e.serve()
	}

	for side, score := range e.scores {
		if score >= WinScore {
			e.done = true
			events = append(events, Finished{Winner: side})
			break
		}
	}

	return events
}

// serve resets the ball to center with a fresh random direction: uniform
// angle within the serve cone, coin-flip for left or right.
func (e *Engine) serve() {
	angle := (e.rng.Float64()*2 - 1) * ServeAngleMaxDeg * math.Pi / 180
	dir := 1.0
	if e.rng.IntN(2) == 0 {
		dir = -1.0
	}
	e.ball = Ball{
		VX: ServeSpeed * math.Cos(angle) * dir,
		VZ: ServeSpeed * math.Sin(angle),
	}
}

// Snapshot is the JSON shape broadcast every tick.
type Snapshot struct {
	Ball        Ball    `json:"ball"`
	LeftPaddle  float64 `json:"leftPaddle"`
	RightPaddle float64 `json:"rightPaddle"`
	LeftScore   int     `json:"leftScore"`
	RightScore  int     `json:"rightScore"`
}

func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Ball:        e.ball,
		LeftPaddle:  e.paddles[Left].Z,
		RightPaddle: e.paddles[Right].Z,
		LeftScore:   e.scores[Left],
		RightScore:  e.scores[Right],
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
