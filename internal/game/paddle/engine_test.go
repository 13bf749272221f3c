package paddle

import (
	"math"
	"testing"
)

func TestPaddleStaysWithinLimits(t *testing.T) {
	e := New(1)

	e.SetMoving(Left, true, true)
	e.SetMoving(Right, false, true)
	for i := 0; i < 200; i++ {
		e.Step()
		snap := e.Snapshot()
		if snap.LeftPaddle > PaddleLimit || snap.LeftPaddle < -PaddleLimit {
			t.Fatalf("left paddle out of range after %d ticks: %f", i+1, snap.LeftPaddle)
		}
		if snap.RightPaddle > PaddleLimit || snap.RightPaddle < -PaddleLimit {
			t.Fatalf("right paddle out of range after %d ticks: %f", i+1, snap.RightPaddle)
		}
	}
	if got := e.Snapshot().LeftPaddle; got != PaddleLimit {
		t.Fatalf("expected left paddle pinned at %f, got %f", PaddleLimit, got)
	}
	if got := e.Snapshot().RightPaddle; got != -PaddleLimit {
		t.Fatalf("expected right paddle pinned at %f, got %f", -PaddleLimit, got)
	}
}

func TestMoveFlagsRelease(t *testing.T) {
	e := New(1)
	e.SetMoving(Left, true, true)
	e.Step()
	e.SetMoving(Left, true, false)
	before := e.Snapshot().LeftPaddle
	e.Step()
	if got := e.Snapshot().LeftPaddle; got != before {
		t.Fatalf("paddle moved after key release: %f -> %f", before, got)
	}
}

func TestScoreResetsBallToCenter(t *testing.T) {
	e := New(42)

	// Aim the ball straight at the left goal from just inside it, past the
	// paddle band so nothing can intercept it.
	e.ball = Ball{X: -GoalX + 0.01, VX: -ServeSpeed, VZ: 0}
	e.paddles[Left].Z = PaddleLimit // far from the ball's path

	events := e.Step()

	var scored *Scored
	for _, ev := range events {
		if s, ok := ev.(Scored); ok {
			scored = &s
		}
	}
	if scored == nil {
		t.Fatalf("expected a score event, got %v", events)
	}
	if scored.Side != Right {
		t.Fatalf("expected right side to score, got side %d", scored.Side)
	}
	if e.scores[Right] != 1 {
		t.Fatalf("expected right score 1, got %d", e.scores[Right])
	}

	snap := e.Snapshot()
	if snap.Ball.X != 0 || snap.Ball.Z != 0 {
		t.Fatalf("expected ball reset to origin, got (%f, %f)", snap.Ball.X, snap.Ball.Z)
	}
	maxVZ := ServeSpeed * math.Sin(ServeAngleMaxDeg*math.Pi/180)
	if math.Abs(snap.Ball.VZ) > maxVZ+1e-9 {
		t.Fatalf("serve vz %f outside the configured angle range (max %f)", snap.Ball.VZ, maxVZ)
	}
	if math.Abs(snap.Ball.VX) <= 0 {
		t.Fatalf("serve must move along x, got vx %f", snap.Ball.VX)
	}
}

func TestBallReflectsOffWalls(t *testing.T) {
	e := New(7)
	e.ball = Ball{X: 0, Z: WallZ - 0.01, VX: 0, VZ: 0.1}

	e.Step()

	if e.ball.VZ >= 0 {
		t.Fatalf("expected vz to flip at the wall, got %f", e.ball.VZ)
	}
	if e.ball.Z > WallZ {
		t.Fatalf("ball escaped the wall: z=%f", e.ball.Z)
	}
}

func TestPaddleContactSetsDeterministicSpin(t *testing.T) {
	e := New(7)
	e.paddles[Right].Z = 1.0
	e.ball = Ball{X: PaddleBandNear - 0.01, Z: 2.0, VX: ServeSpeed, VZ: 0}

	e.Step()

	if e.ball.VX >= 0 {
		t.Fatalf("expected vx reflected off the right paddle, got %f", e.ball.VX)
	}
	wantVZ := (e.ball.Z - 1.0) * Spin
	if math.Abs(e.ball.VZ-wantVZ) > 1e-9 {
		t.Fatalf("expected vz %f from contact offset, got %f", wantVZ, e.ball.VZ)
	}
}

func TestBallIgnoresPaddleWhenMovingAway(t *testing.T) {
	e := New(7)
	e.paddles[Right].Z = 0
	e.ball = Ball{X: PaddleBandNear + 0.1, Z: 0, VX: -ServeSpeed, VZ: 0}

	e.Step()

	if e.ball.VX >= 0 {
		t.Fatalf("ball moving away from the paddle must not bounce, vx=%f", e.ball.VX)
	}
}

func TestWinScoreFinishesMatch(t *testing.T) {
	e := New(3)
	for e.scores[Left] < WinScore-1 {
		e.scores[Left]++
	}
	e.ball = Ball{X: GoalX - 0.01, VX: ServeSpeed}
	e.paddles[Right].Z = -PaddleLimit

	events := e.Step()

	var finished *Finished
	for _, ev := range events {
		if f, ok := ev.(Finished); ok {
			finished = &f
		}
	}
	if finished == nil {
		t.Fatalf("expected match to finish, events: %v", events)
	}
	if finished.Winner != Left {
		t.Fatalf("expected left winner, got %d", finished.Winner)
	}
	if !e.Finished() {
		t.Fatalf("engine should report finished")
	}
	if got := e.Step(); got != nil {
		t.Fatalf("steps after finish must be inert, got %v", got)
	}
}

func TestResetClearsMatchState(t *testing.T) {
	e := New(9)
	e.scores = [2]int{3, 2}
	e.done = true

	e.Reset()

	if e.scores != [2]int{} {
		t.Fatalf("expected scores cleared, got %v", e.scores)
	}
	if e.Finished() {
		t.Fatalf("expected engine running after reset")
	}
	snap := e.Snapshot()
	if snap.Ball.X != 0 || snap.Ball.Z != 0 {
		t.Fatalf("expected fresh serve from origin, got (%f, %f)", snap.Ball.X, snap.Ball.Z)
	}
}
