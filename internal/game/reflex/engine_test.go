package reflex

import "testing"

func TestCorrectKeyScoresAndRedraws(t *testing.T) {
	e := New(1)
	e.Start()

	prompt := e.Snapshot().LeftPrompt
	events := e.Keypress(Left, prompt)

	if len(events) != 1 {
		t.Fatalf("expected one event, got %v", events)
	}
	hit, ok := events[0].(Hit)
	if !ok || hit.Side != Left {
		t.Fatalf("expected left hit, got %v", events[0])
	}
	if got := e.Scores()[Left]; got != 1 {
		t.Fatalf("expected left score 1, got %d", got)
	}
	if SideOfKey(e.Snapshot().LeftPrompt) != Left {
		t.Fatalf("redrawn prompt %q is not from the left alphabet", e.Snapshot().LeftPrompt)
	}
}

func TestWrongKeyGoesNegative(t *testing.T) {
	e := New(1)
	e.Start()

	// Press an in-alphabet key that is not the prompt. With four keys per
	// alphabet there is always at least one.
	prompt := e.Snapshot().LeftPrompt
	var wrong string
	for _, k := range alphabets[Left] {
		if k != prompt {
			wrong = k
			break
		}
	}

	events := e.Keypress(Left, wrong)
	if len(events) != 1 {
		t.Fatalf("expected a miss event, got %v", events)
	}
	if _, ok := events[0].(Missed); !ok {
		t.Fatalf("expected Missed, got %T", events[0])
	}
	if got := e.Scores()[Left]; got != -1 {
		t.Fatalf("expected score -1 (no floor), got %d", got)
	}
}

func TestForeignAndOpponentKeysIgnored(t *testing.T) {
	e := New(1)
	e.Start()

	if events := e.Keypress(Left, "z"); events != nil {
		t.Fatalf("out-of-alphabet key must be ignored, got %v", events)
	}
	if events := e.Keypress(Left, alphabets[Right][0]); events != nil {
		t.Fatalf("opponent-alphabet key must be ignored, got %v", events)
	}
	if e.Scores() != [2]int{} {
		t.Fatalf("ignored keys must not touch scores, got %v", e.Scores())
	}
}

func TestLocalModeInfersSideFromAlphabet(t *testing.T) {
	e := New(1)
	e.Start()

	prompt := e.Snapshot().RightPrompt
	events := e.Keypress(-1, prompt)

	if len(events) != 1 {
		t.Fatalf("expected one event, got %v", events)
	}
	if hit, ok := events[0].(Hit); !ok || hit.Side != Right {
		t.Fatalf("expected inferred right hit, got %v", events[0])
	}
}

func TestKeypressIgnoredBeforeStartAndAfterFinish(t *testing.T) {
	e := New(1)

	if events := e.Keypress(Left, e.Snapshot().LeftPrompt); events != nil {
		t.Fatalf("keypress before start must be ignored, got %v", events)
	}

	e.Start()
	e.remaining = 1
	e.Tick() // countdown hits zero

	if e.Running() {
		t.Fatalf("engine should stop at zero")
	}
	if events := e.Keypress(Left, e.Snapshot().LeftPrompt); events != nil {
		t.Fatalf("keypress after finish must be ignored, got %v", events)
	}
}

func TestCountdownDeclaresLeader(t *testing.T) {
	e := New(1)
	e.Start()
	e.scores = [2]int{3, -1}
	e.remaining = 1

	events := e.Tick()
	if len(events) != 1 {
		t.Fatalf("expected a finish event, got %v", events)
	}
	fin, ok := events[0].(Finished)
	if !ok {
		t.Fatalf("expected Finished, got %T", events[0])
	}
	if fin.Winner != Left {
		t.Fatalf("expected left winner, got %d", fin.Winner)
	}
}

func TestCountdownDraw(t *testing.T) {
	e := New(1)
	e.Start()
	e.remaining = 1

	events := e.Tick()
	fin, ok := events[0].(Finished)
	if !ok {
		t.Fatalf("expected Finished, got %T", events[0])
	}
	if fin.Winner != Draw {
		t.Fatalf("expected a draw, got winner %d", fin.Winner)
	}
}
