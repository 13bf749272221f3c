// Package game holds the vocabulary shared by the lobby and the room layer:
// which game is being played, where the players sit, and how far along a
// match is.
package game

type Kind string

const (
	KindPaddle Kind = "paddle"
	KindReflex Kind = "reflex"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindPaddle, KindReflex:
		return Kind(s), true
	}
	return "", false
}

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeLocal, ModeRemote:
		return Mode(s), true
	}
	return "", false
}

type Format string

const (
	FormatSingle     Format = "single"
	FormatTournament Format = "tournament"
)

func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatSingle, FormatTournament:
		return Format(s), true
	}
	return "", false
}

// Status is the lifecycle of one Session. It only ever advances
// waiting -> starting -> in-progress <-> paused -> finished; the sole way
// back out of finished is an explicit restart.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusStarting   Status = "starting"
	StatusInProgress Status = "in-progress"
	StatusPaused     Status = "paused"
	StatusFinished   Status = "finished"
)
