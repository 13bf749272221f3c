// Package archive is the outward "persist completed match" collaborator.
// Records go out as JSON over NATS, fire-and-forget: an unreachable broker
// costs a log line, never a room.
package archive

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"arcade/internal/game"
)

// Subject carries one message per finished session or tournament leg.
const Subject = "arcade.match.finished"

// Participant is one seat's final line in a record.
type Participant struct {
	Name  string `json:"name"`
	Side  string `json:"side"`
	Score int    `json:"score"`
}

// MatchRecord is the durable summary of one finished match.
type MatchRecord struct {
	RoomID       string        `json:"roomId"`
	Leg          string        `json:"leg,omitempty"` // tournament leg name, empty for single matches
	Kind         game.Kind     `json:"kind"`
	Mode         game.Mode     `json:"mode"`
	Participants []Participant `json:"participants"`
	Winner       string        `json:"winner,omitempty"` // empty on a draw
	DurationMs   int64         `json:"durationMs"`
	FinishedAt   time.Time     `json:"finishedAt"`
}

// Recorder publishes match records. A Recorder with a nil connection is
// valid and degrades to logging, which keeps gameplay independent of the
// broker being up.
type Recorder struct {
	nc *nats.Conn
}

func NewRecorder(nc *nats.Conn) *Recorder {
	return &Recorder{nc: nc}
}

// Connect dials NATS and wraps the connection. url may be empty, which
// yields a log-only recorder.
func Connect(url string) *Recorder {
	if url == "" {
		log.Println("[Archive] no NATS url configured, match records are log-only")
		return NewRecorder(nil)
	}
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		log.Printf("[Archive] NATS connect failed, match records are log-only: %v", err)
		return NewRecorder(nil)
	}
	log.Printf("[Archive] connected to NATS at %s", url)
	return NewRecorder(nc)
}

// Record publishes one finished match. Safe to call from room goroutines;
// nats.Conn serializes internally and Publish never waits on the broker.
func (r *Recorder) Record(rec MatchRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[Archive] dropping unmarshalable record for room %s: %v", rec.RoomID, err)
		return
	}
	if r.nc == nil {
		log.Printf("[Archive] match finished: %s", data)
		return
	}
	if err := r.nc.Publish(Subject, data); err != nil {
		log.Printf("[Archive] publish failed for room %s: %v", rec.RoomID, err)
	}
}
