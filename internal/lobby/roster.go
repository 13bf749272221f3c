package lobby

import (
	"sort"

	"arcade/internal/game"
	"arcade/internal/message"
)

// RoomSummary is the lobby's view of one live room, enough for a client to
// decide whether join_open_room makes sense.
type RoomSummary struct {
	ID       string      `json:"id"`
	Kind     game.Kind   `json:"kind"`
	Mode     game.Mode   `json:"mode"`
	Format   game.Format `json:"format"`
	Status   game.Status `json:"status"`
	Seats    int         `json:"seats"`
	Occupied int         `json:"occupied"`
	Joinable bool        `json:"joinable"`
}

type PlayerEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Snapshot struct {
	Players []PlayerEntry `json:"players"`
	Rooms   []RoomSummary `json:"rooms"`
}

// Roster tracks every connected peer. It carries no game state; its one job
// is knowing who is online and telling everyone whenever that changes.
type Roster struct {
	peers map[string]*Peer

	// summaries is supplied by the room registry so lobby updates can carry
	// the live room list without the roster knowing about rooms.
	summaries func() []RoomSummary
}

func NewRoster(summaries func() []RoomSummary) *Roster {
	if summaries == nil {
		summaries = func() []RoomSummary { return nil }
	}
	return &Roster{
		peers:     make(map[string]*Peer),
		summaries: summaries,
	}
}

func (r *Roster) Join(p *Peer) {
	r.peers[p.ID] = p
	r.Broadcast()
}

// Leave removes a peer. Leaving twice, or leaving an id that never joined,
// is a no-op.
func (r *Roster) Leave(id string) {
	if _, ok := r.peers[id]; !ok {
		return
	}
	delete(r.peers, id)
	r.Broadcast()
}

func (r *Roster) Get(id string) (*Peer, bool) {
	p, ok := r.peers[id]
	return p, ok
}

func (r *Roster) Len() int { return len(r.peers) }

// Snapshot lists everyone online plus the live room summaries, sorted by
// name so the payload is stable.
func (r *Roster) Snapshot() Snapshot {
	players := make([]PlayerEntry, 0, len(r.peers))
	for _, p := range r.peers {
		players = append(players, PlayerEntry{ID: p.ID, Name: p.Name})
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Name != players[j].Name {
			return players[i].Name < players[j].Name
		}
		return players[i].ID < players[j].ID
	})
	return Snapshot{Players: players, Rooms: r.summaries()}
}

// Broadcast pushes the current snapshot to every connected peer. Fire and
// forget; a slow client just misses an update.
func (r *Roster) Broadcast() {
	msg := message.CreateLobbyUpdate(r.Snapshot())
	for _, p := range r.peers {
		message.Push(p.Conn, msg)
	}
}
