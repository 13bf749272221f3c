package session

import (
	"sort"

	"arcade/internal/game"
	"arcade/internal/lobby"

	"github.com/google/uuid"
)

// Registry tracks live rooms and their latest lobby summaries. It is owned
// by the hub goroutine and never locked; rooms reach it only through Deps.
type Registry struct {
	rooms     map[string]*Room
	summaries map[string]lobby.RoomSummary
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		summaries: make(map[string]lobby.RoomSummary),
	}
}

// Create spins up a room and its goroutine.
func (reg *Registry) Create(kind game.Kind, mode game.Mode, format game.Format, deps Deps) *Room {
	r := NewRoom(uuid.NewString(), kind, mode, format, deps)
	reg.rooms[r.ID] = r
	reg.summaries[r.ID] = lobby.RoomSummary{
		ID: r.ID, Kind: kind, Mode: mode, Format: format,
		Status: game.StatusWaiting, Seats: len(r.slots),
	}
	go r.Run()
	return r
}

func (reg *Registry) Get(id string) (*Room, bool) {
	r, ok := reg.rooms[id]
	return r, ok
}

// Update stores a room's latest summary.
func (reg *Registry) Update(s lobby.RoomSummary) {
	if _, ok := reg.rooms[s.ID]; ok {
		reg.summaries[s.ID] = s
	}
}

// Remove forgets a closed room.
func (reg *Registry) Remove(id string) {
	delete(reg.rooms, id)
	delete(reg.summaries, id)
}

func (reg *Registry) Len() int { return len(reg.rooms) }

// Summaries returns every room summary, id sorted for stable payloads.
func (reg *Registry) Summaries() []lobby.RoomSummary {
	out := make([]lobby.RoomSummary, 0, len(reg.summaries))
	for _, s := range reg.summaries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FirstJoinable finds an open remote room of the given kind and format,
// preferring the fullest so matches fill fast.
func (reg *Registry) FirstJoinable(kind game.Kind, format game.Format) (*Room, bool) {
	var best *Room
	bestOccupied := -1
	for id, s := range reg.summaries {
		if !s.Joinable || s.Kind != kind || s.Format != format {
			continue
		}
		if s.Occupied > bestOccupied {
			best = reg.rooms[id]
			bestOccupied = s.Occupied
		}
	}
	return best, best != nil
}
