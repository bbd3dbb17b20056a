package room

import "sync"

// Registry owns all live room states. The scheduler is the only writer; the
// mutex covers map access from concurrent room flows.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*State

	historyLimit int
	recentLimit  int
}

// NewRegistry returns an empty room registry.
func NewRegistry(historyLimit, recentLimit int) *Registry {
	return &Registry{
		rooms:        make(map[string]*State),
		historyLimit: historyLimit,
		recentLimit:  recentLimit,
	}
}

// Get returns the room state, or nil if the room is not live.
func (r *Registry) Get(roomID string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rooms[roomID]
}

// GetOrCreate returns the room state, creating it on first activity.
func (r *Registry) GetOrCreate(roomID, category string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.rooms[roomID]; ok {
		return s
	}
	s := NewState(roomID, category, r.historyLimit, r.recentLimit)
	r.rooms[roomID] = s
	return s
}

// Drop releases a room's state on teardown.
func (r *Registry) Drop(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, roomID)
}

// Live returns the IDs of all live rooms.
func (r *Registry) Live() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		out = append(out, id)
	}
	return out
}
