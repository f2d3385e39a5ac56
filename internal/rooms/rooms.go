// Package rooms is the room metadata service the relays collaborate with: an
// in-memory store of room records with an explicit idempotent ensure
// operation, so creation-on-miss is a contract rather than an ambient side
// effect of connecting.
package rooms

import (
	"log"
	"sort"
	"sync"

	"github.com/mentora/realtime/internal/ids"
)

// Room is the metadata record for one room. ActiveUsers is filled in by the
// HTTP layer from the collaboration relay's live counts; the store itself
// never tracks presence.
type Room struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CreatedAt   string `json:"created_at"`
	Description string `json:"description"`
	ActiveUsers int    `json:"active_users"`
}

// Store holds room records. All methods are safe for concurrent use and
// return copies, never pointers into the store.
type Store struct {
	gen *ids.Generator

	mu    sync.RWMutex
	rooms map[string]Room
}

// NewStore creates an empty store using gen for room ids and timestamps.
func NewStore(gen *ids.Generator) *Store {
	return &Store{
		gen:   gen,
		rooms: make(map[string]Room),
	}
}

// Create adds a room with a generated id and returns it.
func (s *Store) Create(name, description string) Room {
	room := Room{
		ID:          s.gen.Next(),
		Name:        name,
		CreatedAt:   s.gen.Timestamp(),
		Description: description,
	}

	s.mu.Lock()
	s.rooms[room.ID] = room
	s.mu.Unlock()

	log.Printf("rooms: created id=%s name=%q", room.ID, room.Name)
	return room
}

// Ensure returns the room with the given id, creating a placeholder record
// when none exists. It is idempotent: concurrent callers for the same id
// converge on a single record, whether they arrive via HTTP lookup or a
// WebSocket connect.
func (s *Store) Ensure(id string) Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, ok := s.rooms[id]; ok {
		return room
	}

	room := Room{
		ID:          id,
		Name:        "Auto-created Room " + idSuffix(id),
		CreatedAt:   s.gen.Timestamp(),
		Description: "This room was automatically created on first reference",
	}
	s.rooms[id] = room
	log.Printf("rooms: auto-created id=%s", id)
	return room
}

// EnsureRoom is the relay-facing form of Ensure.
func (s *Store) EnsureRoom(id string) {
	s.Ensure(id)
}

// Get returns the room with the given id.
func (s *Store) Get(id string) (Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	return room, ok
}

// Update changes the mutable fields of a room. Nil fields are left untouched;
// id and created_at are never updatable.
func (s *Store) Update(id string, name, description *string) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return Room{}, false
	}
	if name != nil {
		room.Name = *name
	}
	if description != nil {
		room.Description = *description
	}
	s.rooms[id] = room
	return room, true
}

// Delete removes a room and returns the deleted record.
func (s *Store) Delete(id string) (Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return Room{}, false
	}
	delete(s.rooms, id)
	log.Printf("rooms: deleted id=%s", id)
	return room, true
}

// List returns all rooms ordered by id.
func (s *Store) List() []Room {
	s.mu.RLock()
	out := make([]Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of stored rooms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

func idSuffix(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[len(id)-4:]
}
