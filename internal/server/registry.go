package server

import (
	"log"
	"sync"
)

// Member is one connected session. Deliver must not block; a failed delivery
// gets the member evicted from its room.
type Member interface {
	Deliver(msg *ServerMessage) error
}

// Registry tracks which members are joined to which room. It is pure
// membership bookkeeping: room existence is owned by the key store.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]map[Member]struct{}
	log   *log.Logger
}

func NewRegistry(logger *log.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]map[Member]struct{}),
		log:   logger,
	}
}

func (reg *Registry) Join(token string, m Member) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	members, ok := reg.rooms[token]
	if !ok {
		members = make(map[Member]struct{})
		reg.rooms[token] = members
	}
	members[m] = struct{}{}
}

func (reg *Registry) Leave(token string, m Member) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	members, ok := reg.rooms[token]
	if !ok {
		return
	}

	delete(members, m)
	if len(members) == 0 {
		delete(reg.rooms, token)
	}
}

// Members returns a snapshot of the room's membership.
func (reg *Registry) Members(token string) []Member {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	members := make([]Member, 0, len(reg.rooms[token]))
	for m := range reg.rooms[token] {
		members = append(members, m)
	}
	return members
}

// Broadcast delivers msg to every member joined at the time of the call and
// returns the number of successful deliveries. A member whose delivery fails
// is removed from the room; the failure never reaches the caller. Members
// joining mid-broadcast are not guaranteed delivery.
func (reg *Registry) Broadcast(token string, msg *ServerMessage) int {
	var delivered int
	for _, m := range reg.Members(token) {
		if err := m.Deliver(msg); err != nil {
			reg.log.Printf("dropping member from room %q: %v", token, err)
			reg.Leave(token, m)
			continue
		}
		delivered++
	}

	return delivered
}

// NumRooms reports how many rooms currently have at least one member.
func (reg *Registry) NumRooms() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}
