package coordinator

import (
	"log/slog"
	"sync"

	"github.com/Shyam-duba/ChessApp/domain"
)

type session struct {
	conn       domain.Connection
	name       string
	membership domain.Membership
	roomID     string
}

type room struct {
	id        string
	occupants []string
	phase     domain.RoomPhase
}

// Coordinator owns the session registry, the matchmaking queue and the room
// registry. One mutex guards all three so that every multi-step operation
// (pairing, disconnect teardown) is atomic; nothing under the lock does I/O,
// outbound emits are buffered channel pushes.
type Coordinator struct {
	emitter domain.Emitter

	mu       sync.Mutex
	sessions map[string]*session
	queue    []string
	rooms    map[string]*room
}

func New(emitter domain.Emitter) *Coordinator {
	return &Coordinator{
		emitter:  emitter,
		sessions: make(map[string]*session),
		rooms:    make(map[string]*room),
	}
}

// Register creates a session for a new connection. A non-empty name comes
// from a verified token and identifies the session immediately.
func (c *Coordinator) Register(conn domain.Connection, name string) {
	c.mu.Lock()
	s := &session{conn: conn, membership: domain.Unregistered}
	if name != "" {
		s.name = name
		s.membership = domain.Idle
	}
	c.sessions[conn.ID()] = s
	count := len(c.sessions)
	c.mu.Unlock()

	slog.Info("client connected", "clientId", conn.ID(), "name", name, "sessions", count)
}

// Identify sets the display name and moves the session to Idle. Callers must
// reject empty names before invoking; an empty name is a no-op here. While
// queued or seated the name is left untouched.
func (c *Coordinator) Identify(connID, name string) error {
	if name == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[connID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.membership != domain.Unregistered && s.membership != domain.Idle {
		return nil
	}
	s.name = name
	s.membership = domain.Idle

	slog.Info("client identified", "clientId", connID, "name", name)
	return nil
}

// Disconnect unwinds everything a dropped connection held: its queue entry,
// its room (notifying and freeing the other occupant) and finally its
// session. Safe to call for unknown ids.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[connID]
	if !ok {
		return
	}

	c.dequeueLocked(connID)

	if s.membership == domain.Seated {
		if r, ok := c.rooms[s.roomID]; ok {
			r.phase = domain.RoomPhaseClosed
			for _, occID := range r.occupants {
				if occID == connID {
					continue
				}
				if peer, ok := c.sessions[occID]; ok {
					c.emitter.Emit(peer.conn, domain.EventPlayerDisconnected,
						domain.PlayerDisconnected{Name: s.name})
					peer.membership = domain.Idle
					peer.roomID = ""
				}
			}
			delete(c.rooms, r.id)
			slog.Info("room removed", "roomId", r.id, "cause", "disconnect")
		}
	}

	delete(c.sessions, connID)
	slog.Info("client disconnected", "clientId", connID, "name", s.name, "sessions", len(c.sessions))
}

// Stats reports live sessions, queued players and open rooms.
func (c *Coordinator) Stats() (sessions, queued, rooms int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions), len(c.queue), len(c.rooms)
}

// SessionState reports the membership and room of a connection.
func (c *Coordinator) SessionState(connID string) (domain.Membership, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[connID]
	if !ok {
		return domain.Unregistered, "", false
	}
	return s.membership, s.roomID, true
}

// RoomOccupants reports the occupant connection ids of a room in seat order.
func (c *Coordinator) RoomOccupants(roomID string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rooms[roomID]
	if !ok {
		return nil, false
	}
	occ := make([]string, len(r.occupants))
	copy(occ, r.occupants)
	return occ, true
}

// occupantNamesLocked resolves occupant ids to display names in seat order.
func (c *Coordinator) occupantNamesLocked(r *room) []string {
	names := make([]string, 0, len(r.occupants))
	for _, id := range r.occupants {
		if s, ok := c.sessions[id]; ok {
			names = append(names, s.name)
		}
	}
	return names
}
