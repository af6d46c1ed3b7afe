package coordinator

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Shyam-duba/ChessApp/domain"
)

// CreateRoom opens a room with the caller as its only occupant (the host
// plays white) and seats the session. This is the explicit host-a-room flow,
// distinct from quick-match.
func (c *Coordinator) CreateRoom(connID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.idleSessionLocked(connID)
	if err != nil {
		return "", err
	}

	r := &room{
		id:        uuid.New().String(),
		occupants: []string{connID},
		phase:     domain.RoomOpen,
	}
	c.rooms[r.id] = r
	s.membership = domain.Seated
	s.roomID = r.id

	slog.Info("room created", "roomId", r.id, "host", s.name)
	return r.id, nil
}

// JoinRoom seats the caller as the second occupant of an open room, notifies
// the host and returns the occupant names and the joiner's side.
func (c *Coordinator) JoinRoom(roomID, connID string) ([]string, domain.Side, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.idleSessionLocked(connID)
	if err != nil {
		return nil, "", err
	}
	r, ok := c.rooms[roomID]
	if !ok {
		return nil, "", domain.ErrRoomNotFound
	}
	if len(r.occupants) >= 2 {
		return nil, "", domain.ErrRoomFull
	}

	r.occupants = append(r.occupants, connID)
	r.phase = domain.RoomActive
	s.membership = domain.Seated
	s.roomID = roomID

	names := c.occupantNamesLocked(r)
	for _, occID := range r.occupants {
		if occID == connID {
			continue
		}
		if host, ok := c.sessions[occID]; ok {
			c.emitter.Emit(host.conn, domain.EventOpponentJoined,
				domain.OpponentJoined{Occupants: names})
		}
	}

	slog.Info("room joined", "roomId", roomID, "name", s.name)
	return names, domain.SideBlack, nil
}

// RelayMove forwards an opaque payload to the other occupant, verbatim and
// never echoed back. The payload is not inspected; move legality lives with
// the rules engine on the client side.
func (c *Coordinator) RelayMove(roomID, connID string, payload json.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if r.phase != domain.RoomActive || !contains(r.occupants, connID) {
		return domain.ErrNotInRoom
	}

	for _, occID := range r.occupants {
		if occID == connID {
			continue
		}
		if peer, ok := c.sessions[occID]; ok {
			c.emitter.Emit(peer.conn, domain.EventMove, domain.Move{Payload: payload})
		}
	}
	return nil
}

// Leave removes the caller from its room and frees the session. A remaining
// occupant is notified and keeps its seat in the now-open room; an emptied
// room is deleted.
func (c *Coordinator) Leave(connID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[connID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.membership != domain.Seated {
		return domain.ErrNotInRoom
	}
	r, ok := c.rooms[s.roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}

	roomID := r.id
	r.occupants = remove(r.occupants, connID)
	s.membership = domain.Idle
	s.roomID = ""

	if len(r.occupants) == 0 {
		delete(c.rooms, roomID)
		slog.Info("room removed", "roomId", roomID, "cause", "empty")
		return nil
	}

	r.phase = domain.RoomOpen
	for _, occID := range r.occupants {
		if peer, ok := c.sessions[occID]; ok {
			c.emitter.Emit(peer.conn, domain.EventOpponentLeft,
				domain.OpponentLeft{Name: s.name})
		}
	}
	slog.Info("client left room", "roomId", roomID, "name", s.name)
	return nil
}

// CloseRoom tears a room down unconditionally: every occupant is notified,
// returned to Idle and the room deleted. Only a current occupant may close.
func (c *Coordinator) CloseRoom(roomID, connID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if !contains(r.occupants, connID) {
		return domain.ErrNotInRoom
	}

	r.phase = domain.RoomPhaseClosed
	for _, occID := range r.occupants {
		if occ, ok := c.sessions[occID]; ok {
			c.emitter.Emit(occ.conn, domain.EventRoomClosed, domain.RoomClosed{RoomID: roomID})
			occ.membership = domain.Idle
			occ.roomID = ""
		}
	}
	delete(c.rooms, roomID)

	slog.Info("room removed", "roomId", roomID, "cause", "closed")
	return nil
}

// idleSessionLocked resolves an identified Idle session or reports why the
// caller cannot be seated.
func (c *Coordinator) idleSessionLocked(connID string) (*session, error) {
	s, ok := c.sessions[connID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.name == "" {
		return nil, domain.ErrNotIdentified
	}
	switch s.membership {
	case domain.Queued:
		return nil, domain.ErrAlreadyQueued
	case domain.Seated:
		return nil, domain.ErrAlreadySeated
	}
	return s, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
