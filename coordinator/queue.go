package coordinator

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/Shyam-duba/ChessApp/domain"
)

// Enqueue appends an identified Idle session to the matchmaking queue and
// immediately attempts to pair the two oldest entries. Pairing is
// all-or-nothing: both sessions move to Seated under the same lock or
// neither does.
func (c *Coordinator) Enqueue(connID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[connID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.name == "" {
		return domain.ErrNotIdentified
	}
	switch s.membership {
	case domain.Queued:
		return domain.ErrAlreadyQueued
	case domain.Seated:
		return domain.ErrAlreadySeated
	}

	c.queue = append(c.queue, connID)
	s.membership = domain.Queued
	slog.Info("client queued", "clientId", connID, "name", s.name, "queued", len(c.queue))

	c.tryPairLocked()
	return nil
}

// Cancel removes a queue entry and returns the session to Idle. Calling it
// for a connection that is not queued is a no-op.
func (c *Coordinator) Cancel(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.dequeueLocked(connID) {
		return
	}
	if s, ok := c.sessions[connID]; ok && s.membership == domain.Queued {
		s.membership = domain.Idle
		slog.Info("matchmaking cancelled", "clientId", connID, "name", s.name)
	}
}

// tryPairLocked matches queued players strictly in arrival order. Entries
// whose session is gone or no longer Queued are discarded, never re-queued;
// a live entry left without a partner goes back to the head so its position
// is preserved.
func (c *Coordinator) tryPairLocked() {
	for len(c.queue) >= 2 {
		firstID, first := c.popLiveLocked()
		if first == nil {
			return
		}
		secondID, second := c.popLiveLocked()
		if second == nil {
			c.queue = append([]string{firstID}, c.queue...)
			return
		}

		r := &room{
			id:        uuid.New().String(),
			occupants: []string{firstID, secondID},
			phase:     domain.RoomActive,
		}
		c.rooms[r.id] = r

		first.membership = domain.Seated
		first.roomID = r.id
		second.membership = domain.Seated
		second.roomID = r.id

		c.emitter.Emit(first.conn, domain.EventMatched,
			domain.Matched{Opponent: second.name, RoomID: r.id, Side: domain.SideWhite})
		c.emitter.Emit(second.conn, domain.EventMatched,
			domain.Matched{Opponent: first.name, RoomID: r.id, Side: domain.SideBlack})

		slog.Info("players matched", "roomId", r.id,
			"white", first.name, "black", second.name)
	}
}

// popLiveLocked pops entries until one resolves to a live Queued session.
func (c *Coordinator) popLiveLocked() (string, *session) {
	for len(c.queue) > 0 {
		id := c.queue[0]
		c.queue = c.queue[1:]
		if s, ok := c.sessions[id]; ok && s.membership == domain.Queued {
			return id, s
		}
		slog.Warn("discarding stale queue entry", "clientId", id)
	}
	return "", nil
}

// dequeueLocked removes a queue entry if present.
func (c *Coordinator) dequeueLocked(connID string) bool {
	for i, id := range c.queue {
		if id == connID {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return true
		}
	}
	return false
}
