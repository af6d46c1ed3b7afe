package domain

import "errors"

// Membership is the lifecycle phase of a session.
type Membership int

const (
	// Unregistered is the initial state before the player identifies.
	Unregistered Membership = iota
	// Idle means identified and free to queue or enter a room.
	Idle
	// Queued means waiting in the matchmaking queue.
	Queued
	// Seated means occupying a slot in a room.
	Seated
)

func (m Membership) String() string {
	switch m {
	case Unregistered:
		return "unregistered"
	case Idle:
		return "idle"
	case Queued:
		return "queued"
	case Seated:
		return "seated"
	}
	return "unknown"
}

// RoomPhase is the lifecycle stage of a room.
type RoomPhase int

const (
	// RoomOpen is a room with a single occupant awaiting an opponent.
	RoomOpen RoomPhase = iota
	// RoomActive is a room with both occupants present.
	RoomActive
	// RoomPhaseClosed is a room being torn down.
	RoomPhaseClosed
)

func (p RoomPhase) String() string {
	switch p {
	case RoomOpen:
		return "open"
	case RoomActive:
		return "active"
	case RoomPhaseClosed:
		return "closed"
	}
	return "unknown"
}

// Side is the board side assigned to an occupant. The first occupant of a
// room always plays white.
type Side string

const (
	SideWhite Side = "white"
	SideBlack Side = "black"
)

// Request failures reported back to clients. Every multi-step operation
// either fully applies or returns one of these with state untouched.
var (
	ErrNotFound      = errors.New("connection not found")
	ErrNotIdentified = errors.New("not identified")
	ErrAlreadyQueued = errors.New("already queued")
	ErrAlreadySeated = errors.New("already seated")
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room full")
	ErrNotInRoom     = errors.New("not in room")
)

// Reason maps a coordinator error to its wire identifier.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "notFound"
	case errors.Is(err, ErrNotIdentified):
		return "notIdentified"
	case errors.Is(err, ErrAlreadyQueued):
		return "alreadyQueued"
	case errors.Is(err, ErrAlreadySeated):
		return "alreadySeated"
	case errors.Is(err, ErrRoomNotFound):
		return "roomNotFound"
	case errors.Is(err, ErrRoomFull):
		return "roomFull"
	case errors.Is(err, ErrNotInRoom):
		return "notInRoom"
	}
	return "internal"
}

// Connection is one live transport-level session. Send must not block;
// implementations buffer writes and report an error when the buffer is full.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Registrar tracks connection lifecycles. Register is called once when the
// transport establishes a connection, Disconnect exactly once when it ends.
// A non-empty name pre-identifies the session with a trusted display name.
type Registrar interface {
	Register(conn Connection, name string)
	Disconnect(connID string)
}

// Emitter delivers a named outbound event to one connection.
type Emitter interface {
	Emit(conn Connection, event string, data any)
}

// MessageHandler processes one inbound frame from a connection.
type MessageHandler interface {
	Handle(conn Connection, data []byte)
}
