package domain

import "encoding/json"

// Inbound event names.
const (
	EventIdentify    = "identify"
	EventFindMatch   = "findMatch"
	EventCancelMatch = "cancelMatch"
	EventCreateRoom  = "createRoom"
	EventJoinRoom    = "joinRoom"
	EventMove        = "move"
	EventLeaveRoom   = "leaveRoom"
	EventCloseRoom   = "closeRoom"
)

// Outbound event names.
const (
	EventQueueStatus        = "queueStatus"
	EventRoomCreated        = "roomCreated"
	EventRoomJoined         = "roomJoined"
	EventMatched            = "matched"
	EventOpponentJoined     = "opponentJoined"
	EventOpponentLeft       = "opponentLeft"
	EventPlayerDisconnected = "playerDisconnected"
	EventRoomClosed         = "roomClosed"
)

// Envelope is the wire frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Matched is sent to both players when the queue pairs them.
type Matched struct {
	Opponent string `json:"opponent"`
	RoomID   string `json:"roomId"`
	Side     Side   `json:"side"`
}

// QueueStatus answers a findMatch request.
type QueueStatus struct {
	OK      bool   `json:"ok"`
	Waiting bool   `json:"waiting,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// RoomCreated answers a createRoom request.
type RoomCreated struct {
	OK     bool   `json:"ok"`
	RoomID string `json:"roomId,omitempty"`
	Side   Side   `json:"side,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// RoomJoined answers a joinRoom request.
type RoomJoined struct {
	OK        bool     `json:"ok"`
	RoomID    string   `json:"roomId,omitempty"`
	Occupants []string `json:"occupants,omitempty"`
	Side      Side     `json:"side,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

// OpponentJoined notifies the host that a second player took the black seat.
type OpponentJoined struct {
	Occupants []string `json:"occupants"`
}

// Move carries the opaque payload relayed to the other occupant.
type Move struct {
	Payload json.RawMessage `json:"payload"`
}

// OpponentLeft notifies the remaining occupant of a voluntary leave.
type OpponentLeft struct {
	Name string `json:"name"`
}

// PlayerDisconnected notifies the remaining occupant of an abnormal drop.
type PlayerDisconnected struct {
	Name string `json:"name"`
}

// RoomClosed notifies occupants that the room was torn down.
type RoomClosed struct {
	RoomID string `json:"roomId"`
}
