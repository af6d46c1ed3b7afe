package protocol

import (
	"encoding/json"
	"log/slog"

	"github.com/Shyam-duba/ChessApp/domain"
)

// Coordinator is the registry surface the router dispatches into.
type Coordinator interface {
	Identify(connID, name string) error
	Enqueue(connID string) error
	Cancel(connID string)
	CreateRoom(connID string) (string, error)
	JoinRoom(roomID, connID string) ([]string, domain.Side, error)
	RelayMove(roomID, connID string, payload json.RawMessage) error
	Leave(connID string) error
	CloseRoom(roomID, connID string) error
}

type identifyRequest struct {
	Name string `json:"name"`
}

type joinRequest struct {
	RoomID string `json:"roomId"`
}

type moveRequest struct {
	RoomID  string          `json:"roomId"`
	Payload json.RawMessage `json:"payload"`
}

type closeRequest struct {
	RoomID string `json:"roomId"`
}

// Handler routes inbound envelopes to coordinator operations. Request events
// (findMatch, createRoom, joinRoom) get a response event carrying ok/reason;
// fire-and-forget events fail silently toward the client and are logged.
type Handler struct {
	coord   Coordinator
	emitter domain.Emitter
}

func NewHandler(coord Coordinator, emitter domain.Emitter) *Handler {
	return &Handler{coord: coord, emitter: emitter}
}

func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}

	switch env.Event {
	case domain.EventIdentify:
		h.identify(conn, env.Data)
	case domain.EventFindMatch:
		h.findMatch(conn)
	case domain.EventCancelMatch:
		h.coord.Cancel(conn.ID())
	case domain.EventCreateRoom:
		h.createRoom(conn)
	case domain.EventJoinRoom:
		h.joinRoom(conn, env.Data)
	case domain.EventMove:
		h.move(conn, env.Data)
	case domain.EventLeaveRoom:
		if err := h.coord.Leave(conn.ID()); err != nil {
			slog.Warn("leave failed", "clientId", conn.ID(), "reason", domain.Reason(err))
		}
	case domain.EventCloseRoom:
		h.closeRoom(conn, env.Data)
	default:
		slog.Debug("ignoring unknown event", "clientId", conn.ID(), "event", env.Event)
	}
}

func (h *Handler) identify(conn domain.Connection, data json.RawMessage) {
	var req identifyRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Name == "" {
		slog.Warn("identify rejected", "clientId", conn.ID(), "error", err)
		return
	}
	if err := h.coord.Identify(conn.ID(), req.Name); err != nil {
		slog.Warn("identify failed", "clientId", conn.ID(), "reason", domain.Reason(err))
	}
}

func (h *Handler) findMatch(conn domain.Connection) {
	if err := h.coord.Enqueue(conn.ID()); err != nil {
		h.emitter.Emit(conn, domain.EventQueueStatus,
			domain.QueueStatus{OK: false, Reason: domain.Reason(err)})
		return
	}
	h.emitter.Emit(conn, domain.EventQueueStatus,
		domain.QueueStatus{OK: true, Waiting: true})
}

func (h *Handler) createRoom(conn domain.Connection) {
	roomID, err := h.coord.CreateRoom(conn.ID())
	if err != nil {
		h.emitter.Emit(conn, domain.EventRoomCreated,
			domain.RoomCreated{OK: false, Reason: domain.Reason(err)})
		return
	}
	h.emitter.Emit(conn, domain.EventRoomCreated,
		domain.RoomCreated{OK: true, RoomID: roomID, Side: domain.SideWhite})
}

func (h *Handler) joinRoom(conn domain.Connection, data json.RawMessage) {
	var req joinRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		h.emitter.Emit(conn, domain.EventRoomJoined,
			domain.RoomJoined{OK: false, Reason: domain.Reason(domain.ErrRoomNotFound)})
		return
	}
	occupants, side, err := h.coord.JoinRoom(req.RoomID, conn.ID())
	if err != nil {
		h.emitter.Emit(conn, domain.EventRoomJoined,
			domain.RoomJoined{OK: false, Reason: domain.Reason(err)})
		return
	}
	h.emitter.Emit(conn, domain.EventRoomJoined,
		domain.RoomJoined{OK: true, RoomID: req.RoomID, Occupants: occupants, Side: side})
}

func (h *Handler) move(conn domain.Connection, data json.RawMessage) {
	var req moveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Warn("invalid move", "clientId", conn.ID(), "error", err)
		return
	}
	if err := h.coord.RelayMove(req.RoomID, conn.ID(), req.Payload); err != nil {
		slog.Warn("move dropped", "clientId", conn.ID(), "roomId", req.RoomID,
			"reason", domain.Reason(err))
	}
}

func (h *Handler) closeRoom(conn domain.Connection, data json.RawMessage) {
	var req closeRequest
	if err := json.Unmarshal(data, &req); err != nil || req.RoomID == "" {
		slog.Warn("invalid closeRoom", "clientId", conn.ID(), "error", err)
		return
	}
	if err := h.coord.CloseRoom(req.RoomID, conn.ID()); err != nil {
		slog.Warn("closeRoom failed", "clientId", conn.ID(), "roomId", req.RoomID,
			"reason", domain.Reason(err))
	}
}
