package protocol

import (
	"encoding/json"
	"log/slog"

	"github.com/Shyam-duba/ChessApp/domain"
)

// Encoder marshals outbound events into the wire envelope and pushes them
// onto the connection's send buffer. A full buffer drops the frame; the
// transport layer closes such connections on its own.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Emit(conn domain.Connection, event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		slog.Warn("marshal error", "clientId", conn.ID(), "event", event, "error", err)
		return
	}
	frame, err := json.Marshal(domain.Envelope{Event: event, Data: raw})
	if err != nil {
		slog.Warn("marshal error", "clientId", conn.ID(), "event", event, "error", err)
		return
	}
	if err := conn.Send(frame); err != nil {
		slog.Warn("send failed", "clientId", conn.ID(), "event", event, "error", err)
	}
}
