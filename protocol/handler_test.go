package protocol

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shyam-duba/ChessApp/coordinator"
	"github.com/Shyam-duba/ChessApp/domain"
)

type mockConn struct {
	id   string
	mu   sync.Mutex
	sent [][]byte
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, data)
	return nil
}

func (m *mockConn) Close() error { return nil }

func (m *mockConn) envelopes(t *testing.T) []domain.Envelope {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Envelope, 0, len(m.sent))
	for _, frame := range m.sent {
		var env domain.Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		out = append(out, env)
	}
	return out
}

func (m *mockConn) last(t *testing.T, event string) (json.RawMessage, bool) {
	t.Helper()
	envs := m.envelopes(t)
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Event == event {
			return envs[i].Data, true
		}
	}
	return nil, false
}

type call struct {
	op   string
	args []string
}

type mockCoordinator struct {
	calls   []call
	fail    error
	roomID  string
	payload json.RawMessage
}

func (m *mockCoordinator) record(op string, args ...string) {
	m.calls = append(m.calls, call{op: op, args: args})
}

func (m *mockCoordinator) Identify(connID, name string) error {
	m.record("identify", connID, name)
	return m.fail
}

func (m *mockCoordinator) Enqueue(connID string) error {
	m.record("enqueue", connID)
	return m.fail
}

func (m *mockCoordinator) Cancel(connID string) {
	m.record("cancel", connID)
}

func (m *mockCoordinator) CreateRoom(connID string) (string, error) {
	m.record("create", connID)
	return m.roomID, m.fail
}

func (m *mockCoordinator) JoinRoom(roomID, connID string) ([]string, domain.Side, error) {
	m.record("join", roomID, connID)
	if m.fail != nil {
		return nil, "", m.fail
	}
	return []string{"alice", "bob"}, domain.SideBlack, nil
}

func (m *mockCoordinator) RelayMove(roomID, connID string, payload json.RawMessage) error {
	m.record("move", roomID, connID)
	m.payload = payload
	return m.fail
}

func (m *mockCoordinator) Leave(connID string) error {
	m.record("leave", connID)
	return m.fail
}

func (m *mockCoordinator) CloseRoom(roomID, connID string) error {
	m.record("close", roomID, connID)
	return m.fail
}

func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	out, err := json.Marshal(domain.Envelope{Event: event, Data: raw})
	require.NoError(t, err)
	return out
}

func TestHandlerDispatch(t *testing.T) {
	tests := []struct {
		name      string
		frame     func(*testing.T) []byte
		wantCalls []call
	}{
		{
			name: "identify",
			frame: func(t *testing.T) []byte {
				return frame(t, domain.EventIdentify, map[string]string{"name": "alice"})
			},
			wantCalls: []call{{op: "identify", args: []string{"c1", "alice"}}},
		},
		{
			name: "cancelMatch",
			frame: func(t *testing.T) []byte {
				return frame(t, domain.EventCancelMatch, nil)
			},
			wantCalls: []call{{op: "cancel", args: []string{"c1"}}},
		},
		{
			name: "joinRoom",
			frame: func(t *testing.T) []byte {
				return frame(t, domain.EventJoinRoom, map[string]string{"roomId": "r1"})
			},
			wantCalls: []call{{op: "join", args: []string{"r1", "c1"}}},
		},
		{
			name: "leaveRoom",
			frame: func(t *testing.T) []byte {
				return frame(t, domain.EventLeaveRoom, nil)
			},
			wantCalls: []call{{op: "leave", args: []string{"c1"}}},
		},
		{
			name: "closeRoom",
			frame: func(t *testing.T) []byte {
				return frame(t, domain.EventCloseRoom, map[string]string{"roomId": "r1"})
			},
			wantCalls: []call{{op: "close", args: []string{"r1", "c1"}}},
		},
		{
			name: "unknown event is ignored",
			frame: func(t *testing.T) []byte {
				return frame(t, "spectate", nil)
			},
			wantCalls: nil,
		},
		{
			name: "invalid json is ignored",
			frame: func(t *testing.T) []byte {
				return []byte("not json")
			},
			wantCalls: nil,
		},
		{
			name: "identify with empty name never reaches the registry",
			frame: func(t *testing.T) []byte {
				return frame(t, domain.EventIdentify, map[string]string{"name": ""})
			},
			wantCalls: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord := &mockCoordinator{}
			handler := NewHandler(coord, NewEncoder())
			conn := &mockConn{id: "c1"}

			handler.Handle(conn, tt.frame(t))

			assert.Equal(t, tt.wantCalls, coord.calls)
		})
	}
}

func TestFindMatchResponses(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		coord := &mockCoordinator{}
		handler := NewHandler(coord, NewEncoder())
		conn := &mockConn{id: "c1"}

		handler.Handle(conn, frame(t, domain.EventFindMatch, nil))

		data, ok := conn.last(t, domain.EventQueueStatus)
		require.True(t, ok)
		var status domain.QueueStatus
		require.NoError(t, json.Unmarshal(data, &status))
		assert.True(t, status.OK)
		assert.True(t, status.Waiting)
	})

	t.Run("rejected", func(t *testing.T) {
		coord := &mockCoordinator{fail: domain.ErrNotIdentified}
		handler := NewHandler(coord, NewEncoder())
		conn := &mockConn{id: "c1"}

		handler.Handle(conn, frame(t, domain.EventFindMatch, nil))

		data, ok := conn.last(t, domain.EventQueueStatus)
		require.True(t, ok)
		var status domain.QueueStatus
		require.NoError(t, json.Unmarshal(data, &status))
		assert.False(t, status.OK)
		assert.Equal(t, "notIdentified", status.Reason)
	})
}

func TestCreateRoomResponse(t *testing.T) {
	coord := &mockCoordinator{roomID: "r1"}
	handler := NewHandler(coord, NewEncoder())
	conn := &mockConn{id: "c1"}

	handler.Handle(conn, frame(t, domain.EventCreateRoom, nil))

	data, ok := conn.last(t, domain.EventRoomCreated)
	require.True(t, ok)
	var created domain.RoomCreated
	require.NoError(t, json.Unmarshal(data, &created))
	assert.True(t, created.OK)
	assert.Equal(t, "r1", created.RoomID)
	assert.Equal(t, domain.SideWhite, created.Side)
}

func TestJoinRoomFailureResponse(t *testing.T) {
	coord := &mockCoordinator{fail: domain.ErrRoomFull}
	handler := NewHandler(coord, NewEncoder())
	conn := &mockConn{id: "c1"}

	handler.Handle(conn, frame(t, domain.EventJoinRoom, map[string]string{"roomId": "r1"}))

	data, ok := conn.last(t, domain.EventRoomJoined)
	require.True(t, ok)
	var joined domain.RoomJoined
	require.NoError(t, json.Unmarshal(data, &joined))
	assert.False(t, joined.OK)
	assert.Equal(t, "roomFull", joined.Reason)
}

func TestMovePayloadPassesThroughVerbatim(t *testing.T) {
	coord := &mockCoordinator{}
	handler := NewHandler(coord, NewEncoder())
	conn := &mockConn{id: "c1"}

	payload := `{"from":"g1","to":"f3","promotion":null}`
	handler.Handle(conn, frame(t, domain.EventMove, map[string]any{
		"roomId":  "r1",
		"payload": json.RawMessage(payload),
	}))

	require.Equal(t, []call{{op: "move", args: []string{"r1", "c1"}}}, coord.calls)
	assert.JSONEq(t, payload, string(coord.payload))
}

// End-to-end through the real coordinator and encoder: two anonymous clients
// identify, queue and exchange a move over decoded wire frames.
func TestRouterEndToEnd(t *testing.T) {
	encoder := NewEncoder()
	coord := coordinator.New(encoder)
	handler := NewHandler(coord, encoder)

	connX := &mockConn{id: "x"}
	connY := &mockConn{id: "y"}
	coord.Register(connX, "")
	coord.Register(connY, "")

	handler.Handle(connX, frame(t, domain.EventIdentify, map[string]string{"name": "alice"}))
	handler.Handle(connY, frame(t, domain.EventIdentify, map[string]string{"name": "bob"}))
	handler.Handle(connX, frame(t, domain.EventFindMatch, nil))
	handler.Handle(connY, frame(t, domain.EventFindMatch, nil))

	dataX, ok := connX.last(t, domain.EventMatched)
	require.True(t, ok)
	dataY, ok := connY.last(t, domain.EventMatched)
	require.True(t, ok)

	var matchedX, matchedY domain.Matched
	require.NoError(t, json.Unmarshal(dataX, &matchedX))
	require.NoError(t, json.Unmarshal(dataY, &matchedY))
	assert.Equal(t, "bob", matchedX.Opponent)
	assert.Equal(t, "alice", matchedY.Opponent)
	require.Equal(t, matchedX.RoomID, matchedY.RoomID)

	move := `{"from":"e2","to":"e4"}`
	handler.Handle(connX, []byte(fmt.Sprintf(
		`{"event":"move","data":{"roomId":%q,"payload":%s}}`, matchedX.RoomID, move)))

	data, ok := connY.last(t, domain.EventMove)
	require.True(t, ok)
	var relayed domain.Move
	require.NoError(t, json.Unmarshal(data, &relayed))
	assert.JSONEq(t, move, string(relayed.Payload))

	_, echoed := connX.last(t, domain.EventMove)
	assert.False(t, echoed)
}
