package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
	dialoguesvc "github.com/zhouzirui/clinic-desk/backend/internal/service/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/frontdesk"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/session"
)

type wireMessage struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId"`
	Data      map[string]any `json:"data"`
}

func dial(t *testing.T, path string) *websocket.Conn {
	t.Helper()
	var managers []*dialoguesvc.Manager
	for _, flow := range []*dialogue.Flow{dialogue.BookingFlow(), dialogue.ReceptionFlow()} {
		m, err := dialoguesvc.NewManager(flow, session.NewMemoryStore())
		require.NoError(t, err)
		managers = append(managers, m)
	}

	r := chi.NewRouter()
	New(frontdesk.New(nil, managers...), nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func read(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	var msg wireMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestTextTurnsOverWebSocket(t *testing.T) {
	conn := dial(t, "/ws/sock-1")

	hello := read(t, conn)
	assert.Equal(t, "result", hello.Type)
	assert.Equal(t, "connected", hello.Data["type"])
	assert.Equal(t, dialogue.FlowBooking, hello.Data["flow"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "hi"}}))
	msg := read(t, conn)
	assert.Equal(t, "sock-1", msg.SessionID)
	assert.Equal(t, "reply", msg.Data["type"])
	reply, ok := msg.Data["reply"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "patient_name", reply["field"])
}

func TestConfigSwitchesFlow(t *testing.T) {
	conn := dial(t, "/ws/sock-2")
	read(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "config", "data": map[string]string{"flow": dialogue.FlowReception}}))
	cfg := read(t, conn)
	assert.Equal(t, dialogue.FlowReception, cfg.Data["flow"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "goodbye"}}))
	msg := read(t, conn)
	reply := msg.Data["reply"].(map[string]any)
	assert.Equal(t, string(dialogue.StateClosing), reply["state"])
	assert.Equal(t, true, reply["ended"])
}

func TestRejectsUnknownTypesAndForeignSessions(t *testing.T) {
	conn := dial(t, "/ws/sock-3")
	read(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "audio"}))
	assert.Equal(t, "error", read(t, conn).Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "text", "sessionId": "other", "data": map[string]string{"text": "hi"}}))
	msg := read(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "session mismatch", msg.Data["message"])
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodGet, "/ws/x", nil)
	assert.True(t, check(req))
	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))
	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker(nil)(req))
}
