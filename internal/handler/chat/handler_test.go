package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/model/doctor"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/booking"
	dialoguesvc "github.com/zhouzirui/clinic-desk/backend/internal/service/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/frontdesk"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/session"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, time.October, 17, 18, 45, 0, 0, time.UTC) }
	bookingSvc := booking.NewService(doctor.NewMemoryStore(doctor.Seed()), booking.NewMemoryRepository(), booking.WithClock(clock))

	var managers []*dialoguesvc.Manager
	for _, flow := range []*dialogue.Flow{dialogue.BookingFlow(), dialogue.ReceptionFlow()} {
		m, err := dialoguesvc.NewManager(flow, session.NewMemoryStore(),
			dialoguesvc.WithClock(clock), dialoguesvc.WithSlotChecker(bookingSvc))
		require.NoError(t, err)
		managers = append(managers, m)
	}

	r := chi.NewRouter()
	New(frontdesk.New(bookingSvc, managers...)).RegisterRoutes(r)
	return r
}

func post(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeReply(t *testing.T, resp *httptest.ResponseRecorder) frontdesk.Reply {
	t.Helper()
	var reply frontdesk.Reply
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &reply))
	return reply
}

func TestChatBooksWithDoctor(t *testing.T) {
	r := setupRouter(t)

	resp := post(t, r, "/chat", map[string]string{"message": "hi", "doctorId": "dr-sharma"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	first := decodeReply(t, resp)
	require.NotEmpty(t, first.SessionID)
	assert.Equal(t, dialogue.StateCollecting, first.State)
	assert.Equal(t, "patient_name", first.Field)

	var reply frontdesk.Reply
	for _, msg := range []string{"Alex Doe", "9876543210", "persistent cough", "2026-10-21", "10:00", "yes"} {
		resp = post(t, r, "/chat", map[string]string{"sessionId": first.SessionID, "message": msg})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		reply = decodeReply(t, resp)
	}
	assert.True(t, reply.IsComplete)
	require.NotNil(t, reply.Appointment)
	assert.Equal(t, "dr-sharma", reply.Appointment.DoctorID)

	req := httptest.NewRequest(http.MethodGet, "/chat/"+first.SessionID, nil)
	got := httptest.NewRecorder()
	r.ServeHTTP(got, req)
	assert.Equal(t, http.StatusNotFound, got.Code)
}

func TestBlankMessageRepromptsGreeting(t *testing.T) {
	r := setupRouter(t)

	resp := post(t, r, "/chat", map[string]string{"sessionId": "blank-1", "message": "  "})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	reply := decodeReply(t, resp)
	assert.Equal(t, dialogue.StateGreeting, reply.State)
	assert.Equal(t, dialogue.BookingFlow().Greeting, reply.Prompt)

	resp = post(t, r, "/reception", map[string]string{"sessionId": "blank-2"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, dialogue.ReceptionFlow().Greeting, decodeReply(t, resp).Prompt)
}

func TestChatRejectsBadPayloads(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(`{"message":`)))
	bad := httptest.NewRecorder()
	r.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestReceptionSessionLifecycle(t *testing.T) {
	r := setupRouter(t)

	resp := post(t, r, "/reception", map[string]string{"sessionId": "desk-1", "message": "what are your hours?"})
	require.Equal(t, http.StatusOK, resp.Code)
	reply := decodeReply(t, resp)
	assert.Equal(t, dialogue.StateInfoQuery, reply.State)
	assert.Contains(t, reply.Prompt, "Monday through Friday")

	req := httptest.NewRequest(http.MethodGet, "/reception/desk-1", nil)
	got := httptest.NewRecorder()
	r.ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)

	var sess dialogue.Session
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &sess))
	assert.Equal(t, dialogue.FlowReception, sess.Flow)
	assert.Equal(t, 1, sess.Turns)

	del := httptest.NewRecorder()
	r.ServeHTTP(del, httptest.NewRequest(http.MethodDelete, "/reception/desk-1", nil))
	assert.Equal(t, http.StatusNoContent, del.Code)

	got = httptest.NewRecorder()
	r.ServeHTTP(got, httptest.NewRequest(http.MethodGet, "/reception/desk-1", nil))
	assert.Equal(t, http.StatusNotFound, got.Code)
}

func TestUnknownDoctorIsBadRequest(t *testing.T) {
	r := setupRouter(t)

	var resp *httptest.ResponseRecorder
	for _, msg := range []string{"book an appointment", "2026-10-21", "10:00"} {
		resp = post(t, r, "/reception", map[string]string{"sessionId": "desk-2", "message": msg, "doctorId": "dr-who"})
	}
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
