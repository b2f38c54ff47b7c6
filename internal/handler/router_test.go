package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/model/doctor"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/booking"
	dialoguesvc "github.com/zhouzirui/clinic-desk/backend/internal/service/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/frontdesk"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/session"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	bookingSvc := booking.NewService(doctor.NewMemoryStore(doctor.Seed()), booking.NewMemoryRepository())
	m, err := dialoguesvc.NewManager(dialogue.BookingFlow(), session.NewMemoryStore(), dialoguesvc.WithSlotChecker(bookingSvc))
	require.NoError(t, err)
	return NewRouter(frontdesk.New(bookingSvc, m), bookingSvc, []string{"http://localhost:5173"})
}

func TestHealthAndRoutesMounted(t *testing.T) {
	r := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	assert.JSONEq(t, `{"status":"ok","flows":["booking"]}`, resp.Body.String())

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/doctors", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, "http://localhost:5173", resp.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}
