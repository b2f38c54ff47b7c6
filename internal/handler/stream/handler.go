package stream

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/booking"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/frontdesk"
	"github.com/zhouzirui/clinic-desk/backend/pkg/utils"
)

// Desk runs dialogue turns.
type Desk interface {
	Turn(ctx context.Context, flow, sessionID, message string, sctx map[string]string) (frontdesk.Reply, error)
}

// Handler answers dialogue turns over Server-Sent Events.
type Handler struct {
	desk Desk
}

// New creates a new stream handler
func New(desk Desk) *Handler {
	return &Handler{desk: desk}
}

// RegisterRoutes mounts the stream endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event     string           `json:"event"`
	Content   string           `json:"content,omitempty"`
	SessionID string           `json:"sessionId,omitempty"`
	Reply     *frontdesk.Reply `json:"reply,omitempty"`
	Finished  bool             `json:"finished,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	query := r.URL.Query()
	if !query.Has("message") {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}
	flow := query.Get("flow")
	if flow == "" {
		flow = dialogue.FlowBooking
	}

	if err := h.HandleStreamRequest(r.Context(), w, flow, sessionID, query.Get("message"), query.Get("doctorId")); err != nil {
		log.Printf("[stream] error handling request: %v", err)
	}
}

// HandleStreamRequest runs one turn and streams the reply as start, message
// and end events. Failures are reported as an error event.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, flow, sessionID, message, doctorID string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return errors.New("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	h.send(w, flusher, StreamResponse{Event: "start", SessionID: sessionID})

	reply, err := h.desk.Turn(ctx, flow, sessionID, message, map[string]string{booking.ContextDoctorID: doctorID})
	if err != nil {
		h.send(w, flusher, StreamResponse{Event: "error", SessionID: sessionID, Error: err.Error()})
		return err
	}

	h.send(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: reply.SessionID,
		Content:   reply.Prompt,
		Reply:     &reply,
	})
	h.send(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: reply.SessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed %s turn for session=%s state=%s", flow, reply.SessionID, reply.State)
	return nil
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, resp StreamResponse) {
	utils.SendSSEEvent(w, flusher, resp.Event, resp)
}
