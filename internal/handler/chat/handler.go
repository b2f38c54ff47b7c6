package chat

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/clinic-desk/backend/internal/model/dialogue"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/booking"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/frontdesk"
	"github.com/zhouzirui/clinic-desk/backend/pkg/utils"
)

// Desk 对话前台
type Desk interface {
	Turn(ctx context.Context, flow, sessionID, message string, sctx map[string]string) (frontdesk.Reply, error)
	Session(ctx context.Context, flow, sessionID string) (*dialogue.Session, error)
	Clear(ctx context.Context, flow, sessionID string) error
}

// Handler 对话轮次的HTTP处理器
type Handler struct {
	desk Desk
}

// New 创建对话处理器
func New(desk Desk) *Handler {
	return &Handler{desk: desk}
}

// RegisterRoutes 注册对话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.turn(dialogue.FlowBooking))
	r.Get("/chat/{sessionID}", h.handleGetSession(dialogue.FlowBooking))
	r.Delete("/chat/{sessionID}", h.handleClearSession(dialogue.FlowBooking))

	r.Post("/reception", h.turn(dialogue.FlowReception))
	r.Get("/reception/{sessionID}", h.handleGetSession(dialogue.FlowReception))
	r.Delete("/reception/{sessionID}", h.handleClearSession(dialogue.FlowReception))
}

type turnRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	DoctorID  string `json:"doctorId"`
}

// turn 处理一轮用户输入，空消息交给对话流程重新提问
func (h *Handler) turn(flow string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload turnRequest
		if err := utils.DecodeJSON(w, r, &payload); err != nil {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}

		reply, err := h.desk.Turn(r.Context(), flow, payload.SessionID, payload.Message, map[string]string{
			booking.ContextDoctorID: strings.TrimSpace(payload.DoctorID),
		})
		if err != nil {
			log.Printf("[chat] %s turn failed: %v", flow, err)
			utils.RespondError(w, StatusFor(err), err.Error())
			return
		}
		utils.RespondJSON(w, http.StatusOK, reply)
	}
}

func (h *Handler) handleGetSession(flow string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.desk.Session(r.Context(), flow, chi.URLParam(r, "sessionID"))
		if err != nil {
			utils.RespondError(w, StatusFor(err), err.Error())
			return
		}
		utils.RespondJSON(w, http.StatusOK, sess)
	}
}

func (h *Handler) handleClearSession(flow string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.desk.Clear(r.Context(), flow, chi.URLParam(r, "sessionID")); err != nil {
			utils.RespondError(w, StatusFor(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// StatusFor 将服务层错误映射为HTTP状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, dialogue.ErrSessionNotFound), errors.Is(err, frontdesk.ErrUnknownFlow):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrDoctorNotFound):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
