package doctor

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/clinic-desk/backend/internal/model/doctor"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/booking"
	"github.com/zhouzirui/clinic-desk/backend/pkg/utils"
)

// Booking 预约服务
type Booking interface {
	Doctors() []doctor.Doctor
	Doctor(id string) (doctor.Doctor, error)
	AvailableSlots(ctx context.Context, doctorID, date string) (booking.Availability, error)
	List(ctx context.Context, doctorID, date string) ([]booking.Appointment, error)
	Book(ctx context.Context, req booking.Request) (booking.Appointment, error)
}

// Handler 医生与预约的HTTP处理器
type Handler struct {
	booking Booking
}

// New 创建医生处理器
func New(b Booking) *Handler {
	return &Handler{booking: b}
}

// RegisterRoutes 注册医生相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/doctors", h.handleListDoctors)
	r.Route("/doctors/{doctorID}", func(r chi.Router) {
		r.Get("/", h.handleGetDoctor)
		r.Get("/slots", h.handleSlots)
		r.Get("/appointments", h.handleAppointments)
	})
	r.Post("/appointments", h.handleBook)
}

// handleListDoctors 列出所有医生
func (h *Handler) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.booking.Doctors())
}

func (h *Handler) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	doc, err := h.booking.Doctor(chi.URLParam(r, "doctorID"))
	if err != nil {
		respondBookingError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, doc)
}

// handleSlots 查询某天的可用时段
func (h *Handler) handleSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		utils.RespondError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}

	slots, err := h.booking.AvailableSlots(r.Context(), chi.URLParam(r, "doctorID"), date)
	if err != nil {
		respondBookingError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, slots)
}

func (h *Handler) handleAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := h.booking.List(r.Context(), chi.URLParam(r, "doctorID"), r.URL.Query().Get("date"))
	if err != nil {
		respondBookingError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, appts)
}

// handleBook 直接预约, 不经过对话
func (h *Handler) handleBook(w http.ResponseWriter, r *http.Request) {
	var req booking.Request
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	appt, err := h.booking.Book(r.Context(), req)
	if err != nil {
		respondBookingError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, appt)
}

func respondBookingError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, booking.ErrDoctorNotFound):
		status = http.StatusNotFound
	case errors.Is(err, booking.ErrSlotTaken):
		status = http.StatusConflict
	case errors.Is(err, booking.ErrOutsideHours), errors.Is(err, booking.ErrInvalidRequest):
		status = http.StatusBadRequest
	}
	utils.RespondError(w, status, err.Error())
}
