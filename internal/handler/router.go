package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/zhouzirui/clinic-desk/backend/internal/handler/chat"
	"github.com/zhouzirui/clinic-desk/backend/internal/handler/doctor"
	"github.com/zhouzirui/clinic-desk/backend/internal/handler/stream"
	"github.com/zhouzirui/clinic-desk/backend/internal/handler/ws"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/booking"
	"github.com/zhouzirui/clinic-desk/backend/internal/service/frontdesk"
	"github.com/zhouzirui/clinic-desk/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(desk *frontdesk.Desk, bookingSvc *booking.Service, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"flows":  desk.Flows(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		chat.New(desk).RegisterRoutes(api)
		doctor.New(bookingSvc).RegisterRoutes(api)
		stream.New(desk).RegisterRoutes(api)
		ws.New(desk, allowedOrigins).RegisterRoutes(api)
	})

	return r
}
