package routes

import (
	"github.com/go-chi/chi"

	"github.com/startvr/kiosk-services/internal/socketsvc/handlers"
	"github.com/startvr/kiosk-services/internal/socketsvc/ws"
)

func SetRoutes(r *chi.Mux, ws *ws.Ws) {
	h := handlers.NewHandler(ws)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/ws", h.HandleWebSocket)
		r.Get("/health", h.HealthHandler)
	})
}
