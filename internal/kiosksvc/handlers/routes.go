package handlers

import (
	"github.com/go-chi/chi"
)

// SetRoutes wires the kiosk surface. The station routes live at the root
// because the kiosk firmware has the paths baked in.
func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Route("/station/{stationID}", func(r chi.Router) {
		r.Post("/", h.ReportStationStatus)
		r.Get("/status", h.StationStatus)
		r.Get("/player", h.StationPlayer)
		r.Post("/player", h.StationPlayer)
	})

	r.Get("/next/{stationID}", h.QueueView)
	r.Post("/next/{stationID}", h.QueueAction)
	r.Get("/reset/{stationID}", h.ResetStation)
	r.Post("/score/{stationID}", h.StationScore)

	r.Get("/players", h.ListPlayers)
	r.Post("/players", h.RegisterPlayer)
	r.Get("/scores", h.ListScores)
	r.Post("/scores", h.IngestScore)

	r.Get("/health", h.HealthHandler)
}
