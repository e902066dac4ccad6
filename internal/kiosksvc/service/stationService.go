package service

import (
	"context"

	"github.com/startvr/kiosk-services/internal/kiosksvc/models"
)

type StationStore interface {
	Upsert(ctx context.Context, stationID, status string) error
	Get(ctx context.Context, stationID string) (*models.Station, error)
}

type StationService struct {
	stations StationStore
}

func NewStationService(stations StationStore) *StationService {
	return &StationService{stations: stations}
}

// ReportStatus records whatever state the kiosk firmware reports. It always
// succeeds for a well-formed report; there is no state machine behind it.
func (s *StationService) ReportStatus(ctx context.Context, stationID, status string) error {
	return s.stations.Upsert(ctx, stationID, status)
}

// GetStatus returns nil when the station never reported, so callers can
// distinguish an unknown station from an empty slot.
func (s *StationService) GetStatus(ctx context.Context, stationID string) (*models.Station, error) {
	return s.stations.Get(ctx, stationID)
}
