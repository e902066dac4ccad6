package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/startvr/kiosk-services/internal/kiosksvc/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type StationStore struct {
	col *mongo.Collection
}

func NewStationStore(db *mongo.Database) *StationStore {
	return &StationStore{col: db.Collection("stations")}
}

// Upsert overwrites the station's reported status, creating the station
// document on its first report.
func (s *StationStore) Upsert(ctx context.Context, stationID, status string) error {
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC(),
		},
	}

	_, err := s.col.UpdateByID(ctx, stationID, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert station %s: %w", stationID, err)
	}

	return nil
}

func (s *StationStore) Get(ctx context.Context, stationID string) (*models.Station, error) {
	station := &models.Station{}

	err := s.col.FindOne(ctx, bson.M{"_id": stationID}).Decode(station)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // station never registered
		}
		return nil, fmt.Errorf("failed to get station %s: %w", stationID, err)
	}

	return station, nil
}
