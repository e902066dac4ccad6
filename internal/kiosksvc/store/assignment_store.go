package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/startvr/kiosk-services/internal/kiosksvc/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AssignmentStore struct {
	col *mongo.Collection
}

func NewAssignmentStore(db *mongo.Database) *AssignmentStore {
	return &AssignmentStore{col: db.Collection("assignments")}
}

func (s *AssignmentStore) Get(ctx context.Context, stationID string) (*models.Assignment, error) {
	assignment := &models.Assignment{}

	err := s.col.FindOne(ctx, bson.M{"_id": stationID}).Decode(assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // empty slot
		}
		return nil, fmt.Errorf("failed to get assignment for station %s: %w", stationID, err)
	}

	return assignment, nil
}

func (s *AssignmentStore) Put(ctx context.Context, assignment *models.Assignment) error {
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"_id": assignment.StationID},
		assignment,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to put assignment for station %s: %w", assignment.StationID, err)
	}

	return nil
}

func (s *AssignmentStore) SetReady(ctx context.Context, stationID string) error {
	_, err := s.col.UpdateByID(ctx, stationID, bson.M{"$set": bson.M{"is_ready": true}})
	if err != nil {
		return fmt.Errorf("failed to mark assignment ready for station %s: %w", stationID, err)
	}

	return nil
}

func (s *AssignmentStore) Delete(ctx context.Context, stationID string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": stationID})
	if err != nil {
		return fmt.Errorf("failed to delete assignment for station %s: %w", stationID, err)
	}

	return nil
}
