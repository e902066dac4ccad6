package store

import (
	"context"
	"fmt"

	"github.com/startvr/kiosk-services/internal/kiosksvc/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ScoreStore struct {
	col *mongo.Collection
}

func NewScoreStore(db *mongo.Database) *ScoreStore {
	return &ScoreStore{col: db.Collection("scores")}
}

func (s *ScoreStore) Insert(ctx context.Context, score *models.Score) error {
	_, err := s.col.InsertOne(ctx, score)
	if err != nil {
		return fmt.Errorf("failed to insert score for %s: %w", score.Email, err)
	}

	return nil
}

func (s *ScoreStore) List(ctx context.Context) ([]*models.Score, error) {
	cursor, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}

	var scores []*models.Score
	if err := cursor.All(ctx, &scores); err != nil {
		return nil, fmt.Errorf("failed to decode scores: %w", err)
	}

	return scores, nil
}
