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

type PlayerStore struct {
	col *mongo.Collection
}

func NewPlayerStore(db *mongo.Database) *PlayerStore {
	return &PlayerStore{col: db.Collection("players")}
}

func (s *PlayerStore) GetByEmail(ctx context.Context, email string) (*models.Player, error) {
	player := &models.Player{}

	err := s.col.FindOne(ctx, bson.M{"_id": email}).Decode(player)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil // unknown player
		}
		return nil, fmt.Errorf("failed to get player %s: %w", email, err)
	}

	return player, nil
}

// UpsertProfile writes the signup fields only; the workflow flags and the
// score history survive a re-registration. Hand is recorded once at first
// registration: it comes from the controller fitting at the kiosk, and the
// signup form usually resubmits without it, so a later upsert must not
// blank it.
func (s *PlayerStore) UpsertProfile(ctx context.Context, player *models.Player) error {
	update := bson.M{
		"$set": bson.M{
			"first_name":   player.FirstName,
			"last_name":    player.LastName,
			"display_name": player.DisplayName,
			"phone":        player.Phone,
			"updated_at":   time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"hand":    player.Hand,
			"waiting": true,
			"started": false,
		},
	}

	_, err := s.col.UpdateByID(ctx, player.Email, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", player.Email, err)
	}

	return nil
}

// SetFlags moves the player between lobby and slot. Unknown emails are
// upserted so a kiosk can queue a player registered on another node before
// replication caught up.
func (s *PlayerStore) SetFlags(ctx context.Context, email string, waiting, started bool) error {
	update := bson.M{
		"$set": bson.M{
			"waiting":    waiting,
			"started":    started,
			"updated_at": time.Now().UTC(),
		},
	}

	_, err := s.col.UpdateByID(ctx, email, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set flags for player %s: %w", email, err)
	}

	return nil
}

func (s *PlayerStore) AppendScore(ctx context.Context, email string, score int) error {
	update := bson.M{
		"$push": bson.M{"scores": score},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	_, err := s.col.UpdateByID(ctx, email, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to append score for player %s: %w", email, err)
	}

	return nil
}

// ListWaiting returns lobby players whose last activity falls inside
// [from, to), newest first.
func (s *PlayerStore) ListWaiting(ctx context.Context, from, to time.Time) ([]*models.Player, error) {
	filter := bson.M{
		"waiting":    true,
		"updated_at": bson.M{"$gte": from, "$lt": to},
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting players: %w", err)
	}

	var players []*models.Player
	if err := cursor.All(ctx, &players); err != nil {
		return nil, fmt.Errorf("failed to decode waiting players: %w", err)
	}

	return players, nil
}

func (s *PlayerStore) List(ctx context.Context) ([]*models.Player, error) {
	cursor, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	var players []*models.Player
	if err := cursor.All(ctx, &players); err != nil {
		return nil, fmt.Errorf("failed to decode players: %w", err)
	}

	return players, nil
}
