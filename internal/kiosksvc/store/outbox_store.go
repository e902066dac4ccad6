package store

import (
	"context"
	"fmt"
	"time"

	"github.com/startvr/kiosk-services/internal/kiosksvc/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OutboxStore is the durable queue of captured requests in the sync
// collection. The request path only ever appends; the replicator is the
// only deleter.
type OutboxStore struct {
	col *mongo.Collection
}

func NewOutboxStore(db *mongo.Database) *OutboxStore {
	return &OutboxStore{col: db.Collection("sync")}
}

func (s *OutboxStore) Insert(ctx context.Context, url, method string, data map[string]string) error {
	entry := &models.OutboxEntry{
		ID:     primitive.NewObjectID(),
		URL:    url,
		Method: method,
		Data:   data,
	}

	_, err := s.col.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to insert outbox entry for %s %s: %w", method, url, err)
	}

	return nil
}

// Due returns entries whose embedded creation time lies before the cutoff,
// in creation order. Entries stamped in the future stay invisible until
// their time comes.
func (s *OutboxStore) Due(ctx context.Context, before time.Time) ([]*models.OutboxEntry, error) {
	cutoff := primitive.NewObjectIDFromTimestamp(before)

	filter := bson.M{"_id": bson.M{"$lt": cutoff}}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due outbox entries: %w", err)
	}

	var entries []*models.OutboxEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode outbox entries: %w", err)
	}

	return entries, nil
}

func (s *OutboxStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete outbox entry %s: %w", id.Hex(), err)
	}

	return nil
}
