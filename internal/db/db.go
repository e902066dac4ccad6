package db

import (
	"context"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ConnectToDB() (*mongo.Database, context.CancelFunc, error) {
	mongoURI := os.Getenv("MONGODB_URI")

	uri, err := url.Parse(mongoURI)
	if err != nil {
		log.Fatalf("Error parsing MongoDB URI: %v", err)
		return nil, nil, err
	}

	dbName := strings.TrimPrefix(uri.Path, "/")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Error connecting to MongoDB: %v", err)
		return nil, nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("Error pinging MongoDB: %v", err)
		return nil, nil, err
	}

	db := client.Database(dbName)

	return db, cancel, nil
}

// EnsureIndexes creates the indexes the lobby and replicator queries depend on.
func EnsureIndexes(db *mongo.Database) {
	players := db.Collection("players")

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "waiting", Value: 1},
			{Key: "updated_at", Value: -1},
		},
	}

	_, err := players.Indexes().CreateOne(context.TODO(), indexModel)
	if err != nil {
		log.Fatal(err)
	}
}
