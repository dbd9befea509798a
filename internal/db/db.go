package db

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CardsCollection       = "cards"
	CollectionsCollection = "collections"
)

// Mongo owns the process-wide client. It is created once in main and
// closed on shutdown.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func Connect(ctx context.Context, mongoURI, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Mongo{Client: client, DB: client.Database(dbName)}, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

// Close is for graceful shutdown
func (m *Mongo) Close(ctx context.Context) {
	if m == nil || m.Client == nil {
		return
	}
	if err := m.Client.Disconnect(ctx); err != nil {
		log.Errorf("mongo disconnect: %v", err)
	}
}

// EnsureIndexes creates the lookup and sort indexes used by the card and
// collection stores. Creating an existing index is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	cards := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := db.Collection(CardsCollection).Indexes().CreateMany(ctx, cards); err != nil {
		return fmt.Errorf("create %s indexes: %w", CardsCollection, err)
	}

	entries := []mongo.IndexModel{
		{Keys: bson.D{{Key: "card_id", Value: 1}}},
		{Keys: bson.D{{Key: "liked_at", Value: -1}}},
	}
	if _, err := db.Collection(CollectionsCollection).Indexes().CreateMany(ctx, entries); err != nil {
		return fmt.Errorf("create %s indexes: %w", CollectionsCollection, err)
	}

	return nil
}
