package store

import (
	"context"
	"fmt"

	"github.com/avvvet/pixelcard-services/internal/cardsvc/models"
	"github.com/avvvet/pixelcard-services/internal/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionStore keeps one entry per like event. Repeated likes without an
// unlike in between produce repeated entries.
type CollectionStore struct {
	coll *mongo.Collection
}

func NewCollectionStore(database *mongo.Database) *CollectionStore {
	return &CollectionStore{coll: database.Collection(db.CollectionsCollection)}
}

func (s *CollectionStore) AddLike(ctx context.Context, cardID string) (models.CollectionEntry, error) {
	entry := models.NewCollectionEntry(cardID)
	if _, err := s.coll.InsertOne(ctx, toEntryDocument(entry)); err != nil {
		return models.CollectionEntry{}, fmt.Errorf("add like for card %s: %w", cardID, err)
	}
	return entry, nil
}

// RemoveLikes deletes every entry for cardID and returns how many were removed.
func (s *CollectionStore) RemoveLikes(ctx context.Context, cardID string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: "card_id", Value: cardID}})
	if err != nil {
		return 0, fmt.Errorf("remove likes for card %s: %w", cardID, err)
	}
	return res.DeletedCount, nil
}

// ListLikedCardIDs returns the card id of every entry, most recent like first.
func (s *CollectionStore) ListLikedCardIDs(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "liked_at", Value: -1}}).
		SetProjection(bson.D{{Key: "card_id", Value: 1}, {Key: "liked_at", Value: 1}})

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find collection entries: %w", err)
	}

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode collection entries: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.CardID)
	}
	return ids, nil
}
