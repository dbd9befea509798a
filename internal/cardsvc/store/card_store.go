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

type CardStore struct {
	coll *mongo.Collection
}

func NewCardStore(database *mongo.Database) *CardStore {
	return &CardStore{coll: database.Collection(db.CardsCollection)}
}

func (s *CardStore) Insert(ctx context.Context, card models.Card) error {
	if _, err := s.coll.InsertOne(ctx, toCardDocument(card)); err != nil {
		return fmt.Errorf("insert card %s: %w", card.ID, err)
	}
	return nil
}

// ListRecent returns up to limit cards, newest first. A non-positive limit
// yields no cards; mongo would read a zero limit as unlimited.
func (s *CardStore) ListRecent(ctx context.Context, limit int) ([]models.Card, error) {
	if limit <= 0 {
		return []models.Card{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find recent cards: %w", err)
	}

	return decodeCards(ctx, cursor)
}

// SetLiked updates the like flag. It reports whether a card matched; an
// unknown id is not an error.
func (s *CardStore) SetLiked(ctx context.Context, cardID string, liked bool) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "id", Value: cardID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "is_liked", Value: liked}}}},
	)
	if err != nil {
		return false, fmt.Errorf("set liked on card %s: %w", cardID, err)
	}
	return res.MatchedCount > 0, nil
}

// FindByIDsLiked returns the liked cards among ids, in storage order.
func (s *CardStore) FindByIDsLiked(ctx context.Context, ids []string) ([]models.Card, error) {
	if len(ids) == 0 {
		return []models.Card{}, nil
	}

	filter := bson.D{
		{Key: "id", Value: bson.D{{Key: "$in", Value: ids}}},
		{Key: "is_liked", Value: true},
	}

	cursor, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find liked cards: %w", err)
	}

	return decodeCards(ctx, cursor)
}

func decodeCards(ctx context.Context, cursor *mongo.Cursor) ([]models.Card, error) {
	var docs []cardDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode cards: %w", err)
	}

	cards := make([]models.Card, 0, len(docs))
	for _, d := range docs {
		c, err := d.toModel()
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}
