package service

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/pixelcard-services/internal/cardsvc/imagegen"
	"github.com/avvvet/pixelcard-services/internal/cardsvc/metrics"
	"github.com/avvvet/pixelcard-services/internal/cardsvc/models"
	"github.com/avvvet/pixelcard-services/internal/cardsvc/prompts"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultListLimit   = 20
	DefaultPregenCount = 5

	// DefaultMaxPregenCount bounds a single batch request.
	DefaultMaxPregenCount = 25
)

type CardRepository interface {
	Insert(ctx context.Context, card models.Card) error
	ListRecent(ctx context.Context, limit int) ([]models.Card, error)
	SetLiked(ctx context.Context, cardID string, liked bool) (bool, error)
	FindByIDsLiked(ctx context.Context, ids []string) ([]models.Card, error)
}

type CollectionRepository interface {
	AddLike(ctx context.Context, cardID string) (models.CollectionEntry, error)
	RemoveLikes(ctx context.Context, cardID string) (int64, error)
	ListLikedCardIDs(ctx context.Context) ([]string, error)
}

type EventPublisher interface {
	PublishCardGenerated(cardID, prompt string)
	PublishLikeChanged(cardID string, liked bool)
}

type CardService struct {
	cards       CardRepository
	collection  CollectionRepository
	generator   imagegen.Generator
	events      EventPublisher
	concurrency int
	maxBatch    int
}

// NewCardService wires the stores and the image generator. concurrency
// bounds batch generation; 1 keeps it strictly sequential. maxBatch caps
// the number of cards one batch call may create.
func NewCardService(cards CardRepository, collection CollectionRepository,
	generator imagegen.Generator, events EventPublisher, concurrency, maxBatch int) *CardService {
	if concurrency < 1 {
		concurrency = 1
	}
	if maxBatch < 1 {
		maxBatch = DefaultMaxPregenCount
	}
	return &CardService{
		cards:       cards,
		collection:  collection,
		generator:   generator,
		events:      events,
		concurrency: concurrency,
		maxBatch:    maxBatch,
	}
}

// GenerateCard creates and stores one card from a random catalog prompt.
func (s *CardService) GenerateCard(ctx context.Context) (models.Card, error) {
	return s.createCard(ctx, prompts.Random(), "single")
}

func (s *CardService) createCard(ctx context.Context, prompt, source string) (models.Card, error) {
	start := time.Now()
	img, err := s.generator.Generate(ctx, prompt)
	metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	if err == nil && len(img) == 0 {
		err = imagegen.ErrNoImage
	}
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(source).Inc()
		return models.Card{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	card := models.NewCard(img, prompt)
	if err := s.cards.Insert(ctx, card); err != nil {
		return models.Card{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	metrics.CardsGenerated.WithLabelValues(source).Inc()
	if s.events != nil {
		s.events.PublishCardGenerated(card.ID, card.Prompt)
	}

	return card, nil
}

// ListCards returns at most limit cards, newest first.
func (s *CardService) ListCards(ctx context.Context, limit int) ([]models.Card, error) {
	cards, err := s.cards.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	return cards, nil
}

// SetLiked moves a card between the liked and unliked states. The flag is
// written first, then the collection entries; the two writes are not atomic
// and a failure in between is not compensated. An unknown card id is not
// an error.
func (s *CardService) SetLiked(ctx context.Context, cardID string, liked bool) error {
	matched, err := s.cards.SetLiked(ctx, cardID, liked)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	if !matched {
		log.Debugf("like-card: no card with id %s", cardID)
	}

	if liked {
		if _, err := s.collection.AddLike(ctx, cardID); err != nil {
			return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		metrics.LikeToggles.WithLabelValues("like").Inc()
	} else {
		if _, err := s.collection.RemoveLikes(ctx, cardID); err != nil {
			return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
		}
		metrics.LikeToggles.WithLabelValues("unlike").Inc()
	}

	if s.events != nil {
		s.events.PublishLikeChanged(cardID, liked)
	}

	return nil
}

// Collection returns cards that are flagged liked and referenced by at
// least one collection entry, most recently liked first, each card once.
func (s *CardService) Collection(ctx context.Context) ([]models.Card, error) {
	ids, err := s.collection.ListLikedCardIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	ids = uniqueOrdered(ids)
	if len(ids) == 0 {
		return []models.Card{}, nil
	}

	cards, err := s.cards.FindByIDsLiked(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	byID := make(map[string]models.Card, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	out := make([]models.Card, 0, len(cards))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// PreGenerate creates up to count cards cycling through the prompt catalog
// from its first entry. count is clamped to the batch limit. A failed item is
// logged and skipped. The returned ids follow catalog order.
func (s *CardService) PreGenerate(ctx context.Context, count int) []string {
	if count <= 0 {
		return []string{}
	}
	if count > s.maxBatch {
		log.Warnf("pre-generate count %d clamped to %d", count, s.maxBatch)
		count = s.maxBatch
	}

	results := make([]string, count)

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i := range count {
		g.Go(func() error {
			card, err := s.createCard(ctx, prompts.At(i), "batch")
			if err != nil {
				log.Warnf("pre-generate item %d skipped: %v", i, err)
				return nil
			}
			results[i] = card.ID
			return nil
		})
	}
	_ = g.Wait()

	ids := make([]string, 0, count)
	for _, id := range results {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func uniqueOrdered(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
