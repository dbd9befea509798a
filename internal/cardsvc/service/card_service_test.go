package service

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/avvvet/pixelcard-services/internal/cardsvc/imagegen"
	"github.com/avvvet/pixelcard-services/internal/cardsvc/models"
	"github.com/avvvet/pixelcard-services/internal/cardsvc/prompts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	cards  *memCards
	coll   *memCollection
	gen    *fakeGenerator
	events *fakeEvents
	svc    *CardService
}

func newFixture(concurrency int) *fixture {
	f := &fixture{
		cards:  &memCards{},
		coll:   &memCollection{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		gen:    &fakeGenerator{failFor: map[string]bool{}},
		events: &fakeEvents{},
	}
	f.svc = NewCardService(f.cards, f.coll, f.gen, f.events, concurrency, 100)
	return f
}

func TestGenerateCard(t *testing.T) {
	f := newFixture(1)

	card, err := f.svc.GenerateCard(context.Background())
	require.NoError(t, err)

	assert.Len(t, card.ID, 36)
	assert.True(t, prompts.Contains(card.Prompt))
	assert.False(t, card.IsLiked)

	img, err := base64.StdEncoding.DecodeString(card.ImageBase64)
	require.NoError(t, err)
	assert.Equal(t, "png:"+card.Prompt, string(img))

	stored, ok := f.cards.get(card.ID)
	require.True(t, ok)
	assert.Equal(t, card, stored)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, "generated", f.events.events[0].kind)
}

func TestGenerateCardFailures(t *testing.T) {
	t.Run("generator error", func(t *testing.T) {
		f := newFixture(1)
		f.gen.err = assert.AnError

		_, err := f.svc.GenerateCard(context.Background())
		assert.ErrorIs(t, err, ErrGenerationFailed)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, f.cards.cards)
	})

	t.Run("no image", func(t *testing.T) {
		f := newFixture(1)
		f.gen.empty = true

		_, err := f.svc.GenerateCard(context.Background())
		assert.ErrorIs(t, err, ErrGenerationFailed)
		assert.ErrorIs(t, err, imagegen.ErrNoImage)
	})

	t.Run("storage error", func(t *testing.T) {
		f := newFixture(1)
		f.cards.insertErr = errStore

		_, err := f.svc.GenerateCard(context.Background())
		assert.ErrorIs(t, err, ErrStorageUnavailable)
		assert.Empty(t, f.events.events)
	})
}

func TestListCards(t *testing.T) {
	f := newFixture(1)

	cards, err := f.svc.ListCards(context.Background(), DefaultListLimit)
	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		c := models.NewCard([]byte{byte(i)}, prompts.At(i))
		c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, f.cards.Insert(context.Background(), c))
	}

	for _, limit := range []int{0, 1, 3, 5, 20} {
		cards, err := f.svc.ListCards(context.Background(), limit)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(cards), limit)
		for i := 1; i < len(cards); i++ {
			assert.False(t, cards[i].CreatedAt.After(cards[i-1].CreatedAt))
		}
	}

	f.cards.listErr = errStore
	_, err = f.svc.ListCards(context.Background(), 5)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestLikeThenUnlike(t *testing.T) {
	f := newFixture(1)
	ctx := context.Background()

	card, err := f.svc.GenerateCard(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.SetLiked(ctx, card.ID, true))
	stored, _ := f.cards.get(card.ID)
	assert.True(t, stored.IsLiked)

	collection, err := f.svc.Collection(ctx)
	require.NoError(t, err)
	require.Len(t, collection, 1)
	assert.Equal(t, card.ID, collection[0].ID)

	require.NoError(t, f.svc.SetLiked(ctx, card.ID, false))
	stored, _ = f.cards.get(card.ID)
	assert.False(t, stored.IsLiked)

	ids, err := f.coll.ListLikedCardIDs(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, card.ID)

	collection, err = f.svc.Collection(ctx)
	require.NoError(t, err)
	assert.Empty(t, collection)
}

func TestRepeatedLikesThenUnlikeRemovesAllEntries(t *testing.T) {
	f := newFixture(1)
	ctx := context.Background()

	card, err := f.svc.GenerateCard(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.SetLiked(ctx, card.ID, true))
	require.NoError(t, f.svc.SetLiked(ctx, card.ID, true))
	assert.Len(t, f.coll.entries, 2)

	collection, err := f.svc.Collection(ctx)
	require.NoError(t, err)
	assert.Len(t, collection, 1, "duplicate entries must not duplicate cards")

	require.NoError(t, f.svc.SetLiked(ctx, card.ID, false))
	assert.Empty(t, f.coll.entries)
}

func TestLikeUnknownCardIsSilent(t *testing.T) {
	f := newFixture(1)

	err := f.svc.SetLiked(context.Background(), "does-not-exist", true)
	require.NoError(t, err)

	// the entry exists but the card is not flagged, so it is not collected
	collection, err := f.svc.Collection(context.Background())
	require.NoError(t, err)
	assert.Empty(t, collection)
}

func TestSetLikedStorageErrors(t *testing.T) {
	f := newFixture(1)
	f.cards.likeErr = errStore
	assert.ErrorIs(t, f.svc.SetLiked(context.Background(), "x", true), ErrStorageUnavailable)

	f = newFixture(1)
	card, err := f.svc.GenerateCard(context.Background())
	require.NoError(t, err)
	f.coll.addErr = errStore

	err = f.svc.SetLiked(context.Background(), card.ID, true)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	// flag was written before the entry insert failed
	stored, _ := f.cards.get(card.ID)
	assert.True(t, stored.IsLiked)
}

func TestCollectionOrderedByLikeTime(t *testing.T) {
	f := newFixture(1)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		c, err := f.svc.GenerateCard(ctx)
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	require.NoError(t, f.svc.SetLiked(ctx, ids[0], true))
	require.NoError(t, f.svc.SetLiked(ctx, ids[2], true))
	require.NoError(t, f.svc.SetLiked(ctx, ids[1], true))

	collection, err := f.svc.Collection(ctx)
	require.NoError(t, err)
	require.Len(t, collection, 3)
	assert.Equal(t, []string{ids[1], ids[2], ids[0]},
		[]string{collection[0].ID, collection[1].ID, collection[2].ID})
}

func TestCollectionEmptySkipsCardLookup(t *testing.T) {
	f := newFixture(1)

	collection, err := f.svc.Collection(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, collection)
	assert.Empty(t, collection)
	assert.Zero(t, f.cards.findCalls)
}

func TestPreGenerate(t *testing.T) {
	f := newFixture(1)

	ids := f.svc.PreGenerate(context.Background(), 3)
	require.Len(t, ids, 3)

	assert.Equal(t, []string{prompts.At(0), prompts.At(1), prompts.At(2)}, f.gen.calls)
	for i, id := range ids {
		c, ok := f.cards.get(id)
		require.True(t, ok)
		assert.Equal(t, prompts.At(i), c.Prompt)
	}
}

func TestPreGenerateCyclesCatalog(t *testing.T) {
	f := newFixture(1)

	count := prompts.Len() + 2
	ids := f.svc.PreGenerate(context.Background(), count)
	require.Len(t, ids, count)
	assert.Equal(t, prompts.At(0), f.gen.calls[prompts.Len()])
	assert.Equal(t, prompts.At(1), f.gen.calls[prompts.Len()+1])
}

func TestPreGenerateSkipsFailures(t *testing.T) {
	f := newFixture(1)
	f.gen.failFor[prompts.At(1)] = true

	ids := f.svc.PreGenerate(context.Background(), 4)
	assert.Len(t, ids, 3)
	assert.Len(t, f.gen.calls, 4, "a failed item must not abort the batch")
}

func TestPreGenerateTotalFailure(t *testing.T) {
	f := newFixture(1)
	f.gen.err = assert.AnError

	ids := f.svc.PreGenerate(context.Background(), 5)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestPreGenerateStorageFailureSkipped(t *testing.T) {
	f := newFixture(1)
	f.cards.insertErr = errStore

	ids := f.svc.PreGenerate(context.Background(), 2)
	assert.Empty(t, ids)
}

func TestPreGenerateNonPositiveCount(t *testing.T) {
	f := newFixture(1)
	assert.Empty(t, f.svc.PreGenerate(context.Background(), 0))
	assert.Empty(t, f.svc.PreGenerate(context.Background(), -3))
	assert.Empty(t, f.gen.calls)
}

func TestPreGenerateSequentialByDefault(t *testing.T) {
	f := newFixture(1)
	f.gen.delay = 5 * time.Millisecond

	f.svc.PreGenerate(context.Background(), 4)
	assert.Equal(t, 1, f.gen.maxInFlight)
}

func TestPreGenerateBoundedConcurrency(t *testing.T) {
	f := newFixture(3)
	f.gen.delay = 20 * time.Millisecond

	ids := f.svc.PreGenerate(context.Background(), 9)
	assert.Len(t, ids, 9)
	assert.LessOrEqual(t, f.gen.maxInFlight, 3)

	// ids keep catalog order regardless of completion order
	for i, id := range ids {
		c, ok := f.cards.get(id)
		require.True(t, ok)
		assert.Equal(t, prompts.At(i), c.Prompt)
	}
}

func TestPreGenerateClampsToMaxBatch(t *testing.T) {
	f := newFixture(1)
	f.svc = NewCardService(f.cards, f.coll, f.gen, f.events, 1, 4)
	assert.Equal(t, 4, f.svc.maxBatch)

	ids := f.svc.PreGenerate(context.Background(), 4611686018427387903)
	assert.Len(t, ids, 4)
	assert.Len(t, f.gen.calls, 4)
}

func TestNewCardServiceDefaultMaxBatch(t *testing.T) {
	svc := NewCardService(&memCards{}, &memCollection{}, &fakeGenerator{}, nil, 0, 0)
	assert.Equal(t, DefaultMaxPregenCount, svc.maxBatch)
}
