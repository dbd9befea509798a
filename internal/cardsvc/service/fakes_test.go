package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/avvvet/pixelcard-services/internal/cardsvc/models"
)

var errStore = errors.New("connection refused")

type memCards struct {
	mu        sync.Mutex
	cards     []models.Card
	insertErr error
	listErr   error
	likeErr   error
	findCalls int
}

func (m *memCards) Insert(ctx context.Context, card models.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.cards = append(m.cards, card)
	return nil
}

func (m *memCards) ListRecent(ctx context.Context, limit int) ([]models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := append([]models.Card{}, m.cards...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit < 0 {
		limit = 0
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memCards) SetLiked(ctx context.Context, cardID string, liked bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.likeErr != nil {
		return false, m.likeErr
	}
	for i := range m.cards {
		if m.cards[i].ID == cardID {
			m.cards[i].IsLiked = liked
			return true, nil
		}
	}
	return false, nil
}

func (m *memCards) FindByIDsLiked(ctx context.Context, ids []string) ([]models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCalls++
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := []models.Card{}
	for _, c := range m.cards {
		if want[c.ID] && c.IsLiked {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCards) get(id string) (models.Card, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.ID == id {
			return c, true
		}
	}
	return models.Card{}, false
}

type memCollection struct {
	mu      sync.Mutex
	entries []models.CollectionEntry
	addErr  error
	clock   time.Time
}

func (m *memCollection) AddLike(ctx context.Context, cardID string) (models.CollectionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return models.CollectionEntry{}, m.addErr
	}
	// strictly increasing timestamps keep ordering deterministic
	m.clock = m.clock.Add(time.Second)
	e := models.NewCollectionEntry(cardID)
	e.LikedAt = m.clock
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *memCollection) RemoveLikes(ctx context.Context, cardID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	var n int64
	for _, e := range m.entries {
		if e.CardID == cardID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}

func (m *memCollection) ListLikedCardIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	es := append([]models.CollectionEntry(nil), m.entries...)
	sort.SliceStable(es, func(i, j int) bool { return es[i].LikedAt.After(es[j].LikedAt) })
	ids := make([]string, 0, len(es))
	for _, e := range es {
		ids = append(ids, e.CardID)
	}
	return ids, nil
}

// fakeGenerator fails for prompts listed in failFor.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   []string
	failFor map[string]bool
	err     error
	empty   bool

	inFlight    int
	maxInFlight int
	delay       time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, prompt)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--

	if f.err != nil {
		return nil, f.err
	}
	if f.failFor[prompt] {
		return nil, errors.New("upstream 500")
	}
	if f.empty {
		return nil, nil
	}
	return []byte("png:" + prompt), nil
}

type recordedEvent struct {
	kind   string
	cardID string
	liked  bool
}

type fakeEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEvents) PublishCardGenerated(cardID, prompt string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind: "generated", cardID: cardID})
}

func (f *fakeEvents) PublishLikeChanged(cardID string, liked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{kind: "like", cardID: cardID, liked: liked})
}
