package imagegen

import (
	"context"
	"time"

	"github.com/avvvet/pixelcard-services/internal/cardsvc/metrics"
	log "github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

var _ Generator = (*BreakerClient)(nil)

// BreakerClient wraps a Generator with a circuit breaker. It never retries;
// an open circuit fails the call immediately.
type BreakerClient struct {
	gen  Generator
	cb   *gobreaker.CircuitBreaker[[]byte]
	name string
}

// BreakerSettings controls when the circuit opens and how long it stays open.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}
}

func NewBreakerClient(gen Generator, s BreakerSettings) *BreakerClient {
	name := "image-api"
	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("[CIRCUIT BREAKER] %s state %s -> %s", name, from, to)
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &BreakerClient{gen: gen, cb: cb, name: name}
}

func (b *BreakerClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	return b.cb.Execute(func() ([]byte, error) {
		return b.gen.Generate(ctx, prompt)
	})
}

func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
