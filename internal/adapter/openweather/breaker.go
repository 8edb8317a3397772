package openweather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-skill-service/internal/domain"
	"github.com/sony/gobreaker"
)

// failureThreshold is the number of consecutive failed fetches that opens the breaker.
const failureThreshold = 5

// BreakerClient wraps a WeatherClient with a circuit breaker. It does not
// retry: while open, fetches fail fast with a *domain.FetchError.
type BreakerClient struct {
	inner  domain.WeatherClient
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreakerClient creates a breaker decorator around a weather client.
func NewBreakerClient(inner domain.WeatherClient, logger *slog.Logger) *BreakerClient {
	return newBreakerClient(inner, logger, 2*time.Minute)
}

func newBreakerClient(inner domain.WeatherClient, logger *slog.Logger, openFor time.Duration) *BreakerClient {
	b := &BreakerClient{inner: inner, logger: logger}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return b
}

// Fetch delegates to the wrapped client unless the breaker is open.
func (b *BreakerClient) Fetch(ctx context.Context, at domain.Coordinates) (domain.WeatherSnapshot, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Fetch(ctx, at)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.WeatherSnapshot{}, &domain.FetchError{Err: fmt.Errorf("circuit breaker: %w", err)}
		}
		return domain.WeatherSnapshot{}, err
	}
	snap, ok := result.(domain.WeatherSnapshot)
	if !ok {
		return domain.WeatherSnapshot{}, &domain.FetchError{Err: fmt.Errorf("unexpected result type %T from circuit breaker", result)}
	}
	return snap, nil
}

// CheckReadiness reports not ready while the breaker is open.
func (b *BreakerClient) CheckReadiness(_ context.Context) error {
	if b.cb.State() == gobreaker.StateOpen {
		return errors.New("weather upstream circuit breaker is open")
	}
	return nil
}
