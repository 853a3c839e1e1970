package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// BreakerThreshold is the number of consecutive failures that opens a repository's circuit.
const BreakerThreshold = 5

// CircuitBreakerFetcher wraps a fetcher with one circuit breaker per repository host.
// Not-found responses are answers, not failures, and never trip a breaker.
type CircuitBreakerFetcher struct {
	fetcher  FetcherInterface
	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

// NewCircuitBreakerFetcher creates a new circuit breaker wrapper for a fetcher.
func NewCircuitBreakerFetcher(f FetcherInterface) *CircuitBreakerFetcher {
	return &CircuitBreakerFetcher{
		fetcher:  f,
		breakers: make(map[string]*circuit.Breaker),
	}
}

func (cbf *CircuitBreakerFetcher) getBreaker(repository string) *circuit.Breaker {
	cbf.mu.RLock()
	breaker, exists := cbf.breakers[repository]
	cbf.mu.RUnlock()

	if exists {
		return breaker
	}

	cbf.mu.Lock()
	defer cbf.mu.Unlock()

	if breaker, exists := cbf.breakers[repository]; exists {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(BreakerThreshold),
	})

	cbf.breakers[repository] = breaker
	return breaker
}

// Fetch wraps the underlying fetcher's Fetch with circuit breaker logic.
func (cbf *CircuitBreakerFetcher) Fetch(ctx context.Context, fetchURL string) (*Artifact, error) {
	repository := extractRepository(fetchURL)
	breaker := cbf.getBreaker(repository)

	if !breaker.Ready() {
		return nil, fmt.Errorf("circuit breaker open for repository %s: %w", repository, ErrUpstreamDown)
	}

	var artifact *Artifact
	var notFound error
	err := breaker.Call(func() error {
		var fetchErr error
		artifact, fetchErr = cbf.fetcher.Fetch(ctx, fetchURL)
		if errors.Is(fetchErr, ErrNotFound) {
			notFound = fetchErr
			return nil
		}
		return fetchErr
	}, 0)

	if err != nil {
		return nil, err
	}
	if notFound != nil {
		return nil, notFound
	}
	return artifact, nil
}

// Head wraps the underlying fetcher's Head with circuit breaker logic.
func (cbf *CircuitBreakerFetcher) Head(ctx context.Context, headURL string) (size int64, contentType string, err error) {
	repository := extractRepository(headURL)
	breaker := cbf.getBreaker(repository)

	if !breaker.Ready() {
		return 0, "", fmt.Errorf("circuit breaker open for repository %s: %w", repository, ErrUpstreamDown)
	}

	var notFound error
	err = breaker.Call(func() error {
		var headErr error
		size, contentType, headErr = cbf.fetcher.Head(ctx, headURL)
		if errors.Is(headErr, ErrNotFound) {
			notFound = headErr
			return nil
		}
		return headErr
	}, 0)

	if err != nil {
		return 0, "", err
	}
	if notFound != nil {
		return 0, "", notFound
	}
	return size, contentType, nil
}

// extractRepository groups URLs by host for breaker selection.
func extractRepository(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}

// BreakerState reports "open" or "closed" for every repository seen so far.
func (cbf *CircuitBreakerFetcher) BreakerState() map[string]string {
	cbf.mu.RLock()
	defer cbf.mu.RUnlock()

	states := make(map[string]string)
	for repository, breaker := range cbf.breakers {
		if breaker.Tripped() {
			states[repository] = "open"
		} else {
			states[repository] = "closed"
		}
	}
	return states
}
