package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/symptom-checker-api/internal/domain"
)

// ResilientClient wraps a model client with a circuit breaker and an
// optional completion cache. When the breaker is open the upstream is not
// called at all and the failure is classified as model-unavailable, which
// clients may safely retry later.
type ResilientClient struct {
	client  domain.ModelClient
	cache   CompletionCache
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewResilientClient creates a resilient model client. The cache may be nil
// to disable completion caching.
func NewResilientClient(client domain.ModelClient, cache CompletionCache, logger *logrus.Logger) *ResilientClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Model",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientClient{
		client:  client,
		cache:   cache,
		breaker: breaker,
		log:     logger,
	}
}

// Complete returns a completion for the request, preferring the cache.
func (r *ResilientClient) Complete(ctx context.Context, req *domain.AnalysisRequest) (string, error) {
	key := CacheKey(req)
	if r.cache != nil {
		if completion, found := r.cache.Get(ctx, key); found {
			r.log.Debug("Completion cache hit")
			return completion, nil
		}
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.Complete(ctx, req)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", fmt.Errorf("model circuit breaker open: %w", domain.ErrModelUnavailable)
		}
		return "", err
	}

	completion := result.(string)
	if r.cache != nil && completion != "" {
		r.cache.Set(ctx, key, completion)
	}
	return completion, nil
}

// State returns the current circuit breaker state for health reporting.
func (r *ResilientClient) State() gobreaker.State {
	return r.breaker.State()
}
