package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-checker-api/internal/domain"
)

type stubModelClient struct {
	completion string
	err        error
	calls      int
}

func (s *stubModelClient) Complete(ctx context.Context, req *domain.AnalysisRequest) (string, error) {
	s.calls++
	return s.completion, s.err
}

func TestResilientClient_Complete(t *testing.T) {
	inner := &stubModelClient{completion: `{"conditions": []}`}
	client := NewResilientClient(inner, nil, testLogger())

	// Act
	completion, err := client.Complete(context.Background(), &domain.AnalysisRequest{Symptoms: "cough"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, `{"conditions": []}`, completion)
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, gobreaker.StateClosed, client.State())
}

func TestResilientClient_Complete_CacheHit(t *testing.T) {
	inner := &stubModelClient{completion: `{"conditions": []}`}
	cache, err := NewLRUCache(10, time.Minute)
	require.NoError(t, err)
	client := NewResilientClient(inner, cache, testLogger())

	req := &domain.AnalysisRequest{Symptoms: "cough"}

	// Act: second identical request must not reach the model.
	first, err := client.Complete(context.Background(), req)
	require.NoError(t, err)
	second, err := client.Complete(context.Background(), req)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestResilientClient_Complete_OpensAfterFailures(t *testing.T) {
	inner := &stubModelClient{err: errors.New("connection refused")}
	client := NewResilientClient(inner, nil, testLogger())

	for i := 0; i < 5; i++ {
		_, err := client.Complete(context.Background(), &domain.AnalysisRequest{Symptoms: "cough"})
		require.Error(t, err)
	}

	require.Equal(t, gobreaker.StateOpen, client.State())
	callsBeforeOpen := inner.calls

	// Act: with the breaker open the upstream is no longer called.
	_, err := client.Complete(context.Background(), &domain.AnalysisRequest{Symptoms: "cough"})

	// Assert
	assert.True(t, errors.Is(err, domain.ErrModelUnavailable))
	assert.Equal(t, callsBeforeOpen, inner.calls)
}

func TestResilientClient_Complete_EmptyCompletionNotCached(t *testing.T) {
	inner := &stubModelClient{completion: ""}
	cache, err := NewLRUCache(10, time.Minute)
	require.NoError(t, err)
	client := NewResilientClient(inner, cache, testLogger())

	req := &domain.AnalysisRequest{Symptoms: "cough"}

	// Act
	_, err = client.Complete(context.Background(), req)
	require.NoError(t, err)
	_, err = client.Complete(context.Background(), req)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 2, inner.calls)
}
