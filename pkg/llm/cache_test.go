package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-checker-api/internal/domain"
)

func TestCacheKey(t *testing.T) {
	base := &domain.AnalysisRequest{Symptoms: "cough", Age: domain.FlexInt{Value: 30, Set: true}}

	tests := []struct {
		name  string
		other *domain.AnalysisRequest
		same  bool
	}{
		{
			name:  "Identical request",
			other: &domain.AnalysisRequest{Symptoms: "cough", Age: domain.FlexInt{Value: 30, Set: true}},
			same:  true,
		},
		{
			name:  "Different symptoms",
			other: &domain.AnalysisRequest{Symptoms: "fever", Age: domain.FlexInt{Value: 30, Set: true}},
			same:  false,
		},
		{
			name:  "Different age",
			other: &domain.AnalysisRequest{Symptoms: "cough", Age: domain.FlexInt{Value: 31, Set: true}},
			same:  false,
		},
		{
			name:  "Unset age",
			other: &domain.AnalysisRequest{Symptoms: "cough"},
			same:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.same {
				assert.Equal(t, CacheKey(base), CacheKey(tt.other))
			} else {
				assert.NotEqual(t, CacheKey(base), CacheKey(tt.other))
			}
		})
	}
}

func TestLRUCache(t *testing.T) {
	cache, err := NewLRUCache(10, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	// Act
	cache.Set(ctx, "k1", `{"conditions": []}`)

	// Assert
	got, found := cache.Get(ctx, "k1")
	assert.True(t, found)
	assert.Equal(t, `{"conditions": []}`, got)

	_, found = cache.Get(ctx, "missing")
	assert.False(t, found)
}

func TestLRUCache_Expiry(t *testing.T) {
	cache, err := NewLRUCache(10, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	cache.Set(ctx, "k1", "v1")
	entry, ok := cache.entries.Get("k1")
	require.True(t, ok)
	entry.ExpiresAt = time.Now().Add(-time.Second)
	cache.entries.Add("k1", entry)

	// Act
	_, found := cache.Get(ctx, "k1")

	// Assert: expired entries are evicted on read.
	assert.False(t, found)
	assert.False(t, cache.entries.Contains("k1"))
}

func TestLRUCache_Eviction(t *testing.T) {
	cache, err := NewLRUCache(2, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	cache.Set(ctx, "k1", "v1")
	cache.Set(ctx, "k2", "v2")
	cache.Set(ctx, "k3", "v3")

	// Assert: oldest entry is evicted once capacity is exceeded.
	_, found := cache.Get(ctx, "k1")
	assert.False(t, found)
	_, found = cache.Get(ctx, "k3")
	assert.True(t, found)
}
