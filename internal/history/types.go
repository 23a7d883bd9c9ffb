// Package history provides persistence for completed analyses. Records are
// append-only: created once at persistence time, immutable thereafter, and
// removed only by explicit user deletion.
//
// Readers return raw documents rather than typed records because the store
// has accumulated several legacy shapes; reconstructing a displayable item
// from an arbitrary document is the job of the record normalizer upstream.
package history

import (
	"context"
	"time"

	"github.com/symptom-checker-api/internal/domain"
)

// Record is the canonical persisted shape written going forward.
type Record struct {
	ID        string                 `json:"id" bson:"id"`
	Input     domain.AnalysisRequest `json:"input" bson:"input"`
	Result    domain.AnalysisResult  `json:"result" bson:"result"`
	CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
}

// Store defines the interface for history storage operations.
type Store interface {
	// Insert writes one complete record as a single atomic write and
	// returns its identifier. Partial records are never written.
	Insert(ctx context.Context, record *Record) (string, error)

	// List returns raw stored documents ordered most-recent-first. An
	// out-of-range offset yields an empty slice, not an error.
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)

	// Delete removes the record with the given identifier. A missing
	// identifier returns domain.ErrNotFound; callers treat that as success.
	Delete(ctx context.Context, id string) error

	// Health checks connectivity to the underlying store.
	Health(ctx context.Context) error

	// Close closes the store and releases resources.
	Close(ctx context.Context) error
}
