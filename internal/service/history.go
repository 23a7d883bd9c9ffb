package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/symptom-checker-api/internal/domain"
	"github.com/symptom-checker-api/internal/history"
)

// HistoryPage is one page of normalized history items plus the total record
// count across all pages.
type HistoryPage struct {
	Count int64                `json:"count"`
	Items []domain.HistoryItem `json:"items"`
}

// HistoryService serves paginated, display-safe views of stored analyses
// and handles deletion.
type HistoryService struct {
	store      history.Store
	normalizer *RecordNormalizer
	defaultLim int
	maxLim     int
	log        *logrus.Logger
}

// NewHistoryService creates a history service with the given pagination
// policy. Non-positive limits fall back to 50 default, 100 max.
func NewHistoryService(store history.Store, cfg domain.AnalysisConfig, logger *logrus.Logger) *HistoryService {
	defaultLim := cfg.HistoryDefault
	if defaultLim <= 0 {
		defaultLim = 50
	}
	maxLim := cfg.HistoryMaxLimit
	if maxLim <= 0 {
		maxLim = 100
	}
	return &HistoryService{
		store:      store,
		normalizer: NewRecordNormalizer(),
		defaultLim: defaultLim,
		maxLim:     maxLim,
		log:        logger,
	}
}

// DefaultLimit is the page size used when the caller does not name one.
func (s *HistoryService) DefaultLimit() int {
	return s.defaultLim
}

// List returns one page of history, most recent first. A limit above the
// maximum is clamped; negative limit or offset is invalid input; an explicit
// zero limit returns the count with no items. Every stored document
// normalizes to an item, so page length depends only on pagination, never on
// document shape.
func (s *HistoryService) List(ctx context.Context, limit, offset int) (*HistoryPage, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit cannot be negative: %w", domain.ErrInvalidInput)
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset cannot be negative: %w", domain.ErrInvalidInput)
	}
	if limit > s.maxLim {
		limit = s.maxLim
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting history: %v: %w", err, domain.ErrPersistenceUnavailable)
	}
	if limit == 0 {
		return &HistoryPage{Count: count, Items: []domain.HistoryItem{}}, nil
	}

	docs, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing history: %v: %w", err, domain.ErrPersistenceUnavailable)
	}

	items := make([]domain.HistoryItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, s.normalizer.Normalize(doc))
	}
	return &HistoryPage{Count: count, Items: items}, nil
}

// Delete removes one stored analysis by identifier. Deletion is idempotent:
// an identifier that matches nothing is still success. An empty identifier
// is invalid input.
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id cannot be empty: %w", domain.ErrInvalidInput)
	}

	err := s.store.Delete(ctx, id)
	switch {
	case err == nil:
		s.log.WithField("id", id).Info("History record deleted")
		return nil
	case domain.ErrorCode(err) == domain.CodeNotFound:
		s.log.WithField("id", id).Debug("History record already absent")
		return nil
	default:
		return fmt.Errorf("deleting history record: %v: %w", err, domain.ErrPersistenceUnavailable)
	}
}
