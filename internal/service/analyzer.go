package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/symptom-checker-api/internal/domain"
	"github.com/symptom-checker-api/internal/history"
)

// AnalysisOutcome is the result of one analysis, including whether the
// record made it to storage. Saved is false only in degraded mode, when the
// analysis itself succeeded but persistence did not.
type AnalysisOutcome struct {
	Result   *domain.AnalysisResult
	RecordID string
	Saved    bool
}

// AnalysisService orchestrates the analysis pipeline: validate the request,
// obtain a completion, normalize it, and persist the record. Each stage
// failure maps to exactly one error class so the transport layer can respond
// uniformly.
type AnalysisService struct {
	model      domain.ModelClient
	store      history.Store
	normalizer *CompletionNormalizer
	cfg        domain.AnalysisConfig
	log        *logrus.Logger
}

// NewAnalysisService creates an analysis service.
func NewAnalysisService(model domain.ModelClient, store history.Store, cfg domain.AnalysisConfig, logger *logrus.Logger) *AnalysisService {
	return &AnalysisService{
		model:      model,
		store:      store,
		normalizer: NewCompletionNormalizer(cfg.DefaultUrgency),
		cfg:        cfg,
		log:        logger,
	}
}

// Analyze runs one request through the full pipeline.
//
// Invalid input short-circuits before any model call. A model or
// normalization failure persists nothing. A persistence failure after a
// successful analysis is degraded, not fatal: the outcome still carries the
// result, with Saved false.
func (s *AnalysisService) Analyze(ctx context.Context, req *domain.AnalysisRequest) (*AnalysisOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := s.model.Complete(ctx, req)
	if err != nil {
		s.log.WithError(err).Error("Model call failed")
		if domain.ErrorCode(err) == domain.CodeInternalServer {
			err = fmt.Errorf("model call: %v: %w", err, domain.ErrModelUnavailable)
		}
		return nil, err
	}

	result, err := s.normalizer.Normalize(raw)
	if err != nil {
		// The raw completion is logged for diagnosis but never surfaced
		// to clients.
		s.log.WithFields(logrus.Fields{
			"raw_length": len(raw),
			"raw":        raw,
		}).WithError(err).Error("Model response failed normalization")
		return nil, err
	}
	if result.Disclaimer == "" {
		result.Disclaimer = s.cfg.DefaultDisclaimer
	}

	s.log.WithFields(logrus.Fields{
		"conditions": len(result.Conditions),
		"urgency":    result.Urgency,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("Analysis completed")

	outcome := &AnalysisOutcome{Result: result}
	recordID, err := s.store.Insert(ctx, &history.Record{Input: *req, Result: *result})
	if err != nil {
		s.log.WithError(err).Warn("Failed to persist analysis, returning unsaved result")
		return outcome, nil
	}
	outcome.RecordID = recordID
	outcome.Saved = true
	return outcome, nil
}
