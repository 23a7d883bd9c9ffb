// Package service implements the analysis pipeline: input validation,
// completion normalization, history record normalization, and the two
// orchestrating services. The normalizers are the core of the system; they
// take untrusted, loosely-structured payloads and produce strictly-typed,
// UI-safe values without ever panicking on malformed input.
package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/symptom-checker-api/internal/domain"
)

// CompletionNormalizer coerces raw model output into the canonical
// AnalysisResult shape. It is a pure function of its input.
type CompletionNormalizer struct {
	defaultUrgency domain.Urgency
}

// NewCompletionNormalizer creates a normalizer with the given urgency
// defaulting policy. An empty default falls back to routine.
func NewCompletionNormalizer(defaultUrgency domain.Urgency) *CompletionNormalizer {
	if !defaultUrgency.IsValid() {
		defaultUrgency = domain.UrgencyRoutine
	}
	return &CompletionNormalizer{defaultUrgency: defaultUrgency}
}

// Normalize parses and normalizes one raw completion.
//
// Leniency is per-field: missing condition names, probabilities and
// descriptions get defaults, and an unrecognized urgency defaults (flagged).
// Strictness applies in exactly one place: conditions and recommendations
// must both be present as arrays, because a response missing its core arrays
// cannot be displayed meaningfully and indicates the model violated its
// instructed contract.
func (n *CompletionNormalizer) Normalize(raw string) (*domain.AnalysisResult, error) {
	raw = sanitizeCompletion(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty completion: %w", domain.ErrModelResponseInvalid)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parsing completion: %v: %w", err, domain.ErrModelResponseInvalid)
	}

	rawConditions, ok := asSlice(payload["conditions"])
	if !ok {
		return nil, fmt.Errorf("conditions missing or not an array: %w", domain.ErrModelResponseInvalid)
	}
	rawRecommendations, ok := asSlice(payload["recommendations"])
	if !ok {
		return nil, fmt.Errorf("recommendations missing or not an array: %w", domain.ErrModelResponseInvalid)
	}

	result := &domain.AnalysisResult{
		Summary:         asString(payload["summary"]),
		Conditions:      normalizeConditions(rawConditions),
		Recommendations: normalizeRecommendations(rawRecommendations),
		Disclaimer:      asString(payload["disclaimer"]),
	}

	urgency, recognized := domain.ParseUrgency(asString(payload["urgency"]))
	if !recognized {
		urgency = n.defaultUrgency
		result.UrgencyDefaulted = true
	} else if flagged, ok := payload["urgency_defaulted"].(bool); ok {
		// An already-normalized result keeps its defaulted flag, so
		// re-normalization is a fixpoint.
		result.UrgencyDefaulted = flagged
	}
	result.Urgency = urgency

	return result, nil
}

// normalizeConditions normalizes each condition independently and leniently.
// A malformed individual element never fails the whole result; non-object
// elements are dropped.
func normalizeConditions(raw []any) []domain.Condition {
	conditions := make([]domain.Condition, 0, len(raw))
	for _, elem := range raw {
		obj, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		name := asString(obj["name"])
		if name == "" {
			name = "Unknown"
		}
		conditions = append(conditions, domain.Condition{
			Name:        name,
			Probability: domain.NormalizeProbability(asString(obj["probability"])),
			Description: asString(obj["description"]),
		})
	}
	return conditions
}

// normalizeRecommendations keeps string elements and stringifies scalars,
// dropping anything unusable.
func normalizeRecommendations(raw []any) []string {
	recommendations := make([]string, 0, len(raw))
	for _, elem := range raw {
		switch v := elem.(type) {
		case string:
			recommendations = append(recommendations, v)
		case float64, bool:
			recommendations = append(recommendations, fmt.Sprintf("%v", v))
		}
	}
	return recommendations
}

// sanitizeCompletion trims whitespace and strips a markdown code fence if
// the model wrapped its JSON in one despite instructions.
func sanitizeCompletion(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	firstNL := strings.IndexByte(s, '\n')
	if firstNL == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[firstNL+1:]
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// asString returns v as a string, or "" when absent or not a string.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asSlice returns v as a []any and whether it actually was an array.
func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}
