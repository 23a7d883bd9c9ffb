package service

import (
	"fmt"
	"time"

	"github.com/symptom-checker-api/internal/domain"
)

// Sentinel display values used instead of propagating errors; the history
// view prioritizes robustness over strict failure.
const (
	FieldUnavailable = "N/A"
	InvalidDate      = "Invalid Date"
)

// timestampLayouts are the accepted timestamp formats across schema
// versions of the store, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// RecordNormalizer reconstructs displayable history items from persisted
// documents of unknown shape. Stored documents have evolved across schema
// versions and partial writes, so every field access here is guarded; no
// field's absence may propagate an error.
type RecordNormalizer struct{}

// NewRecordNormalizer creates a record normalizer.
func NewRecordNormalizer() *RecordNormalizer {
	return &RecordNormalizer{}
}

// Normalize produces a HistoryItem from one arbitrary persisted document.
// It never fails; unusable fields degrade to their sentinel values.
func (n *RecordNormalizer) Normalize(doc map[string]any) domain.HistoryItem {
	input, _ := doc["input"].(map[string]any)
	result, _ := doc["result"].(map[string]any)

	item := domain.HistoryItem{
		ID:              asString(doc["id"]),
		Symptoms:        stringOr(input["symptoms"], FieldUnavailable),
		Age:             scalarOr(input["age"], FieldUnavailable),
		Gender:          stringOr(input["gender"], FieldUnavailable),
		Conditions:      []domain.Condition{},
		Recommendations: []string{},
		CreatedAt:       SafeResolveDate(doc),
	}
	if item.ID == "" {
		// Legacy documents carry the store's native identifier.
		item.ID = asString(doc["_id"])
	}

	if result != nil {
		item.Summary = asString(result["summary"])
		item.Urgency = asString(result["urgency"])
		if raw, ok := asSlice(result["conditions"]); ok {
			item.Conditions = normalizeConditions(raw)
		}
		if raw, ok := asSlice(result["recommendations"]); ok {
			item.Recommendations = normalizeRecommendations(raw)
		}
	}

	return item
}

// SafeResolveDate resolves the creation timestamp of a persisted document
// across the field names and formats the store has historically used. The
// extractors are tried in order and the first parseable value wins; if none
// parse, the result is the InvalidDate sentinel, never an error.
func SafeResolveDate(doc map[string]any) string {
	candidates := []any{
		doc["_created_at"],
		doc["created_at"],
		doc["createdAt"],
	}
	if result, ok := doc["result"].(map[string]any); ok {
		candidates = append(candidates, result["_created_at"])
	}

	for _, candidate := range candidates {
		if ts, ok := parseTimestamp(candidate); ok {
			return ts.UTC().Format(time.RFC3339)
		}
	}
	return InvalidDate
}

// parseTimestamp accepts a plain timestamp string, a native time value, or
// the extended-JSON envelope {"$date": <string>} some stores wrap dates in.
func parseTimestamp(v any) (time.Time, bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return val, true
	case string:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, val); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	case map[string]any:
		inner, ok := val["$date"]
		if !ok {
			return time.Time{}, false
		}
		// A nested envelope does not recurse further than one level.
		if s, ok := inner.(string); ok {
			return parseTimestamp(s)
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// stringOr returns v as a non-empty string or the fallback.
func stringOr(v any, fallback string) string {
	if s := asString(v); s != "" {
		return s
	}
	return fallback
}

// scalarOr renders a scalar value for display, or the fallback when the
// value is absent or not a displayable scalar. Ages in particular have been
// stored both as numbers and as strings.
func scalarOr(v any, fallback string) string {
	switch val := v.(type) {
	case string:
		if val != "" {
			return val
		}
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case int, int32, int64:
		return fmt.Sprintf("%d", val)
	case bool:
		return fmt.Sprintf("%t", val)
	}
	return fallback
}
