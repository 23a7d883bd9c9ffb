package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symptom-checker-api/internal/domain"
)

func TestRecordNormalizer_Normalize(t *testing.T) {
	normalizer := NewRecordNormalizer()

	doc := map[string]any{
		"id": "rec-1",
		"input": map[string]any{
			"symptoms": "headache and fever",
			"age":      float64(34),
			"gender":   "female",
		},
		"result": map[string]any{
			"summary": "Likely viral.",
			"conditions": []any{
				map[string]any{"name": "Flu", "probability": "High", "description": "d"},
			},
			"recommendations": []any{"Rest"},
			"urgency":         "routine",
		},
		"createdAt": "2025-03-01T10:00:00Z",
	}

	// Act
	item := normalizer.Normalize(doc)

	// Assert
	assert.Equal(t, "rec-1", item.ID)
	assert.Equal(t, "headache and fever", item.Symptoms)
	assert.Equal(t, "34", item.Age)
	assert.Equal(t, "female", item.Gender)
	assert.Equal(t, "Likely viral.", item.Summary)
	require.Len(t, item.Conditions, 1)
	assert.Equal(t, domain.ProbabilityHigh, item.Conditions[0].Probability)
	assert.Equal(t, []string{"Rest"}, item.Recommendations)
	assert.Equal(t, "routine", item.Urgency)
	assert.Equal(t, "2025-03-01T10:00:00Z", item.CreatedAt)
}

func TestRecordNormalizer_Normalize_Fallbacks(t *testing.T) {
	normalizer := NewRecordNormalizer()

	// Act
	item := normalizer.Normalize(map[string]any{})

	// Assert
	assert.Equal(t, "", item.ID)
	assert.Equal(t, FieldUnavailable, item.Symptoms)
	assert.Equal(t, FieldUnavailable, item.Age)
	assert.Equal(t, FieldUnavailable, item.Gender)
	assert.Equal(t, "", item.Summary)
	assert.NotNil(t, item.Conditions)
	assert.Empty(t, item.Conditions)
	assert.NotNil(t, item.Recommendations)
	assert.Empty(t, item.Recommendations)
	assert.Equal(t, InvalidDate, item.CreatedAt)
}

func TestRecordNormalizer_Normalize_MalformedShapes(t *testing.T) {
	normalizer := NewRecordNormalizer()

	doc := map[string]any{
		"_id":   "legacy-oid",
		"input": "not an object",
		"result": map[string]any{
			"conditions":      "not an array",
			"recommendations": map[string]any{"a": 1},
			"urgency":         float64(5),
		},
	}

	// Act
	item := normalizer.Normalize(doc)

	// Assert
	assert.Equal(t, "legacy-oid", item.ID)
	assert.Equal(t, FieldUnavailable, item.Symptoms)
	assert.Empty(t, item.Conditions)
	assert.Empty(t, item.Recommendations)
	assert.Equal(t, "", item.Urgency)
	assert.Equal(t, InvalidDate, item.CreatedAt)
}

func TestSafeResolveDate(t *testing.T) {
	tests := []struct {
		name string
		doc  map[string]any
		want string
	}{
		{
			name: "Underscore field wins over camelCase",
			doc: map[string]any{
				"_created_at": "2025-01-02T03:04:05Z",
				"createdAt":   "2024-01-01T00:00:00Z",
			},
			want: "2025-01-02T03:04:05Z",
		},
		{
			name: "Snake case field",
			doc:  map[string]any{"created_at": "2025-05-05 12:30:00"},
			want: "2025-05-05T12:30:00Z",
		},
		{
			name: "Extended JSON date envelope",
			doc:  map[string]any{"createdAt": map[string]any{"$date": "2025-06-07T08:09:10.123Z"}},
			want: "2025-06-07T08:09:10Z",
		},
		{
			name: "Nested under result",
			doc: map[string]any{
				"result": map[string]any{"_created_at": "2025-07-01T00:00:00Z"},
			},
			want: "2025-07-01T00:00:00Z",
		},
		{
			name: "Unparseable top-level falls through to nested",
			doc: map[string]any{
				"created_at": "yesterday",
				"result":     map[string]any{"_created_at": "2025-08-01T00:00:00Z"},
			},
			want: "2025-08-01T00:00:00Z",
		},
		{
			name: "Native time value",
			doc:  map[string]any{"createdAt": time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)},
			want: "2025-02-03T04:05:06Z",
		},
		{
			name: "No timestamp anywhere",
			doc:  map[string]any{"id": "x"},
			want: InvalidDate,
		},
		{
			name: "Envelope with non-string payload",
			doc:  map[string]any{"createdAt": map[string]any{"$date": float64(1700000000)}},
			want: InvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeResolveDate(tt.doc))
		})
	}
}

func TestScalarOr(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"String age", "34", "34"},
		{"Whole float age", float64(34), "34"},
		{"Fractional float", 34.5, "34.5"},
		{"Bool", true, "true"},
		{"Nil", nil, FieldUnavailable},
		{"Empty string", "", FieldUnavailable},
		{"Object", map[string]any{}, FieldUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scalarOr(tt.value, FieldUnavailable))
		})
	}
}
