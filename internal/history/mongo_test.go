package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/symptom-checker-api/internal/domain"
)

// marshalAndReadBack pushes a record through the same encode/decode pair the
// Mongo store uses: struct codec on write, extended-JSON round trip on read.
func marshalAndReadBack(t *testing.T, record *Record) map[string]any {
	t.Helper()

	data, err := bson.Marshal(record)
	require.NoError(t, err)

	var raw bson.M
	require.NoError(t, bson.Unmarshal(data, &raw))

	doc, err := toPlainDocument(raw)
	require.NoError(t, err)
	return doc
}

func TestRecord_BSONRoundTrip(t *testing.T) {
	record := &Record{
		ID: "rec-1",
		Input: domain.AnalysisRequest{
			Symptoms: "headache and fever",
			Age:      domain.FlexInt{Value: 30, Set: true},
			Gender:   "female",
			Duration: "2 days",
		},
		Result: domain.AnalysisResult{
			Summary: "Likely viral.",
			Conditions: []domain.Condition{
				{Name: "Common Cold", Probability: domain.ProbabilityHigh, Description: "d"},
			},
			Recommendations:  []string{"Rest"},
			Urgency:          domain.UrgencyRoutine,
			UrgencyDefaulted: true,
			Disclaimer:       "Educational only.",
		},
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	// Act
	doc := marshalAndReadBack(t, record)

	// Assert: the stored shape matches what the JSON path writes, field
	// names and scalar types included.
	input, ok := doc["input"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "headache and fever", input["symptoms"])
	assert.Equal(t, float64(30), input["age"], "age must persist as a plain number")
	assert.Equal(t, "female", input["gender"])

	result, ok := doc["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "routine", result["urgency"])
	assert.Equal(t, true, result["urgency_defaulted"])
	_, hasMangled := result["urgencydefaulted"]
	assert.False(t, hasMangled)

	conditions, ok := result["conditions"].([]any)
	require.True(t, ok)
	require.Len(t, conditions, 1)
	condition, ok := conditions[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Common Cold", condition["name"])
	assert.Equal(t, "High", condition["probability"])
}

func TestRecord_BSONRoundTrip_UnsetAge(t *testing.T) {
	record := &Record{
		ID:        "rec-2",
		Input:     domain.AnalysisRequest{Symptoms: "cough"},
		Result:    domain.AnalysisResult{Conditions: []domain.Condition{}, Recommendations: []string{}, Urgency: domain.UrgencyRoutine},
		CreatedAt: time.Now().UTC(),
	}

	// Act
	doc := marshalAndReadBack(t, record)

	// Assert
	input, ok := doc["input"].(map[string]any)
	require.True(t, ok)
	assert.Nil(t, input["age"], "unset age must persist as null, not a sub-document")
}

func TestFlexInt_BSONUnmarshal(t *testing.T) {
	type ageDoc struct {
		Age domain.FlexInt `bson:"age"`
	}

	tests := []struct {
		name    string
		doc     bson.M
		want    domain.FlexInt
		wantErr bool
	}{
		{"Int32", bson.M{"age": int32(30)}, domain.FlexInt{Value: 30, Set: true}, false},
		{"Int64", bson.M{"age": int64(30)}, domain.FlexInt{Value: 30, Set: true}, false},
		{"Double", bson.M{"age": float64(30)}, domain.FlexInt{Value: 30, Set: true}, false},
		{"Numeric string", bson.M{"age": "30"}, domain.FlexInt{Value: 30, Set: true}, false},
		{"Null", bson.M{"age": nil}, domain.FlexInt{}, false},
		{"Empty string", bson.M{"age": ""}, domain.FlexInt{}, false},
		{"Non-numeric string", bson.M{"age": "thirty"}, domain.FlexInt{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(tt.doc)
			require.NoError(t, err)

			var decoded ageDoc
			err = bson.Unmarshal(data, &decoded)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, decoded.Age)
		})
	}
}
