// Package domain contains core business entities for the symptom checker:
// analysis requests, normalized analysis results, and display-facing history
// items. The service relays an educational interpretation from a language
// model; it performs no clinical inference of its own, and the only
// guarantees made here are structural (schema) guarantees.
package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Probability represents the likelihood bucket assigned to a condition.
type Probability string

const (
	ProbabilityHigh   Probability = "High"
	ProbabilityMedium Probability = "Medium"
	ProbabilityLow    Probability = "Low"
)

// IsValid reports whether the probability is one of the three known buckets.
func (p Probability) IsValid() bool {
	switch p {
	case ProbabilityHigh, ProbabilityMedium, ProbabilityLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the probability.
func (p Probability) String() string {
	return string(p)
}

// NormalizeProbability coerces an untrusted probability value into one of the
// three known buckets. The raw value is trimmed and title-cased (first letter
// upper, remainder lower); anything that still does not match maps to Low.
func NormalizeProbability(raw string) Probability {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ProbabilityLow
	}
	s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	p := Probability(s)
	if !p.IsValid() {
		return ProbabilityLow
	}
	return p
}

// Urgency represents how quickly the user should seek care.
type Urgency string

const (
	UrgencyEmergency Urgency = "emergency"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyRoutine   Urgency = "routine"
	UrgencySelfCare  Urgency = "self-care"
)

// IsValid reports whether the urgency is one of the four enumerated values.
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyEmergency, UrgencyUrgent, UrgencyRoutine, UrgencySelfCare:
		return true
	default:
		return false
	}
}

// String returns the string representation of the urgency.
func (u Urgency) String() string {
	return string(u)
}

// ParseUrgency parses an untrusted urgency value. It reports whether the
// value matched one of the enumerated urgencies after trimming and
// lowercasing; callers decide the defaulting policy on a miss.
func ParseUrgency(raw string) (Urgency, bool) {
	u := Urgency(strings.ToLower(strings.TrimSpace(raw)))
	if !u.IsValid() {
		return "", false
	}
	return u, true
}

// FlexInt is an optional integer that also accepts a numeric JSON string,
// since clients have historically submitted age both ways. A present but
// non-numeric value is a decoding error.
type FlexInt struct {
	Value int
	Set   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*f = FlexInt{}
		return nil
	}
	s = strings.Trim(s, `"`)
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	*f = FlexInt{Value: n, Set: true}
	return nil
}

// MarshalJSON implements json.Marshaler. Unset values serialize as null.
func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// MarshalBSONValue implements bson.ValueMarshaler. Without it the struct
// codec would persist the Value/Set fields as a sub-document; stored records
// must carry age as a plain number (or null), the same shape JSON produces.
func (f FlexInt) MarshalBSONValue() (byte, []byte, error) {
	if !f.Set {
		return byte(bson.TypeNull), nil, nil
	}
	t, data, err := bson.MarshalValue(int32(f.Value))
	return byte(t), data, err
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler. It accepts the
// numeric BSON types plus numeric strings, mirroring the JSON coercion.
func (f *FlexInt) UnmarshalBSONValue(typ byte, data []byte) error {
	switch bson.Type(typ) {
	case bson.TypeNull, bson.TypeUndefined:
		*f = FlexInt{}
		return nil
	case bson.TypeInt32:
		var n int32
		if err := bson.UnmarshalValue(bson.TypeInt32, data, &n); err != nil {
			return err
		}
		*f = FlexInt{Value: int(n), Set: true}
		return nil
	case bson.TypeInt64:
		var n int64
		if err := bson.UnmarshalValue(bson.TypeInt64, data, &n); err != nil {
			return err
		}
		*f = FlexInt{Value: int(n), Set: true}
		return nil
	case bson.TypeDouble:
		var n float64
		if err := bson.UnmarshalValue(bson.TypeDouble, data, &n); err != nil {
			return err
		}
		*f = FlexInt{Value: int(n), Set: true}
		return nil
	case bson.TypeString:
		var s string
		if err := bson.UnmarshalValue(bson.TypeString, data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = FlexInt{}
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("not an integer: %q", s)
		}
		*f = FlexInt{Value: n, Set: true}
		return nil
	default:
		return fmt.Errorf("cannot decode BSON type %s into an optional integer", bson.Type(typ))
	}
}

// AnalysisRequest is the client input to an analysis. Only symptoms is
// required; age, gender and duration are optional context for the model.
type AnalysisRequest struct {
	Symptoms string  `json:"symptoms" bson:"symptoms"`
	Age      FlexInt `json:"age,omitempty" bson:"age"`
	Gender   string  `json:"gender,omitempty" bson:"gender,omitempty"`
	Duration string  `json:"duration,omitempty" bson:"duration,omitempty"`
}

// Validate checks the request for minimal well-formedness. It trims the
// symptom text in place. No external call may be made on a failed request.
func (r *AnalysisRequest) Validate() error {
	r.Symptoms = strings.TrimSpace(r.Symptoms)
	if r.Symptoms == "" {
		return fmt.Errorf("symptoms cannot be empty: %w", ErrInvalidInput)
	}
	if r.Age.Set && r.Age.Value < 0 {
		return fmt.Errorf("age cannot be negative: %w", ErrInvalidInput)
	}
	return nil
}

// Condition is one possible explanation for the reported symptoms.
type Condition struct {
	Name        string      `json:"name" bson:"name"`
	Probability Probability `json:"probability" bson:"probability"`
	Description string      `json:"description" bson:"description"`
}

// AnalysisResult is the canonical shape returned to clients and persisted.
// Conditions and Recommendations are always non-nil once past the
// normalizer; absence in the model output becomes an empty slice, never nil.
type AnalysisResult struct {
	Summary          string      `json:"summary" bson:"summary"`
	Conditions       []Condition `json:"conditions" bson:"conditions"`
	Recommendations  []string    `json:"recommendations" bson:"recommendations"`
	Urgency          Urgency     `json:"urgency" bson:"urgency"`
	UrgencyDefaulted bool        `json:"urgency_defaulted,omitempty" bson:"urgency_defaulted,omitempty"`
	Disclaimer       string      `json:"disclaimer" bson:"disclaimer"`
}

// HistoryItem is the display-facing projection of one persisted analysis.
// Every field carries a guaranteed fallback value so consumers never see
// missing data: "N/A" for absent input fields, empty slices for absent
// result sequences, and the literal "Invalid Date" for unusable timestamps.
type HistoryItem struct {
	ID              string      `json:"id"`
	Symptoms        string      `json:"symptoms"`
	Age             string      `json:"age"`
	Gender          string      `json:"gender"`
	Summary         string      `json:"summary"`
	Conditions      []Condition `json:"conditions"`
	Recommendations []string    `json:"recommendations"`
	Urgency         string      `json:"urgency"`
	CreatedAt       string      `json:"created_at"`
}
