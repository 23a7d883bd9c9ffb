package llm

import (
	"fmt"
	"strings"

	"github.com/symptom-checker-api/internal/domain"
)

// systemPrompt instructs the model to return only JSON in the shape the
// completion normalizer expects. The normalizer does not trust the model to
// honor this; it is an instruction, not a guarantee.
const systemPrompt = `You are a medical symptom analysis assistant providing educational information only.
Return ONLY a JSON object with this exact structure:

{
  "summary": "string",
  "conditions": [
    {"name": "string", "probability": "High | Medium | Low", "description": "string"}
  ],
  "recommendations": ["string"],
  "urgency": "emergency | urgent | routine | self-care",
  "disclaimer": "string"
}

No markdown, no extra text.`

// buildUserMessage renders the analysis request into the user turn. Absent
// optional fields are rendered as "not provided" so the model does not
// invent values for them.
func buildUserMessage(req *domain.AnalysisRequest) string {
	age := "not provided"
	if req.Age.Set {
		age = fmt.Sprintf("%d", req.Age.Value)
	}
	gender := req.Gender
	if strings.TrimSpace(gender) == "" {
		gender = "not provided"
	}
	duration := req.Duration
	if strings.TrimSpace(duration) == "" {
		duration = "not provided"
	}

	return fmt.Sprintf("Symptoms: %s\nAge: %s\nGender: %s\nDuration: %s",
		req.Symptoms, age, gender, duration)
}
