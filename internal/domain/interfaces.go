package domain

import "context"

// ModelClient is the opaque language-model collaborator: prompt in, raw
// completion text out. It may fail or return malformed JSON; classification
// of those failures belongs to the analysis service.
type ModelClient interface {
	Complete(ctx context.Context, req *AnalysisRequest) (string, error)
}

// ConfigManager provides access to validated configuration.
type ConfigManager interface {
	GetConfig() *Config
	Validate() error
}
