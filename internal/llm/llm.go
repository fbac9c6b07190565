package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Feature names used for prompts, schemas and metrics.
const (
	FeatureAudit          = "audit"
	FeatureBuilder        = "builder"
	FeatureCoverLetter    = "coverLetter"
	FeatureInterviewGuide = "interviewGuide"
	FeatureCheatSheet     = "cheatSheet"
	FeatureLinkedInPosts  = "linkedinPosts"
	FeatureTranslation    = "translation"
	FeatureCareerPath     = "careerPath"
	FeatureSalaryAnalyzer = "salaryAnalyzer"

	featureFixJSON = "fix_json"
)

// Prompt is one chat completion request. The model must answer with a single JSON object.
type Prompt struct {
	Feature string
	System  string
	User    string
}

// Client abstracts LLM providers.
type Client interface {
	Complete(ctx context.Context, prompt Prompt) (json.RawMessage, error)
}

var (
	// ErrNotConfigured is returned when no provider key is set.
	ErrNotConfigured = errors.New("llm provider not configured")
	// ErrInvalidOutput is returned when the model output is not usable JSON even after repair.
	ErrInvalidOutput = errors.New("llm returned invalid output")
	// ErrUpstream wraps provider failures.
	ErrUpstream = errors.New("llm upstream error")
)

// Placeholder is used when no provider is configured.
type Placeholder struct{}

// Complete returns ErrNotConfigured.
func (Placeholder) Complete(context.Context, Prompt) (json.RawMessage, error) {
	return nil, ErrNotConfigured
}
