package ai

import "context"

// Prompt is one grounded question for the assistant. Context is the role-specific data the
// answer must be based on.
type Prompt struct {
	Context  string
	Question string
}

// Generator describes a generative-text backend able to answer a grounded question.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}
