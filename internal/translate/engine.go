// Package translate holds the translation engines a job can run on.
package translate

import (
	"context"
	"errors"
)

// Engine turns a batch of source texts into one target language.
// Implementations must return exactly one output per input, in order.
type Engine interface {
	// Name returns the engine identifier used in cache keys.
	Name() string
	// Translate translates texts from sourceLang to targetLang.
	Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
}

// Engine identifiers.
const (
	EngineGoogle = "google"
	EngineSheets = "sheets"
	EngineLLM    = "llm"
)

var (
	ErrInvalidEngine = errors.New("invalid engine")
	ErrMissingAPIKey = errors.New("API key is required")
)
