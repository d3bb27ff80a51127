package translate

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pptxtrans/internal/translate/llm"
)

// llmBatchSize caps how many runs go into one completion request.
const llmBatchSize = 40

// LLMEngine translates through a chat-completion provider using a
// numbered-line batch protocol.
type LLMEngine struct {
	provider llm.Provider
}

// NewLLMEngine creates an engine backed by the configured provider.
func NewLLMEngine(cfg llm.Config) (*LLMEngine, error) {
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	return &LLMEngine{provider: provider}, nil
}

// NewLLMEngineWithProvider is for tests that inject a stub provider.
func NewLLMEngineWithProvider(provider llm.Provider) *LLMEngine {
	return &LLMEngine{provider: provider}
}

func (e *LLMEngine) Name() string { return EngineLLM }

func (e *LLMEngine) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	prompt := llm.GetTranslatePrompt(sourceLang, targetLang)

	out := make([]string, 0, len(texts))
	for start := 0; start < len(texts); start += llmBatchSize {
		end := start + llmBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		resp, err := e.provider.Complete(ctx, prompt, encodeNumberedLines(batch))
		if err != nil {
			return nil, fmt.Errorf("llm complete: %w", err)
		}
		decoded, err := decodeNumberedLines(resp, len(batch))
		if err != nil {
			return nil, err
		}
		out = append(out, decoded...)
	}
	return out, nil
}

func encodeNumberedLines(texts []string) string {
	var b strings.Builder
	for i, text := range texts {
		// Runs are single display lines; stray newlines would break the
		// line protocol.
		text = strings.ReplaceAll(text, "\n", " ")
		fmt.Fprintf(&b, "%d. %s\n", i+1, text)
	}
	return b.String()
}

var numberedLine = regexp.MustCompile(`^\s*(\d+)\.\s?(.*)$`)

func decodeNumberedLines(resp string, n int) ([]string, error) {
	out := make([]string, n)
	found := 0
	for _, line := range strings.Split(resp, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > n {
			continue
		}
		if out[idx-1] == "" {
			out[idx-1] = strings.TrimSpace(m[2])
			found++
		}
	}
	if found != n {
		return nil, fmt.Errorf("llm returned %d of %d lines", found, n)
	}
	return out, nil
}
