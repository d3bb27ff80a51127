package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"time"
)

const defaultTranslateBaseURL = "https://translation.googleapis.com/language/translate/v2"

// translateBatchSize is the Translate v2 per-request segment cap.
const translateBatchSize = 128

// GoogleEngine calls the Google Translate v2 REST API with an API key.
type GoogleEngine struct {
	apiKey  string
	client  *http.Client
	baseURL string
}

// NewGoogleEngine creates the Translate v2 engine.
func NewGoogleEngine(apiKey string, client *http.Client) (*GoogleEngine, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GoogleEngine{apiKey: apiKey, client: client, baseURL: defaultTranslateBaseURL}, nil
}

// NewGoogleEngineForTest creates an engine pointed at baseURL.
// This is only for use in tests.
func NewGoogleEngineForTest(apiKey string, client *http.Client, baseURL string) *GoogleEngine {
	return &GoogleEngine{apiKey: apiKey, client: client, baseURL: baseURL}
}

func (e *GoogleEngine) Name() string { return EngineGoogle }

func (e *GoogleEngine) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	out := make([]string, 0, len(texts))
	for start := 0; start < len(texts); start += translateBatchSize {
		end := start + translateBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.translateBatch(ctx, texts[start:end], sourceLang, targetLang)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (e *GoogleEngine) translateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	body, err := json.Marshal(map[string]any{
		"q":      texts,
		"source": sourceLang,
		"target": targetLang,
		"format": "text",
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"?key="+e.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read translate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("translate: status %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var parsed struct {
		Data struct {
			Translations []struct {
				TranslatedText string `json:"translatedText"`
			} `json:"translations"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse translate response: %w", err)
	}
	if len(parsed.Data.Translations) != len(texts) {
		return nil, fmt.Errorf("translate: got %d translations for %d texts", len(parsed.Data.Translations), len(texts))
	}

	out := make([]string, len(texts))
	for i, t := range parsed.Data.Translations {
		// The API entity-escapes even with format=text in edge cases.
		out[i] = html.UnescapeString(t.TranslatedText)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
