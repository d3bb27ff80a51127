package service

import (
	"context"
	"fmt"
	"time"

	"pptxtrans/internal/google"
	"pptxtrans/internal/network"
	"pptxtrans/internal/repository"
	"pptxtrans/internal/translate"
	"pptxtrans/internal/translate/llm"
)

// Settings keys for engine configuration.
const (
	KeyEngine     = "translate.engine"
	KeySourceLang = "translate.source_lang"
	KeyQPS        = "translate.qps"

	KeyGoogleAPIKey          = "google.api_key"
	KeyGoogleCredentialsFile = "google.credentials_file"

	KeyLLMProvider = "llm.provider"
	KeyLLMAPIKey   = "llm.api_key"
	KeyLLMBaseURL  = "llm.base_url"
	KeyLLMModel    = "llm.model"

	KeyProxyURL = "network.proxy_url"
)

// DefaultSourceLang is used when no source language is configured.
const DefaultSourceLang = "en"

// EngineFactory builds translation engines and Google API clients from
// the stored settings.
type EngineFactory interface {
	// NewEngine returns the engine selected by translate.engine.
	NewEngine(ctx context.Context) (translate.Engine, error)
	// NewGoogleClient returns a Drive/Sheets client for the configured
	// service account.
	NewGoogleClient(ctx context.Context) (*google.Client, error)
	// SourceLang returns the configured source language code.
	SourceLang(ctx context.Context) string
}

type engineFactory struct {
	settings        repository.SettingsRepository
	clients         *network.ClientFactory
	credentialsFile string // fallback when no setting is stored
}

// NewEngineFactory creates a settings-driven engine factory.
// credentialsFile is the GOOGLE_APPLICATION_CREDENTIALS fallback.
func NewEngineFactory(settings repository.SettingsRepository, clients *network.ClientFactory, credentialsFile string) EngineFactory {
	return &engineFactory{
		settings:        settings,
		clients:         clients,
		credentialsFile: credentialsFile,
	}
}

func (f *engineFactory) settingsMap(ctx context.Context, prefixes ...string) (map[string]string, error) {
	out := map[string]string{}
	for _, prefix := range prefixes {
		settings, err := f.settings.GetByPrefix(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("get %s settings: %w", prefix, err)
		}
		for _, s := range settings {
			out[s.Key] = s.Value
		}
	}
	return out, nil
}

func (f *engineFactory) NewEngine(ctx context.Context) (translate.Engine, error) {
	cfg, err := f.settingsMap(ctx, "translate.", "google.", "llm.")
	if err != nil {
		return nil, err
	}

	engine := cfg[KeyEngine]
	if engine == "" {
		engine = translate.EngineGoogle
	}

	switch engine {
	case translate.EngineGoogle:
		apiKey := cfg[KeyGoogleAPIKey]
		if apiKey == "" {
			return nil, fmt.Errorf("%w: set %s", translate.ErrMissingAPIKey, KeyGoogleAPIKey)
		}
		return translate.NewGoogleEngine(apiKey, f.clients.NewHTTPClient(ctx, 30*time.Second))
	case translate.EngineSheets:
		client, err := f.newGoogleClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return translate.NewSheetsEngine(client), nil
	case translate.EngineLLM:
		return translate.NewLLMEngine(llm.Config{
			Provider: defaultString(cfg[KeyLLMProvider], llm.ProviderOpenAI),
			APIKey:   cfg[KeyLLMAPIKey],
			BaseURL:  cfg[KeyLLMBaseURL],
			Model:    cfg[KeyLLMModel],
		})
	default:
		return nil, fmt.Errorf("%w: %s", translate.ErrInvalidEngine, engine)
	}
}

func (f *engineFactory) NewGoogleClient(ctx context.Context) (*google.Client, error) {
	cfg, err := f.settingsMap(ctx, "google.")
	if err != nil {
		return nil, err
	}
	return f.newGoogleClient(ctx, cfg)
}

func (f *engineFactory) newGoogleClient(ctx context.Context, cfg map[string]string) (*google.Client, error) {
	path := defaultString(cfg[KeyGoogleCredentialsFile], f.credentialsFile)
	if path == "" {
		return nil, fmt.Errorf("service account credentials are not configured")
	}
	key, err := google.LoadKey(path)
	if err != nil {
		return nil, err
	}
	httpClient := f.clients.NewHTTPClient(ctx, 60*time.Second)
	ts := google.NewTokenSource(key, httpClient, google.ScopeDriveSheets)
	return google.NewClient(ts, httpClient), nil
}

func (f *engineFactory) SourceLang(ctx context.Context) string {
	setting, err := f.settings.Get(ctx, KeySourceLang)
	if err != nil || setting == nil || setting.Value == "" {
		return DefaultSourceLang
	}
	return setting.Value
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
