package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"pptxtrans/internal/language"
	"pptxtrans/internal/logger"
	"pptxtrans/internal/model"
	"pptxtrans/internal/repository"
	"pptxtrans/internal/translate"
)

// allowedSettings are the keys the API accepts.
var allowedSettings = map[string]bool{
	KeyEngine:                true,
	KeySourceLang:            true,
	KeyQPS:                   true,
	KeyGoogleAPIKey:          true,
	KeyGoogleCredentialsFile: true,
	KeyLLMProvider:           true,
	KeyLLMAPIKey:             true,
	KeyLLMBaseURL:            true,
	KeyLLMModel:              true,
	KeyProxyURL:              true,
}

// SettingsService exposes the translate/google/llm/network settings.
type SettingsService interface {
	// List returns all settings with secret values masked.
	List(ctx context.Context) ([]model.Setting, error)
	// Update validates and stores the given settings.
	Update(ctx context.Context, values map[string]string) error
	// ClearTranslationCache drops every cached translation and returns
	// how many entries were removed.
	ClearTranslationCache(ctx context.Context) (int64, error)
	// GetProxyURL returns the configured outbound proxy URL, or "".
	GetProxyURL(ctx context.Context) string
}

type settingsService struct {
	settings repository.SettingsRepository
	cache    repository.TranslationCacheRepository
	limiter  *translate.RateLimiter
}

// NewSettingsService creates the settings service.
func NewSettingsService(settings repository.SettingsRepository, cache repository.TranslationCacheRepository, limiter *translate.RateLimiter) SettingsService {
	return &settingsService{settings: settings, cache: cache, limiter: limiter}
}

func (s *settingsService) List(ctx context.Context) ([]model.Setting, error) {
	var out []model.Setting
	for _, prefix := range []string{"translate.", "google.", "llm.", "network."} {
		settings, err := s.settings.GetByPrefix(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("get %s settings: %w", prefix, err)
		}
		for _, setting := range settings {
			if strings.HasSuffix(setting.Key, "api_key") {
				setting.Value = maskSecret(setting.Value)
			}
			out = append(out, setting)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *settingsService) Update(ctx context.Context, values map[string]string) error {
	for key, value := range values {
		if !allowedSettings[key] {
			return fmt.Errorf("%w: unknown setting %q", ErrInvalid, key)
		}
		if isMaskedSecret(key, value) {
			continue
		}
		if err := validateSetting(key, value); err != nil {
			return err
		}
	}

	for key, value := range values {
		// A client that round-trips GET /settings sends the mask back;
		// storing it would clobber the real key.
		if isMaskedSecret(key, value) {
			continue
		}
		if err := s.settings.Set(ctx, key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		if key == KeyQPS {
			qps, _ := strconv.Atoi(value)
			s.limiter.SetLimit(qps)
		}
		logged := value
		if strings.HasSuffix(key, "api_key") {
			logged = maskSecret(value)
		}
		logger.Info("setting updated", "module", "service", "action", "update", "resource", "setting", "result", "ok", "key", key, "value", logged)
	}
	return nil
}

func (s *settingsService) ClearTranslationCache(ctx context.Context) (int64, error) {
	deleted, err := s.cache.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear translation cache: %w", err)
	}
	logger.Info("translation cache cleared", "module", "service", "action", "delete", "resource", "translation", "result", "ok", "count", deleted)
	return deleted, nil
}

func (s *settingsService) GetProxyURL(ctx context.Context) string {
	setting, err := s.settings.Get(ctx, KeyProxyURL)
	if err != nil || setting == nil {
		return ""
	}
	return setting.Value
}

func validateSetting(key, value string) error {
	switch key {
	case KeyEngine:
		switch value {
		case translate.EngineGoogle, translate.EngineSheets, translate.EngineLLM:
		default:
			return fmt.Errorf("%w: unknown engine %q", ErrInvalid, value)
		}
	case KeySourceLang:
		if !language.IsSupported(value) {
			return fmt.Errorf("%w: unsupported language %q", ErrInvalid, value)
		}
	case KeyQPS:
		qps, err := strconv.Atoi(value)
		if err != nil || qps < 1 {
			return fmt.Errorf("%w: qps must be a positive integer", ErrInvalid)
		}
	case KeyProxyURL:
		if value == "" {
			return nil
		}
		parsed, err := url.Parse(value)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("%w: invalid proxy url", ErrInvalid)
		}
		switch parsed.Scheme {
		case "http", "https", "socks5", "socks5h":
		default:
			return fmt.Errorf("%w: unsupported proxy scheme %q", ErrInvalid, parsed.Scheme)
		}
	}
	return nil
}

// isMaskedSecret reports whether value is the masked form List returns
// for secret keys.
func isMaskedSecret(key, value string) bool {
	return strings.HasSuffix(key, "api_key") && strings.Contains(value, "****")
}

func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "****" + value[len(value)-4:]
}
