package model

import "time"

// CachedTranslation is a previously translated text fragment. The cache
// avoids re-billing the translation backend for identical slide runs.
type CachedTranslation struct {
	ID         int64
	SourceLang string
	TargetLang string
	SourceHash string
	SourceText string
	Translated string
	Engine     string
	CreatedAt  time.Time
}
