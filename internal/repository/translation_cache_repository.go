package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pptxtrans/internal/model"
	"pptxtrans/internal/snowflake"
)

// TranslationCacheRepository stores translated fragments keyed by the
// hash of their source text.
type TranslationCacheRepository interface {
	Get(ctx context.Context, sourceHash, sourceLang, targetLang, engine string) (*model.CachedTranslation, error)
	Save(ctx context.Context, t model.CachedTranslation) error
	DeleteAll(ctx context.Context) (int64, error)
}

type translationCacheRepository struct {
	db dbtx
}

func NewTranslationCacheRepository(db dbtx) TranslationCacheRepository {
	return &translationCacheRepository{db: db}
}

func (r *translationCacheRepository) Get(ctx context.Context, sourceHash, sourceLang, targetLang, engine string) (*model.CachedTranslation, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source_lang, target_lang, source_hash, source_text, translated_text, engine, created_at
		FROM translations
		WHERE source_hash = ? AND source_lang = ? AND target_lang = ? AND engine = ?
	`, sourceHash, sourceLang, targetLang, engine)

	var t model.CachedTranslation
	var createdAt string
	if err := row.Scan(&t.ID, &t.SourceLang, &t.TargetLang, &t.SourceHash, &t.SourceText, &t.Translated, &t.Engine, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get translation: %w", err)
	}
	parsed, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse translation created_at: %w", err)
	}
	t.CreatedAt = parsed
	return &t, nil
}

func (r *translationCacheRepository) Save(ctx context.Context, t model.CachedTranslation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO translations (id, source_lang, target_lang, source_hash, source_text, translated_text, engine, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_hash, source_lang, target_lang, engine)
		DO UPDATE SET translated_text = excluded.translated_text, created_at = excluded.created_at
	`,
		snowflake.NextID(),
		t.SourceLang,
		t.TargetLang,
		t.SourceHash,
		t.SourceText,
		t.Translated,
		t.Engine,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save translation: %w", err)
	}
	return nil
}

func (r *translationCacheRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM translations`)
	if err != nil {
		return 0, fmt.Errorf("clear translations: %w", err)
	}
	return result.RowsAffected()
}
