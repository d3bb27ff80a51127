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

type ResultRepository interface {
	Create(ctx context.Context, result model.TranslationResult) (model.TranslationResult, error)
	ListByJob(ctx context.Context, jobID int64) ([]model.TranslationResult, error)
	GetByFileID(ctx context.Context, jobID int64, fileID string) (model.TranslationResult, error)
	DeleteByJob(ctx context.Context, jobID int64) error
}

type resultRepository struct {
	db dbtx
}

func NewResultRepository(db dbtx) ResultRepository {
	return &resultRepository{db: db}
}

const resultColumns = `id, job_id, language, file_name, file_id, path, size, kind, created_at`

func (r *resultRepository) Create(ctx context.Context, result model.TranslationResult) (model.TranslationResult, error) {
	result.ID = snowflake.NextID()
	now := time.Now().UTC()
	if result.Kind == "" {
		result.Kind = model.ResultKindPipeline
	}
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO results (`+resultColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.JobID,
		result.Language,
		result.FileName,
		result.FileID,
		result.Path,
		result.Size,
		result.Kind,
		formatTime(now),
	)
	if err != nil {
		return model.TranslationResult{}, fmt.Errorf("create result: %w", err)
	}
	result.CreatedAt = now
	return result, nil
}

func (r *resultRepository) ListByJob(ctx context.Context, jobID int64) ([]model.TranslationResult, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+resultColumns+` FROM results WHERE job_id = ? ORDER BY language, kind`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var results []model.TranslationResult
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

func (r *resultRepository) GetByFileID(ctx context.Context, jobID int64, fileID string) (model.TranslationResult, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+resultColumns+` FROM results WHERE job_id = ? AND file_id = ?`, jobID, fileID)
	result, err := scanResult(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TranslationResult{}, ErrNotFound
		}
		return model.TranslationResult{}, fmt.Errorf("get result: %w", err)
	}
	return result, nil
}

func (r *resultRepository) DeleteByJob(ctx context.Context, jobID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM results WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("delete results: %w", err)
	}
	return nil
}

func scanResult(scanner interface {
	Scan(dest ...interface{}) error
}) (model.TranslationResult, error) {
	var result model.TranslationResult
	var createdAt string
	if err := scanner.Scan(
		&result.ID,
		&result.JobID,
		&result.Language,
		&result.FileName,
		&result.FileID,
		&result.Path,
		&result.Size,
		&result.Kind,
		&createdAt,
	); err != nil {
		return model.TranslationResult{}, err
	}
	var err error
	result.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.TranslationResult{}, fmt.Errorf("parse result created_at: %w", err)
	}
	return result, nil
}
