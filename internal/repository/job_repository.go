package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pptxtrans/internal/model"
	"pptxtrans/internal/snowflake"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrTerminal is returned when a status write is refused because the
// job already reached a terminal status.
var ErrTerminal = errors.New("job status is terminal")

type JobRepository interface {
	Create(ctx context.Context, job model.Job) (model.Job, error)
	GetByID(ctx context.Context, id int64) (model.Job, error)
	List(ctx context.Context) ([]model.Job, error)
	ListExpired(ctx context.Context, now time.Time) ([]model.Job, error)
	UpdateStatus(ctx context.Context, id int64, status model.JobStatus, progress int) error
	UpdateProgress(ctx context.Context, id int64, progress int) error
	SetSourcePath(ctx context.Context, id int64, sourcePath string) error
	SetError(ctx context.Context, id int64, message string) error
	SetSpreadsheetID(ctx context.Context, id int64, spreadsheetID string) error
	Delete(ctx context.Context, id int64) error
}

type jobRepository struct {
	db dbtx
}

func NewJobRepository(db dbtx) JobRepository {
	return &jobRepository{db: db}
}

const jobColumns = `id, file_name, source_path, source_lang, target_langs, status, progress, error_message, spreadsheet_id, created_at, updated_at, expires_at`

func (r *jobRepository) Create(ctx context.Context, job model.Job) (model.Job, error) {
	job.ID = snowflake.NextID()
	now := time.Now().UTC()
	if job.Status == "" {
		job.Status = model.StatusPending
	}
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.FileName,
		job.SourcePath,
		job.SourceLang,
		strings.Join(job.TargetLangs, ","),
		string(job.Status),
		job.Progress,
		nullableString(job.ErrorMessage),
		nullableString(job.SpreadsheetID),
		formatTime(now),
		formatTime(now),
		formatTime(job.ExpiresAt),
	)
	if err != nil {
		return model.Job{}, fmt.Errorf("create job: %w", err)
	}
	job.CreatedAt = now
	job.UpdatedAt = now
	return job, nil
}

func (r *jobRepository) GetByID(ctx context.Context, id int64) (model.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Job{}, ErrNotFound
		}
		return model.Job{}, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (r *jobRepository) List(ctx context.Context) ([]model.Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (r *jobRepository) ListExpired(ctx context.Context, now time.Time) ([]model.Job, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE expires_at < ?`, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("list expired jobs: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// UpdateStatus moves a job to status unless the row already reached a
// terminal status. Cancel races the pipeline's own writes; guarding in
// SQL keeps completed/error/cancelled sticky no matter which write
// lands last.
func (r *jobRepository) UpdateStatus(ctx context.Context, id int64, status model.JobStatus, progress int) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, progress = ?, updated_at = ?
		 WHERE id = ? AND status NOT IN (?, ?, ?)`,
		string(status),
		progress,
		formatTime(time.Now()),
		id,
		string(model.StatusCompleted),
		string(model.StatusError),
		string(model.StatusCancelled),
	)
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	if n == 0 {
		return ErrTerminal
	}
	return nil
}

func (r *jobRepository) UpdateProgress(ctx context.Context, id int64, progress int) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?`,
		progress,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

func (r *jobRepository) SetSourcePath(ctx context.Context, id int64, sourcePath string) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE jobs SET source_path = ?, updated_at = ? WHERE id = ?`,
		sourcePath,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set job source path: %w", err)
	}
	return nil
}

// SetError marks a job failed. Like UpdateStatus it refuses to touch a
// job that is already terminal, so a failing pipeline cannot overwrite
// a concurrent cancel.
func (r *jobRepository) SetError(ctx context.Context, id int64, message string) error {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ?
		 WHERE id = ? AND status NOT IN (?, ?, ?)`,
		string(model.StatusError),
		message,
		formatTime(time.Now()),
		id,
		string(model.StatusCompleted),
		string(model.StatusError),
		string(model.StatusCancelled),
	)
	if err != nil {
		return fmt.Errorf("set job error: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set job error: %w", err)
	}
	if n == 0 {
		return ErrTerminal
	}
	return nil
}

func (r *jobRepository) SetSpreadsheetID(ctx context.Context, id int64, spreadsheetID string) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE jobs SET spreadsheet_id = ?, updated_at = ? WHERE id = ?`,
		spreadsheetID,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set job spreadsheet: %w", err)
	}
	return nil
}

func (r *jobRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

func collectJobs(rows *sql.Rows) ([]model.Job, error) {
	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

func scanJob(scanner interface {
	Scan(dest ...interface{}) error
}) (model.Job, error) {
	var job model.Job
	var targetLangs string
	var status string
	var errorMessage sql.NullString
	var spreadsheetID sql.NullString
	var createdAt, updatedAt, expiresAt string
	if err := scanner.Scan(
		&job.ID,
		&job.FileName,
		&job.SourcePath,
		&job.SourceLang,
		&targetLangs,
		&status,
		&job.Progress,
		&errorMessage,
		&spreadsheetID,
		&createdAt,
		&updatedAt,
		&expiresAt,
	); err != nil {
		return model.Job{}, err
	}
	if targetLangs != "" {
		job.TargetLangs = strings.Split(targetLangs, ",")
	}
	job.Status = model.JobStatus(status)
	if errorMessage.Valid {
		job.ErrorMessage = &errorMessage.String
	}
	if spreadsheetID.Valid {
		job.SpreadsheetID = &spreadsheetID.String
	}
	var err error
	job.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Job{}, fmt.Errorf("parse job created_at: %w", err)
	}
	job.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return model.Job{}, fmt.Errorf("parse job updated_at: %w", err)
	}
	job.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return model.Job{}, fmt.Errorf("parse job expires_at: %w", err)
	}
	return job, nil
}
