package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pptxtrans/internal/logger"
	"pptxtrans/internal/model"
	"pptxtrans/internal/pptx"
	"pptxtrans/internal/repository"
	"pptxtrans/internal/spreadsheet"
	"pptxtrans/internal/storage"
)

// ImportOutcome reports what a review-sheet import produced.
type ImportOutcome struct {
	Stats   spreadsheet.ImportStats   `json:"stats"`
	Results []model.TranslationResult `json:"results"`
}

// ImportService rebuilds decks from a reviewed translation sheet,
// either uploaded directly or synced back from Google Drive.
type ImportService interface {
	FromUpload(ctx context.Context, jobID int64, data []byte) (ImportOutcome, error)
	FromDrive(ctx context.Context, jobID int64) (ImportOutcome, error)
}

type importService struct {
	jobs    repository.JobRepository
	results repository.ResultRepository
	store   *storage.Store
	engines EngineFactory
}

// NewImportService creates the import service.
func NewImportService(jobs repository.JobRepository, results repository.ResultRepository, store *storage.Store, engines EngineFactory) ImportService {
	return &importService{jobs: jobs, results: results, store: store, engines: engines}
}

func (s *importService) FromUpload(ctx context.Context, jobID int64, data []byte) (ImportOutcome, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return ImportOutcome{}, mapRepoError(err)
	}
	rows, err := spreadsheet.Parse(data)
	if err != nil {
		return ImportOutcome{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return s.apply(ctx, job, rows)
}

func (s *importService) FromDrive(ctx context.Context, jobID int64) (ImportOutcome, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return ImportOutcome{}, mapRepoError(err)
	}
	if job.SpreadsheetID == nil || *job.SpreadsheetID == "" {
		return ImportOutcome{}, fmt.Errorf("%w: job has no published sheet", ErrConflict)
	}

	client, err := s.engines.NewGoogleClient(ctx)
	if err != nil {
		return ImportOutcome{}, fmt.Errorf("%w: %v", ErrEngine, err)
	}
	data, err := client.ExportFile(ctx, *job.SpreadsheetID, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err != nil {
		return ImportOutcome{}, fmt.Errorf("%w: export sheet: %v", ErrEngine, err)
	}
	rows, err := spreadsheet.Parse(data)
	if err != nil {
		return ImportOutcome{}, fmt.Errorf("parse exported sheet: %w", err)
	}
	return s.apply(ctx, job, rows)
}

// apply maps the sheet rows to translations and rebuilds one deck per
// language column found in the sheet.
func (s *importService) apply(ctx context.Context, job model.Job, rows [][]string) (ImportOutcome, error) {
	translations, stats, err := spreadsheet.MapTranslations(rows)
	if err != nil {
		return ImportOutcome{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	slides, err := pptx.ExtractFile(job.SourcePath)
	if err != nil {
		return ImportOutcome{}, fmt.Errorf("extract slides: %w", err)
	}

	outcome := ImportOutcome{Stats: stats}
	for _, lang := range stats.Languages {
		replacements := slideReplacements(slides, translations, lang)

		outName := storage.OutputFileName(job.FileName, lang+"_reviewed")
		outPath, err := s.store.OutputPath(job.ID, outName)
		if err != nil {
			return ImportOutcome{}, err
		}
		size, err := pptx.RebuildFile(job.SourcePath, replacements, outPath)
		if err != nil {
			return ImportOutcome{}, fmt.Errorf("rebuild %s deck: %w", lang, err)
		}
		result, err := s.results.Create(ctx, model.TranslationResult{
			JobID:    job.ID,
			Language: lang,
			FileName: outName,
			FileID:   uuid.New().String(),
			Path:     outPath,
			Size:     size,
			Kind:     model.ResultKindImport,
		})
		if err != nil {
			return ImportOutcome{}, err
		}
		outcome.Results = append(outcome.Results, result)
	}

	logger.Info("review sheet imported", "module", "service", "action", "import", "resource", "sheet", "result", "ok", "job_id", job.ID, "rows", stats.Rows, "languages", strings.Join(stats.Languages, ","))
	return outcome, nil
}

// slideReplacements distributes a slide's reviewed text across its
// non-empty runs. Lines map to runs in order; surplus lines are folded
// into the last run and missing lines keep the original text.
func slideReplacements(slides []pptx.Slide, translations model.TranslationMap, lang string) map[int][]string {
	replacements := make(map[int][]string, len(slides))
	for _, slide := range slides {
		text, ok := translations[slide.Number][lang]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		lines := strings.Split(text, "\n")

		runs := make([]string, len(slide.Texts))
		next := 0
		last := -1
		for i, original := range slide.Texts {
			if strings.TrimSpace(original) == "" {
				continue
			}
			if next < len(lines) {
				runs[i] = lines[next]
				next++
			}
			last = i
		}
		if last >= 0 && next < len(lines) {
			rest := append([]string{runs[last]}, lines[next:]...)
			runs[last] = strings.Join(rest, "\n")
		}
		replacements[slide.Number] = runs
	}
	return replacements
}
