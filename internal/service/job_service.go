package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"pptxtrans/internal/language"
	"pptxtrans/internal/logger"
	"pptxtrans/internal/model"
	"pptxtrans/internal/pptx"
	"pptxtrans/internal/repository"
	"pptxtrans/internal/spreadsheet"
	"pptxtrans/internal/storage"
	"pptxtrans/internal/translate"
)

// languageConcurrency caps how many target languages translate at once.
const languageConcurrency = 3

// Progress checkpoints of the pipeline.
const (
	progressExtracting  = 5
	progressTranslating = 20
	progressRebuilding  = 80
	progressCompleted   = 100
)

var pptxMagic = []byte{'P', 'K', 0x03, 0x04}

// JobService runs translation jobs through the pipeline and serves
// their state and output files.
type JobService interface {
	// Create stores the upload, persists a pending job and starts the
	// pipeline in the background.
	Create(ctx context.Context, fileName string, data []byte, targetLangs []string) (model.Job, error)
	// Get returns a job with its results.
	Get(ctx context.Context, id int64) (model.Job, error)
	// List returns all jobs, newest first.
	List(ctx context.Context) ([]model.Job, error)
	// Cancel stops a running job.
	Cancel(ctx context.Context, id int64) error
	// Delete removes a job, its results and its files.
	Delete(ctx context.Context, id int64) error
	// Result returns one output deck's record for download.
	Result(ctx context.Context, jobID int64, fileID string) (model.TranslationResult, error)
	// ReviewSheet renders the job's review sheet as xlsx or csv.
	ReviewSheet(ctx context.Context, id int64, format string) ([]byte, string, error)
	// PublishSheet uploads the review sheet to Drive as a Google Sheet
	// and stores the spreadsheet ID on the job.
	PublishSheet(ctx context.Context, id int64) (string, error)
	// PurgeExpired deletes expired jobs and their files.
	PurgeExpired(ctx context.Context) (int, error)
	// Shutdown cancels running jobs and waits for them to stop.
	Shutdown()
}

type jobService struct {
	jobs     repository.JobRepository
	results  repository.ResultRepository
	cache    repository.TranslationCacheRepository
	store    *storage.Store
	engines  EngineFactory
	limiter  *translate.RateLimiter
	ttl      time.Duration

	mu      sync.Mutex
	running map[int64]context.CancelFunc
	wg      sync.WaitGroup
}

// NewJobService creates the job service.
func NewJobService(
	jobs repository.JobRepository,
	results repository.ResultRepository,
	cache repository.TranslationCacheRepository,
	store *storage.Store,
	engines EngineFactory,
	limiter *translate.RateLimiter,
	ttl time.Duration,
) JobService {
	return &jobService{
		jobs:    jobs,
		results: results,
		cache:   cache,
		store:   store,
		engines: engines,
		limiter: limiter,
		ttl:     ttl,
		running: map[int64]context.CancelFunc{},
	}
}

func (s *jobService) Create(ctx context.Context, fileName string, data []byte, targetLangs []string) (model.Job, error) {
	fileName = storage.SanitizeFileName(fileName)
	if !strings.HasSuffix(strings.ToLower(fileName), ".pptx") {
		return model.Job{}, fmt.Errorf("%w: only .pptx files are supported", ErrInvalid)
	}
	if !bytes.HasPrefix(data, pptxMagic) {
		return model.Job{}, fmt.Errorf("%w: file is not a pptx archive", ErrInvalid)
	}

	sourceLang := s.engines.SourceLang(ctx)
	targets, err := normalizeTargets(targetLangs, sourceLang)
	if err != nil {
		return model.Job{}, err
	}

	job := model.Job{
		FileName:    fileName,
		SourceLang:  sourceLang,
		TargetLangs: targets,
		Status:      model.StatusPending,
		ExpiresAt:   time.Now().UTC().Add(s.ttl),
	}
	job, err = s.jobs.Create(ctx, job)
	if err != nil {
		return model.Job{}, err
	}

	sourcePath, err := s.store.SaveUpload(job.ID, fileName, data)
	if err != nil {
		_ = s.jobs.Delete(ctx, job.ID)
		return model.Job{}, err
	}
	job.SourcePath = sourcePath
	if err := s.jobs.SetSourcePath(ctx, job.ID, sourcePath); err != nil {
		_ = s.jobs.Delete(ctx, job.ID)
		return model.Job{}, err
	}

	logger.Info("job created", "module", "service", "action", "create", "resource", "job", "result", "ok", "job_id", job.ID, "file", fileName, "languages", strings.Join(targets, ","))

	s.wg.Add(1)
	go s.run(job)
	return job, nil
}

func normalizeTargets(targetLangs []string, sourceLang string) ([]string, error) {
	var targets []string
	seen := map[string]bool{}
	for _, raw := range targetLangs {
		for _, code := range strings.Split(raw, ",") {
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
			l, ok := language.ByCode(code)
			if !ok {
				return nil, fmt.Errorf("%w: unsupported language %q", ErrInvalid, code)
			}
			if l.Code == sourceLang || seen[l.Code] {
				continue
			}
			seen[l.Code] = true
			targets = append(targets, l.Code)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no target languages", ErrInvalid)
	}
	return targets, nil
}

func (s *jobService) run(job model.Job) {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.running[job.ID] = cancel
	s.mu.Unlock()
	defer func() {
		cancel()
		s.mu.Lock()
		delete(s.running, job.ID)
		s.mu.Unlock()
	}()

	if err := s.pipeline(ctx, job); err != nil {
		if ctx.Err() != nil || errors.Is(err, repository.ErrTerminal) {
			// Cancel already moved the job to cancelled; a refused
			// status write means cancel won the race mid-flight.
			logger.Warn("job cancelled", "module", "service", "action", "translate", "resource", "job", "result", "cancelled", "job_id", job.ID)
			return
		}
		logger.Error("job failed", "module", "service", "action", "translate", "resource", "job", "result", "failed", "job_id", job.ID, "error", err)
		_ = s.jobs.SetError(context.Background(), job.ID, err.Error())
	}
}

func (s *jobService) pipeline(ctx context.Context, job model.Job) error {
	status := job.Status

	transition := func(next model.JobStatus, progress int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !status.CanTransition(next) {
			return fmt.Errorf("invalid transition: %s -> %s", status, next)
		}
		if err := s.jobs.UpdateStatus(ctx, job.ID, next, progress); err != nil {
			return err
		}
		logger.Info("job stage", "module", "service", "action", "translate", "resource", "job", "result", "ok", "job_id", job.ID, "status", string(next), "progress", progress)
		status = next
		return nil
	}

	if err := transition(model.StatusExtracting, progressExtracting); err != nil {
		return err
	}
	slides, err := pptx.ExtractFile(job.SourcePath)
	if err != nil {
		return fmt.Errorf("extract slides: %w", err)
	}

	if err := transition(model.StatusTranslating, progressTranslating); err != nil {
		return err
	}
	engine, err := s.engines.NewEngine(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngine, err)
	}

	replacements := make(map[string]map[int][]string, len(job.TargetLangs))
	var replMu sync.Mutex
	var done int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(languageConcurrency)
	for _, target := range job.TargetLangs {
		g.Go(func() error {
			repl, err := s.translateLanguage(gctx, engine, slides, job.SourceLang, target)
			if err != nil {
				return fmt.Errorf("translate to %s: %w", target, err)
			}
			replMu.Lock()
			replacements[target] = repl
			done++
			progress := progressTranslating + (progressRebuilding-progressTranslating)*done/len(job.TargetLangs)
			replMu.Unlock()
			_ = s.jobs.UpdateProgress(gctx, job.ID, progress)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := transition(model.StatusRebuilding, progressRebuilding); err != nil {
		return err
	}
	for _, target := range job.TargetLangs {
		if err := ctx.Err(); err != nil {
			return err
		}
		outName := storage.OutputFileName(job.FileName, target)
		outPath, err := s.store.OutputPath(job.ID, outName)
		if err != nil {
			return err
		}
		size, err := pptx.RebuildFile(job.SourcePath, replacements[target], outPath)
		if err != nil {
			return fmt.Errorf("rebuild %s deck: %w", target, err)
		}
		if _, err := s.results.Create(ctx, model.TranslationResult{
			JobID:    job.ID,
			Language: target,
			FileName: outName,
			FileID:   uuid.New().String(),
			Path:     outPath,
			Size:     size,
			Kind:     model.ResultKindPipeline,
		}); err != nil {
			return err
		}
	}

	return transition(model.StatusCompleted, progressCompleted)
}

// translateLanguage translates every non-empty run of every slide and
// returns the per-slide replacement slices for the rebuild stage.
func (s *jobService) translateLanguage(ctx context.Context, engine translate.Engine, slides []pptx.Slide, sourceLang, target string) (map[int][]string, error) {
	type unit struct {
		slide int
		run   int
	}

	repl := make(map[int][]string, len(slides))
	var pending []unit
	var pendingTexts []string

	for _, slide := range slides {
		repl[slide.Number] = make([]string, len(slide.Texts))
		for i, text := range slide.Texts {
			if strings.TrimSpace(text) == "" {
				continue
			}
			cached, err := s.cache.Get(ctx, hashText(text), sourceLang, target, engine.Name())
			if err != nil {
				return nil, err
			}
			if cached != nil {
				repl[slide.Number][i] = cached.Translated
				continue
			}
			pending = append(pending, unit{slide: slide.Number, run: i})
			pendingTexts = append(pendingTexts, text)
		}
	}

	if len(pending) == 0 {
		return repl, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	translated, err := engine.Translate(ctx, pendingTexts, sourceLang, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}
	if len(translated) != len(pendingTexts) {
		return nil, fmt.Errorf("%w: engine returned %d texts for %d inputs", ErrEngine, len(translated), len(pendingTexts))
	}

	for i, u := range pending {
		repl[u.slide][u.run] = translated[i]
		if err := s.cache.Save(ctx, model.CachedTranslation{
			SourceLang: sourceLang,
			TargetLang: target,
			SourceHash: hashText(pendingTexts[i]),
			SourceText: pendingTexts[i],
			Translated: translated[i],
			Engine:     engine.Name(),
		}); err != nil {
			logger.Warn("translation cache save failed", "module", "service", "action", "save", "resource", "translation", "result", "failed", "error", err)
		}
	}
	return repl, nil
}

func (s *jobService) Get(ctx context.Context, id int64) (model.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return model.Job{}, mapRepoError(err)
	}
	results, err := s.results.ListByJob(ctx, id)
	if err != nil {
		return model.Job{}, err
	}
	job.Results = results
	return job, nil
}

func (s *jobService) List(ctx context.Context) ([]model.Job, error) {
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range jobs {
		results, err := s.results.ListByJob(ctx, jobs[i].ID)
		if err != nil {
			return nil, err
		}
		jobs[i].Results = results
	}
	return jobs, nil
}

func (s *jobService) Cancel(ctx context.Context, id int64) error {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("%w: job already %s", ErrConflict, job.Status)
	}

	if err := s.jobs.UpdateStatus(ctx, id, model.StatusCancelled, job.Progress); err != nil {
		if errors.Is(err, repository.ErrTerminal) {
			return fmt.Errorf("%w: job already %s", ErrConflict, job.Status)
		}
		return err
	}

	s.mu.Lock()
	cancel := s.running[id]
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	logger.Info("job cancelled", "module", "service", "action", "cancel", "resource", "job", "result", "ok", "job_id", id)
	return nil
}

func (s *jobService) Delete(ctx context.Context, id int64) error {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}
	if !job.Status.IsTerminal() {
		return fmt.Errorf("%w: cancel the job first", ErrConflict)
	}
	if err := s.results.DeleteByJob(ctx, id); err != nil {
		return err
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.RemoveJob(id); err != nil {
		logger.Warn("job files remove failed", "module", "service", "action", "delete", "resource", "job", "result", "failed", "job_id", id, "error", err)
	}
	return nil
}

func (s *jobService) Result(ctx context.Context, jobID int64, fileID string) (model.TranslationResult, error) {
	result, err := s.results.GetByFileID(ctx, jobID, fileID)
	if err != nil {
		return model.TranslationResult{}, mapRepoError(err)
	}
	return result, nil
}

func (s *jobService) ReviewSheet(ctx context.Context, id int64, format string) ([]byte, string, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, "", mapRepoError(err)
	}
	slides, err := pptx.ExtractFile(job.SourcePath)
	if err != nil {
		return nil, "", fmt.Errorf("extract slides: %w", err)
	}

	base := strings.TrimSuffix(job.FileName, ".pptx") + "_review"
	var buf bytes.Buffer
	switch format {
	case "csv":
		if err := spreadsheet.WriteCSV(&buf, slides, job.TargetLangs); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), base + ".csv", nil
	case "", "xlsx":
		if err := spreadsheet.WriteXLSX(&buf, slides, job.SourceLang, job.TargetLangs); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), base + ".xlsx", nil
	default:
		return nil, "", fmt.Errorf("%w: unknown sheet format %q", ErrInvalid, format)
	}
}

func (s *jobService) PublishSheet(ctx context.Context, id int64) (string, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return "", mapRepoError(err)
	}

	content, name, err := s.ReviewSheet(ctx, id, "xlsx")
	if err != nil {
		return "", err
	}

	client, err := s.engines.NewGoogleClient(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngine, err)
	}
	spreadsheetID, err := client.UploadFile(
		ctx,
		strings.TrimSuffix(name, ".xlsx"),
		"application/vnd.google-apps.spreadsheet",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		content,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngine, err)
	}
	if err := s.jobs.SetSpreadsheetID(ctx, job.ID, spreadsheetID); err != nil {
		return "", err
	}

	logger.Info("review sheet published", "module", "service", "action", "publish", "resource", "sheet", "result", "ok", "job_id", id, "spreadsheet_id", spreadsheetID)
	return spreadsheetID, nil
}

func (s *jobService) PurgeExpired(ctx context.Context) (int, error) {
	expired, err := s.jobs.ListExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, job := range expired {
		s.mu.Lock()
		_, active := s.running[job.ID]
		s.mu.Unlock()
		if active {
			continue
		}
		if err := s.results.DeleteByJob(ctx, job.ID); err != nil {
			return purged, err
		}
		if err := s.jobs.Delete(ctx, job.ID); err != nil {
			return purged, err
		}
		if err := s.store.RemoveJob(job.ID); err != nil {
			logger.Warn("job files remove failed", "module", "service", "action", "purge", "resource", "job", "result", "failed", "job_id", job.ID, "error", err)
		}
		purged++
	}
	return purged, nil
}

func (s *jobService) Shutdown() {
	s.mu.Lock()
	for _, cancel := range s.running {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func hashText(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

func mapRepoError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
