package service_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pptxtrans/internal/google"
	"pptxtrans/internal/model"
	"pptxtrans/internal/pptx"
	"pptxtrans/internal/repository"
	"pptxtrans/internal/repository/mock"
	"pptxtrans/internal/service"
	"pptxtrans/internal/snowflake"
	"pptxtrans/internal/storage"
	"pptxtrans/internal/translate"
)

func init() {
	if err := snowflake.Init(0); err != nil {
		panic(err)
	}
}

// stubEngine prefixes every text with the target language so the
// output is easy to assert on.
type stubEngine struct {
	err   error
	calls int
}

func (e *stubEngine) Name() string { return "stub" }

func (e *stubEngine) Translate(_ context.Context, texts []string, _, targetLang string) ([]string, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([]string, len(texts))
	for i, text := range texts {
		out[i] = "[" + targetLang + "] " + text
	}
	return out, nil
}

type stubFactory struct {
	engine    translate.Engine
	engineErr error
}

func (f *stubFactory) NewEngine(context.Context) (translate.Engine, error) {
	return f.engine, f.engineErr
}

func (f *stubFactory) NewGoogleClient(context.Context) (*google.Client, error) {
	return nil, errors.New("google not configured")
}

func (f *stubFactory) SourceLang(context.Context) string { return "en" }

func buildDeck(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":   `<?xml version="1.0"?><Types/>`,
		"ppt/slides/slide1.xml": `<p:sp><a:t>Hello</a:t><a:t>World</a:t></p:sp>`,
		"ppt/slides/slide2.xml": `<p:sp><a:t>Second</a:t></p:sp>`,
	}
	for name, content := range files {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type fixture struct {
	jobs    *mock.MockJobRepository
	results *mock.MockResultRepository
	cache   *mock.MockTranslationCacheRepository
	store   *storage.Store
	factory *stubFactory
	svc     service.JobService
}

func newFixture(t *testing.T, engine translate.Engine) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	store, err := storage.New(t.TempDir())
	require.NoError(t, err)

	f := &fixture{
		jobs:    mock.NewMockJobRepository(ctrl),
		results: mock.NewMockResultRepository(ctrl),
		cache:   mock.NewMockTranslationCacheRepository(ctrl),
		store:   store,
		factory: &stubFactory{engine: engine},
	}
	f.svc = service.NewJobService(f.jobs, f.results, f.cache, store, f.factory, translate.NewRateLimiter(100), time.Hour)
	return f
}

func TestJobService_Create_RunsPipeline(t *testing.T) {
	engine := &stubEngine{}
	f := newFixture(t, engine)
	done := make(chan struct{})

	f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job model.Job) (model.Job, error) {
			job.ID = 1
			return job, nil
		})
	f.jobs.EXPECT().SetSourcePath(gomock.Any(), int64(1), gomock.Any()).Return(nil)

	f.jobs.EXPECT().UpdateStatus(gomock.Any(), int64(1), model.StatusExtracting, gomock.Any()).Return(nil)
	f.jobs.EXPECT().UpdateStatus(gomock.Any(), int64(1), model.StatusTranslating, gomock.Any()).Return(nil)
	f.jobs.EXPECT().UpdateStatus(gomock.Any(), int64(1), model.StatusRebuilding, gomock.Any()).Return(nil)
	f.jobs.EXPECT().UpdateProgress(gomock.Any(), int64(1), gomock.Any()).Return(nil).AnyTimes()

	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), "en", gomock.Any(), "stub").Return(nil, nil).AnyTimes()
	f.cache.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	var created []model.TranslationResult
	f.results.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r model.TranslationResult) (model.TranslationResult, error) {
			created = append(created, r)
			return r, nil
		}).Times(2)

	f.jobs.EXPECT().UpdateStatus(gomock.Any(), int64(1), model.StatusCompleted, 100).
		DoAndReturn(func(context.Context, int64, model.JobStatus, int) error {
			close(done)
			return nil
		})

	job, err := f.svc.Create(context.Background(), "deck.pptx", buildDeck(t), []string{"es", "de"})
	require.NoError(t, err)
	require.Equal(t, int64(1), job.ID)
	require.Equal(t, "en", job.SourceLang)
	require.Equal(t, []string{"es", "de"}, job.TargetLangs)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("pipeline did not complete")
	}

	require.Len(t, created, 2)
	for _, result := range created {
		require.Equal(t, model.ResultKindPipeline, result.Kind)
		require.FileExists(t, result.Path)

		slides, err := pptx.ExtractFile(result.Path)
		require.NoError(t, err)
		prefix := "[" + result.Language + "] "
		require.Equal(t, prefix+"Hello", slides[0].Texts[0])
		require.Equal(t, prefix+"World", slides[0].Texts[1])
		require.Equal(t, prefix+"Second", slides[1].Texts[0])
	}
}

func TestJobService_Create_UsesCachedTranslations(t *testing.T) {
	engine := &stubEngine{}
	f := newFixture(t, engine)
	done := make(chan struct{})

	f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job model.Job) (model.Job, error) {
			job.ID = 2
			return job, nil
		})
	f.jobs.EXPECT().SetSourcePath(gomock.Any(), int64(2), gomock.Any()).Return(nil)
	f.jobs.EXPECT().UpdateStatus(gomock.Any(), int64(2), model.StatusCompleted, 100).
		DoAndReturn(func(context.Context, int64, model.JobStatus, int) error {
			close(done)
			return nil
		})
	f.jobs.EXPECT().UpdateStatus(gomock.Any(), int64(2), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.jobs.EXPECT().UpdateProgress(gomock.Any(), int64(2), gomock.Any()).Return(nil).AnyTimes()

	// Every run is already cached, so the engine is never called.
	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), "en", "es", "stub").
		DoAndReturn(func(_ context.Context, _, _, _, _ string) (*model.CachedTranslation, error) {
			return &model.CachedTranslation{Translated: "cached"}, nil
		}).AnyTimes()

	f.results.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r model.TranslationResult) (model.TranslationResult, error) {
			return r, nil
		})

	_, err := f.svc.Create(context.Background(), "deck.pptx", buildDeck(t), []string{"es"})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("pipeline did not complete")
	}
	require.Zero(t, engine.calls)
}

func TestJobService_Create_Validation(t *testing.T) {
	f := newFixture(t, &stubEngine{})
	ctx := context.Background()
	deck := buildDeck(t)

	_, err := f.svc.Create(ctx, "deck.docx", deck, []string{"es"})
	require.ErrorIs(t, err, service.ErrInvalid)

	_, err = f.svc.Create(ctx, "deck.pptx", []byte("not a zip"), []string{"es"})
	require.ErrorIs(t, err, service.ErrInvalid)

	_, err = f.svc.Create(ctx, "deck.pptx", deck, []string{"klingon"})
	require.ErrorIs(t, err, service.ErrInvalid)

	_, err = f.svc.Create(ctx, "deck.pptx", deck, nil)
	require.ErrorIs(t, err, service.ErrInvalid)

	// The source language is not a valid target.
	_, err = f.svc.Create(ctx, "deck.pptx", deck, []string{"en"})
	require.ErrorIs(t, err, service.ErrInvalid)
}

func TestJobService_Create_EngineFailureSetsError(t *testing.T) {
	engine := &stubEngine{err: errors.New("quota exceeded")}
	f := newFixture(t, engine)
	done := make(chan struct{})

	f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job model.Job) (model.Job, error) {
			job.ID = 3
			return job, nil
		})
	f.jobs.EXPECT().SetSourcePath(gomock.Any(), int64(3), gomock.Any()).Return(nil)
	f.jobs.EXPECT().UpdateStatus(gomock.Any(), int64(3), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.jobs.EXPECT().UpdateProgress(gomock.Any(), int64(3), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	f.jobs.EXPECT().SetError(gomock.Any(), int64(3), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, message string) error {
			require.Contains(t, message, "quota exceeded")
			close(done)
			return nil
		})

	_, err := f.svc.Create(context.Background(), "deck.pptx", buildDeck(t), []string{"es"})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("pipeline did not fail")
	}
}

func TestJobService_Create_CancelWinsStatusRace(t *testing.T) {
	f := newFixture(t, &stubEngine{})

	f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job model.Job) (model.Job, error) {
			job.ID = 4
			return job, nil
		})
	f.jobs.EXPECT().SetSourcePath(gomock.Any(), int64(4), gomock.Any()).Return(nil)
	f.jobs.EXPECT().UpdateStatus(gomock.Any(), int64(4), model.StatusExtracting, gomock.Any()).Return(nil)

	// A cancel landed between the pipeline's status writes: the row is
	// already cancelled, so the repository refuses the write. The
	// pipeline must stop without calling SetError, or it would flip the
	// job back to a non-terminal status.
	f.jobs.EXPECT().UpdateStatus(gomock.Any(), int64(4), model.StatusTranslating, gomock.Any()).
		Return(repository.ErrTerminal)

	_, err := f.svc.Create(context.Background(), "deck.pptx", buildDeck(t), []string{"es"})
	require.NoError(t, err)

	// Shutdown waits for the pipeline goroutine; the mock controller
	// then verifies no further status write happened.
	f.svc.Shutdown()
}

func TestJobService_Cancel(t *testing.T) {
	f := newFixture(t, &stubEngine{})
	ctx := context.Background()

	f.jobs.EXPECT().GetByID(ctx, int64(7)).
		Return(model.Job{ID: 7, Status: model.StatusTranslating, Progress: 40}, nil)
	f.jobs.EXPECT().UpdateStatus(ctx, int64(7), model.StatusCancelled, 40).Return(nil)

	require.NoError(t, f.svc.Cancel(ctx, 7))
}

func TestJobService_Cancel_Terminal(t *testing.T) {
	f := newFixture(t, &stubEngine{})
	ctx := context.Background()

	f.jobs.EXPECT().GetByID(ctx, int64(7)).
		Return(model.Job{ID: 7, Status: model.StatusCompleted}, nil)

	err := f.svc.Cancel(ctx, 7)
	require.ErrorIs(t, err, service.ErrConflict)
}

func TestJobService_Delete_RequiresTerminal(t *testing.T) {
	f := newFixture(t, &stubEngine{})
	ctx := context.Background()

	f.jobs.EXPECT().GetByID(ctx, int64(8)).
		Return(model.Job{ID: 8, Status: model.StatusTranslating}, nil)

	err := f.svc.Delete(ctx, 8)
	require.ErrorIs(t, err, service.ErrConflict)
}

func TestJobService_Delete(t *testing.T) {
	f := newFixture(t, &stubEngine{})
	ctx := context.Background()

	f.jobs.EXPECT().GetByID(ctx, int64(8)).
		Return(model.Job{ID: 8, Status: model.StatusCompleted}, nil)
	f.results.EXPECT().DeleteByJob(ctx, int64(8)).Return(nil)
	f.jobs.EXPECT().Delete(ctx, int64(8)).Return(nil)

	require.NoError(t, f.svc.Delete(ctx, 8))
}

func TestJobService_PurgeExpired(t *testing.T) {
	f := newFixture(t, &stubEngine{})
	ctx := context.Background()

	expired := []model.Job{
		{ID: 10, Status: model.StatusCompleted},
		{ID: 11, Status: model.StatusError},
	}
	f.jobs.EXPECT().ListExpired(ctx, gomock.Any()).Return(expired, nil)
	f.results.EXPECT().DeleteByJob(ctx, int64(10)).Return(nil)
	f.results.EXPECT().DeleteByJob(ctx, int64(11)).Return(nil)
	f.jobs.EXPECT().Delete(ctx, int64(10)).Return(nil)
	f.jobs.EXPECT().Delete(ctx, int64(11)).Return(nil)

	purged, err := f.svc.PurgeExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, purged)
}

func TestJobService_ReviewSheet(t *testing.T) {
	f := newFixture(t, &stubEngine{})
	ctx := context.Background()

	srcPath := filepath.Join(t.TempDir(), "deck.pptx")
	require.NoError(t, os.WriteFile(srcPath, buildDeck(t), 0o644))

	job := model.Job{
		ID: 9, FileName: "deck.pptx", SourcePath: srcPath,
		SourceLang: "en", TargetLangs: []string{"es"},
		Status: model.StatusCompleted,
	}
	f.jobs.EXPECT().GetByID(ctx, int64(9)).Return(job, nil).Times(3)

	content, name, err := f.svc.ReviewSheet(ctx, 9, "csv")
	require.NoError(t, err)
	require.Equal(t, "deck_review.csv", name)
	require.Contains(t, string(content), "Slide,Original,Spanish")
	require.Contains(t, string(content), "Hello")

	content, name, err = f.svc.ReviewSheet(ctx, 9, "xlsx")
	require.NoError(t, err)
	require.Equal(t, "deck_review.xlsx", name)
	require.True(t, bytes.HasPrefix(content, []byte("PK")))

	_, _, err = f.svc.ReviewSheet(ctx, 9, "pdf")
	require.ErrorIs(t, err, service.ErrInvalid)
}

func TestJobService_Get_AttachesResults(t *testing.T) {
	f := newFixture(t, &stubEngine{})
	ctx := context.Background()

	f.jobs.EXPECT().GetByID(ctx, int64(12)).
		Return(model.Job{ID: 12, Status: model.StatusCompleted}, nil)
	f.results.EXPECT().ListByJob(ctx, int64(12)).
		Return([]model.TranslationResult{{JobID: 12, Language: "es", FileID: "f-1"}}, nil)

	job, err := f.svc.Get(ctx, 12)
	require.NoError(t, err)
	require.Len(t, job.Results, 1)
	require.Equal(t, "es", job.Results[0].Language)
}
