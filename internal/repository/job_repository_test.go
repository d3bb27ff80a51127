package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pptxtrans/internal/model"
	"pptxtrans/internal/repository"
	"pptxtrans/internal/repository/testutil"
)

func TestJobRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewJobRepository(db)
	ctx := context.Background()

	job, err := repo.Create(ctx, model.Job{
		FileName:    "deck.pptx",
		SourcePath:  "/data/jobs/1/upload/deck.pptx",
		SourceLang:  "en",
		TargetLangs: []string{"es", "de"},
		Status:      model.StatusPending,
		ExpiresAt:   time.Now().UTC().Add(time.Hour),
	})
	require.NoError(t, err)
	require.NotZero(t, job.ID)

	fetched, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, "deck.pptx", fetched.FileName)
	require.Equal(t, []string{"es", "de"}, fetched.TargetLangs)
	require.Equal(t, model.StatusPending, fetched.Status)
	require.Nil(t, fetched.ErrorMessage)
	require.Nil(t, fetched.SpreadsheetID)
}

func TestJobRepository_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewJobRepository(db)

	_, err := repo.GetByID(context.Background(), 12345)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestJobRepository_UpdateStatusAndProgress(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewJobRepository(db)
	ctx := context.Background()

	job := testutil.SeedJob(t, db, model.Job{FileName: "deck.pptx", SourceLang: "en", TargetLangs: []string{"fr"}})

	require.NoError(t, repo.UpdateStatus(ctx, job.ID, model.StatusTranslating, 20))
	fetched, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusTranslating, fetched.Status)
	require.Equal(t, 20, fetched.Progress)

	require.NoError(t, repo.UpdateProgress(ctx, job.ID, 50))
	fetched, err = repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, 50, fetched.Progress)
}

func TestJobRepository_SetError(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewJobRepository(db)
	ctx := context.Background()

	job := testutil.SeedJob(t, db, model.Job{FileName: "deck.pptx", SourceLang: "en", TargetLangs: []string{"fr"}})

	require.NoError(t, repo.SetError(ctx, job.ID, "engine exploded"))
	fetched, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusError, fetched.Status)
	require.NotNil(t, fetched.ErrorMessage)
	require.Equal(t, "engine exploded", *fetched.ErrorMessage)
}

func TestJobRepository_UpdateStatus_TerminalIsSticky(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewJobRepository(db)
	ctx := context.Background()

	job := testutil.SeedJob(t, db, model.Job{FileName: "deck.pptx", SourceLang: "en", TargetLangs: []string{"fr"}})
	require.NoError(t, repo.UpdateStatus(ctx, job.ID, model.StatusCancelled, 20))

	// A pipeline write that was in flight when the cancel landed must
	// not resurrect the job.
	err := repo.UpdateStatus(ctx, job.ID, model.StatusTranslating, 20)
	require.ErrorIs(t, err, repository.ErrTerminal)

	err = repo.SetError(ctx, job.ID, "late failure")
	require.ErrorIs(t, err, repository.ErrTerminal)

	fetched, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, fetched.Status)
	require.Nil(t, fetched.ErrorMessage)
}

func TestJobRepository_SetSpreadsheetID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewJobRepository(db)
	ctx := context.Background()

	job := testutil.SeedJob(t, db, model.Job{FileName: "deck.pptx", SourceLang: "en", TargetLangs: []string{"fr"}})

	require.NoError(t, repo.SetSpreadsheetID(ctx, job.ID, "sheet-123"))
	fetched, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.SpreadsheetID)
	require.Equal(t, "sheet-123", *fetched.SpreadsheetID)
}

func TestJobRepository_ListExpired(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewJobRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	expired := testutil.SeedJob(t, db, model.Job{
		FileName: "old.pptx", SourceLang: "en", TargetLangs: []string{"fr"},
		ExpiresAt: now.Add(-time.Hour),
	})
	testutil.SeedJob(t, db, model.Job{
		FileName: "fresh.pptx", SourceLang: "en", TargetLangs: []string{"fr"},
		ExpiresAt: now.Add(time.Hour),
	})

	jobs, err := repo.ListExpired(ctx, now)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, expired.ID, jobs[0].ID)
}

func TestJobRepository_Delete_CascadesResults(t *testing.T) {
	db := testutil.NewTestDB(t)
	jobs := repository.NewJobRepository(db)
	results := repository.NewResultRepository(db)
	ctx := context.Background()

	job := testutil.SeedJob(t, db, model.Job{FileName: "deck.pptx", SourceLang: "en", TargetLangs: []string{"fr"}})
	testutil.SeedResult(t, db, model.TranslationResult{
		JobID: job.ID, Language: "fr", FileName: "deck_fr.pptx", FileID: "f-1", Path: "/out", Size: 10,
	})

	require.NoError(t, jobs.Delete(ctx, job.ID))

	_, err := jobs.GetByID(ctx, job.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	remaining, err := results.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestJobRepository_List_NewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewJobRepository(db)

	testutil.SeedJob(t, db, model.Job{FileName: "a.pptx", SourceLang: "en", TargetLangs: []string{"fr"}})
	testutil.SeedJob(t, db, model.Job{FileName: "b.pptx", SourceLang: "en", TargetLangs: []string{"fr"}})

	jobs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
}
