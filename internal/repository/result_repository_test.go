package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pptxtrans/internal/model"
	"pptxtrans/internal/repository"
	"pptxtrans/internal/repository/testutil"
)

func TestResultRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewResultRepository(db)
	ctx := context.Background()

	job := testutil.SeedJob(t, db, model.Job{FileName: "deck.pptx", SourceLang: "en", TargetLangs: []string{"es"}})

	created, err := repo.Create(ctx, model.TranslationResult{
		JobID:    job.ID,
		Language: "es",
		FileName: "deck_es.pptx",
		FileID:   "abc-123",
		Path:     "/data/jobs/out/deck_es.pptx",
		Size:     2048,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, model.ResultKindPipeline, created.Kind)

	fetched, err := repo.GetByFileID(ctx, job.ID, "abc-123")
	require.NoError(t, err)
	require.Equal(t, "deck_es.pptx", fetched.FileName)
	require.Equal(t, int64(2048), fetched.Size)
	require.Equal(t, model.ResultKindPipeline, fetched.Kind)
}

func TestResultRepository_GetByFileID_WrongJob(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewResultRepository(db)
	ctx := context.Background()

	job := testutil.SeedJob(t, db, model.Job{FileName: "deck.pptx", SourceLang: "en", TargetLangs: []string{"es"}})
	testutil.SeedResult(t, db, model.TranslationResult{JobID: job.ID, Language: "es", FileName: "f", FileID: "abc", Path: "/p"})

	_, err := repo.GetByFileID(ctx, job.ID+1, "abc")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResultRepository_ListByJob(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewResultRepository(db)
	ctx := context.Background()

	job := testutil.SeedJob(t, db, model.Job{FileName: "deck.pptx", SourceLang: "en", TargetLangs: []string{"es", "de"}})
	testutil.SeedResult(t, db, model.TranslationResult{JobID: job.ID, Language: "es", FileName: "a", FileID: "f1", Path: "/a"})
	testutil.SeedResult(t, db, model.TranslationResult{JobID: job.ID, Language: "de", FileName: "b", FileID: "f2", Path: "/b", Kind: model.ResultKindImport})

	results, err := repo.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "de", results[0].Language)
	require.Equal(t, model.ResultKindImport, results[0].Kind)
}

func TestResultRepository_DeleteByJob(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewResultRepository(db)
	ctx := context.Background()

	job := testutil.SeedJob(t, db, model.Job{FileName: "deck.pptx", SourceLang: "en", TargetLangs: []string{"es"}})
	testutil.SeedResult(t, db, model.TranslationResult{JobID: job.ID, Language: "es", FileName: "a", FileID: "f1", Path: "/a"})

	require.NoError(t, repo.DeleteByJob(ctx, job.ID))
	results, err := repo.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	require.Empty(t, results)
}
