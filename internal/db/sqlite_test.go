package db_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/twin-documents/internal/db"
	"github.com/BerylCAtieno/twin-documents/internal/models"
	"github.com/BerylCAtieno/twin-documents/internal/repository"
)

func openTestRepo(t *testing.T) repository.Repository {
	t.Helper()

	database, err := db.NewSQLiteDB(filepath.Join(t.TempDir(), "nested", "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database, "migrations"))

	return repository.NewRepository(database)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database, err := db.NewSQLiteDB(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, db.RunMigrations(database, "migrations"))
	require.NoError(t, db.RunMigrations(database, "migrations"))

	var count int
	require.NoError(t, database.Get(&count, `SELECT count(*) FROM documents`))
	assert.Equal(t, 0, count)
}

func TestRunMigrationsMissingDir(t *testing.T) {
	database, err := db.NewSQLiteDB(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	defer database.Close()

	assert.Error(t, db.RunMigrations(database, filepath.Join(t.TempDir(), "absent")))
}

func newDocument(id, filename string, created time.Time) *models.Document {
	return &models.Document{
		ID:            id,
		TwinID:        "twin-1",
		Filename:      filename,
		FileSize:      12,
		ContentType:   models.ContentTypeCSV,
		BlobKey:       "twin-1/" + id + "/" + filename,
		DocumentType:  "document",
		StructureType: "structured",
		SubCategory:   "csv",
		ExtractedText: "a,b\n1,2\n",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestRepositoryRoundTripOnSQLite(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newDocument("doc-1", "sales.csv", created)))

	got, err := repo.GetByFilename(ctx, "twin-1", "sales.csv")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
	assert.Equal(t, "a,b\n1,2\n", got.ExtractedText)
	assert.True(t, got.CreatedAt.Equal(created))
	assert.Nil(t, got.Summary)
	assert.Nil(t, got.AnalyzedAt)

	// The (twin_id, filename) pair is unique.
	assert.Error(t, repo.Create(ctx, newDocument("doc-2", "sales.csv", created)))

	require.NoError(t, repo.Replace(ctx, "doc-1", newDocument("doc-3", "sales.csv", created.Add(time.Hour))))
	got, err = repo.GetByFilename(ctx, "twin-1", "sales.csv")
	require.NoError(t, err)
	assert.Equal(t, "doc-3", got.ID)

	require.NoError(t, repo.UpdateAnalysis(ctx, "doc-3", "Sales by region", "dataset",
		map[string]interface{}{"company": "Acme"}))
	got, err = repo.GetByFilename(ctx, "twin-1", "sales.csv")
	require.NoError(t, err)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "Sales by region", *got.Summary)
	assert.Equal(t, "Acme", got.Metadata["company"])
	assert.NotNil(t, got.AnalyzedAt)

	require.NoError(t, repo.Delete(ctx, "doc-3"))
	_, err = repo.GetByFilename(ctx, "twin-1", "sales.csv")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRepositoryListFiltersOnSQLite(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	older := newDocument("doc-1", "old.csv", base)
	newer := newDocument("doc-2", "new.csv", base.Add(time.Minute))
	memo := newDocument("doc-3", "memo.txt", base.Add(2*time.Minute))
	memo.ContentType = models.ContentTypeTXT
	memo.StructureType = "unstructured"
	memo.SubCategory = "unknown"
	for _, doc := range []*models.Document{older, newer, memo} {
		require.NoError(t, repo.Create(ctx, doc))
	}

	docs, err := repo.List(ctx, "twin-1", models.ListFilter{StructureType: "structured"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "new.csv", docs[0].Filename)
	assert.Equal(t, "old.csv", docs[1].Filename)

	docs, err = repo.List(ctx, "twin-2", models.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
