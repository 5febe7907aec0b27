package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/replaygames/replay-backend/pkg/db/models"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS editors (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS licenses (
  id TEXT PRIMARY KEY,
  editor_id TEXT NOT NULL,
  name TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM licenses")
		db.Exec("DELETE FROM editors")
	})
	return db
}

func TestEditorAndLicenseRoundTrip(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	editor, err := repo.CreateEditor(ctx, &models.Editor{ID: uuid.New(), Name: "Days of Wonder"})
	require.NoError(t, err)

	license, err := repo.CreateLicense(ctx, &models.License{ID: uuid.New(), EditorID: editor.ID, Name: "Ticket to Ride"})
	require.NoError(t, err)

	found, err := repo.FindLicenseByID(ctx, license.ID)
	require.NoError(t, err)
	assert.Equal(t, editor.ID, found.EditorID)

	other, err := repo.CreateEditor(ctx, &models.Editor{ID: uuid.New(), Name: "Asmodee"})
	require.NoError(t, err)
	_, err = repo.CreateLicense(ctx, &models.License{ID: uuid.New(), EditorID: other.ID, Name: "7 Wonders"})
	require.NoError(t, err)

	all, err := repo.ListLicenses(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := repo.ListLicenses(ctx, &editor.ID)
	require.NoError(t, err)
	assert.Len(t, scoped, 1)

	editors, err := repo.ListEditors(ctx)
	require.NoError(t, err)
	assert.Len(t, editors, 2)
	assert.Equal(t, "Asmodee", editors[0].Name, "editors sort by name")
}

func TestDuplicateEditorName(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.CreateEditor(ctx, &models.Editor{ID: uuid.New(), Name: "Repos Production"})
	require.NoError(t, err)
	_, err = repo.CreateEditor(ctx, &models.Editor{ID: uuid.New(), Name: "Repos Production"})
	assert.Error(t, err)
}
