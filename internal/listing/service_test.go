package listing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-api/internal/logging"
	"marketplace-api/internal/upload"
)

// 1x1 transparent PNG
const tinyPNGDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func setupService(t *testing.T) (*Service, *upload.Store) {
	t.Helper()

	db := setupDB(t)
	logger := logging.NewLogger(true)
	uploads := upload.NewStore(t.TempDir(), logger)
	return NewService(NewRepository(db), uploads, logger, 5*1024*1024), uploads
}

func TestCreateRequiresTitleAndPrice(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CreateInput{Title: "", Price: "100"})
	assert.ErrorIs(t, err, ErrTitleAndPriceRequired)

	_, err = svc.Create(ctx, 1, CreateInput{Title: "Bike", Price: ""})
	assert.ErrorIs(t, err, ErrTitleAndPriceRequired)
}

func TestCreateWithImageWritesFile(t *testing.T) {
	svc, uploads := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{
		Title:       "Bike",
		Price:       "100",
		ImageBase64: tinyPNGDataURL,
	})
	require.NoError(t, err)

	require.NotEmpty(t, created.ImagePath)
	assert.Contains(t, created.ImagePath, "/uploads/", "response carries the public path")

	entries, err := os.ReadDir(uploads.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCreateRejectsBadImage(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Create(context.Background(), 1, CreateInput{
		Title:       "Bike",
		Price:       "100",
		ImageBase64: "not a data url",
	})
	assert.True(t, upload.IsValidationError(err))
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{Title: "Bike", Price: "100"})
	require.NoError(t, err)

	title := "Stolen bike"
	_, err = svc.Update(ctx, 2, created.ID, UpdateInput{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	// Row must be unchanged
	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bike", got.Title)
}

func TestUpdateWithoutFieldsRejected(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{Title: "Bike", Price: "100"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, created.ID, UpdateInput{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)
}

func TestUpdateReplacesImageAndDeletesOld(t *testing.T) {
	svc, uploads := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{
		Title:       "Bike",
		Price:       "100",
		ImageBase64: tinyPNGDataURL,
	})
	require.NoError(t, err)

	oldEntries, err := os.ReadDir(uploads.Dir())
	require.NoError(t, err)
	require.Len(t, oldEntries, 1)
	oldFile := oldEntries[0].Name()

	updated, err := svc.Update(ctx, 1, created.ID, UpdateInput{ImageBase64: tinyPNGDataURL})
	require.NoError(t, err)
	assert.NotEqual(t, created.ImagePath, updated.ImagePath)

	_, err = os.Stat(filepath.Join(uploads.Dir(), oldFile))
	assert.True(t, os.IsNotExist(err), "old image file must be removed on replace")

	entries, err := os.ReadDir(uploads.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDeleteForbiddenForNonOwner(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{Title: "Bike", Price: "100"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, 2, created.ID), ErrForbidden)

	_, err = svc.Get(ctx, created.ID)
	assert.NoError(t, err, "row must survive a forbidden delete")
}

func TestDeleteRemovesImageFile(t *testing.T) {
	svc, uploads := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CreateInput{
		Title:       "Bike",
		Price:       "100",
		ImageBase64: tinyPNGDataURL,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, created.ID))

	entries, err := os.ReadDir(uploads.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingListing(t *testing.T) {
	svc, _ := setupService(t)
	assert.ErrorIs(t, svc.Delete(context.Background(), 1, 999), ErrNotFound)
}
