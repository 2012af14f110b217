package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageAddAndGet(t *testing.T) {
	db := setupTestDB(t)
	svc := NewImageService(db, 1<<20)

	image, err := svc.Add("logo.png", "image/png", []byte{1, 2, 3, 4})
	require.NoError(t, err)
	assert.NotEmpty(t, image.UUID)
	assert.Equal(t, int64(4), image.Size)

	got, err := svc.Get(image.UUID)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got.Data)

	_, err = svc.Get("missing")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestImageAddRejectsEmpty(t *testing.T) {
	db := setupTestDB(t)
	svc := NewImageService(db, 1<<20)

	_, err := svc.Add("empty.png", "image/png", nil)
	assert.ErrorIs(t, err, ErrEmptyImageData)
}

func TestImageQuotaEnforcement(t *testing.T) {
	db := setupTestDB(t)
	svc := NewImageService(db, 10)

	_, err := svc.Add("a", "image/png", []byte("123456"))
	require.NoError(t, err)

	_, err = svc.Add("b", "image/png", []byte("123456"))
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	quota, err := svc.Quota()
	require.NoError(t, err)
	assert.Equal(t, int64(6), quota.UsedBytes)
	assert.Equal(t, int64(10), quota.LimitBytes)
}

func TestImageDeleteReleasesQuota(t *testing.T) {
	db := setupTestDB(t)
	svc := NewImageService(db, 10)

	image, err := svc.Add("a", "image/png", []byte("123456"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(image.UUID))

	quota, err := svc.Quota()
	require.NoError(t, err)
	assert.Equal(t, int64(0), quota.UsedBytes)

	_, err = svc.Add("b", "image/png", []byte("12345678"))
	assert.NoError(t, err, "freed bytes are usable again")

	assert.ErrorIs(t, svc.Delete("missing"), ErrImageNotFound)
}

func TestImageListOmitsData(t *testing.T) {
	db := setupTestDB(t)
	svc := NewImageService(db, 1<<20)

	_, err := svc.Add("a", "image/png", []byte("123456"))
	require.NoError(t, err)

	images, err := svc.List()
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Empty(t, images[0].Data, "listing does not load blobs")
	assert.Equal(t, int64(6), images[0].Size)
}

func TestImageDataURL(t *testing.T) {
	db := setupTestDB(t)
	svc := NewImageService(db, 1<<20)

	image, err := svc.Add("a", "image/png", []byte{0xFF})
	require.NoError(t, err)

	url, ok := svc.DataURL(image.UUID)
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,/w==", url)

	_, ok = svc.DataURL("missing")
	assert.False(t, ok)
}

func TestImageRecalculateQuota(t *testing.T) {
	db := setupTestDB(t)
	svc := NewImageService(db, 1<<20)

	_, err := svc.Add("a", "image/png", []byte("1234"))
	require.NoError(t, err)

	// Corrupt the usage record, then rebuild it from the table.
	quota, err := svc.Quota()
	require.NoError(t, err)
	quota.UsedBytes = 999
	require.NoError(t, db.Save(quota).Error)

	require.NoError(t, svc.RecalculateQuota())
	quota, err = svc.Quota()
	require.NoError(t, err)
	assert.Equal(t, int64(4), quota.UsedBytes)
}
