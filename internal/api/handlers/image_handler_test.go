package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formpilot/formpilot/internal/models"
)

func uploadImage(t *testing.T, router *gin.Engine, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/v1/images", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImageUploadAndFetch(t *testing.T) {
	router, _ := setupAPI(t)

	w := uploadImage(t, router, "logo.png", []byte{1, 2, 3})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var image models.StoredImage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &image))
	assert.NotEmpty(t, image.UUID)
	assert.Equal(t, "logo.png", image.Name)

	w = doJSON(t, router, http.MethodGet, "/api/v1/images/"+image.UUID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []byte{1, 2, 3}, w.Body.Bytes())
}

func TestImageUploadRequiresFile(t *testing.T) {
	router, _ := setupAPI(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/images", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImageDeleteEndpoint(t *testing.T) {
	router, _ := setupAPI(t)

	w := uploadImage(t, router, "a.png", []byte{1})
	var image models.StoredImage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &image))

	w = doJSON(t, router, http.MethodDelete, "/api/v1/images/"+image.UUID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/images/"+image.UUID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImageQuotaEndpoint(t *testing.T) {
	router, _ := setupAPI(t)

	w := uploadImage(t, router, "a.png", []byte{1, 2, 3, 4})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/images/quota", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var quota models.ImageQuota
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quota))
	assert.Equal(t, int64(4), quota.UsedBytes)
}
