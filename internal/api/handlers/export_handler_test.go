package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formpilot/formpilot/internal/models"
	"github.com/formpilot/formpilot/internal/services"
)

func TestExportEndpoint(t *testing.T) {
	router, _ := setupAPI(t)
	decodeRule(t, doJSON(t, router, http.MethodPost, "/api/v1/rules", sampleRuleBody()))

	w := doJSON(t, router, http.MethodGet, "/api/v1/rules/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "formpilot-rules.json")

	var payload services.ExportPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, services.ExportVersion, payload.Version)
	assert.Len(t, payload.Rules, 1)
}

func TestImportEndpoint(t *testing.T) {
	router, db := setupAPI(t)

	payload := services.ExportPayload{
		Version: services.ExportVersion,
		Rules: []models.Rule{{
			Name:    "imported",
			Pattern: "*",
			Fields: []models.FieldMapping{
				{MatchKind: models.MatchID, Selector: "x", ValueKind: models.ValueStatic},
			},
		}},
	}
	w := doJSON(t, router, http.MethodPost, "/api/v1/rules/import", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"imported":1`)

	var count int64
	db.Model(&models.Rule{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// The import leaves an internal notification behind.
	var notifications int64
	db.Model(&models.Notification{}).Count(&notifications)
	assert.Equal(t, int64(1), notifications)
}

func TestImportEndpointRejectsBadPayloads(t *testing.T) {
	router, db := setupAPI(t)

	t.Run("unsupported version", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/rules/import",
			map[string]interface{}{"version": 99, "rules": []interface{}{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "unsupported")
	})

	t.Run("structural violation", func(t *testing.T) {
		payload := services.ExportPayload{
			Version: services.ExportVersion,
			Rules:   []models.Rule{{Pattern: "*"}},
		}
		w := doJSON(t, router, http.MethodPost, "/api/v1/rules/import", payload)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var count int64
		db.Model(&models.Rule{}).Count(&count)
		assert.Zero(t, count, "nothing is applied on rejection")
	})
}

func TestSettingsEndpoints(t *testing.T) {
	router, _ := setupAPI(t)

	t.Run("upsert", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPut, "/api/v1/settings",
			map[string]string{"key": "fab_settings", "value": `{"position":"right"}`})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodPut, "/api/v1/settings",
			map[string]string{"key": "fab_settings", "value": `{"position":"left"}`})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodGet, "/api/v1/settings/fab_settings", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var setting models.Setting
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &setting))
		assert.Equal(t, `{"position":"left"}`, setting.Value)
	})

	t.Run("missing key is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/settings/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/settings", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var settings []models.Setting
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
		assert.Len(t, settings, 1)
	})
}

func TestNotificationEndpoints(t *testing.T) {
	router, db := setupAPI(t)

	svc := services.NewNotificationService(db)
	n, err := svc.Create(models.NotificationTypeInfo, "hello", "world")
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/api/v1/notifications?unread=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hello")

	w = doJSON(t, router, http.MethodPut, "/api/v1/notifications/"+n.ID+"/read", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/notifications?unread=true", nil)
	var remaining []models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &remaining))
	assert.Empty(t, remaining)
}
