package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/formpilot/formpilot/internal/models"
	"github.com/formpilot/formpilot/internal/services"
)

// setupAPI wires every handler onto a bare router over an in-memory database.
func setupAPI(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Rule{},
		&models.Collection{},
		&models.DefaultMapping{},
		&models.StoredImage{},
		&models.ImageQuota{},
		&models.FillRun{},
		&models.Setting{},
		&models.Notification{},
		&models.NotificationProvider{},
		&models.User{},
	))

	router := gin.New()
	api := router.Group("/api/v1")

	notifications := services.NewNotificationService(db)
	images := services.NewImageService(db, 1<<20)
	fills := services.NewFillService(db, images, nil)

	NewRuleHandler(db).RegisterRoutes(api)
	NewDefaultMappingHandler(db).RegisterRoutes(api)
	NewFillHandler(fills, services.NewRuleService(db), services.NewDefaultMappingService(db)).RegisterRoutes(api)
	NewExportHandler(db, notifications).RegisterRoutes(api)
	NewImageHandler(images).RegisterRoutes(api)
	NewSettingsHandler(db).RegisterRoutes(api)
	NewNotificationHandler(notifications).RegisterRoutes(api)

	return router, db
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeRule(t *testing.T, w *httptest.ResponseRecorder) models.Rule {
	t.Helper()
	var rule models.Rule
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rule))
	return rule
}
