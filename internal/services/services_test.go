package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/formpilot/formpilot/internal/models"
)

// setupTestDB opens an in-memory sqlite database with all models migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
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
	return db
}

// basicRule returns a minimal valid rule for tests.
func basicRule(name, pattern string) *models.Rule {
	return &models.Rule{
		Name:    name,
		Pattern: pattern,
		Enabled: true,
		Fields: []models.FieldMapping{
			{MatchKind: models.MatchID, Selector: "title", ValueKind: models.ValueStatic, Value: "hello"},
		},
	}
}
