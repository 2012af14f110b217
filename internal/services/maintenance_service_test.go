package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formpilot/formpilot/internal/models"
)

func TestPruneFillRuns(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMaintenanceService(db, nil, 30)

	old := models.FillRun{UUID: uuid.NewString(), RuleUUID: "r1"}
	recent := models.FillRun{UUID: uuid.NewString(), RuleUUID: "r1"}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	require.NoError(t, db.Model(&old).Update("created_at", time.Now().AddDate(0, 0, -60)).Error)

	pruned, err := svc.PruneFillRuns()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	var remaining []models.FillRun
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, recent.UUID, remaining[0].UUID)
}

func TestPruneDisabledByZeroRetention(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMaintenanceService(db, nil, 0)

	run := models.FillRun{UUID: uuid.NewString(), RuleUUID: "r1"}
	require.NoError(t, db.Create(&run).Error)
	require.NoError(t, db.Model(&run).Update("created_at", time.Now().AddDate(-1, 0, 0)).Error)

	pruned, err := svc.PruneFillRuns()
	require.NoError(t, err)
	assert.Zero(t, pruned)
}

func TestMaintenanceStartStop(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMaintenanceService(db, NewImageService(db, 1<<20), 30)

	require.NoError(t, svc.Start())
	svc.Stop()
}
