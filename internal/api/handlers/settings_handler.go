package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/models"
)

// SettingsHandler reads and upserts key/value settings rows.
type SettingsHandler struct {
	DB *gorm.DB
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{DB: db}
}

// RegisterRoutes registers settings routes.
func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/settings", h.GetSettings)
	router.GET("/settings/:key", h.GetSetting)
	router.PUT("/settings", h.UpdateSetting)
}

func (h *SettingsHandler) GetSettings(c *gin.Context) {
	var settings []models.Setting
	if err := h.DB.Order("key asc").Find(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) GetSetting(c *gin.Context) {
	var setting models.Setting
	err := h.DB.Where("key = ?", c.Param("key")).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "setting not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch setting"})
		return
	}
	c.JSON(http.StatusOK, setting)
}

type updateSettingRequest struct {
	Key      string `json:"key" binding:"required"`
	Value    string `json:"value"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

func (h *SettingsHandler) UpdateSetting(c *gin.Context) {
	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	setting := models.Setting{
		Key:      req.Key,
		Value:    req.Value,
		Category: req.Category,
		Type:     req.Type,
	}
	err := h.DB.Where(models.Setting{Key: req.Key}).
		Assign(models.Setting{Value: req.Value, Category: req.Category, Type: req.Type}).
		FirstOrCreate(&setting).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save setting"})
		return
	}

	c.JSON(http.StatusOK, setting)
}
