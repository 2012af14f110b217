package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/services"
)

// DefaultMappingHandler manages the pattern -> rule table and URL resolution.
type DefaultMappingHandler struct {
	service *services.DefaultMappingService
}

func NewDefaultMappingHandler(db *gorm.DB) *DefaultMappingHandler {
	return &DefaultMappingHandler{service: services.NewDefaultMappingService(db)}
}

// RegisterRoutes registers default mapping routes.
func (h *DefaultMappingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/defaults", h.List)
	router.PUT("/defaults", h.Set)
	router.DELETE("/defaults", h.Remove)
	router.GET("/defaults/resolve", h.Resolve)
}

func (h *DefaultMappingHandler) List(c *gin.Context) {
	mappings, err := h.service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, mappings)
}

func (h *DefaultMappingHandler) Set(c *gin.Context) {
	var req struct {
		Pattern  string `json:"pattern" binding:"required"`
		RuleUUID string `json:"rule_uuid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mapping, err := h.service.Set(req.Pattern, req.RuleUUID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrRuleNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, mapping)
}

func (h *DefaultMappingHandler) Remove(c *gin.Context) {
	pattern := c.Query("pattern")
	if pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pattern query parameter is required"})
		return
	}

	if err := h.service.Remove(pattern); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrMappingNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "default mapping removed"})
}

// Resolve returns the default rule for a URL, 404 when nothing applies and
// the caller should fall back to a manual rule picker.
func (h *DefaultMappingHandler) Resolve(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	resolution, err := h.service.Resolve(url)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if resolution == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no default rule matches this url"})
		return
	}
	c.JSON(http.StatusOK, resolution)
}
