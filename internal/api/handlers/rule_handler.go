package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/models"
	"github.com/formpilot/formpilot/internal/services"
)

// RuleHandler handles CRUD and variant operations for rules.
type RuleHandler struct {
	service *services.RuleService
}

func NewRuleHandler(db *gorm.DB) *RuleHandler {
	return &RuleHandler{service: services.NewRuleService(db)}
}

// RegisterRoutes registers rule routes.
func (h *RuleHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/rules", h.List)
	router.POST("/rules", h.Create)
	router.POST("/rules/reorder", h.Reorder)
	router.GET("/rules/:uuid", h.Get)
	router.PUT("/rules/:uuid", h.Update)
	router.DELETE("/rules/:uuid", h.Delete)
	router.POST("/rules/:uuid/archive", h.Archive)
	router.POST("/rules/:uuid/unarchive", h.Unarchive)
	router.POST("/rules/:uuid/duplicate", h.Duplicate)
	router.POST("/rules/:uuid/reset-counter", h.ResetCounter)

	router.POST("/rules/:uuid/variants", h.AddVariant)
	router.PUT("/rules/:uuid/variants/:variant", h.UpdateVariant)
	router.DELETE("/rules/:uuid/variants/:variant", h.DeleteVariant)
	router.POST("/rules/:uuid/variants/:variant/activate", h.SetActiveVariant)

	router.GET("/collections", h.ListCollections)
	router.POST("/collections", h.CreateCollection)
	router.DELETE("/collections/:uuid", h.DeleteCollection)
}

// List retrieves rules; pass ?archived=true to include archived ones.
func (h *RuleHandler) List(c *gin.Context) {
	rules, err := h.service.List(c.Query("archived") == "true")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *RuleHandler) Create(c *gin.Context) {
	var rule models.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Create(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *RuleHandler) Get(c *gin.Context) {
	rule, err := h.service.GetByUUID(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) Update(c *gin.Context) {
	var updates models.Rule
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.service.Update(c.Param("uuid"), &updates)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrRuleNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Param("uuid")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrRuleNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rule deleted"})
}

func (h *RuleHandler) Archive(c *gin.Context)   { h.setArchived(c, true) }
func (h *RuleHandler) Unarchive(c *gin.Context) { h.setArchived(c, false) }

func (h *RuleHandler) setArchived(c *gin.Context, archived bool) {
	rule, err := h.service.Archive(c.Param("uuid"), archived)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) Duplicate(c *gin.Context) {
	rule, err := h.service.Duplicate(c.Param("uuid"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrRuleNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *RuleHandler) ResetCounter(c *gin.Context) {
	if err := h.service.ResetCounter(c.Param("uuid")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "counter reset"})
}

func (h *RuleHandler) Reorder(c *gin.Context) {
	var req struct {
		Order []string `json:"order" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.Reorder(req.Order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rules reordered"})
}

func (h *RuleHandler) AddVariant(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.service.AddVariant(c.Param("uuid"), req.Name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, rule)
}

func (h *RuleHandler) UpdateVariant(c *gin.Context) {
	var updates models.Variant
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.service.UpdateVariant(c.Param("uuid"), c.Param("variant"), updates)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) DeleteVariant(c *gin.Context) {
	rule, err := h.service.DeleteVariant(c.Param("uuid"), c.Param("variant"))
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, services.ErrPrimaryVariant) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) SetActiveVariant(c *gin.Context) {
	rule, err := h.service.SetActiveVariant(c.Param("uuid"), c.Param("variant"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *RuleHandler) ListCollections(c *gin.Context) {
	collections, err := h.service.ListCollections()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, collections)
}

func (h *RuleHandler) CreateCollection(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	collection, err := h.service.CreateCollection(req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, collection)
}

func (h *RuleHandler) DeleteCollection(c *gin.Context) {
	if err := h.service.DeleteCollection(c.Param("uuid")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrCollectionNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "collection deleted"})
}
