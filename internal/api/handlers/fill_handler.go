package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/formpilot/formpilot/internal/htmldoc"
	"github.com/formpilot/formpilot/internal/models"
	"github.com/formpilot/formpilot/internal/services"
)

// FillHandler runs server-side fill previews against submitted page markup.
type FillHandler struct {
	fills    *services.FillService
	rules    *services.RuleService
	defaults *services.DefaultMappingService
}

func NewFillHandler(fills *services.FillService, rules *services.RuleService, defaults *services.DefaultMappingService) *FillHandler {
	return &FillHandler{fills: fills, rules: rules, defaults: defaults}
}

// RegisterRoutes registers fill routes.
func (h *FillHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/fill/preview", h.Preview)
	router.GET("/fill/runs", h.History)
}

type previewRequest struct {
	URL         string `json:"url" binding:"required"`
	HTML        string `json:"html" binding:"required"`
	RuleUUID    string `json:"rule_uuid"`
	VariantUUID string `json:"variant_uuid"`
}

type previewResponse struct {
	Outcome *services.FillOutcome `json:"outcome"`
	Writes  []htmldoc.Write       `json:"writes"`
	Events  []htmldoc.Event       `json:"events"`
}

// Preview fills the submitted HTML with the named rule, or with the default
// rule resolved for the URL when no rule is pinned.
func (h *FillHandler) Preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.pickRule(&req)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if rule == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no rule matches this url"})
		return
	}

	doc, err := htmldoc.ParseString(req.HTML)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.fills.Fill(c.Request.Context(), doc, rule, req.VariantUUID, req.URL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, previewResponse{
		Outcome: outcome,
		Writes:  doc.Writes(),
		Events:  doc.Events(),
	})
}

func (h *FillHandler) pickRule(req *previewRequest) (*models.Rule, error) {
	if req.RuleUUID != "" {
		return h.rules.GetByUUID(req.RuleUUID)
	}

	resolution, err := h.defaults.Resolve(req.URL)
	if err != nil {
		return nil, err
	}
	if resolution == nil {
		return nil, nil
	}
	return resolution.Rule, nil
}

// History lists recent fill runs, optionally scoped to one rule.
func (h *FillHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	runs, err := h.fills.History(c.Query("rule"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, runs)
}
