package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/formpilot/formpilot/internal/services"
)

// importBodyLimit caps import payload size at 10 MiB.
const importBodyLimit = 10 << 20

// ExportHandler serves rule export and all-or-nothing import.
type ExportHandler struct {
	service       *services.ExportService
	notifications *services.NotificationService
}

func NewExportHandler(db *gorm.DB, ns *services.NotificationService) *ExportHandler {
	return &ExportHandler{service: services.NewExportService(db), notifications: ns}
}

// RegisterRoutes registers export/import routes.
func (h *ExportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/rules/export", h.Export)
	router.POST("/rules/import", h.Import)
}

func (h *ExportHandler) Export(c *gin.Context) {
	payload, err := h.service.Export()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="formpilot-rules.json"`)
	c.JSON(http.StatusOK, payload)
}

func (h *ExportHandler) Import(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, importBodyLimit))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	summary, err := h.service.Import(raw)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, services.ErrInvalidPayload) && !errors.Is(err, services.ErrUnsupportedVersion) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if h.notifications != nil {
		h.notifications.SendExternal("import", "Rules imported",
			"Imported rules from an export payload",
			map[string]interface{}{"Count": summary.Imported})
	}

	c.JSON(http.StatusOK, summary)
}
