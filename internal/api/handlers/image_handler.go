package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/formpilot/formpilot/internal/services"
)

// ImageHandler manages stored images used by image-kind field mappings.
type ImageHandler struct {
	service *services.ImageService
}

func NewImageHandler(service *services.ImageService) *ImageHandler {
	return &ImageHandler{service: service}
}

// RegisterRoutes registers image routes.
func (h *ImageHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/images", h.List)
	router.POST("/images", h.Upload)
	router.GET("/images/:uuid", h.Get)
	router.DELETE("/images/:uuid", h.Delete)
	router.GET("/images/quota", h.Quota)
}

func (h *ImageHandler) List(c *gin.Context) {
	images, err := h.service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, images)
}

func (h *ImageHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = fileHeader.Filename
	}

	image, err := h.service.Add(name, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrQuotaExceeded):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrEmptyImageData):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, image)
}

func (h *ImageHandler) Get(c *gin.Context) {
	image, err := h.service.Get(c.Param("uuid"))
	if err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+image.Name+`"`)
	c.Data(http.StatusOK, image.MimeType, image.Data)
}

func (h *ImageHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Param("uuid")); err != nil {
		if errors.Is(err, services.ErrImageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "image deleted"})
}

func (h *ImageHandler) Quota(c *gin.Context) {
	quota, err := h.service.Quota()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quota)
}
