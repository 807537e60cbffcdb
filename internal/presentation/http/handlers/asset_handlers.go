package handlers

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// AssetHandlers serves generated previews of uploaded images.
type AssetHandlers struct {
	media  *media.ImageProcessor
	logger *logging.ChanneledLogger
}

// NewAssetHandlers creates a new asset handlers instance
func NewAssetHandlers(processor *media.ImageProcessor, logger *logging.ChanneledLogger) *AssetHandlers {
	return &AssetHandlers{media: processor, logger: logger}
}

// GetThumbnail handles GET /api/v1/assets/thumb?src=&w=
func (h *AssetHandlers) GetThumbnail(c *gin.Context) {
	src := c.Query("src")
	if src == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "src is required"})
		return
	}
	width, err := strconv.Atoi(c.DefaultQuery("w", "160"))
	if err != nil || width <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "w must be a positive integer"})
		return
	}

	path, err := h.media.Thumbnail(src, width)
	switch {
	case errors.Is(err, media.ErrOutsideMedia):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, os.ErrNotExist):
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	case err != nil:
		h.logger.LogError(logging.ChannelSystem, "thumbnail", err, map[string]any{"src": src, "width": width})
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Failed to generate thumbnail"})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.File(path)
}
