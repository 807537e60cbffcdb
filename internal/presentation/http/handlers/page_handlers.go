// Package handlers provides the HTTP handlers of the presentation layer.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/application/services"
	"github.com/AtRiskMedia/styletree-go/internal/domain/entities/rendering"
	"github.com/AtRiskMedia/styletree-go/internal/domain/repositories"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// FormIDHeader names the form instance a render produced.
const FormIDHeader = "X-Styletree-Form"

// PageHandlers serves stored pages and their rendered forms.
type PageHandlers struct {
	pageService     *services.PageService
	fragmentService *services.FragmentService
	logger          *logging.ChanneledLogger
}

// NewPageHandlers creates a new page handlers instance
func NewPageHandlers(pageService *services.PageService, fragmentService *services.FragmentService, logger *logging.ChanneledLogger) *PageHandlers {
	return &PageHandlers{
		pageService:     pageService,
		fragmentService: fragmentService,
		logger:          logger,
	}
}

// GetPage handles GET /api/v1/pages/:id
func (h *PageHandlers) GetPage(c *gin.Context) {
	ref := c.Param("id")
	page, err := h.pageService.Find(c.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, repositories.ErrPageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			return
		}
		h.logger.LogError(logging.ChannelContent, "get page", err, map[string]any{"ref": ref})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load page"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// RenderPage handles GET /api/v1/pages/:id/render
//
// Query parameters: lang, record, form (continue an existing form
// instance), mode (auto, enhanced, fallback) and full=1 for a complete
// HTML document.
func (h *PageHandlers) RenderPage(c *gin.Context) {
	start := time.Now()
	full, _ := strconv.ParseBool(c.DefaultQuery("full", "false"))

	result, err := h.fragmentService.Render(c.Request.Context(), services.RenderRequest{
		Ref:      c.Param("id"),
		Language: c.Query("lang"),
		RecordID: c.Query("record"),
		FormID:   c.Query("form"),
		Mode:     rendering.ParseMode(c.Query("mode")),
		Document: full,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrPageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			return
		}
		h.logger.LogError(logging.ChannelRender, "render page", err, map[string]any{"ref": c.Param("id")})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
		return
	}

	h.logger.WithContext(logging.ChannelRender, c.Request.Context()).Debug("Render request completed",
		"pageId", result.PageID, "formId", result.FormID, "duration", time.Since(start))

	c.Header(FormIDHeader, result.FormID)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(result.HTML))
}
