package handlers

import (
	"context"
	"net/http"

	"github.com/AtRiskMedia/styletree-go/internal/application/services"
	"github.com/AtRiskMedia/styletree-go/internal/domain/repositories"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/styletree-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// OptionHandlers exposes option lists to clients that filter remotely.
type OptionHandlers struct {
	source        repositories.OptionSource
	optionService *services.OptionService
	logger        *logging.ChanneledLogger
}

// NewOptionHandlers creates a new option handlers instance
func NewOptionHandlers(source repositories.OptionSource, optionService *services.OptionService, logger *logging.ChanneledLogger) *OptionHandlers {
	return &OptionHandlers{
		source:        source,
		optionService: optionService,
		logger:        logger,
	}
}

// GetOptions handles GET /api/v1/options/:kind?q=
func (h *OptionHandlers) GetOptions(c *gin.Context) {
	kind := c.Param("kind")
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.OptionFetchTimeout)
	defer cancel()

	options, err := h.source.FetchOptions(ctx, kind, c.Query("q"))
	if err != nil {
		h.logger.LogError(logging.ChannelOptions, "fetch options", err, map[string]any{"kind": kind})
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch options"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "options": options})
}

// InvalidateOptions handles POST /api/v1/admin/options/:kind/invalidate
func (h *OptionHandlers) InvalidateOptions(c *gin.Context) {
	kind := c.Param("kind")
	h.optionService.InvalidateKind(kind)
	h.logger.Options().Info("Option cache invalidated", "kind", kind)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "kind": kind})
}
