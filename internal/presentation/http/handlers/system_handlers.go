package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/application/services"
	"github.com/AtRiskMedia/styletree-go/internal/domain/repositories"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/content"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/database"
	"github.com/gin-gonic/gin"
)

// SystemHandlers serves health, log level and submission review endpoints.
type SystemHandlers struct {
	db          *database.DB
	pages       *services.PageService
	submissions *content.SubmissionRepository
	logger      *logging.ChanneledLogger
	started     time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(db *database.DB, pages *services.PageService, submissions *content.SubmissionRepository, logger *logging.ChanneledLogger) *SystemHandlers {
	return &SystemHandlers{
		db:          db,
		pages:       pages,
		submissions: submissions,
		logger:      logger,
		started:     time.Now(),
	}
}

// GetHealth handles GET /api/v1/health
func (h *SystemHandlers) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{
		"status": "ok",
		"driver": h.db.Driver,
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}
	if err := database.TestConnection(ctx, h.db.DB); err != nil {
		status["status"] = "degraded"
		status["error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetLogLevels handles GET /api/v1/admin/logs/levels
func (h *SystemHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.logger.GetChannelLevels())
}

// SetLogLevel handles POST /api/v1/admin/logs/levels
func (h *SystemHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	level, err := logging.ParseLevel(req.Level)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := h.logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}

// GetSubmissions handles GET /api/v1/admin/pages/:id/submissions
func (h *SystemHandlers) GetSubmissions(c *gin.Context) {
	ctx := c.Request.Context()
	page, err := h.pages.Find(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrPageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
			return
		}
		h.logger.LogError(logging.ChannelDatabase, "get submissions", err, map[string]any{"ref": c.Param("id")})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load page"})
		return
	}

	submissions, err := h.submissions.FindByPage(ctx, page.ID)
	if err != nil {
		h.logger.LogError(logging.ChannelDatabase, "get submissions", err, map[string]any{"pageId": page.ID})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load submissions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pageId": page.ID, "submissions": submissions})
}
