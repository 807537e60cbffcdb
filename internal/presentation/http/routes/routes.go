// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"strings"

	"github.com/AtRiskMedia/styletree-go/internal/application/container"
	"github.com/AtRiskMedia/styletree-go/internal/application/services"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/styletree-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORSMiddleware(config.CORSOrigins))

	// Client runtime and uploaded media
	r.GET(services.RuntimeScriptPath, handlers.GetRuntimeScript)
	if strings.HasPrefix(config.AssetBaseURL, "/") {
		r.Static(config.AssetBaseURL, container.Media.BasePath())
	}

	// Initialize handlers
	pageHandlers := handlers.NewPageHandlers(container.PageService, container.FragmentService, container.Logger)
	formHandlers := handlers.NewFormHandlers(container.FormService, container.FragmentService, container.Broadcaster, config.CORSOrigins, container.Logger)
	optionHandlers := handlers.NewOptionHandlers(container.Options, container.OptionService, container.Logger)
	assetHandlers := handlers.NewAssetHandlers(container.Media, container.Logger)
	systemHandlers := handlers.NewSystemHandlers(container.DB, container.PageService, container.Submissions, container.Logger)

	api := r.Group("/api/v1")
	{
		api.GET("/health", systemHandlers.GetHealth)

		pages := api.Group("/pages")
		{
			pages.GET("/:id", pageHandlers.GetPage)
			pages.GET("/:id/render", pageHandlers.RenderPage)
		}

		forms := api.Group("/forms")
		{
			forms.POST("/:formId/state", formHandlers.UpdateState)
			forms.POST("/:formId/submit", formHandlers.Submit)
			forms.GET("/:formId/ws", formHandlers.Stream)
		}

		api.GET("/options/:kind", optionHandlers.GetOptions)
		api.GET("/assets/thumb", assetHandlers.GetThumbnail)

		// Operator endpoints
		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuthMiddleware(config.AdminToken))
		{
			admin.GET("/logs/levels", systemHandlers.GetLogLevels)
			admin.POST("/logs/levels", systemHandlers.SetLogLevel)
			admin.GET("/pages/:id/submissions", systemHandlers.GetSubmissions)
			admin.POST("/options/:kind/invalidate", optionHandlers.InvalidateOptions)
		}
	}

	return r
}
