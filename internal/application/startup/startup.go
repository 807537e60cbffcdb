// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/styletree-go/internal/application/container"
	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/caching/cleanup"
	schema "github.com/AtRiskMedia/styletree-go/internal/infrastructure/database"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/content"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/formstate"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/http/server"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/templates"
	"github.com/AtRiskMedia/styletree-go/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until a
// shutdown signal arrives.
func Initialize() error {
	setupLogging()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	log.Println("\033[32m" + `
  ┏━┓╺┳╸╻ ╻╻  ┏━╸╺┳╸┏━┓┏━╸┏━╸
  ┗━┓ ┃ ┗┳┛┃  ┣╸  ┃ ┣┳┛┣╸ ┣╸
  ┗━┛ ╹  ╹ ┗━╸┗━╸ ╹ ╹┗╸┗━╸┗━╸
` + "\033[97m" + `
  made by At Risk Media
` + "\033[0m")

	// Step 1: Channeled logger
	log.Println("Initializing logger...")
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Close()
	logger.Startup().Info("Logger initialized - switching to channeled logging")

	// Step 2: Database
	phase := time.Now()
	db, err := database.NewConnection(database.Options{
		Driver:          config.DBDriver,
		SQLitePath:      config.SQLitePath,
		TursoURL:        config.TursoDatabase,
		TursoToken:      config.TursoToken,
		MaxOpenConns:    config.DBMaxOpenConns,
		MaxIdleConns:    config.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute,
		ConnMaxIdleTime: time.Duration(config.DBConnMaxIdleMinutes) * time.Minute,
	}, logger)
	if err != nil {
		logger.LogStartupPhase("database", time.Since(phase), false, map[string]any{"driver": config.DBDriver})
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	logger.LogStartupPhase("database", time.Since(phase), true, map[string]any{"driver": config.DBDriver})

	// Step 3: Schema and welcome content
	phase = time.Now()
	tables := schema.NewTableCreator()
	if err := tables.CreateSchema(ctx, db.DB); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := tables.SeedInitialContent(ctx, db.DB); err != nil {
		return fmt.Errorf("failed to seed initial content: %w", err)
	}
	logger.LogStartupPhase("schema", time.Since(phase), true, nil)

	// Step 4: Form token secret
	if config.FormTokenSecret == "" {
		secret, err := security.GenerateSecureKey(64)
		if err != nil {
			return err
		}
		config.FormTokenSecret = secret
		logger.Startup().Warn("FORM_TOKEN_SECRET not set - generated an ephemeral secret; forms rendered before a restart will not submit")
	}

	// Step 5: Form state
	var formState binding.Store
	var boltStore *formstate.BoltStore
	if config.FormStatePath != "" {
		boltStore, err = formstate.Open(config.FormStatePath, logger.Forms())
		if err != nil {
			return fmt.Errorf("failed to open form state: %w", err)
		}
		defer boltStore.Close()
		formState = boltStore
		logger.Startup().Info("Form state persisted", "path", config.FormStatePath)
	} else {
		logger.Startup().Info("Form state kept in memory")
	}

	// Step 6: Dependency injection container
	appContainer := container.NewContainer(logger, db, formState)
	logger.Startup().Info("Singleton application services initialized via container")

	// Step 7: Page fixtures
	phase = time.Now()
	loader := content.NewFilePageLoader(config.PagesDir, templates.ParseTree, logger)
	seeded, err := loader.Seed(ctx, appContainer.Pages, appContainer.Records, appContainer.Options)
	if err != nil {
		logger.LogStartupPhase("fixtures", time.Since(phase), false, map[string]any{"dir": config.PagesDir})
		return fmt.Errorf("failed to seed page fixtures: %w", err)
	}
	logger.LogStartupPhase("fixtures", time.Since(phase), true, map[string]any{"dir": config.PagesDir, "pages": seeded})

	// Step 8: Background cleanup worker
	cleanupWorker := cleanup.NewWorker(map[string]cleanup.Purger{
		"pages":        appContainer.PageCache,
		"options":      appContainer.OptionCache,
		"form-state":   appContainer.Binder,
		"option-tasks": appContainer.OptionService,
	}, cleanup.NewConfig(), logger.WithOperation(logging.ChannelCache, "cleanup"))
	go cleanupWorker.Start(ctx)

	// Step 9: HTTP server
	port := config.Port
	httpServer := server.New(port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", port)

	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	shutdownStart := time.Now()

	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Shutdown().Info("Stopping HTTP server...")
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	if err := appContainer.OptionService.WaitIdle(shutdownCtx); err != nil {
		logger.Shutdown().Warn("Option fetches still running at shutdown", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

func newLogger() (*logging.ChanneledLogger, error) {
	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToFile = config.LogToFile
	cfg.LogDirectory = config.LogDirectory
	cfg.JSONFormat = config.LogJSON
	level, err := logging.ParseLevel(config.LogLevel)
	if err != nil {
		log.Printf("Invalid LOG_LEVEL %q, using INFO", config.LogLevel)
	} else {
		cfg.DefaultLevel = level
	}
	return logging.NewChanneledLogger(cfg)
}

// setupLogging configures application logging
func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
