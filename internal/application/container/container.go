// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/AtRiskMedia/styletree-go/internal/application/services"
	"github.com/AtRiskMedia/styletree-go/internal/domain/binding"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/email"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/content"
	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/styletree-go/internal/presentation/templates"
	"github.com/AtRiskMedia/styletree-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application Services
	PageService     *services.PageService
	OptionService   *services.OptionService
	FragmentService *services.FragmentService
	FormService     *services.FormService

	// Repositories
	Pages       *content.PageRepository
	Records     *content.RecordRepository
	Options     *content.OptionRepository
	Submissions *content.SubmissionRepository

	// Caches
	PageCache   *stores.PageStore
	OptionCache *stores.OptionStore

	// Form state and rendering
	Binder      *binding.Binder
	Registry    *templates.Registry
	Broadcaster *messaging.FormBroadcaster
	Media       *media.ImageProcessor
	Assets      media.Resolver
	Mailer      email.Service

	// Infrastructure Dependencies
	DB     *database.DB
	Logger *logging.ChanneledLogger
}

// NewContainer creates and wires all singleton services. formState backs
// the binder; nil keeps form state in memory.
func NewContainer(logger *logging.ChanneledLogger, db *database.DB, formState binding.Store) *Container {
	pageCache := stores.NewPageStore(config.PageCacheTTL)
	optionCache := stores.NewOptionStore(config.OptionCacheTTL)

	pages := content.NewPageRepository(db.DB, pageCache, templates.ParseTree, logger)
	records := content.NewRecordRepository(db.DB, logger)
	options := content.NewOptionRepository(db.DB, logger)
	submissions := content.NewSubmissionRepository(db.DB, logger)

	if formState == nil {
		formState = binding.NewMemoryStore()
	}
	binder := binding.NewBinder(formState, logger.Forms())
	binder.SetIdleTTL(config.FormStateTTL)
	registry := templates.DefaultRegistry()
	broadcaster := messaging.NewFormBroadcaster(logger)
	processor := media.NewImageProcessor(config.MediaDir)
	assets := media.Resolver{BaseURL: config.AssetBaseURL}

	var mailer email.Service
	if config.ResendAPIKey != "" {
		m, err := email.NewService(config.ResendAPIKey, config.EmailFrom, config.EmailFromName)
		if err != nil {
			logger.Startup().Warn("Submission e-mail disabled", "error", err.Error())
		} else {
			mailer = m
		}
	}

	tokens := services.TokenSettings{Secret: config.FormTokenSecret, TTL: config.FormTokenTTL}
	site := services.SiteLanguages{Languages: config.Languages, Default: config.DefaultLanguage}

	pageService := services.NewPageService(pages, records, site, logger)
	optionService := services.NewOptionService(options, optionCache, broadcaster, config.OptionFetchTimeout, logger)
	optionService.SetIdleTTL(config.FormStateTTL)
	fragmentService := services.NewFragmentService(pageService, optionService, binder, registry, assets, tokens, config.OptionPrefetchWait, logger)
	formService := services.NewFormService(pageService, binder, optionService, submissions, processor, mailer, tokens, logger)

	return &Container{
		PageService:     pageService,
		OptionService:   optionService,
		FragmentService: fragmentService,
		FormService:     formService,

		Pages:       pages,
		Records:     records,
		Options:     options,
		Submissions: submissions,

		PageCache:   pageCache,
		OptionCache: optionCache,

		Binder:      binder,
		Registry:    registry,
		Broadcaster: broadcaster,
		Media:       processor,
		Assets:      assets,
		Mailer:      mailer,

		DB:     db,
		Logger: logger,
	}
}
