package container

import (
	"log/slog"

	"gorm.io/gorm"

	"imagepress/internal/app/concurrency"
	"imagepress/internal/compression"
	"imagepress/internal/config"
	compressionDomain "imagepress/internal/domain/compression"
	preferencesDomain "imagepress/internal/domain/preferences"
	statisticsDomain "imagepress/internal/domain/statistics"
	"imagepress/internal/normalize"
	"imagepress/internal/services"
	"imagepress/internal/session"
)

// Container holds all dependencies for the application
type Container struct {
	config *config.Config
	db     *gorm.DB
	logger *slog.Logger

	// Services
	normalizer        *normalize.Normalizer
	policy            compressionDomain.Policy
	assembler         compressionDomain.Assembler
	preferencesRepo   preferencesDomain.Repository
	historyRepo       statisticsDomain.HistoryRepository
	statisticsService statisticsDomain.Service
	store             *session.Store
}

// New creates a new dependency injection container. A nil db disables
// preference persistence and conversion history.
func New(cfg *config.Config, db *gorm.DB) *Container {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		config: cfg,
		db:     db,
		logger: logger,
	}

	c.initServices()
	return c
}

// initServices initializes all services with their dependencies
func (c *Container) initServices() {
	var normalizeOpts []normalize.Option
	if c.config.ExtendedFormats {
		normalizeOpts = append(normalizeOpts, normalize.WithExtendedFormats())
	}
	c.normalizer = normalize.NewNormalizer(c.logger, normalizeOpts...)

	// Create infrastructure services
	compressor := compression.NewCompressor(c.logger)
	pool := concurrency.NewWorkerPool(c.config.Workers(), c.logger)
	c.policy = compressor
	c.assembler = services.NewPDFService(compressor, pool, c.logger)
	c.statisticsService = services.NewStatsManager()

	storeOpts := []session.Option{
		session.WithLogger(c.logger),
		session.WithStats(c.statisticsService),
		session.WithTTL(c.config.SessionTTL),
	}

	if c.db != nil {
		c.preferencesRepo = &PreferencesRepositoryAdapter{service: services.NewPreferencesService(c.db)}
		c.historyRepo = &HistoryRepositoryAdapter{service: services.NewHistoryService(c.db)}
		storeOpts = append(storeOpts,
			session.WithPreferences(c.preferencesRepo),
			session.WithHistory(c.historyRepo))
	}

	// Create domain services
	c.store = session.NewStore(c.normalizer, c.policy, c.assembler, storeOpts...)
}

// GetSessionStore returns the session store
func (c *Container) GetSessionStore() *session.Store {
	return c.store
}

// GetNormalizer returns the image normalizer
func (c *Container) GetNormalizer() *normalize.Normalizer {
	return c.normalizer
}

// GetStatisticsService returns the statistics service
func (c *Container) GetStatisticsService() statisticsDomain.Service {
	return c.statisticsService
}

// GetHistoryRepository returns the conversion history, or nil without a database
func (c *Container) GetHistoryRepository() statisticsDomain.HistoryRepository {
	return c.historyRepo
}

// GetPreferencesRepository returns the preferences repository, or nil without a database
func (c *Container) GetPreferencesRepository() preferencesDomain.Repository {
	return c.preferencesRepo
}

// GetConfig returns the application configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the application logger
func (c *Container) GetLogger() *slog.Logger {
	return c.logger
}
