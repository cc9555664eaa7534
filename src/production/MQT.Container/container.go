package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	alerting "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Alerting"
	config "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Config"
	database "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Database"
	events "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Events"
	ingestion "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Ingestion"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	repo "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Implementation"
)

// Container manages shared dependencies and their lifecycle
type Container struct {
	dbConfig       config.DatabaseConfig
	alertingConfig config.AlertingConfig
	eventsConfig   config.EventsConfig
	logger         *logger.Logger
	db             *sql.DB

	healthChecker *database.HealthChecker
	writer        *ingestion.Writer
	evaluator     *alerting.Evaluator
	dispatcher    *alerting.Dispatcher

	mu sync.Mutex

	// Cleanup functions, run in reverse order on shutdown
	cleanupFuncs []func() error
}

// IngestorContainer manages dependencies for the MQTT Ingestor service
type IngestorContainer struct {
	*Container
	config *config.IngestorConfig
}

// ApiContainer manages dependencies for the API service
type ApiContainer struct {
	*Container
	config *config.Config
}

// NewContainer builds a container from already loaded settings
func NewContainer(db config.DatabaseConfig, alerts config.AlertingConfig, ev config.EventsConfig, log *logger.Logger) *Container {
	return &Container{
		dbConfig:       db,
		alertingConfig: alerts,
		eventsConfig:   ev,
		logger:         log,
	}
}

// NewIngestorContainer creates a new container for the MQTT Ingestor service
func NewIngestorContainer() (*IngestorContainer, error) {
	cfg, err := config.LoadIngestorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load ingestor configuration: %w", err)
	}

	log := logger.NewLogger(&cfg.Logging).WithService("mqtt-ingestor")

	return &IngestorContainer{
		Container: NewContainer(cfg.Database, cfg.Alerting, cfg.Events, log),
		config:    cfg,
	}, nil
}

// NewApiContainer creates a new container for the API service
func NewApiContainer() (*ApiContainer, error) {
	cfg, err := config.LoadApiConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load API configuration: %w", err)
	}

	log := logger.NewLogger(&cfg.Logging).WithService("api-service")

	return &ApiContainer{
		Container: NewContainer(cfg.Database, cfg.Alerting, cfg.Events, log),
		config:    cfg,
	}, nil
}

// GetConfig returns the API configuration
func (c *ApiContainer) GetConfig() *config.Config {
	return c.config
}

// GetConfig returns the ingestor configuration
func (c *IngestorContainer) GetConfig() *config.IngestorConfig {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.logger
}

// Driver returns the configured database driver name
func (c *Container) Driver() string {
	return c.dbConfig.Driver
}

// GetDatabase returns the database connection, opening it on first use
func (c *Container) GetDatabase() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.database()
}

func (c *Container) database() (*sql.DB, error) {
	if c.db == nil {
		db, err := database.Open(c.dbConfig, 20*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db
	}
	return c.db, nil
}

// GetHealthChecker returns the health checker
func (c *Container) GetHealthChecker() (*database.HealthChecker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.healthChecker == nil {
		db, err := c.database()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for health checker: %w", err)
		}
		c.healthChecker = database.NewHealthChecker(db, c.dbConfig.Driver)
	}
	return c.healthChecker, nil
}

// InitializeDatabase creates the schema
func (c *Container) InitializeDatabase(ctx context.Context) error {
	db, err := c.GetDatabase()
	if err != nil {
		return err
	}

	if err := database.NewManager(db, c.dbConfig.Driver).CreateTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	c.logger.Info().Str("driver", c.dbConfig.Driver).Msg("Database initialized successfully")
	return nil
}

// HealthCheck performs a comprehensive health check
func (c *Container) HealthCheck(ctx context.Context) map[string]interface{} {
	healthChecker, err := c.GetHealthChecker()
	if err != nil {
		return map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	}
	return healthChecker.GetHealthStatus(ctx)
}

// Repositories bundles the SQL repositories over one connection
type Repositories struct {
	Users      *repo.UserRepository
	Roles      *repo.RoleRepository
	Boards     *repo.BoardRepository
	Sensors    *repo.SensorRepository
	Readings   *repo.ReadingRepository
	AlertRules *repo.AlertRuleRepository
	Dashboards *repo.DashboardRepository
}

// GetRepositories returns repositories bound to the container's database
func (c *Container) GetRepositories() (*Repositories, error) {
	db, err := c.GetDatabase()
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Users:      repo.NewUserRepository(db),
		Roles:      repo.NewRoleRepository(db),
		Boards:     repo.NewBoardRepository(db),
		Sensors:    repo.NewSensorRepository(db),
		Readings:   repo.NewReadingRepository(db, c.dbConfig.Driver),
		AlertRules: repo.NewAlertRuleRepository(db),
		Dashboards: repo.NewDashboardRepository(db),
	}, nil
}

// GetDispatcher returns the email/Telegram alert dispatcher
func (c *Container) GetDispatcher() *alerting.Dispatcher {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dispatcher == nil {
		c.dispatcher = alerting.NewDispatcher(
			alerting.NewSMTPMailer(c.alertingConfig.SMTP),
			alerting.NewTelegramClient(c.alertingConfig.Telegram),
		)
	}
	return c.dispatcher
}

// GetIngestionWriter wires the writer with the alert evaluator and, when
// brokers are configured, the Kafka reading publisher
func (c *Container) GetIngestionWriter() (*ingestion.Writer, error) {
	repos, err := c.GetRepositories()
	if err != nil {
		return nil, err
	}
	dispatcher := c.GetDispatcher()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writer != nil {
		return c.writer, nil
	}

	c.evaluator = alerting.NewEvaluator(repos.AlertRules, dispatcher, c.alertingConfig.EqualityEpsilon, c.logger)
	writer := ingestion.NewWriter(repos.Sensors, repos.Readings, c.logger, c.evaluator)

	if c.eventsConfig.Enabled() {
		pub, err := events.NewReadingPublisher(c.eventsConfig.KafkaBrokers, c.eventsConfig.ReadingsTopic, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create reading publisher: %w", err)
		}
		writer.AddListener(pub)
		c.cleanupFuncs = append(c.cleanupFuncs, pub.Close)
		c.logger.Info().Strs("brokers", c.eventsConfig.KafkaBrokers).Str("topic", c.eventsConfig.ReadingsTopic).Msg("Publishing readings to Kafka")
	}

	c.writer = writer
	return c.writer, nil
}

// AddCleanupFunc adds a cleanup function
func (c *Container) AddCleanupFunc(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}

// Shutdown gracefully shuts down the container and all its dependencies
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info().Msg("Shutting down container...")

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}
	c.cleanupFuncs = nil

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.ErrorWithError(err, "Error closing database connection")
		}
		c.db = nil
	}

	c.logger.Info().Msg("Container shutdown complete")
	return nil
}
