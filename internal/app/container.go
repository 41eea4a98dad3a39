// Package app wires configuration, infrastructure and application handlers
// into a runnable container.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/moyeolab/moyeo/adapter/api"
	"github.com/moyeolab/moyeo/internal/coordination/application/commands"
	"github.com/moyeolab/moyeo/internal/coordination/application/queries"
	"github.com/moyeolab/moyeo/internal/coordination/application/services"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
	"github.com/moyeolab/moyeo/internal/coordination/infrastructure/maps"
	"github.com/moyeolab/moyeo/internal/coordination/infrastructure/nlp"
	coordinationPersistence "github.com/moyeolab/moyeo/internal/coordination/infrastructure/persistence"
	sharedApplication "github.com/moyeolab/moyeo/internal/shared/application"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/database"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/eventbus"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/migrations"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/moyeolab/moyeo/internal/shared/infrastructure/persistence"
	"github.com/moyeolab/moyeo/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DB       *pgxpool.Pool
	SQLiteDB *sql.DB

	// Redis
	RedisClient *redis.Client

	// Repositories
	RoomRepo     domain.RoomRepository
	ProfileRepo  domain.ProfileRepository
	ActivityRepo domain.ActivityLogRepository
	OutboxRepo   outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Domain services
	RoomLocks       *services.RoomLocks
	TravelEstimator services.TravelEstimator
	Recomputer      *services.TravelRecomputer
	Scheduler       *services.Scheduler
	Planner         *services.ExchangePlanner
	IntentParser    services.IntentParser

	// Command handlers
	CreateRoomHandler      *commands.CreateRoomHandler
	JoinRoomHandler        *commands.JoinRoomHandler
	RunScheduleHandler     *commands.RunScheduleHandler
	ConfirmScheduleHandler *commands.ConfirmScheduleHandler
	SmartExchangeHandler   *commands.SmartExchangeHandler
	ApproveRequestHandler  *commands.ApproveRequestHandler
	RejectRequestHandler   *commands.RejectRequestHandler
	CancelRequestHandler   *commands.CancelRequestHandler

	// Query handlers
	GetRoomHandler *queries.GetRoomHandler

	// Publishers
	EventPublisher eventbus.Publisher

	// Outbox Processor
	OutboxProcessor *outbox.Processor

	// Auth
	TokenVerifier api.TokenVerifier
}

// NewContainer creates and wires all dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	if err := c.connectDatabase(ctx); err != nil {
		return nil, err
	}
	c.connectRedis(ctx)
	c.buildServices()
	c.buildHandlers()

	if err := c.buildEventPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: 1 * time.Second,
		RetryBackoffMax:  1 * time.Minute,
	}, logger)

	if cfg.AuthServiceURL != "" {
		c.TokenVerifier = api.NewRemoteTokenVerifier(cfg.AuthServiceURL)
	} else {
		if !cfg.IsDevelopment() {
			c.Close()
			return nil, fmt.Errorf("AUTH_SERVICE_URL is required outside development")
		}
		logger.Warn("no auth service configured, accepting user IDs as bearer tokens")
		c.TokenVerifier = api.LocalTokenVerifier{}
	}

	return c, nil
}

// connectDatabase opens the configured database, runs migrations and builds
// the repositories bound to that driver.
func (c *Container) connectDatabase(ctx context.Context) error {
	cfg, logger := c.Config, c.Logger

	switch cfg.DBDriver {
	case "sqlite":
		db, err := database.NewSQLiteDB(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open SQLite database: %w", err)
		}
		if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
			db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.SQLiteDB = db
		c.RoomRepo = coordinationPersistence.NewSQLiteRoomRepository(db, logger)
		c.ProfileRepo = coordinationPersistence.NewSQLiteProfileRepository(db, logger)
		c.ActivityRepo = coordinationPersistence.NewSQLiteActivityLogRepository(db, logger)
		c.OutboxRepo = outbox.NewSQLiteRepository(db)
		c.UnitOfWork = sharedPersistence.NewSQLiteUnitOfWork(db)
		logger.Info("connected to SQLite database", "path", cfg.SQLitePath)

	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		c.DB = pool
		c.RoomRepo = coordinationPersistence.NewPostgresRoomRepository(pool, logger)
		c.ProfileRepo = coordinationPersistence.NewPostgresProfileRepository(pool, logger)
		c.ActivityRepo = coordinationPersistence.NewPostgresActivityLogRepository(pool, logger)
		c.OutboxRepo = outbox.NewPostgresRepository(pool)
		c.UnitOfWork = sharedPersistence.NewPostgresUnitOfWork(pool)
		logger.Info("connected to PostgreSQL database")

	default:
		return fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
	return nil
}

// connectRedis connects to Redis when configured. Redis only backs the
// travel-time cache, so failures degrade to an in-memory cache.
func (c *Container) connectRedis(ctx context.Context) {
	cfg, logger := c.Config, c.Logger
	if cfg.RedisURL == "" {
		return
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid Redis URL, travel-time cache will be in-memory", "error", err)
		return
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis not available, travel-time cache will be in-memory", "error", err)
		client.Close()
		return
	}
	c.RedisClient = client
	logger.Info("connected to Redis")
}

func (c *Container) buildServices() {
	cfg, logger := c.Config, c.Logger

	c.RoomLocks = services.NewRoomLocks()

	if cfg.MapProviderURL != "" {
		var cache maps.DistanceCache
		if c.RedisClient != nil {
			cache = maps.NewRedisCache(c.RedisClient, logger)
		} else {
			cache = maps.NewMemoryCache()
		}
		c.TravelEstimator = maps.NewProviderEstimator(maps.ProviderConfig{
			BaseURL:        cfg.MapProviderURL,
			APIKey:         cfg.MapProviderKey,
			RequestTimeout: cfg.MapRequestTimeout,
			MaxConcurrent:  cfg.MapMaxConcurrent,
		}, cache, logger)
	} else {
		logger.Warn("no map provider configured, using straight-line travel estimates")
		c.TravelEstimator = services.NewHaversineEstimator()
	}

	missingCoords := services.MissingCoordsSkip
	if cfg.MapOnMissingCoords == string(services.MissingCoordsReject) {
		missingCoords = services.MissingCoordsReject
	}

	c.Recomputer = services.NewTravelRecomputer(c.TravelEstimator, missingCoords, logger)
	c.Scheduler = services.NewScheduler(c.Recomputer, logger)
	c.Planner = services.NewExchangePlanner(c.Recomputer, logger, time.Now)

	if cfg.IntentParserURL != "" {
		c.IntentParser = nlp.NewParserClient(cfg.IntentParserURL, logger)
	} else {
		logger.Warn("no intent parser configured, natural-language requests will be rejected")
		c.IntentParser = nlp.NewUnavailableParser()
	}
}

func (c *Container) buildHandlers() {
	c.CreateRoomHandler = commands.NewCreateRoomHandler(c.RoomRepo, c.OutboxRepo, c.UnitOfWork)
	c.JoinRoomHandler = commands.NewJoinRoomHandler(c.RoomRepo, c.OutboxRepo, c.UnitOfWork, c.RoomLocks)
	c.RunScheduleHandler = commands.NewRunScheduleHandler(
		c.RoomRepo, c.ProfileRepo, c.ActivityRepo, c.OutboxRepo, c.UnitOfWork, c.Scheduler, c.RoomLocks)
	c.ConfirmScheduleHandler = commands.NewConfirmScheduleHandler(
		c.RoomRepo, c.ActivityRepo, c.OutboxRepo, c.UnitOfWork, c.RoomLocks)
	c.SmartExchangeHandler = commands.NewSmartExchangeHandler(
		c.RoomRepo, c.ProfileRepo, c.ActivityRepo, c.OutboxRepo, c.UnitOfWork, c.Planner, c.RoomLocks)
	c.ApproveRequestHandler = commands.NewApproveRequestHandler(
		c.RoomRepo, c.ProfileRepo, c.ActivityRepo, c.OutboxRepo, c.UnitOfWork, c.Planner, c.RoomLocks)
	c.RejectRequestHandler = commands.NewRejectRequestHandler(
		c.RoomRepo, c.ActivityRepo, c.OutboxRepo, c.UnitOfWork, c.RoomLocks)
	c.CancelRequestHandler = commands.NewCancelRequestHandler(
		c.RoomRepo, c.ActivityRepo, c.OutboxRepo, c.UnitOfWork, c.RoomLocks)

	c.GetRoomHandler = queries.NewGetRoomHandler(c.RoomRepo, c.ActivityRepo, c.RoomLocks)
}

func (c *Container) buildEventPublisher() error {
	cfg, logger := c.Config, c.Logger

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		logger.Warn("RabbitMQ not available, using noop publisher")
		c.EventPublisher = eventbus.NewNoopPublisher(logger)
		return nil
	}
	c.EventPublisher = publisher
	return nil
}

// APIHandler builds the HTTP handler from the wired command and query
// handlers.
func (c *Container) APIHandler() *api.CoordinationHandler {
	return api.NewCoordinationHandler(api.CoordinationHandlerConfig{
		CreateRoom:      c.CreateRoomHandler,
		JoinRoom:        c.JoinRoomHandler,
		RunSchedule:     c.RunScheduleHandler,
		ConfirmSchedule: c.ConfirmScheduleHandler,
		SmartExchange:   c.SmartExchangeHandler,
		ApproveRequest:  c.ApproveRequestHandler,
		RejectRequest:   c.RejectRequestHandler,
		CancelRequest:   c.CancelRequestHandler,
		GetRoom:         c.GetRoomHandler,
		IntentParser:    c.IntentParser,
		Verifier:        c.TokenVerifier,
		Logger:          c.Logger,
	})
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Error("failed to close event publisher", "error", err)
		}
	}
	if c.RedisClient != nil {
		c.RedisClient.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
	if c.SQLiteDB != nil {
		c.SQLiteDB.Close()
	}
}
