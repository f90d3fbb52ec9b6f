package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/otisthings/hub-sub000/auth"
	"github.com/otisthings/hub-sub000/config"
	"github.com/otisthings/hub-sub000/discord"
	"github.com/otisthings/hub-sub000/middleware"
	"github.com/otisthings/hub-sub000/repositories"
	"github.com/otisthings/hub-sub000/repositories/postgres"
	"github.com/otisthings/hub-sub000/services/applications"
	"github.com/otisthings/hub-sub000/services/audit"
	"github.com/otisthings/hub-sub000/services/departments"
	"github.com/otisthings/hub-sub000/services/events"
	"github.com/otisthings/hub-sub000/services/garage"
	"github.com/otisthings/hub-sub000/services/management"
	"github.com/otisthings/hub-sub000/services/session"
	"github.com/otisthings/hub-sub000/services/tickets"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger
	Redis  *redis.Client

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users       repositories.UserRepository
	Categories  repositories.CategoryRepository
	AuditLogs   repositories.AuditRepository
	TxManager   repositories.TransactionManager

	// Services
	Sessions     *session.Service
	Auditor      *audit.Service
	Publisher    events.Publisher
	Tickets      *tickets.Service
	Applications *applications.Service
	Garage       *garage.Service
	Departments  *departments.Service
	Management   *management.Service

	// HTTP plumbing
	AuthHandler    *auth.Handler
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repos := deps.RepoFactory.NewRepositories()
	deps.Users = repos.Users
	deps.Categories = repos.Categories
	deps.AuditLogs = repos.AuditLogs
	deps.TxManager = deps.RepoFactory.GetTransactionManager()

	deps.initRedis(cfg)
	deps.initServices(cfg, repos)
	deps.initAuth(cfg)

	if err := deps.Auditor.Start(); err != nil {
		return nil, fmt.Errorf("failed to start audit service: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection and repository factory
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRedis creates the session cache client. The cache is optional; session
// reads fall back to Postgres when it is unavailable.
func (d *Dependencies) initRedis(cfg *config.Config) {
	opts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	d.Redis = redis.NewClient(opts)
	d.Logger.Info("session cache configured", zap.String("addr", cfg.Redis.Addr))
}

// initServices wires the domain services
func (d *Dependencies) initServices(cfg *config.Config, repos *repositories.Repositories) {
	d.Sessions = session.NewService(session.Config{
		Secret:   cfg.Session.Secret,
		TokenTTL: cfg.Session.TokenTTL,
		CacheTTL: cfg.Redis.SessionTTL,
	}, repos.Users, d.Redis, d.Logger)

	d.Auditor = audit.NewService(repos.AuditLogs, d.Logger, audit.DefaultConfig())

	if cfg.AMQP.Enabled {
		d.Publisher = events.NewAMQPPublisher(cfg.AMQP.URL, d.Logger)
		d.Logger.Info("amqp event publisher configured")
	} else {
		d.Publisher = events.NoopPublisher{}
		d.Logger.Info("amqp not configured, domain events disabled")
	}

	d.Tickets = tickets.NewService(repos.Tickets, repos.Categories, repos.Users, d.TxManager, d.Auditor, d.Publisher, d.Logger)
	d.Applications = applications.NewService(repos.Applications, repos.Users, d.TxManager, d.Auditor, d.Publisher, d.Logger)
	d.Garage = garage.NewService(repos.Garage, d.Auditor, d.Logger)
	d.Departments = departments.NewService(repos.Departments, d.Logger)
	d.Management = management.NewService(repos.Users, d.Auditor, d.Sessions, cfg.Management.RoleID, d.Logger)
}

// initAuth wires the Discord OAuth flow and the session middleware
func (d *Dependencies) initAuth(cfg *config.Config) {
	client := discord.NewClient(discord.Config{
		ClientID:     cfg.Discord.ClientID,
		ClientSecret: cfg.Discord.ClientSecret,
		RedirectURI:  cfg.Discord.RedirectURI,
		BotToken:     cfg.Discord.BotToken,
		APIBaseURL:   cfg.Discord.APIBaseURL,
	})

	d.AuthHandler = auth.NewHandler(cfg, client, d.Sessions, d.Users, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Sessions, d.Logger)
	d.Logger.Info("auth handler initialized")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Auditor != nil {
		if err := d.Auditor.Stop(10 * time.Second); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
	}

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
