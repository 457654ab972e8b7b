package container

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"flarewise/adapters/excel"
	"flarewise/adapters/postgres"
	"flarewise/adapters/stats/correlation"
	"flarewise/app"
	"flarewise/internal"
	"flarewise/internal/api"
	"flarewise/internal/config"
	"flarewise/internal/errors"
	"flarewise/internal/metrics"
	"flarewise/internal/migration"
	"flarewise/internal/ops"
	"flarewise/internal/testkit"
	"flarewise/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB       *sqlx.DB
	Registry *prometheus.Registry

	// Repositories (data access layer)
	Events ports.EventRepository
	Health ports.HealthChecker
	// Writer is only set for the postgres data source
	Writer ports.EventWriter

	// Analysis services
	Correlations *app.CorrelationService
	DoseResponse *app.DoseResponseService
	Trends       *app.TrendService
	Patterns     *app.PatternService
	Import       *app.ImportService
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Container{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}, nil
}

// Init connects the configured data source and builds the services
func (c *Container) Init(ctx context.Context) error {
	if err := c.initRepository(ctx); err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	c.initServices()
	if err := c.initMetrics(); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	c.Logger.Info("container initialized with %s data source", c.Config.Data.Source)
	return nil
}

func (c *Container) initRepository(ctx context.Context) error {
	switch c.Config.Data.Source {
	case config.DataSourcePostgres:
		db, err := Connect(ctx, c.Config.Database)
		if err != nil {
			return err
		}
		if err := migration.NewRunner().Run(ctx, db); err != nil {
			db.Close()
			return errors.Wrap(err, "database migration failed")
		}
		repo := postgres.NewEventRepository(db)
		c.DB = db
		c.Events, c.Health, c.Writer = repo, repo, repo

	case config.DataSourceExcel:
		repo, err := excel.Open(c.Config.Data.ExcelFile, c.Logger)
		if err != nil {
			return err
		}
		c.Events, c.Health = repo, repo

	case config.DataSourceMemory:
		gen := testkit.DefaultSymptomLogConfig()
		gen.Seed = c.Config.Data.SyntheticSeed
		gen.Days = c.Config.Data.SyntheticDays
		// end the generated log today so default ranges see data
		gen.StartDate = time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -gen.Days)
		kit, err := testkit.NewTestKitWithConfig(gen)
		if err != nil {
			return err
		}
		c.Logger.Info("synthetic data loaded for %v (%d records)", kit.Log.Users, kit.Log.Len())
		c.Events, c.Health = kit.Repo, kit.Repo

	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown data source %q", c.Config.Data.Source))
	}
	return nil
}

func (c *Container) initServices() {
	computer := correlation.NewComputer(correlation.Config{
		MinSampleSize: c.Config.Analysis.MinSampleSize,
	})
	c.Correlations = app.NewCorrelationService(c.Events, computer, c.Logger)
	c.DoseResponse = app.NewDoseResponseService(c.Events, c.Logger)
	c.Trends = app.NewTrendService(c.Events, c.Logger)
	c.Patterns = app.NewPatternService(c.Events, computer, c.Logger)
	if c.Writer != nil {
		c.Import = app.NewImportService(c.Writer, c.Logger)
	}
}

func (c *Container) initMetrics() error {
	extra := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	if c.DB != nil {
		extra = append(extra, collectors.NewDBStatsCollector(c.DB.DB, "flarewise"))
	}
	return metrics.Register(c.Registry, extra...)
}

// APIServer builds the public gin server over the container's services
func (c *Container) APIServer() *api.Server {
	return api.NewServer(api.Services{
		Correlations: c.Correlations,
		DoseResponse: c.DoseResponse,
		Trends:       c.Trends,
		Patterns:     c.Patterns,
		Health:       c.Health,
	}, api.Options{
		DefaultRangeDays:      c.Config.Analysis.DefaultRangeDays,
		RequestTimeout:        c.Config.Server.RequestTimeout,
		MaxConcurrentAnalyses: int64(c.Config.Server.MaxConcurrentAnalyses),
		PatternMinFrequency:   c.Config.Analysis.PatternMinFrequency,
		PatternMaxLag:         c.Config.Analysis.PatternMaxLag,
	}, c.Logger)
}

// OpsHandler builds the metrics/health/pprof router
func (c *Container) OpsHandler() http.Handler {
	return ops.NewRouter(ops.Config{
		Profiling: c.Config.Profiling.Enabled,
		Timeout:   c.Config.Server.RequestTimeout,
	}, c.Registry, c.Health)
}

// Shutdown releases the database connection, if any
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Connect opens and pings a PostgreSQL pool with the configured limits
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.URL)
	if err != nil {
		return nil, errors.Database(err, "failed to connect to database")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}
