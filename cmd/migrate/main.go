package main

import (
	"context"
	"flag"
	"os"
	"time"

	"flarewise/adapters/excel"
	"flarewise/adapters/postgres"
	"flarewise/app"
	"flarewise/domain/health"
	"flarewise/internal"
	"flarewise/internal/config"
	"flarewise/internal/container"
	"flarewise/internal/migration"
	"flarewise/internal/testkit"

	"github.com/joho/godotenv"
)

func main() {
	var (
		seedWorkbook  = flag.String("workbook", "", "import events from this .xlsx workbook after migrating")
		seedSynthetic = flag.Bool("synthetic", false, "import a generated demo log after migrating")
		seed          = flag.Int64("seed", 42, "seed for -synthetic")
		days          = flag.Int("days", 180, "days of data for -synthetic")
	)
	flag.Parse()

	logger := internal.NewDefaultLogger().With("migrate")
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using system environment variables")
	}

	url := os.Getenv("DATABASE_URL")
	if flag.NArg() > 0 {
		url = flag.Arg(0)
	}
	if url == "" {
		logger.Error("usage: migrate [flags] <database_url> (or set DATABASE_URL)")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := container.Connect(ctx, config.DatabaseConfig{
		URL: url, MaxOpenConns: 4, MaxIdleConns: 2, ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	defer db.Close()

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		logger.Error("migration failed: %v", err)
		os.Exit(1)
	}
	logger.Info("schema %s applied (%d steps)", runner.Version(), len(runner.Steps()))

	var log *health.EventLog
	switch {
	case *seedWorkbook != "":
		repo, err := excel.Open(*seedWorkbook, logger)
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		log = repo.Log()
	case *seedSynthetic:
		cfg := testkit.DefaultSymptomLogConfig()
		cfg.Seed = *seed
		cfg.Days = *days
		cfg.StartDate = time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -*days)
		log, err = testkit.NewSymptomLogGenerator(cfg).Generate()
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
	default:
		return
	}

	stats, err := app.NewImportService(postgres.NewEventRepository(db), logger).Import(ctx, log)
	if err != nil {
		logger.Error("import failed after %s: %v", stats, err)
		os.Exit(1)
	}
	logger.Info("imported %s", stats)
}
