package main

import (
	"database/sql"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/config"
	"github.com/technosupport/vms-inventory/internal/logging"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	source := flag.String("source", "file://db/migrations", "migration source URL")
	upCmd := flag.Bool("up", false, "Run all up migrations")
	downCmd := flag.Bool("down", false, "Rollback all migrations")
	stepsCmd := flag.Int("steps", 0, "Run +/- steps")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("migrator: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level, "console")
	if err != nil {
		os.Stderr.WriteString("migrator: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// 2. Connect to DB
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}

	// 3. Init Migrate
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		logger.Fatal("failed to create migrate driver", zap.Error(err))
	}
	m, err := migrate.NewWithDatabaseInstance(*source, "postgres", driver)
	if err != nil {
		logger.Fatal("failed to initialize migrate", zap.String("source", *source), zap.Error(err))
	}

	// 4. Run Commands
	start := time.Now()
	switch {
	case *upCmd:
		logger.Info("running up migrations")
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("migration up failed", zap.Error(err))
		}
	case *downCmd:
		logger.Info("running down migrations")
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("migration down failed", zap.Error(err))
		}
	case *stepsCmd != 0:
		logger.Info("running migration steps", zap.Int("steps", *stepsCmd))
		if err := m.Steps(*stepsCmd); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logger.Fatal("migration steps failed", zap.Error(err))
		}
	default:
		logger.Info("no command specified, use -up, -down or -steps")
	}

	version, dirty, err := m.Version()
	if err != nil {
		logger.Info("no migration version recorded", zap.Error(err))
	} else {
		logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
	logger.Info("done", zap.Duration("duration", time.Since(start)))
}
