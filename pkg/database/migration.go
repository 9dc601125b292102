package database

import (
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationConfig controls schema migration at startup.
type MigrationConfig struct {
	FolderPath string
	Version    uint
	Force      int
}

// MigrationLogger adapts ectologger to the migrate logging interface.
type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return true
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

// Migrate applies file-based migrations to the connected database. A
// zero target version means migrate to the latest.
func Migrate(db DB, databaseName string, cfg MigrationConfig, logger ectologger.Logger) error {
	driver, err := postgres.WithInstance(db.Unwrap().DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+cfg.FolderPath, databaseName, driver)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations from %s: %w", cfg.FolderPath, err)
	}
	m.Log = MigrationLogger{logger}

	if cfg.Force > 0 {
		if err := m.Force(cfg.Force); err != nil {
			return fmt.Errorf("failed to force migration version %d: %w", cfg.Force, err)
		}
	}

	if cfg.Version > 0 {
		err = m.Migrate(cfg.Version)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Info("Database migrations applied")
	return nil
}
