package database

import (
	"database/sql"
	"fmt"

	"bot-dashboard/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func setupGoose() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// RunMigrations executes all pending embedded migrations
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	if err := setupGoose(); err != nil {
		return err
	}

	logger.Info("Checking for pending migrations...")

	if err := goose.Up(db, "."); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Migrations completed successfully")
	return nil
}

// MigrationStatus compares the schema version in the database with the embedded migrations
type MigrationStatus struct {
	Current int64 `json:"current"`
	Latest  int64 `json:"latest"`
	Pending int   `json:"pending"`
}

// embeddedVersions lists the versions of the embedded migrations in ascending order
func embeddedVersions() ([]int64, error) {
	if err := setupGoose(); err != nil {
		return nil, err
	}

	all, err := goose.CollectMigrations(".", 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to collect migrations: %w", err)
	}

	versions := make([]int64, 0, len(all))
	for _, m := range all {
		versions = append(versions, m.Version)
	}
	return versions, nil
}

// GetMigrationStatus reports how far the database schema lags the embedded migrations
func GetMigrationStatus(db *sql.DB) (*MigrationStatus, error) {
	versions, err := embeddedVersions()
	if err != nil {
		return nil, err
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}

	status := &MigrationStatus{Current: current}
	for _, v := range versions {
		if v > status.Latest {
			status.Latest = v
		}
		// Anything newer than the applied version is still pending
		if v > current {
			status.Pending++
		}
	}
	return status, nil
}
