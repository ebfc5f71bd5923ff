// Package store provides persistence for PM records: the GORM database
// connection and the flat CSV interchange format.
package store

import (
	"fmt"

	"github.com/zulandar/pmtrack/internal/config"
	"github.com/zulandar/pmtrack/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a GORM connection per the configured driver: a local sqlite
// file by default, or a MySQL server for shared deployments.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.Path), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("store: open sqlite %s: %w", cfg.Path, err)
		}
		return db, nil
	case config.DriverMySQL:
		dsn := fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true", cfg.User, cfg.Host, cfg.Port, cfg.Name)
		db, err := gorm.Open(mysql.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("store: connect to %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Name, err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
}

// AllModels returns the GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.PMRecord{},
	}
}

// AutoMigrate creates or updates the record table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("store: auto-migrate: %w", err)
	}
	return nil
}
