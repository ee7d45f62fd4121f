package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nurpe/contratpro/internal/config"
)

func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{
		Logger:         newGormLogger(cfg.Environment, log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	start := time.Now()
	if err := runMigrations(database); err != nil {
		return nil, err
	}
	log.Info().Int("statements", len(migrationStatements)).Dur("took", time.Since(start)).Msg("database migrated")

	return database, nil
}
