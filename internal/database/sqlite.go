package database

import (
	"fmt"

	"github.com/entwine-labs/entwine/backend/internal/albums"
	"github.com/entwine-labs/entwine/backend/internal/couples"
	"github.com/entwine-labs/entwine/backend/internal/cycle"
	"github.com/entwine-labs/entwine/backend/internal/games"
	"github.com/entwine-labs/entwine/backend/internal/letters"
	"github.com/entwine-labs/entwine/backend/internal/milestones"
	"github.com/entwine-labs/entwine/backend/internal/users"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&users.Account{},
		&couples.Couple{},
		&games.GameSession{},
		&cycle.Profile{},
		&cycle.DailyLog{},
		&letters.Letter{},
		&albums.Album{},
		&albums.Photo{},
		&milestones.Milestone{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}
