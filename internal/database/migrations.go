package database

import (
	"errors"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/couples"
	"github.com/entwine-labs/entwine/backend/internal/cycle"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationBackfillCycleDefaults   = "2026-06-18_backfill_cycle_defaults"
	migrationNormalizeInviteCodeCase = "2026-07-02_normalize_invite_code_case"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillCycleDefaults, apply: backfillCycleDefaults},
		{name: migrationNormalizeInviteCodeCase, apply: normalizeInviteCodeCase},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Early builds allowed zero-valued averages to reach storage; predictions
// treat those as 28/5, so persist the same defaults.
func backfillCycleDefaults(db *gorm.DB) error {
	if err := db.Model(&cycle.Profile{}).
		Where("avg_cycle_length <= 0").
		Update("avg_cycle_length", cycle.DefaultCycleLength).Error; err != nil {
		return err
	}
	return db.Model(&cycle.Profile{}).
		Where("avg_period_length <= 0").
		Update("avg_period_length", cycle.DefaultPeriodLength).Error
}

// Invite codes are issued upper-cased; normalize rows written before join
// started upper-casing its input.
func normalizeInviteCodeCase(db *gorm.DB) error {
	return db.Model(&couples.Couple{}).
		Where("invite_code <> upper(invite_code)").
		Update("invite_code", gorm.Expr("upper(invite_code)")).Error
}
