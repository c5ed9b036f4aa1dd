package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/entwine-labs/entwine/backend/internal/couples"
	"github.com/entwine-labs/entwine/backend/internal/cycle"
	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestApplyMigrationsBackfillsCycleDefaults(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&cycle.Profile{}, &couples.Couple{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	profile := cycle.Profile{
		UserID:          "user-1",
		CoupleID:        "couple-1",
		LastPeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		AvgCycleLength:  0,
		AvgPeriodLength: -3,
	}
	if err := database.Create(&profile).Error; err != nil {
		testContext.Fatalf("failed to insert profile: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var stored cycle.Profile
	if err := database.Where("user_id = ?", profile.UserID).Take(&stored).Error; err != nil {
		testContext.Fatalf("failed to reload profile: %v", err)
	}
	if stored.AvgCycleLength != cycle.DefaultCycleLength {
		testContext.Fatalf("expected cycle length backfill, got %d", stored.AvgCycleLength)
	}
	if stored.AvgPeriodLength != cycle.DefaultPeriodLength {
		testContext.Fatalf("expected period length backfill, got %d", stored.AvgPeriodLength)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationBackfillCycleDefaults).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}
}

func TestApplyMigrationsNormalizesInviteCodes(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "invite.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&cycle.Profile{}, &couples.Couple{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	couple := couples.Couple{
		CoupleID:   "couple-1",
		User1ID:    "user-1",
		InviteCode: "abc234",
	}
	if err := database.Create(&couple).Error; err != nil {
		testContext.Fatalf("failed to insert couple: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var stored couples.Couple
	if err := database.Where("couple_id = ?", couple.CoupleID).Take(&stored).Error; err != nil {
		testContext.Fatalf("failed to reload couple: %v", err)
	}
	if stored.InviteCode != "ABC234" {
		testContext.Fatalf("expected upper-cased invite code, got %q", stored.InviteCode)
	}

	// Re-running must be a no-op thanks to the ledger.
	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("second run failed: %v", err)
	}
	var count int64
	if err := database.Model(&migrationRecord{}).Count(&count).Error; err != nil {
		testContext.Fatalf("failed to count records: %v", err)
	}
	if count != 2 {
		testContext.Fatalf("expected two migration records, got %d", count)
	}
}
