package infra

import (
	"fmt"

	"tillpoint/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial unique indexes, composite uniques on existing DBs).
//
// TranslateError is required: the single-open-period and one-period-per-day
// guarantees are enforced by unique indexes, and the services rely on
// gorm.ErrDuplicatedKey to turn a race loser into a ConflictError.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return db, nil
}

// RunMigrations creates / updates the schema. Also used by integration tests
// against throwaway containers.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Business{},
		&model.Machine{},
		&model.Period{},
		&model.PeriodAttachment{},
		&model.MachineEntry{},
		&model.WinnerPayout{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches runs idempotent DDL that AutoMigrate cannot produce.
// Every statement is guarded so re-running on a patched schema is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one OPEN period per business. The service's pre-check is a
		// fast path only; this index is the actual arbiter under concurrency.
		{"partial unique open period per business", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uniq_periods_open') THEN
    CREATE UNIQUE INDEX uniq_periods_open
        ON periods (business_id)
        WHERE status = 'OPEN';
  END IF;
END $$`},
		// One period per business per calendar day, open or closed.
		{"unique business+date period", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uniq_periods_business_date') THEN
    CREATE UNIQUE INDEX uniq_periods_business_date
        ON periods (business_id, business_date);
  END IF;
END $$`},
		// Retry cron scan: closed periods whose summary has not gone out yet.
		{"partial index pending summaries", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_periods_pending_summary') THEN
    CREATE INDEX idx_periods_pending_summary
        ON periods (next_summary_retry_at)
        WHERE status = 'CLOSED' AND summary_sent = false;
  END IF;
END $$`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
