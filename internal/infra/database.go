package infra

import (
	"fmt"

	"saborpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate,
// then applies idempotent SQL patches for DDL that GORM cannot express
// (partial indexes in particular).
//
// TranslateError is on so that unique-constraint violations surface as
// gorm.ErrDuplicatedKey — the service layer relies on this to turn the
// open-session index violation into a ConflictError.
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

	if err := db.AutoMigrate(
		&model.Establishment{},
		&model.User{},
		&model.Order{},
		&model.CashSession{},
		&model.CashMovement{},
		&model.AuditEntry{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate
// cannot fully handle on its own. Each statement uses an existence guard so
// re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Partial unique index backing the single-open-session-per-establishment
		// invariant. Open is an atomic conditional insert against this index;
		// a plain check-then-insert would be a TOCTOU race.
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uniq_cash_sessions_open') THEN
		    CREATE UNIQUE INDEX uniq_cash_sessions_open
		        ON cash_sessions (establishment_id)
		        WHERE status = 'open';
		  END IF;
		END $$`,
		// Window scan index for the ledger reader (SumByTender is a narrow
		// range scan over the session window).
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_orders_establishment_created') THEN
		    CREATE INDEX idx_orders_establishment_created
		        ON orders (establishment_id, created_at);
		  END IF;
		END $$`,
		// Audit entries are append-only at the database level too: reject
		// UPDATE and DELETE regardless of application bugs.
		`CREATE OR REPLACE FUNCTION audit_entries_immutable() RETURNS trigger AS $f$
		BEGIN
		  RAISE EXCEPTION 'audit_entries is append-only';
		END
		$f$ LANGUAGE plpgsql`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_audit_entries_immutable') THEN
		    CREATE TRIGGER trg_audit_entries_immutable
		        BEFORE UPDATE OR DELETE ON audit_entries
		        FOR EACH ROW EXECUTE FUNCTION audit_entries_immutable();
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

// RunMigrations applies the same migrations for integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Establishment{},
		&model.User{},
		&model.Order{},
		&model.CashSession{},
		&model.CashMovement{},
		&model.AuditEntry{},
	); err != nil {
		return err
	}
	return applySchemaPatches(db)
}
