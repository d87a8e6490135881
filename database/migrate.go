package database

import (
	"context"
	"fmt"

	"servicehub/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations for the hub tables and the
// status API operators:
// - AutoMigrate (tables/columns)
// - Unique index on application_responses.serhub_request_id (the terminal-outcome claim)
// - Helpful lookup indexes
// - Basic CHECK constraints
//
// The services registry is owned elsewhere; it is only created when absent.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !tx.Migrator().HasTable(&models.Service{}) {
			if err := tx.Migrator().CreateTable(&models.Service{}); err != nil {
				return fmt.Errorf("create services table failed: %w", err)
			}
		}

		if err := tx.AutoMigrate(
			&models.ApplicationRequest{},
			&models.ApplicationResponse{},
			&models.FailRecord{},
			&models.Operator{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_application_responses_serhub_request_id ON application_responses (serhub_request_id)`,
			`CREATE INDEX IF NOT EXISTS idx_application_requests_application_id ON application_requests (application_id)`,
			`CREATE INDEX IF NOT EXISTS idx_fail_table_created_at ON fail_table (created_at)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		checks := []string{
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'services'::regclass
					  AND conname  = 'chk_services_timeout_nonneg'
				) THEN
					ALTER TABLE services
					ADD CONSTRAINT chk_services_timeout_nonneg
					CHECK (timeout >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
