package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'plate_reading_status') THEN
			CREATE TYPE plate_reading_status AS ENUM ('MATCHED', 'UNREGISTERED', 'NO_MATCH');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		tenant_id UUID NOT NULL,
		department_id UUID,
		plate_number VARCHAR(32) NOT NULL,
		description TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicles_plate_number ON vehicles (plate_number);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_tenant_id ON vehicles (tenant_id);`,
	`CREATE TABLE IF NOT EXISTS plate_readings (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		created_by_user_id UUID NOT NULL,
		status plate_reading_status NOT NULL,
		best_plate VARCHAR(32),
		normalized_plate VARCHAR(32),
		best_score DOUBLE PRECISION,
		pattern_label VARCHAR(50),
		source_label VARCHAR(100),
		vehicle_id UUID REFERENCES vehicles(id) ON DELETE SET NULL,
		source_count INTEGER NOT NULL DEFAULT 0,
		candidate_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_plate_readings_created_by ON plate_readings (created_by_user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_plate_readings_normalized_plate ON plate_readings (normalized_plate);`,
	`CREATE INDEX IF NOT EXISTS idx_plate_readings_created_at ON plate_readings (created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS plate_reading_candidates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		reading_id UUID NOT NULL REFERENCES plate_readings(id) ON DELETE CASCADE,
		rank INTEGER NOT NULL,
		text VARCHAR(32) NOT NULL,
		pattern_label VARCHAR(50) NOT NULL,
		confidence INTEGER NOT NULL,
		position INTEGER NOT NULL,
		variant VARCHAR(20) NOT NULL,
		source_label VARCHAR(100) NOT NULL,
		source_confidence DOUBLE PRECISION NOT NULL,
		final_score DOUBLE PRECISION NOT NULL,
		UNIQUE (reading_id, rank)
	);`,
	`CREATE OR REPLACE FUNCTION set_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_vehicles_updated_at') THEN
			CREATE TRIGGER trg_vehicles_updated_at
				BEFORE UPDATE ON vehicles
				FOR EACH ROW
				EXECUTE PROCEDURE set_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
