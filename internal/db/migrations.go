package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'device_kind') THEN
			CREATE TYPE device_kind AS ENUM ('GPS', 'FUEL_SENSOR');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'device_status') THEN
			CREATE TYPE device_status AS ENUM ('ACTIVE', 'AUTO_REGISTERED', 'DISABLED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'geofence_kind') THEN
			CREATE TYPE geofence_kind AS ENUM ('PIT', 'STOCKPILE', 'OTHER');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'movement_status') THEN
			CREATE TYPE movement_status AS ENUM ('MOVING', 'IDLE', 'STATIONARY');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'trip_status') THEN
			CREATE TYPE trip_status AS ENUM ('IN_PROGRESS', 'COMPLETED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'fuel_alert_type') THEN
			CREATE TYPE fuel_alert_type AS ENUM ('LOW_FUEL', 'FUEL_THEFT', 'RAPID_CONSUMPTION', 'SENSOR_FAULT');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'tracker_state') THEN
			CREATE TYPE tracker_state AS ENUM ('IDLE', 'INSIDE', 'IN_TRANSIT', 'ARRIVED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS devices (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		external_id VARCHAR(64) NOT NULL,
		kind device_kind NOT NULL,
		status device_status NOT NULL DEFAULT 'AUTO_REGISTERED',
		last_seen TIMESTAMPTZ,
		battery_level DOUBLE PRECISION,
		signal_strength INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_devices_external_id ON devices (external_id);`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		number VARCHAR(32) NOT NULL,
		type VARCHAR(64),
		status VARCHAR(32),
		gps_device_id UUID REFERENCES devices(id) ON DELETE SET NULL,
		fuel_sensor_id UUID REFERENCES devices(id) ON DELETE SET NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_gps_device_id ON vehicles (gps_device_id);`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_fuel_sensor_id ON vehicles (fuel_sensor_id);`,
	`CREATE TABLE IF NOT EXISTS geofences (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(128) NOT NULL,
		kind geofence_kind NOT NULL,
		material_type VARCHAR(64),
		center_lat DOUBLE PRECISION NOT NULL,
		center_lon DOUBLE PRECISION NOT NULL,
		radius_m DOUBLE PRECISION NOT NULL CHECK (radius_m > 0),
		active BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS gps_pings (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		device_id UUID NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		altitude DOUBLE PRECISION,
		speed DOUBLE PRECISION,
		heading DOUBLE PRECISION,
		accuracy DOUBLE PRECISION,
		satellite_count INTEGER,
		recorded_at TIMESTAMPTZ NOT NULL,
		ignition_on BOOLEAN,
		movement_status movement_status NOT NULL,
		odometer DOUBLE PRECISION,
		raw_payload JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_gps_pings_vehicle_ts ON gps_pings (vehicle_id, recorded_at);`,
	`CREATE INDEX IF NOT EXISTS idx_gps_pings_vehicle_recorded_at ON gps_pings (vehicle_id, recorded_at DESC);`,
	`CREATE TABLE IF NOT EXISTS fuel_pings (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		sensor_id UUID NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
		fuel_level DOUBLE PRECISION NOT NULL,
		fuel_percentage DOUBLE PRECISION,
		temperature DOUBLE PRECISION,
		voltage DOUBLE PRECISION,
		recorded_at TIMESTAMPTZ NOT NULL,
		raw_payload JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_fuel_pings_vehicle_ts ON fuel_pings (vehicle_id, recorded_at);`,
	`CREATE INDEX IF NOT EXISTS idx_fuel_pings_vehicle_recorded_at ON fuel_pings (vehicle_id, recorded_at DESC);`,
	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		status trip_status NOT NULL DEFAULT 'IN_PROGRESS',
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ,
		source_geofence_id UUID REFERENCES geofences(id) ON DELETE SET NULL,
		destination_geofence_id UUID REFERENCES geofences(id) ON DELETE SET NULL,
		distance_km DOUBLE PRECISION CHECK (distance_km IS NULL OR distance_km >= 0),
		duration_minutes DOUBLE PRECISION,
		fuel_consumed_liters DOUBLE PRECISION,
		material_type VARCHAR(64),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (end_time IS NULL OR end_time >= start_time)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_trips_vehicle_in_progress
		ON trips (vehicle_id)
		WHERE status = 'IN_PROGRESS';`,
	`CREATE INDEX IF NOT EXISTS idx_trips_vehicle_start_time ON trips (vehicle_id, start_time DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_status ON trips (status);`,
	`CREATE INDEX IF NOT EXISTS idx_trips_material_type ON trips (material_type);`,
	`CREATE TABLE IF NOT EXISTS fuel_alerts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
		alert_type fuel_alert_type NOT NULL,
		message TEXT NOT NULL,
		is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_fuel_alerts_active
		ON fuel_alerts (vehicle_id, alert_type)
		WHERE is_resolved = FALSE;`,
	`CREATE INDEX IF NOT EXISTS idx_fuel_alerts_vehicle_id ON fuel_alerts (vehicle_id);`,
	`CREATE TABLE IF NOT EXISTS vehicle_tracker_state (
		vehicle_id UUID PRIMARY KEY REFERENCES vehicles(id) ON DELETE CASCADE,
		state tracker_state NOT NULL DEFAULT 'IDLE',
		geofence_id UUID REFERENCES geofences(id) ON DELETE SET NULL,
		dwell_count INTEGER NOT NULL DEFAULT 0,
		last_ping_at TIMESTAMPTZ,
		last_inside_at TIMESTAMPTZ,
		exit_lat DOUBLE PRECISION,
		exit_lon DOUBLE PRECISION,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE OR REPLACE FUNCTION set_row_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_devices_updated_at') THEN
			CREATE TRIGGER trg_devices_updated_at
				BEFORE UPDATE ON devices
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_trips_updated_at') THEN
			CREATE TRIGGER trg_trips_updated_at
				BEFORE UPDATE ON trips
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_vehicle_tracker_state_updated_at') THEN
			CREATE TRIGGER trg_vehicle_tracker_state_updated_at
				BEFORE UPDATE ON vehicle_tracker_state
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
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
