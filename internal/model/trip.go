package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TripStatus string

const (
	TripStatusInProgress TripStatus = "IN_PROGRESS"
	TripStatusCompleted  TripStatus = "COMPLETED"
)

// Trip is a detected haul between two distinct geofences. Opened when a
// vehicle leaves a geofence, finalized exactly once on entry into a
// different one. At most one IN_PROGRESS trip per vehicle (partial unique
// index uniq_trips_vehicle_in_progress).
type Trip struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID             uuid.UUID  `gorm:"type:uuid;not null" json:"vehicle_id"`
	Status                TripStatus `gorm:"type:trip_status;not null;default:'IN_PROGRESS'" json:"status"`
	StartTime             time.Time  `gorm:"not null" json:"start_time"`
	EndTime               *time.Time `json:"end_time"`
	SourceGeofenceID      *uuid.UUID `gorm:"type:uuid" json:"source_geofence_id"`
	DestinationGeofenceID *uuid.UUID `gorm:"type:uuid" json:"destination_geofence_id"`
	DistanceKm            *float64   `json:"distance_km"`
	DurationMinutes       *float64   `json:"duration_minutes"`
	FuelConsumedLiters    *float64   `json:"fuel_consumed_liters"`
	MaterialType          *string    `gorm:"type:varchar(64)" json:"material_type"`
	CreatedAt             time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	SourceGeofence      *Geofence `gorm:"foreignKey:SourceGeofenceID" json:"source_geofence,omitempty"`
	DestinationGeofence *Geofence `gorm:"foreignKey:DestinationGeofenceID" json:"destination_geofence,omitempty"`
}

func (Trip) TableName() string {
	return "trips"
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
