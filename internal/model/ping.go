package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementStatus string

const (
	MovementStatusMoving     MovementStatus = "MOVING"
	MovementStatusIdle       MovementStatus = "IDLE"
	MovementStatusStationary MovementStatus = "STATIONARY"
)

// GpsPing is one normalized location sample. Append-only: rows are never
// updated or deleted, and (vehicle_id, recorded_at) is unique so a resent
// ping lands on the existing row.
type GpsPing struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uniq_gps_pings_vehicle_ts,priority:1" json:"vehicle_id"`
	DeviceID       uuid.UUID      `gorm:"type:uuid;not null" json:"device_id"`
	Lat            float64        `gorm:"not null" json:"lat"`
	Lon            float64        `gorm:"not null" json:"lon"`
	Altitude       *float64       `json:"altitude"`
	Speed          *float64       `json:"speed"`
	Heading        *float64       `json:"heading"`
	Accuracy       *float64       `json:"accuracy"`
	SatelliteCount *int           `json:"satellite_count"`
	RecordedAt     time.Time      `gorm:"not null;uniqueIndex:uniq_gps_pings_vehicle_ts,priority:2" json:"recorded_at"`
	IgnitionOn     *bool          `json:"ignition_on"`
	MovementStatus MovementStatus `gorm:"type:movement_status;not null" json:"movement_status"`
	Odometer       *float64       `json:"odometer"`
	RawPayload     string         `gorm:"type:jsonb" json:"raw_payload"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func (GpsPing) TableName() string {
	return "gps_pings"
}

func (p *GpsPing) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// FuelPing is one normalized fuel-sensor sample, same append-only and
// dedup semantics as GpsPing.
type FuelPing struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_fuel_pings_vehicle_ts,priority:1" json:"vehicle_id"`
	SensorID       uuid.UUID `gorm:"type:uuid;not null" json:"sensor_id"`
	FuelLevel      float64   `gorm:"not null" json:"fuel_level"`
	FuelPercentage *float64  `json:"fuel_percentage"`
	Temperature    *float64  `json:"temperature"`
	Voltage        *float64  `json:"voltage"`
	RecordedAt     time.Time `gorm:"not null;uniqueIndex:uniq_fuel_pings_vehicle_ts,priority:2" json:"recorded_at"`
	RawPayload     string    `gorm:"type:jsonb" json:"raw_payload"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (FuelPing) TableName() string {
	return "fuel_pings"
}

func (p *FuelPing) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
