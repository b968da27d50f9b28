package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeviceKind string

const (
	DeviceKindGps        DeviceKind = "GPS"
	DeviceKindFuelSensor DeviceKind = "FUEL_SENSOR"
)

type DeviceStatus string

const (
	DeviceStatusActive         DeviceStatus = "ACTIVE"
	DeviceStatusAutoRegistered DeviceStatus = "AUTO_REGISTERED"
	DeviceStatusDisabled       DeviceStatus = "DISABLED"
)

type Device struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	ExternalID     string       `gorm:"type:varchar(64);not null;uniqueIndex" json:"external_id"`
	Kind           DeviceKind   `gorm:"type:device_kind;not null" json:"kind"`
	Status         DeviceStatus `gorm:"type:device_status;not null;default:'AUTO_REGISTERED'" json:"status"`
	LastSeen       *time.Time   `json:"last_seen"`
	BatteryLevel   *float64     `json:"battery_level"`
	SignalStrength *int         `json:"signal_strength"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Device) TableName() string {
	return "devices"
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
