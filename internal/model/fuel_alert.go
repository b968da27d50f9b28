package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FuelAlertType string

const (
	FuelAlertLowFuel          FuelAlertType = "LOW_FUEL"
	FuelAlertFuelTheft        FuelAlertType = "FUEL_THEFT"
	FuelAlertRapidConsumption FuelAlertType = "RAPID_CONSUMPTION"
	FuelAlertSensorFault      FuelAlertType = "SENSOR_FAULT"
)

// FuelAlert is raised by the anomaly detector. At most one unresolved alert
// per (vehicle_id, alert_type) — uniq_fuel_alerts_active backstops the
// detector's own check.
type FuelAlert struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	VehicleID  uuid.UUID     `gorm:"type:uuid;not null" json:"vehicle_id"`
	AlertType  FuelAlertType `gorm:"type:fuel_alert_type;not null" json:"alert_type"`
	Message    string        `gorm:"type:text;not null" json:"message"`
	IsResolved bool          `gorm:"not null;default:false" json:"is_resolved"`
	ResolvedAt *time.Time    `json:"resolved_at"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (FuelAlert) TableName() string {
	return "fuel_alerts"
}

func (a *FuelAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
