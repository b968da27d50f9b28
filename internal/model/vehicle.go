package model

import (
	"github.com/google/uuid"
)

// Vehicle is owned by fleet management; the engine only reads the
// device-to-vehicle assignment and never creates or mutates rows here.
type Vehicle struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Number       string     `gorm:"type:varchar(32);not null" json:"number"`
	Type         string     `gorm:"type:varchar(64)" json:"type"`
	Status       string     `gorm:"type:varchar(32)" json:"status"`
	GpsDeviceID  *uuid.UUID `gorm:"type:uuid" json:"gps_device_id"`
	FuelSensorID *uuid.UUID `gorm:"type:uuid" json:"fuel_sensor_id"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}
