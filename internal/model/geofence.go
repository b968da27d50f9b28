package model

import (
	"github.com/google/uuid"
)

type GeofenceKind string

const (
	GeofenceKindPit       GeofenceKind = "PIT"
	GeofenceKindStockpile GeofenceKind = "STOCKPILE"
	GeofenceKindOther     GeofenceKind = "OTHER"
)

// Geofence is a circular region around a pit or stockpile. Reference data,
// read-only from the engine's perspective. MaterialType is set only for
// stockpiles.
type Geofence struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string       `gorm:"type:varchar(128);not null" json:"name"`
	Kind         GeofenceKind `gorm:"type:geofence_kind;not null" json:"kind"`
	MaterialType *string      `gorm:"type:varchar(64)" json:"material_type"`
	CenterLat    float64      `gorm:"not null" json:"center_lat"`
	CenterLon    float64      `gorm:"not null" json:"center_lon"`
	RadiusM      float64      `gorm:"not null" json:"radius_m"`
	Active       bool         `gorm:"not null;default:true" json:"active"`
}

func (Geofence) TableName() string {
	return "geofences"
}
