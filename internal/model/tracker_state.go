package model

import (
	"time"

	"github.com/google/uuid"
)

type TrackerState string

const (
	TrackerStateIdle      TrackerState = "IDLE"
	TrackerStateInside    TrackerState = "INSIDE"
	TrackerStateInTransit TrackerState = "IN_TRANSIT"
	TrackerStateArrived   TrackerState = "ARRIVED"
)

// VehicleTrackerState is the persisted per-vehicle state machine row.
// Every trip transition locks this row FOR UPDATE, which serializes
// concurrent pings for the same vehicle without coupling vehicles to each
// other.
type VehicleTrackerState struct {
	VehicleID uuid.UUID    `gorm:"type:uuid;primaryKey" json:"vehicle_id"`
	State     TrackerState `gorm:"type:tracker_state;not null;default:'IDLE'" json:"state"`
	// GeofenceID is the fence the vehicle is inside (INSIDE/ARRIVED) or the
	// source fence of the open trip (IN_TRANSIT).
	GeofenceID *uuid.UUID `gorm:"type:uuid" json:"geofence_id"`
	// DwellCount counts consecutive pings inside GeofenceID while the dwell
	// requirement has not yet been met.
	DwellCount   int        `gorm:"not null;default:0" json:"dwell_count"`
	LastPingAt   *time.Time `json:"last_ping_at"`
	LastInsideAt *time.Time `json:"last_inside_at"`
	// ExitLat/ExitLon record where the vehicle left the source fence, for
	// the minimum-displacement guard at arrival.
	ExitLat   *float64  `json:"exit_lat"`
	ExitLon   *float64  `json:"exit_lon"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (VehicleTrackerState) TableName() string {
	return "vehicle_tracker_state"
}
