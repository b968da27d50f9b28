package model

import (
	"time"

	"github.com/google/uuid"
)

// LivePosition is the latest known position of a vehicle, the unit of the
// live-tracking view and of the Redis cache entry behind it.
type LivePosition struct {
	VehicleID      uuid.UUID      `json:"vehicle_id"`
	Lat            float64        `json:"lat"`
	Lon            float64        `json:"lon"`
	Speed          *float64       `json:"speed"`
	MovementStatus MovementStatus `json:"movement_status"`
	IgnitionOn     *bool          `json:"ignition_on"`
	RecordedAt     time.Time      `json:"recorded_at"`
}

func LivePositionFromPing(p GpsPing) LivePosition {
	return LivePosition{
		VehicleID:      p.VehicleID,
		Lat:            p.Lat,
		Lon:            p.Lon,
		Speed:          p.Speed,
		MovementStatus: p.MovementStatus,
		IgnitionOn:     p.IgnitionOn,
		RecordedAt:     p.RecordedAt,
	}
}
