package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"telemetry-service/internal/model"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// UpsertSeen resolves a device by its external identifier, creating it as
// AUTO_REGISTERED on first sight. last_seen/battery/signal are written
// unconditionally, even when the ping later turns out to be a duplicate.
// The ON CONFLICT path makes concurrent first-sight pings converge on one
// row instead of racing an insert.
func (r *DeviceRepository) UpsertSeen(
	ctx context.Context,
	externalID string,
	kind model.DeviceKind,
	seenAt time.Time,
	batteryLevel *float64,
	signalStrength *int,
) (*model.Device, error) {
	device := model.Device{
		ID:             uuid.New(),
		ExternalID:     externalID,
		Kind:           kind,
		Status:         model.DeviceStatusAutoRegistered,
		LastSeen:       &seenAt,
		BatteryLevel:   batteryLevel,
		SignalStrength: signalStrength,
	}

	assignments := map[string]interface{}{
		"last_seen": seenAt,
	}
	if batteryLevel != nil {
		assignments["battery_level"] = *batteryLevel
	}
	if signalStrength != nil {
		assignments["signal_strength"] = *signalStrength
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(&device).Error
	if err != nil {
		return nil, err
	}

	// re-read: on the conflict path Create leaves the generated ID in the
	// struct, not the existing row's
	var stored model.Device
	if err := r.db.WithContext(ctx).
		First(&stored, "external_id = ?", externalID).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// VehicleForDevice returns the vehicle the device is currently assigned to,
// or gorm.ErrRecordNotFound when the device is unassigned.
func (r *DeviceRepository) VehicleForDevice(ctx context.Context, deviceID uuid.UUID, kind model.DeviceKind) (*model.Vehicle, error) {
	column := "gps_device_id"
	if kind == model.DeviceKindFuelSensor {
		column = "fuel_sensor_id"
	}

	var vehicle model.Vehicle
	if err := r.db.WithContext(ctx).
		First(&vehicle, column+" = ?", deviceID).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}
