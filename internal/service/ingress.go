package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"telemetry-service/internal/config"
	"telemetry-service/internal/model"
)

// The ingress pipeline names only the slices of the storage layer it
// touches; main wires the gorm repositories in, tests stand in fakes.
type deviceStore interface {
	UpsertSeen(ctx context.Context, externalID string, kind model.DeviceKind, seenAt time.Time, batteryLevel *float64, signalStrength *int) (*model.Device, error)
	VehicleForDevice(ctx context.Context, deviceID uuid.UUID, kind model.DeviceKind) (*model.Vehicle, error)
}

type fuelPingWriter interface {
	InsertFuel(ctx context.Context, ping *model.FuelPing) (bool, error)
}

type gpsTracker interface {
	ProcessPing(ctx context.Context, ping *model.GpsPing) (bool, error)
}

type fuelSink interface {
	ProcessPing(ctx context.Context, ping *model.FuelPing) error
}

// LiveStore is the latest-position cache. A nil LiveStore disables caching;
// reads then fall through to the database.
type LiveStore interface {
	SetLatest(ctx context.Context, pos model.LivePosition) error
	Latest(ctx context.Context, vehicleID uuid.UUID) (*model.LivePosition, error)
}

// IngressService is the entry point for raw device payloads: it normalizes
// them, resolves (or auto-provisions) the device, resolves the vehicle and
// hands the ping to the trip tracker or the fuel detector.
type IngressService struct {
	devices  deviceStore
	pings    fuelPingWriter
	tracker  gpsTracker
	detector fuelSink
	live     LiveStore
	cfg      config.TelemetryConfig
	log      zerolog.Logger
}

func NewIngressService(
	devices deviceStore,
	pings fuelPingWriter,
	tracker gpsTracker,
	detector fuelSink,
	live LiveStore,
	cfg config.TelemetryConfig,
	log zerolog.Logger,
) *IngressService {
	return &IngressService{
		devices:  devices,
		pings:    pings,
		tracker:  tracker,
		detector: detector,
		live:     live,
		cfg:      cfg,
		log:      log,
	}
}

type IngestResult struct {
	VehicleID uuid.UUID `json:"vehicle_id"`
}

// IngestGps processes one GPS payload end to end. Device bookkeeping
// (last_seen, battery, signal) is updated before dedup, so a resent ping
// still refreshes the device. The live cache is refreshed only when the
// tracker confirms the ping is newer than everything seen for the vehicle;
// a late arrival must not overwrite a fresher cached position.
func (s *IngressService) IngestGps(ctx context.Context, payload map[string]interface{}) (*IngestResult, error) {
	in, err := NormalizeGps(payload, time.Now().UTC(), s.cfg)
	if err != nil {
		return nil, err
	}

	device, err := s.devices.UpsertSeen(ctx, in.DeviceExternalID, model.DeviceKindGps, in.RecordedAt, in.BatteryLevel, in.SignalStrength)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleFor(ctx, device)
	if err != nil {
		return nil, err
	}

	ping := &model.GpsPing{
		VehicleID:      vehicle.ID,
		DeviceID:       device.ID,
		Lat:            in.Lat,
		Lon:            in.Lon,
		Altitude:       in.Altitude,
		Speed:          in.Speed,
		Heading:        in.Heading,
		Accuracy:       in.Accuracy,
		SatelliteCount: in.SatelliteCount,
		RecordedAt:     in.RecordedAt,
		IgnitionOn:     in.IgnitionOn,
		MovementStatus: in.MovementStatus,
		Odometer:       in.Odometer,
		RawPayload:     in.RawPayload,
	}

	fresh, err := s.tracker.ProcessPing(ctx, ping)
	if err != nil {
		return nil, err
	}

	if fresh && s.live != nil {
		if err := s.live.SetLatest(ctx, model.LivePositionFromPing(*ping)); err != nil {
			s.log.Warn().Err(err).
				Str("vehicle_id", vehicle.ID.String()).
				Msg("live cache update failed")
		}
	}

	return &IngestResult{VehicleID: vehicle.ID}, nil
}

// IngestFuel processes one fuel payload: store (dedup-safe), then run the
// anomaly rules. A duplicate reading skips the detector; the original
// already drove it.
func (s *IngressService) IngestFuel(ctx context.Context, payload map[string]interface{}) (*IngestResult, error) {
	in, err := NormalizeFuel(payload, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	device, err := s.devices.UpsertSeen(ctx, in.SensorExternalID, model.DeviceKindFuelSensor, in.RecordedAt, in.BatteryLevel, in.SignalStrength)
	if err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleFor(ctx, device)
	if err != nil {
		return nil, err
	}

	ping := &model.FuelPing{
		VehicleID:      vehicle.ID,
		SensorID:       device.ID,
		FuelLevel:      in.FuelLevel,
		FuelPercentage: in.FuelPercentage,
		Temperature:    in.Temperature,
		Voltage:        in.Voltage,
		RecordedAt:     in.RecordedAt,
		RawPayload:     in.RawPayload,
	}

	inserted, err := s.pings.InsertFuel(ctx, ping)
	if err != nil {
		return nil, err
	}
	if !inserted {
		s.log.Debug().
			Str("vehicle_id", vehicle.ID.String()).
			Time("recorded_at", ping.RecordedAt).
			Msg("duplicate fuel ping ignored")
		return &IngestResult{VehicleID: vehicle.ID}, nil
	}

	if err := s.detector.ProcessPing(ctx, ping); err != nil {
		return nil, err
	}

	return &IngestResult{VehicleID: vehicle.ID}, nil
}

func (s *IngressService) vehicleFor(ctx context.Context, device *model.Device) (*model.Vehicle, error) {
	vehicle, err := s.devices.VehicleForDevice(ctx, device.ID, device.Kind)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: device %s", ErrDeviceUnassigned, device.ExternalID)
		}
		return nil, err
	}
	return vehicle, nil
}
