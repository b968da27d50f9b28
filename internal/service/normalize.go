package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"telemetry-service/internal/config"
	"telemetry-service/internal/model"
)

// Vendor gateways disagree on field names (`lat` vs `latitude`, `imei` vs
// `device_id`, ...). The alias tables below resolve that once at the
// ingress boundary so nothing downstream ever sees a raw payload.
var (
	deviceIDAliases  = []string{"device_id", "imei", "deviceId", "device"}
	sensorIDAliases  = []string{"sensor_id", "device_id", "imei", "sensorId"}
	latAliases       = []string{"lat", "latitude"}
	lonAliases       = []string{"lon", "lng", "longitude"}
	timestampAliases = []string{"timestamp", "ts", "time", "recorded_at"}
	speedAliases     = []string{"speed", "speed_kmh"}
	altitudeAliases  = []string{"altitude", "alt"}
	headingAliases   = []string{"heading", "course", "bearing"}
	accuracyAliases  = []string{"accuracy", "hdop"}
	satAliases       = []string{"satellite_count", "satellites", "sats"}
	odometerAliases  = []string{"odometer", "mileage"}
	ignitionAliases  = []string{"ignition_status", "ignition", "ignition_on"}
	batteryAliases   = []string{"battery_level", "battery"}
	signalAliases    = []string{"signal_strength", "signal", "rssi"}
	movementAliases  = []string{"movement_status", "movement"}
	fuelLevelAliases = []string{"fuel_level", "level", "fuel"}
	fuelPctAliases   = []string{"fuel_percentage", "percentage", "fuel_pct"}
	tempAliases      = []string{"temperature", "temp"}
	voltageAliases   = []string{"voltage", "volt"}
)

// GpsInput is a normalized GPS ping before device/vehicle resolution.
type GpsInput struct {
	DeviceExternalID string
	Lat              float64
	Lon              float64
	Altitude         *float64
	Speed            *float64
	Heading          *float64
	Accuracy         *float64
	SatelliteCount   *int
	RecordedAt       time.Time
	IgnitionOn       *bool
	MovementStatus   model.MovementStatus
	Odometer         *float64
	BatteryLevel     *float64
	SignalStrength   *int
	RawPayload       string
}

// FuelInput is a normalized fuel ping before device/vehicle resolution.
type FuelInput struct {
	SensorExternalID string
	FuelLevel        float64
	FuelPercentage   *float64
	Temperature      *float64
	Voltage          *float64
	RecordedAt       time.Time
	BatteryLevel     *float64
	SignalStrength   *int
	RawPayload       string
}

// NormalizeGps validates and normalizes a loosely-typed GPS payload.
// Missing optional numerics stay nil, never a sentinel; a missing timestamp
// becomes the receipt time.
func NormalizeGps(payload map[string]interface{}, receivedAt time.Time, cfg config.TelemetryConfig) (*GpsInput, error) {
	deviceID, ok := lookupString(payload, deviceIDAliases)
	if !ok || deviceID == "" {
		return nil, fmt.Errorf("%w: device identifier missing", ErrValidation)
	}
	lat, ok := lookupFloat(payload, latAliases)
	if !ok {
		return nil, fmt.Errorf("%w: latitude missing", ErrValidation)
	}
	lon, ok := lookupFloat(payload, lonAliases)
	if !ok {
		return nil, fmt.Errorf("%w: longitude missing", ErrValidation)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}

	in := &GpsInput{
		DeviceExternalID: deviceID,
		Lat:              lat,
		Lon:              lon,
		Altitude:         lookupFloatPtr(payload, altitudeAliases),
		Speed:            lookupFloatPtr(payload, speedAliases),
		Heading:          lookupFloatPtr(payload, headingAliases),
		Accuracy:         lookupFloatPtr(payload, accuracyAliases),
		SatelliteCount:   lookupIntPtr(payload, satAliases),
		RecordedAt:       lookupTimestamp(payload, receivedAt),
		IgnitionOn:       lookupBoolPtr(payload, ignitionAliases),
		Odometer:         lookupFloatPtr(payload, odometerAliases),
		BatteryLevel:     lookupFloatPtr(payload, batteryAliases),
		SignalStrength:   lookupIntPtr(payload, signalAliases),
		RawPayload:       marshalRaw(payload),
	}

	if raw, ok := lookupString(payload, movementAliases); ok {
		in.MovementStatus = parseMovementStatus(raw)
	}
	if in.MovementStatus == "" {
		in.MovementStatus = DeriveMovementStatus(in.Speed, cfg.SpeedMovingKmh)
	}

	return in, nil
}

// NormalizeFuel validates and normalizes a loosely-typed fuel payload.
func NormalizeFuel(payload map[string]interface{}, receivedAt time.Time) (*FuelInput, error) {
	sensorID, ok := lookupString(payload, sensorIDAliases)
	if !ok || sensorID == "" {
		return nil, fmt.Errorf("%w: sensor identifier missing", ErrValidation)
	}
	level, ok := lookupFloat(payload, fuelLevelAliases)
	if !ok {
		return nil, fmt.Errorf("%w: fuel_level missing", ErrValidation)
	}

	return &FuelInput{
		SensorExternalID: sensorID,
		FuelLevel:        level,
		FuelPercentage:   lookupFloatPtr(payload, fuelPctAliases),
		Temperature:      lookupFloatPtr(payload, tempAliases),
		Voltage:          lookupFloatPtr(payload, voltageAliases),
		RecordedAt:       lookupTimestamp(payload, receivedAt),
		BatteryLevel:     lookupFloatPtr(payload, batteryAliases),
		SignalStrength:   lookupIntPtr(payload, signalAliases),
		RawPayload:       marshalRaw(payload),
	}, nil
}

// DeriveMovementStatus maps speed to a movement class when the device did
// not report one: above threshold moving, above zero idle, zero (or
// unreported) stationary.
func DeriveMovementStatus(speed *float64, movingThresholdKmh float64) model.MovementStatus {
	if speed == nil || *speed == 0 {
		return model.MovementStatusStationary
	}
	if *speed > movingThresholdKmh {
		return model.MovementStatusMoving
	}
	return model.MovementStatusIdle
}

func parseMovementStatus(raw string) model.MovementStatus {
	switch raw {
	case "moving", "MOVING":
		return model.MovementStatusMoving
	case "idle", "IDLE":
		return model.MovementStatusIdle
	case "stationary", "STATIONARY":
		return model.MovementStatusStationary
	default:
		return ""
	}
}

func lookup(payload map[string]interface{}, aliases []string) (interface{}, bool) {
	for _, key := range aliases {
		if v, ok := payload[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupString(payload map[string]interface{}, aliases []string) (string, bool) {
	v, ok := lookup(payload, aliases)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	default:
		return "", false
	}
}

func lookupFloat(payload map[string]interface{}, aliases []string) (float64, bool) {
	v, ok := lookup(payload, aliases)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func lookupFloatPtr(payload map[string]interface{}, aliases []string) *float64 {
	if f, ok := lookupFloat(payload, aliases); ok {
		return &f
	}
	return nil
}

func lookupIntPtr(payload map[string]interface{}, aliases []string) *int {
	if f, ok := lookupFloat(payload, aliases); ok {
		n := int(f)
		return &n
	}
	return nil
}

func lookupBoolPtr(payload map[string]interface{}, aliases []string) *bool {
	v, ok := lookup(payload, aliases)
	if !ok {
		return nil
	}
	switch b := v.(type) {
	case bool:
		return &b
	case string:
		switch b {
		case "on", "true", "1":
			t := true
			return &t
		case "off", "false", "0":
			f := false
			return &f
		}
	case float64:
		t := b != 0
		return &t
	}
	return nil
}

func lookupTimestamp(payload map[string]interface{}, fallback time.Time) time.Time {
	v, ok := lookup(payload, timestampAliases)
	if !ok {
		return fallback
	}
	switch ts := v.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			return t
		}
	case float64:
		// unix seconds; millis when clearly too large for seconds
		if ts > 1e12 {
			return time.UnixMilli(int64(ts)).UTC()
		}
		return time.Unix(int64(ts), 0).UTC()
	}
	return fallback
}

func marshalRaw(payload map[string]interface{}) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return "{}"
	}
	return string(b)
}
