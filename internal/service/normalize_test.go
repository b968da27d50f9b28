package service

import (
	"errors"
	"testing"
	"time"

	"telemetry-service/internal/config"
	"telemetry-service/internal/model"
)

var normCfg = config.TelemetryConfig{SpeedMovingKmh: 5}

func TestNormalizeGpsFieldAliases(t *testing.T) {
	receivedAt := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{
			name: "canonical names",
			payload: map[string]interface{}{
				"device_id": "GT06-883421",
				"lat":       43.24, "lon": 76.89,
			},
		},
		{
			name: "teltonika style",
			payload: map[string]interface{}{
				"imei":     "GT06-883421",
				"latitude": 43.24, "longitude": 76.89,
			},
		},
		{
			name: "lng for longitude",
			payload: map[string]interface{}{
				"deviceId": "GT06-883421",
				"lat":      43.24, "lng": 76.89,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := NormalizeGps(tt.payload, receivedAt, normCfg)
			if err != nil {
				t.Fatalf("NormalizeGps: %v", err)
			}
			if in.DeviceExternalID != "GT06-883421" {
				t.Errorf("device = %q", in.DeviceExternalID)
			}
			if in.Lat != 43.24 || in.Lon != 76.89 {
				t.Errorf("coords = %v, %v", in.Lat, in.Lon)
			}
		})
	}
}

func TestNormalizeGpsValidation(t *testing.T) {
	receivedAt := time.Now()

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"no device", map[string]interface{}{"lat": 43.24, "lon": 76.89}},
		{"no latitude", map[string]interface{}{"device_id": "d1", "lon": 76.89}},
		{"no longitude", map[string]interface{}{"device_id": "d1", "lat": 43.24}},
		{"latitude out of range", map[string]interface{}{"device_id": "d1", "lat": 97.0, "lon": 76.89}},
		{"longitude out of range", map[string]interface{}{"device_id": "d1", "lat": 43.24, "lon": 181.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeGps(tt.payload, receivedAt, normCfg)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestNormalizeGpsTimestamps(t *testing.T) {
	receivedAt := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	base := map[string]interface{}{"device_id": "d1", "lat": 43.24, "lon": 76.89}

	withTS := func(key string, v interface{}) map[string]interface{} {
		p := map[string]interface{}{}
		for k, val := range base {
			p[k] = val
		}
		p[key] = v
		return p
	}

	t.Run("rfc3339", func(t *testing.T) {
		in, err := NormalizeGps(withTS("timestamp", "2026-03-10T07:55:00Z"), receivedAt, normCfg)
		if err != nil {
			t.Fatal(err)
		}
		if !in.RecordedAt.Equal(time.Date(2026, 3, 10, 7, 55, 0, 0, time.UTC)) {
			t.Errorf("recorded_at = %v", in.RecordedAt)
		}
	})

	t.Run("unix seconds", func(t *testing.T) {
		in, err := NormalizeGps(withTS("ts", float64(1773129300)), receivedAt, normCfg)
		if err != nil {
			t.Fatal(err)
		}
		if in.RecordedAt.Unix() != 1773129300 {
			t.Errorf("recorded_at = %v", in.RecordedAt)
		}
	})

	t.Run("unix millis", func(t *testing.T) {
		in, err := NormalizeGps(withTS("ts", float64(1773129300000)), receivedAt, normCfg)
		if err != nil {
			t.Fatal(err)
		}
		if in.RecordedAt.Unix() != 1773129300 {
			t.Errorf("recorded_at = %v", in.RecordedAt)
		}
	})

	t.Run("missing falls back to receipt time", func(t *testing.T) {
		in, err := NormalizeGps(base, receivedAt, normCfg)
		if err != nil {
			t.Fatal(err)
		}
		if !in.RecordedAt.Equal(receivedAt) {
			t.Errorf("recorded_at = %v, want receipt time", in.RecordedAt)
		}
	})
}

func TestDeriveMovementStatus(t *testing.T) {
	tests := []struct {
		name  string
		speed *float64
		want  model.MovementStatus
	}{
		{"no speed", nil, model.MovementStatusStationary},
		{"zero", f64(0), model.MovementStatusStationary},
		{"crawling", f64(3), model.MovementStatusIdle},
		{"at threshold", f64(5), model.MovementStatusIdle},
		{"driving", f64(42), model.MovementStatusMoving},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveMovementStatus(tt.speed, 5); got != tt.want {
				t.Errorf("DeriveMovementStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNormalizeGpsReportedMovementWins(t *testing.T) {
	in, err := NormalizeGps(map[string]interface{}{
		"device_id": "d1", "lat": 43.24, "lon": 76.89,
		"speed": 60.0, "movement_status": "idle",
	}, time.Now(), normCfg)
	if err != nil {
		t.Fatal(err)
	}
	if in.MovementStatus != model.MovementStatusIdle {
		t.Errorf("movement = %s, device-reported status must win over speed", in.MovementStatus)
	}
}

func TestNormalizeFuel(t *testing.T) {
	receivedAt := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	in, err := NormalizeFuel(map[string]interface{}{
		"sensor_id":  "FLS-200-17",
		"level":      285.5,
		"percentage": 71.4,
		"volt":       12.7,
	}, receivedAt)
	if err != nil {
		t.Fatal(err)
	}
	if in.SensorExternalID != "FLS-200-17" {
		t.Errorf("sensor = %q", in.SensorExternalID)
	}
	if in.FuelLevel != 285.5 {
		t.Errorf("level = %v", in.FuelLevel)
	}
	if in.FuelPercentage == nil || *in.FuelPercentage != 71.4 {
		t.Errorf("percentage = %v", in.FuelPercentage)
	}
	if in.Voltage == nil || *in.Voltage != 12.7 {
		t.Errorf("voltage = %v", in.Voltage)
	}

	_, err = NormalizeFuel(map[string]interface{}{"sensor_id": "FLS-200-17"}, receivedAt)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("missing level err = %v, want ErrValidation", err)
	}
}

func TestLookupBoolPtr(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  *bool
	}{
		{"bool true", true, boolPtr(true)},
		{"string on", "on", boolPtr(true)},
		{"string off", "off", boolPtr(false)},
		{"numeric one", float64(1), boolPtr(true)},
		{"garbage", "maybe", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lookupBoolPtr(map[string]interface{}{"ignition": tt.value}, ignitionAliases)
			switch {
			case got == nil && tt.want != nil:
				t.Errorf("got nil, want %v", *tt.want)
			case got != nil && tt.want == nil:
				t.Errorf("got %v, want nil", *got)
			case got != nil && *got != *tt.want:
				t.Errorf("got %v, want %v", *got, *tt.want)
			}
		})
	}
}
