package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telemetry-service/internal/config"
	"telemetry-service/internal/model"
)

var fuelCfg = config.TelemetryConfig{
	LowFuelPct:         15,
	TheftDropLiters:    20,
	RapidDropLiters:    15,
	RapidWindow:        10 * time.Minute,
	FuelLookback:       30 * time.Minute,
	TankCapacityLiters: 400,
	SensorMinVoltage:   3.0,
	SensorMaxVoltage:   30.0,
}

func fuelPing(level float64, t time.Time) *model.FuelPing {
	return &model.FuelPing{VehicleID: uuid.New(), FuelLevel: level, RecordedAt: t}
}

func f64(v float64) *float64 { return &v }
func boolPtr(v bool) *bool   { return &v }

func parkedGps() *model.GpsPing {
	return &model.GpsPing{IgnitionOn: boolPtr(false), MovementStatus: model.MovementStatusStationary}
}

func movingGps() *model.GpsPing {
	return &model.GpsPing{IgnitionOn: boolPtr(true), MovementStatus: model.MovementStatusMoving}
}

func findingFor(t *testing.T, findings []fuelFinding, alertType model.FuelAlertType) fuelFinding {
	t.Helper()
	for _, f := range findings {
		if f.alertType == alertType {
			return f
		}
	}
	t.Fatalf("no finding for %s", alertType)
	return fuelFinding{}
}

func TestEvaluateFuelTheftWhileParked(t *testing.T) {
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	history := []model.FuelPing{
		{FuelLevel: 310, RecordedAt: now.Add(-25 * time.Minute)},
		{FuelLevel: 308, RecordedAt: now.Add(-20 * time.Minute)},
	}
	ping := fuelPing(280, now) // 30 L gone overnight

	findings := evaluateFuel(fuelCfg, ping, history, parkedGps())

	if f := findingFor(t, findings, model.FuelAlertFuelTheft); !f.triggered {
		t.Errorf("theft not triggered for a 30 L parked drop")
	}
	// the same drop while parked is not rapid consumption
	if f := findingFor(t, findings, model.FuelAlertRapidConsumption); f.triggered {
		t.Errorf("rapid consumption triggered while parked")
	}
}

func TestEvaluateFuelRapidConsumptionWhileDriving(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	history := []model.FuelPing{
		{FuelLevel: 300, RecordedAt: now.Add(-8 * time.Minute)},
	}
	ping := fuelPing(282, now) // 18 L in 8 minutes

	findings := evaluateFuel(fuelCfg, ping, history, movingGps())

	if f := findingFor(t, findings, model.FuelAlertRapidConsumption); !f.triggered {
		t.Errorf("rapid consumption not triggered for 18 L in 8 min")
	}
	if f := findingFor(t, findings, model.FuelAlertFuelTheft); f.triggered {
		t.Errorf("theft triggered while the vehicle is driving")
	}
}

func TestEvaluateFuelTheftNeedsGpsContext(t *testing.T) {
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	history := []model.FuelPing{
		{FuelLevel: 310, RecordedAt: now.Add(-25 * time.Minute)},
	}
	ping := fuelPing(280, now)

	findings := evaluateFuel(fuelCfg, ping, history, nil)

	if f := findingFor(t, findings, model.FuelAlertFuelTheft); f.triggered {
		t.Errorf("theft triggered with no GPS ping to establish the vehicle was parked")
	}
}

func TestEvaluateFuelLowFuel(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	low := fuelPing(40, now)
	low.FuelPercentage = f64(10)
	findings := evaluateFuel(fuelCfg, low, nil, nil)
	if f := findingFor(t, findings, model.FuelAlertLowFuel); !f.triggered {
		t.Errorf("low fuel not triggered at 10%%")
	}

	// after refuelling the same rule comes back cleared so an open alert
	// auto-resolves
	full := fuelPing(320, now.Add(time.Hour))
	full.FuelPercentage = f64(80)
	findings = evaluateFuel(fuelCfg, full, nil, nil)
	if f := findingFor(t, findings, model.FuelAlertLowFuel); f.triggered {
		t.Errorf("low fuel still triggered at 80%%")
	}

	// without a percentage there is nothing to judge: no finding either way
	noPct := fuelPing(40, now)
	findings = evaluateFuel(fuelCfg, noPct, nil, nil)
	for _, f := range findings {
		if f.alertType == model.FuelAlertLowFuel {
			t.Errorf("low fuel finding emitted without a percentage reading")
		}
	}
}

func TestSensorFaultRule(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		level     float64
		voltage   *float64
		triggered bool
	}{
		{"normal reading", 250, f64(12.6), false},
		{"level above tank capacity", 450, nil, true},
		{"negative level", -5, nil, true},
		{"voltage below range", 250, f64(1.2), true},
		{"voltage above range", 250, f64(36), true},
		{"no voltage reported", 250, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ping := fuelPing(tt.level, now)
			ping.Voltage = tt.voltage
			f := sensorFaultRule(fuelCfg, ping)
			if f.triggered != tt.triggered {
				t.Errorf("triggered = %v, want %v", f.triggered, tt.triggered)
			}
		})
	}
}

type fakeAlertStore struct {
	open     map[model.FuelAlertType]bool
	created  map[model.FuelAlertType]int
	resolved []model.FuelAlertType
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{
		open:    map[model.FuelAlertType]bool{},
		created: map[model.FuelAlertType]int{},
	}
}

func (f *fakeAlertStore) HasUnresolved(_ context.Context, _ uuid.UUID, alertType model.FuelAlertType) (bool, error) {
	return f.open[alertType], nil
}

func (f *fakeAlertStore) Create(_ context.Context, alert *model.FuelAlert) (bool, error) {
	f.open[alert.AlertType] = true
	f.created[alert.AlertType]++
	return true, nil
}

func (f *fakeAlertStore) ResolveType(_ context.Context, _ uuid.UUID, alertType model.FuelAlertType, _ time.Time) error {
	if f.open[alertType] {
		delete(f.open, alertType)
		f.resolved = append(f.resolved, alertType)
	}
	return nil
}

type fakeFuelContext struct {
	history []model.FuelPing
	gps     *model.GpsPing
}

func (f *fakeFuelContext) RecentFuel(context.Context, uuid.UUID, time.Time) ([]model.FuelPing, error) {
	return f.history, nil
}

func (f *fakeFuelContext) LatestGps(context.Context, uuid.UUID) (*model.GpsPing, error) {
	return f.gps, nil
}

func TestFuelDetectorRaisesOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	alerts := newFakeAlertStore()
	store := &fakeFuelContext{
		history: []model.FuelPing{{FuelLevel: 310, RecordedAt: now.Add(-25 * time.Minute)}},
		gps:     parkedGps(),
	}
	detector := NewFuelDetector(alerts, store, fuelCfg, zerolog.Nop())

	first := fuelPing(280, now)
	if err := detector.ProcessPing(context.Background(), first); err != nil {
		t.Fatalf("ProcessPing: %v", err)
	}
	if alerts.created[model.FuelAlertFuelTheft] != 1 {
		t.Fatalf("theft alerts created = %d, want 1", alerts.created[model.FuelAlertFuelTheft])
	}

	// the next reading still shows the drop; the open alert already covers it
	store.history = append(store.history, *first)
	second := fuelPing(278, now.Add(2*time.Minute))
	second.VehicleID = first.VehicleID
	if err := detector.ProcessPing(context.Background(), second); err != nil {
		t.Fatalf("ProcessPing: %v", err)
	}
	if alerts.created[model.FuelAlertFuelTheft] != 1 {
		t.Errorf("theft alerts created = %d after confirming ping, want 1", alerts.created[model.FuelAlertFuelTheft])
	}
	if !alerts.open[model.FuelAlertFuelTheft] {
		t.Errorf("theft alert must stay open while the drop persists")
	}
}

func TestFuelDetectorAutoResolvesLowFuel(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	alerts := newFakeAlertStore()
	detector := NewFuelDetector(alerts, &fakeFuelContext{}, fuelCfg, zerolog.Nop())

	low := fuelPing(40, now)
	low.FuelPercentage = f64(10)
	if err := detector.ProcessPing(context.Background(), low); err != nil {
		t.Fatalf("ProcessPing: %v", err)
	}
	if alerts.created[model.FuelAlertLowFuel] != 1 {
		t.Fatalf("low fuel alerts created = %d, want 1", alerts.created[model.FuelAlertLowFuel])
	}

	refuelled := fuelPing(320, now.Add(time.Hour))
	refuelled.VehicleID = low.VehicleID
	refuelled.FuelPercentage = f64(80)
	if err := detector.ProcessPing(context.Background(), refuelled); err != nil {
		t.Fatalf("ProcessPing: %v", err)
	}
	if alerts.open[model.FuelAlertLowFuel] {
		t.Errorf("low fuel alert still open after refuelling")
	}
	found := false
	for _, alertType := range alerts.resolved {
		if alertType == model.FuelAlertLowFuel {
			found = true
		}
	}
	if !found {
		t.Errorf("low fuel alert was not resolved, resolved = %v", alerts.resolved)
	}
}

func TestMaxDropWithin(t *testing.T) {
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	history := []model.FuelPing{
		{FuelLevel: 320, RecordedAt: now.Add(-45 * time.Minute)}, // outside lookback
		{FuelLevel: 305, RecordedAt: now.Add(-25 * time.Minute)},
		{FuelLevel: 295, RecordedAt: now.Add(-5 * time.Minute)},
	}
	ping := fuelPing(290, now)

	if got := maxDropWithin(history, ping, 30*time.Minute); got != 15 {
		t.Errorf("30m drop = %.1f, want 15 (45m-old reading must be excluded)", got)
	}
	if got := maxDropWithin(history, ping, 10*time.Minute); got != 5 {
		t.Errorf("10m drop = %.1f, want 5", got)
	}
	if got := maxDropWithin(nil, ping, 30*time.Minute); got != 0 {
		t.Errorf("drop with no history = %.1f, want 0", got)
	}
}
