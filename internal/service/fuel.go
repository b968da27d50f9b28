package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telemetry-service/internal/config"
	"telemetry-service/internal/model"
)

// alertStore is the slice of alert persistence the detector needs.
type alertStore interface {
	HasUnresolved(ctx context.Context, vehicleID uuid.UUID, alertType model.FuelAlertType) (bool, error)
	Create(ctx context.Context, alert *model.FuelAlert) (bool, error)
	ResolveType(ctx context.Context, vehicleID uuid.UUID, alertType model.FuelAlertType, at time.Time) error
}

// fuelContextStore supplies the lookback history and the GPS context the
// rules judge a reading against.
type fuelContextStore interface {
	RecentFuel(ctx context.Context, vehicleID uuid.UUID, since time.Time) ([]model.FuelPing, error)
	LatestGps(ctx context.Context, vehicleID uuid.UUID) (*model.GpsPing, error)
}

// FuelDetector evaluates each stored fuel ping against the vehicle's recent
// history and raises or auto-resolves alerts. The rules themselves are pure
// (evaluateFuel); this type only supplies history and persists outcomes.
type FuelDetector struct {
	alerts alertStore
	pings  fuelContextStore
	cfg    config.TelemetryConfig
	log    zerolog.Logger
}

func NewFuelDetector(
	alerts alertStore,
	pings fuelContextStore,
	cfg config.TelemetryConfig,
	log zerolog.Logger,
) *FuelDetector {
	return &FuelDetector{
		alerts: alerts,
		pings:  pings,
		cfg:    cfg,
		log:    log,
	}
}

// fuelFinding is the outcome of one rule for one ping: the condition either
// holds (raise unless already open) or does not (resolve if open).
type fuelFinding struct {
	alertType model.FuelAlertType
	triggered bool
	message   string
}

// ProcessPing runs the detector for a freshly stored fuel ping.
func (d *FuelDetector) ProcessPing(ctx context.Context, ping *model.FuelPing) error {
	history, err := d.pings.RecentFuel(ctx, ping.VehicleID, ping.RecordedAt.Add(-d.cfg.FuelLookback))
	if err != nil {
		return err
	}
	lastGps, err := d.pings.LatestGps(ctx, ping.VehicleID)
	if err != nil {
		return err
	}

	findings := evaluateFuel(d.cfg, ping, history, lastGps)

	for _, f := range findings {
		if f.triggered {
			if err := d.raise(ctx, ping.VehicleID, f); err != nil {
				return err
			}
		} else {
			if err := d.alerts.ResolveType(ctx, ping.VehicleID, f.alertType, ping.RecordedAt); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *FuelDetector) raise(ctx context.Context, vehicleID uuid.UUID, f fuelFinding) error {
	exists, err := d.alerts.HasUnresolved(ctx, vehicleID, f.alertType)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	created, err := d.alerts.Create(ctx, &model.FuelAlert{
		VehicleID: vehicleID,
		AlertType: f.alertType,
		Message:   f.message,
	})
	if err != nil {
		return err
	}
	if created {
		d.log.Warn().
			Str("vehicle_id", vehicleID.String()).
			Str("alert_type", string(f.alertType)).
			Msg(f.message)
	}
	return nil
}

// evaluateFuel applies every anomaly rule to the current ping plus lookback
// history. Pure function: returns one finding per applicable rule,
// triggered or cleared, so the caller can both raise and auto-resolve.
func evaluateFuel(cfg config.TelemetryConfig, ping *model.FuelPing, history []model.FuelPing, lastGps *model.GpsPing) []fuelFinding {
	findings := []fuelFinding{
		sensorFaultRule(cfg, ping),
	}

	if ping.FuelPercentage != nil {
		findings = append(findings, fuelFinding{
			alertType: model.FuelAlertLowFuel,
			triggered: *ping.FuelPercentage < cfg.LowFuelPct,
			message: fmt.Sprintf("fuel at %.1f%%, below the %.0f%% threshold",
				floatOrZero(ping.FuelPercentage), cfg.LowFuelPct),
		})
	}

	stationary := isStationary(lastGps)
	theftDrop := maxDropWithin(history, ping, cfg.FuelLookback)
	rapidDrop := maxDropWithin(history, ping, cfg.RapidWindow)

	findings = append(findings, fuelFinding{
		alertType: model.FuelAlertFuelTheft,
		triggered: stationary && theftDrop > cfg.TheftDropLiters,
		message: fmt.Sprintf("fuel dropped %.1f L while the vehicle was stationary with ignition off",
			theftDrop),
	})

	findings = append(findings, fuelFinding{
		alertType: model.FuelAlertRapidConsumption,
		triggered: !stationary && rapidDrop > cfg.RapidDropLiters,
		message: fmt.Sprintf("fuel dropped %.1f L within %s while driving",
			rapidDrop, cfg.RapidWindow),
	})

	return findings
}

func sensorFaultRule(cfg config.TelemetryConfig, ping *model.FuelPing) fuelFinding {
	switch {
	case ping.FuelLevel < 0 || ping.FuelLevel > cfg.TankCapacityLiters:
		return fuelFinding{
			alertType: model.FuelAlertSensorFault,
			triggered: true,
			message: fmt.Sprintf("fuel level %.1f L outside tank capacity 0-%.0f L",
				ping.FuelLevel, cfg.TankCapacityLiters),
		}
	case ping.Voltage != nil && (*ping.Voltage < cfg.SensorMinVoltage || *ping.Voltage > cfg.SensorMaxVoltage):
		return fuelFinding{
			alertType: model.FuelAlertSensorFault,
			triggered: true,
			message: fmt.Sprintf("sensor voltage %.2f V outside expected range %.1f-%.1f V",
				*ping.Voltage, cfg.SensorMinVoltage, cfg.SensorMaxVoltage),
		}
	default:
		return fuelFinding{alertType: model.FuelAlertSensorFault}
	}
}

// isStationary reports whether the last known GPS context says consumption
// cannot be explained by driving. With no GPS ping at all the theft rule
// stays quiet: there is nothing to establish the vehicle was parked.
func isStationary(lastGps *model.GpsPing) bool {
	if lastGps == nil {
		return false
	}
	if lastGps.IgnitionOn != nil && !*lastGps.IgnitionOn {
		return true
	}
	return lastGps.MovementStatus == model.MovementStatusStationary
}

// maxDropWithin returns the largest fuel-level drop from any history
// reading inside the window down to the current reading.
func maxDropWithin(history []model.FuelPing, ping *model.FuelPing, window time.Duration) float64 {
	cutoff := ping.RecordedAt.Add(-window)
	var maxLevel float64
	seen := false
	for _, h := range history {
		if h.RecordedAt.Before(cutoff) || !h.RecordedAt.Before(ping.RecordedAt) {
			continue
		}
		if !seen || h.FuelLevel > maxLevel {
			maxLevel = h.FuelLevel
			seen = true
		}
	}
	if !seen {
		return 0
	}
	return maxLevel - ping.FuelLevel
}

func floatOrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
