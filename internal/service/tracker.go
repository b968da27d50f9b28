package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"telemetry-service/internal/config"
	"telemetry-service/internal/geo"
	"telemetry-service/internal/model"
	"telemetry-service/internal/repository"
)

// TripTracker is the per-vehicle state machine that turns raw pings into
// haul trips. All state lives in vehicle_tracker_state and trips; each ping
// is processed under the vehicle's row lock so concurrent deliveries for
// one vehicle serialize and cannot double-open or double-close a trip.
type TripTracker struct {
	trips  *repository.TripRepository
	pings  *repository.PingRepository
	fences *repository.GeofenceRepository
	cfg    config.TelemetryConfig
	log    zerolog.Logger
}

func NewTripTracker(
	trips *repository.TripRepository,
	pings *repository.PingRepository,
	fences *repository.GeofenceRepository,
	cfg config.TelemetryConfig,
	log zerolog.Logger,
) *TripTracker {
	return &TripTracker{
		trips:  trips,
		pings:  pings,
		fences: fences,
		cfg:    cfg,
		log:    log,
	}
}

type trackerAction int

const (
	actionNone trackerAction = iota
	actionOpenTrip
	actionFinalizeTrip
	actionDiscardTrip
)

// observation is one ping as the state machine sees it: position, time and
// the geofence it resolved to (nil when outside every fence).
type observation struct {
	Lat, Lon float64
	At       time.Time
	Fence    *model.Geofence
}

// ProcessPing stores the ping and advances the vehicle's trip state. The
// returned bool reports whether the ping moved the vehicle's clock forward:
// duplicates and late arrivals are kept for audit but never touch trip
// state, and callers must not refresh derived views (the live cache) from
// them either.
func (t *TripTracker) ProcessPing(ctx context.Context, ping *model.GpsPing) (bool, error) {
	fences, err := t.fences.ListActive(ctx)
	if err != nil {
		return false, err
	}
	matcher := geo.NewMatcher(fences)
	best := matcher.Best(ping.Lat, ping.Lon)

	advanced := false
	err = t.trips.WithVehicleLock(ctx, ping.VehicleID, func(tx *gorm.DB, st *model.VehicleTrackerState) error {
		inserted, err := t.pings.InsertGps(ctx, tx, ping)
		if err != nil {
			return err
		}
		if !inserted {
			// exact resend: the original row is the audit record
			t.log.Debug().
				Str("vehicle_id", ping.VehicleID.String()).
				Time("recorded_at", ping.RecordedAt).
				Msg("duplicate gps ping ignored")
			return nil
		}

		obs := observation{Lat: ping.Lat, Lon: ping.Lon, At: ping.RecordedAt, Fence: best}
		advanced = pingAdvances(*st, obs.At)
		next, action := advance(*st, obs, t.cfg)

		switch action {
		case actionOpenTrip:
			trip := &model.Trip{
				VehicleID:        ping.VehicleID,
				Status:           model.TripStatusInProgress,
				StartTime:        openTripStart(*st, obs),
				SourceGeofenceID: st.GeofenceID,
			}
			if err := t.trips.Create(tx, trip); err != nil {
				return err
			}
			t.log.Info().
				Str("vehicle_id", ping.VehicleID.String()).
				Str("trip_id", trip.ID.String()).
				Msg("trip opened")

		case actionFinalizeTrip:
			if err := t.finalize(ctx, tx, ping.VehicleID, obs); err != nil {
				return err
			}

		case actionDiscardTrip:
			open, err := t.trips.OpenTrip(tx, ping.VehicleID)
			if err != nil {
				return err
			}
			if open != nil {
				if err := t.trips.Discard(tx, open.ID); err != nil {
					return err
				}
				t.log.Info().
					Str("vehicle_id", ping.VehicleID.String()).
					Str("trip_id", open.ID.String()).
					Msg("trip discarded")
			}
		}

		*st = next
		return t.trips.SaveState(tx, st)
	})
	if err != nil {
		return false, err
	}
	return advanced, nil
}

func (t *TripTracker) finalize(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, obs observation) error {
	open, err := t.trips.OpenTrip(tx, vehicleID)
	if err != nil {
		return err
	}
	if open == nil {
		// state said IN_TRANSIT but no trip row survived; nothing to close
		t.log.Warn().
			Str("vehicle_id", vehicleID.String()).
			Msg("finalize requested with no open trip")
		return nil
	}

	path, err := t.pings.GpsBetween(ctx, tx, vehicleID, open.StartTime, obs.At)
	if err != nil {
		return err
	}
	fuelStart, err := t.pings.NearestFuelLevel(ctx, tx, vehicleID, open.StartTime, open.StartTime, obs.At)
	if err != nil {
		return err
	}
	fuelEnd, err := t.pings.NearestFuelLevel(ctx, tx, vehicleID, obs.At, open.StartTime, obs.At)
	if err != nil {
		return err
	}

	endTime := obs.At
	open.EndTime = &endTime
	open.DestinationGeofenceID = &obs.Fence.ID
	if obs.Fence.Kind == model.GeofenceKindStockpile {
		open.MaterialType = obs.Fence.MaterialType
	}
	applyTripMetrics(open, path, fuelStart, fuelEnd)

	if err := t.trips.Finalize(tx, open); err != nil {
		return err
	}
	t.log.Info().
		Str("vehicle_id", vehicleID.String()).
		Str("trip_id", open.ID.String()).
		Float64("distance_km", *open.DistanceKm).
		Msg("trip completed")
	return nil
}

// pingAdvances reports whether a ping at the given time moves the vehicle's
// clock forward. Late and duplicate deliveries fail this check: they are
// stored for audit but neither trip state nor the live view may change.
func pingAdvances(st model.VehicleTrackerState, at time.Time) bool {
	return st.LastPingAt == nil || at.After(*st.LastPingAt)
}

// advance computes the next tracker state and the trip operation it
// implies. Pure: no I/O, no clock.
func advance(st model.VehicleTrackerState, obs observation, cfg config.TelemetryConfig) (model.VehicleTrackerState, trackerAction) {
	if !pingAdvances(st, obs.At) {
		return st, actionNone
	}

	next := st
	next.LastPingAt = &obs.At
	action := actionNone

	switch st.State {
	case model.TrackerStateIdle:
		next = dwellStep(next, obs, cfg.DwellMinPings)

	case model.TrackerStateInside, model.TrackerStateArrived:
		switch {
		case obs.Fence == nil:
			// left the fence: this is the trip boundary
			next.State = model.TrackerStateInTransit
			next.DwellCount = 0
			next.ExitLat = &obs.Lat
			next.ExitLon = &obs.Lon
			action = actionOpenTrip
		case st.GeofenceID != nil && obs.Fence.ID == *st.GeofenceID:
			next.State = model.TrackerStateInside
			next.LastInsideAt = &obs.At
		default:
			// jumped into a different fence with no gap; restart dwell there
			next.State = model.TrackerStateIdle
			next.GeofenceID = nil
			next.DwellCount = 0
			next = dwellStep(next, obs, cfg.DwellMinPings)
		}

	case model.TrackerStateInTransit:
		if obs.Fence == nil {
			break // path point, already appended to the log
		}
		if st.GeofenceID != nil && obs.Fence.ID == *st.GeofenceID {
			// returned to the source without reaching another fence: a
			// dwell excursion, not a haul
			action = actionDiscardTrip
		} else if !displacementOK(st, obs, cfg.MinTripDisplacementM) {
			action = actionDiscardTrip
		} else {
			action = actionFinalizeTrip
		}
		next.State = model.TrackerStateArrived
		fenceID := obs.Fence.ID
		next.GeofenceID = &fenceID
		next.DwellCount = 0
		next.LastInsideAt = &obs.At
		next.ExitLat = nil
		next.ExitLon = nil
	}

	return next, action
}

// dwellStep handles states with no open trip and no confirmed fence:
// consecutive pings inside one fence accumulate until the dwell requirement
// is met.
func dwellStep(next model.VehicleTrackerState, obs observation, dwellMinPings int) model.VehicleTrackerState {
	if obs.Fence == nil {
		next.State = model.TrackerStateIdle
		next.GeofenceID = nil
		next.DwellCount = 0
		return next
	}

	fenceID := obs.Fence.ID
	if next.GeofenceID != nil && *next.GeofenceID == fenceID {
		next.DwellCount++
	} else {
		next.GeofenceID = &fenceID
		next.DwellCount = 1
	}
	if next.DwellCount >= dwellMinPings {
		next.State = model.TrackerStateInside
		next.LastInsideAt = &obs.At
	}
	return next
}

// openTripStart is the timestamp of the last ping still inside the source
// fence, falling back to the exit ping itself if dwell bookkeeping is
// missing.
func openTripStart(st model.VehicleTrackerState, obs observation) time.Time {
	if st.LastInsideAt != nil {
		return *st.LastInsideAt
	}
	return obs.At
}

// displacementOK guards against closing trips whose exit and entry points
// are nearly coincident.
func displacementOK(st model.VehicleTrackerState, obs observation, minMeters float64) bool {
	if st.ExitLat == nil || st.ExitLon == nil {
		return true
	}
	return geo.HaversineMeters(*st.ExitLat, *st.ExitLon, obs.Lat, obs.Lon) >= minMeters
}
