package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telemetry-service/internal/model"
	"telemetry-service/internal/repository"
)

// QueryService serves the read side: live positions, trip history and open
// fuel alerts.
type QueryService struct {
	pings  *repository.PingRepository
	trips  *repository.TripRepository
	alerts *repository.FuelAlertRepository
	live   LiveStore
	log    zerolog.Logger
}

func NewQueryService(
	pings *repository.PingRepository,
	trips *repository.TripRepository,
	alerts *repository.FuelAlertRepository,
	live LiveStore,
	log zerolog.Logger,
) *QueryService {
	return &QueryService{
		pings:  pings,
		trips:  trips,
		alerts: alerts,
		live:   live,
		log:    log,
	}
}

// LivePositions returns the latest known position per vehicle. A single
// vehicle goes through the cache first; the fleet-wide view reads the
// database directly.
func (s *QueryService) LivePositions(ctx context.Context, vehicleID *uuid.UUID) ([]model.LivePosition, error) {
	if vehicleID != nil {
		if s.live != nil {
			pos, err := s.live.Latest(ctx, *vehicleID)
			if err != nil {
				s.log.Warn().Err(err).Msg("live cache read failed")
			} else if pos != nil {
				return []model.LivePosition{*pos}, nil
			}
		}
		ping, err := s.pings.LatestGps(ctx, *vehicleID)
		if err != nil {
			return nil, err
		}
		if ping == nil {
			return []model.LivePosition{}, nil
		}
		return []model.LivePosition{model.LivePositionFromPing(*ping)}, nil
	}

	pings, err := s.pings.LatestGpsAll(ctx)
	if err != nil {
		return nil, err
	}
	positions := make([]model.LivePosition, 0, len(pings))
	for _, p := range pings {
		positions = append(positions, model.LivePositionFromPing(p))
	}
	return positions, nil
}

type TripHistoryOptions struct {
	VehicleID     *uuid.UUID
	Statuses      []model.TripStatus
	MaterialTypes []string
	DateFrom      *time.Time
	DateTo        *time.Time
	Limit         int
	Offset        int
}

func (s *QueryService) TripHistory(ctx context.Context, opts TripHistoryOptions) ([]model.Trip, error) {
	return s.trips.List(ctx, repository.TripFilter{
		VehicleID:     opts.VehicleID,
		Statuses:      opts.Statuses,
		MaterialTypes: opts.MaterialTypes,
		DateFrom:      opts.DateFrom,
		DateTo:        opts.DateTo,
		Limit:         opts.Limit,
		Offset:        opts.Offset,
	})
}

type AlertListOptions struct {
	VehicleID  *uuid.UUID
	AlertTypes []model.FuelAlertType
	Limit      int
	Offset     int
}

func (s *QueryService) UnresolvedAlerts(ctx context.Context, opts AlertListOptions) ([]model.FuelAlert, error) {
	return s.alerts.ListUnresolved(ctx, repository.FuelAlertFilter{
		VehicleID:  opts.VehicleID,
		AlertTypes: opts.AlertTypes,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	})
}
