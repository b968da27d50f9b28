package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"telemetry-service/internal/model"
)

type TripRepository struct {
	db *gorm.DB
}

func NewTripRepository(db *gorm.DB) *TripRepository {
	return &TripRepository{db: db}
}

// WithVehicleLock runs fn inside a transaction that holds the vehicle's
// tracker-state row FOR UPDATE. This is the serialization point: two
// near-simultaneous pings for one vehicle queue up here, while distinct
// vehicles never contend. The row is created on first sight.
func (r *TripRepository) WithVehicleLock(
	ctx context.Context,
	vehicleID uuid.UUID,
	fn func(tx *gorm.DB, st *model.VehicleTrackerState) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.VehicleTrackerState{
				VehicleID: vehicleID,
				State:     model.TrackerStateIdle,
			}).Error; err != nil {
			return err
		}

		var st model.VehicleTrackerState
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&st, "vehicle_id = ?", vehicleID).Error; err != nil {
			return err
		}

		return fn(tx, &st)
	})
}

func (r *TripRepository) SaveState(tx *gorm.DB, st *model.VehicleTrackerState) error {
	return tx.Save(st).Error
}

// OpenTrip returns the vehicle's IN_PROGRESS trip, nil when there is none.
func (r *TripRepository) OpenTrip(tx *gorm.DB, vehicleID uuid.UUID) (*model.Trip, error) {
	var trip model.Trip
	err := tx.
		Where("vehicle_id = ? AND status = ?", vehicleID, model.TripStatusInProgress).
		First(&trip).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &trip, nil
}

func (r *TripRepository) Create(tx *gorm.DB, trip *model.Trip) error {
	return tx.Create(trip).Error
}

// Finalize writes end time, destination and metrics and flips the status,
// exactly once: the WHERE clause refuses trips already completed.
func (r *TripRepository) Finalize(tx *gorm.DB, trip *model.Trip) error {
	return tx.Model(&model.Trip{}).
		Where("id = ? AND status = ?", trip.ID, model.TripStatusInProgress).
		Updates(map[string]interface{}{
			"status":                  model.TripStatusCompleted,
			"end_time":                trip.EndTime,
			"destination_geofence_id": trip.DestinationGeofenceID,
			"distance_km":             trip.DistanceKm,
			"duration_minutes":        trip.DurationMinutes,
			"fuel_consumed_liters":    trip.FuelConsumedLiters,
			"material_type":           trip.MaterialType,
		}).Error
}

// Discard removes a false-start trip (vehicle returned to its source fence
// or barely moved).
func (r *TripRepository) Discard(tx *gorm.DB, tripID uuid.UUID) error {
	return tx.
		Where("id = ? AND status = ?", tripID, model.TripStatusInProgress).
		Delete(&model.Trip{}).Error
}

type TripFilter struct {
	VehicleID     *uuid.UUID
	Statuses      []model.TripStatus
	MaterialTypes []string
	DateFrom      *time.Time
	DateTo        *time.Time
	Limit         int
	Offset        int
}

func (r *TripRepository) List(ctx context.Context, filter TripFilter) ([]model.Trip, error) {
	query := r.db.WithContext(ctx).Model(&model.Trip{})

	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if len(filter.MaterialTypes) > 0 {
		query = query.Where("material_type IN ?", filter.MaterialTypes)
	}
	if filter.DateFrom != nil {
		query = query.Where("start_time >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("start_time <= ?", *filter.DateTo)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var trips []model.Trip
	if err := query.
		Order("start_time DESC").
		Preload("SourceGeofence").
		Preload("DestinationGeofence").
		Find(&trips).Error; err != nil {
		return nil, err
	}
	return trips, nil
}
