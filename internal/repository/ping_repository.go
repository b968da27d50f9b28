package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"telemetry-service/internal/model"
)

type PingRepository struct {
	db *gorm.DB
}

func NewPingRepository(db *gorm.DB) *PingRepository {
	return &PingRepository{db: db}
}

// InsertGps appends a ping. Returns false when a row with the same
// (vehicle_id, recorded_at) already exists; the resend is kept out of the
// log but the attempt is not an error.
func (r *PingRepository) InsertGps(ctx context.Context, tx *gorm.DB, ping *model.GpsPing) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vehicle_id"}, {Name: "recorded_at"}},
			DoNothing: true,
		}).
		Create(ping)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *PingRepository) InsertFuel(ctx context.Context, ping *model.FuelPing) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "vehicle_id"}, {Name: "recorded_at"}},
			DoNothing: true,
		}).
		Create(ping)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GpsBetween returns the ordered ping path of a trip window, inclusive.
func (r *PingRepository) GpsBetween(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, from, to time.Time) ([]model.GpsPing, error) {
	if tx == nil {
		tx = r.db
	}
	var pings []model.GpsPing
	if err := tx.WithContext(ctx).
		Where("vehicle_id = ? AND recorded_at BETWEEN ? AND ?", vehicleID, from, to).
		Order("recorded_at").
		Find(&pings).Error; err != nil {
		return nil, err
	}
	return pings, nil
}

// NearestFuelLevel returns the fuel level of the ping closest in time to t,
// restricted to [from, to], or nil when the vehicle has no fuel ping there.
func (r *PingRepository) NearestFuelLevel(ctx context.Context, tx *gorm.DB, vehicleID uuid.UUID, t, from, to time.Time) (*float64, error) {
	if tx == nil {
		tx = r.db
	}
	var pings []model.FuelPing
	err := tx.WithContext(ctx).
		Where("vehicle_id = ? AND recorded_at BETWEEN ? AND ?", vehicleID, from, to).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "ABS(EXTRACT(EPOCH FROM recorded_at - ?::timestamptz))", Vars: []interface{}{t}},
		}).
		Limit(1).
		Find(&pings).Error
	if err != nil {
		return nil, err
	}
	if len(pings) == 0 {
		return nil, nil
	}
	return &pings[0].FuelLevel, nil
}

// RecentFuel returns the vehicle's fuel pings since the cutoff, oldest
// first, for the anomaly detector's lookback window.
func (r *PingRepository) RecentFuel(ctx context.Context, vehicleID uuid.UUID, since time.Time) ([]model.FuelPing, error) {
	var pings []model.FuelPing
	if err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND recorded_at >= ?", vehicleID, since).
		Order("recorded_at").
		Find(&pings).Error; err != nil {
		return nil, err
	}
	return pings, nil
}

// LatestGps returns the newest GPS ping for a vehicle, nil when none exists.
func (r *PingRepository) LatestGps(ctx context.Context, vehicleID uuid.UUID) (*model.GpsPing, error) {
	var ping model.GpsPing
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ?", vehicleID).
		Order("recorded_at DESC").
		First(&ping).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &ping, nil
}

// LatestGpsAll returns the newest ping per vehicle, the live-tracking view.
func (r *PingRepository) LatestGpsAll(ctx context.Context) ([]model.GpsPing, error) {
	var pings []model.GpsPing
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (vehicle_id) *
			FROM gps_pings
			ORDER BY vehicle_id, recorded_at DESC`).
		Scan(&pings).Error
	if err != nil {
		return nil, err
	}
	return pings, nil
}
