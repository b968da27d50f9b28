package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"telemetry-service/internal/model"
)

type FuelAlertRepository struct {
	db *gorm.DB
}

func NewFuelAlertRepository(db *gorm.DB) *FuelAlertRepository {
	return &FuelAlertRepository{db: db}
}

// HasUnresolved reports whether an unresolved alert of the given type exists
// for the vehicle.
func (r *FuelAlertRepository) HasUnresolved(ctx context.Context, vehicleID uuid.UUID, alertType model.FuelAlertType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FuelAlert{}).
		Where("vehicle_id = ? AND alert_type = ? AND is_resolved = FALSE", vehicleID, alertType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts an alert. A concurrent raise of the same (vehicle, type)
// loses to the partial unique index and is reported as created=false, not
// as an error.
func (r *FuelAlertRepository) Create(ctx context.Context, alert *model.FuelAlert) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(alert)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ResolveType marks every unresolved alert of the given type resolved.
func (r *FuelAlertRepository) ResolveType(ctx context.Context, vehicleID uuid.UUID, alertType model.FuelAlertType, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.FuelAlert{}).
		Where("vehicle_id = ? AND alert_type = ? AND is_resolved = FALSE", vehicleID, alertType).
		Updates(map[string]interface{}{
			"is_resolved": true,
			"resolved_at": at,
		}).Error
}

type FuelAlertFilter struct {
	VehicleID  *uuid.UUID
	AlertTypes []model.FuelAlertType
	Limit      int
	Offset     int
}

// ListUnresolved returns open alerts, newest first.
func (r *FuelAlertRepository) ListUnresolved(ctx context.Context, filter FuelAlertFilter) ([]model.FuelAlert, error) {
	query := r.db.WithContext(ctx).
		Model(&model.FuelAlert{}).
		Where("is_resolved = FALSE")

	if filter.VehicleID != nil {
		query = query.Where("vehicle_id = ?", *filter.VehicleID)
	}
	if len(filter.AlertTypes) > 0 {
		query = query.Where("alert_type IN ?", filter.AlertTypes)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var alerts []model.FuelAlert
	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}
