package repository

import (
	"context"

	"gorm.io/gorm"

	"telemetry-service/internal/model"
)

type GeofenceRepository struct {
	db *gorm.DB
}

func NewGeofenceRepository(db *gorm.DB) *GeofenceRepository {
	return &GeofenceRepository{db: db}
}

// ListActive returns the current geofence snapshot. The set is expected to
// stay in the tens, so a full read per ping is fine.
func (r *GeofenceRepository) ListActive(ctx context.Context) ([]model.Geofence, error) {
	var fences []model.Geofence
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id").
		Find(&fences).Error; err != nil {
		return nil, err
	}
	return fences, nil
}
