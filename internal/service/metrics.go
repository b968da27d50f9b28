package service

import (
	"telemetry-service/internal/geo"
	"telemetry-service/internal/model"
)

// PathDistanceKm sums haversine distances between consecutive pings. Haul
// roads are rarely straight, so path length is the honest figure, not the
// start-to-end chord.
func PathDistanceKm(pings []model.GpsPing) float64 {
	var meters float64
	for i := 1; i < len(pings); i++ {
		meters += geo.HaversineMeters(
			pings[i-1].Lat, pings[i-1].Lon,
			pings[i].Lat, pings[i].Lon,
		)
	}
	return meters / 1000
}

// applyTripMetrics fills the metrics computed once at finalize time.
// fuelStart/fuelEnd come from the nearest fuel pings inside the trip
// window; when the window holds none, fuel_consumed_liters stays null —
// zero would falsely claim no consumption.
func applyTripMetrics(trip *model.Trip, path []model.GpsPing, fuelStart, fuelEnd *float64) {
	distance := PathDistanceKm(path)
	trip.DistanceKm = &distance

	if trip.EndTime != nil {
		minutes := trip.EndTime.Sub(trip.StartTime).Minutes()
		trip.DurationMinutes = &minutes
	}

	if fuelStart != nil && fuelEnd != nil {
		consumed := *fuelStart - *fuelEnd
		trip.FuelConsumedLiters = &consumed
	}
}
