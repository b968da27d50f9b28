package geo

import (
	"sort"

	"telemetry-service/internal/model"
)

// Matcher answers containment queries against a snapshot of active
// geofences. It is a pure value: build one per request from the current
// geofence set, no persistence of its own.
type Matcher struct {
	fences []model.Geofence
}

func NewMatcher(fences []model.Geofence) *Matcher {
	active := make([]model.Geofence, 0, len(fences))
	for _, f := range fences {
		if f.Active && f.RadiusM > 0 {
			active = append(active, f)
		}
	}
	return &Matcher{fences: active}
}

// Locate returns every active geofence containing the point, distance to
// center ≤ radius. Overlapping fences can all match.
func (m *Matcher) Locate(lat, lon float64) []model.Geofence {
	var matched []model.Geofence
	for _, f := range m.fences {
		if HaversineMeters(lat, lon, f.CenterLat, f.CenterLon) <= f.RadiusM {
			matched = append(matched, f)
		}
	}
	return matched
}

// Best returns the single geofence callers should treat as "entered" when
// several overlap: smallest radius first, then lowest id. Returns nil when
// the point is outside every fence.
func (m *Matcher) Best(lat, lon float64) *model.Geofence {
	matched := m.Locate(lat, lon)
	if len(matched) == 0 {
		return nil
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].RadiusM != matched[j].RadiusM {
			return matched[i].RadiusM < matched[j].RadiusM
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	best := matched[0]
	return &best
}
