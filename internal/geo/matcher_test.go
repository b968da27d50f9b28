package geo

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"telemetry-service/internal/model"
)

func TestHaversineMeters(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 43.238949, 76.889709, 43.238949, 76.889709, 0, 0.001},
		// one degree of latitude is ~111.19 km on the sphere
		{"one degree latitude", 43.0, 76.0, 44.0, 76.0, 111195, 50},
		{"short hop", 43.2389, 76.8897, 43.2399, 76.8897, 111.2, 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := HaversineMeters(c.lat1, c.lon1, c.lat2, c.lon2)
			if math.Abs(got-c.want) > c.tolerance {
				t.Errorf("HaversineMeters() = %.3f, want %.3f ± %.3f", got, c.want, c.tolerance)
			}
		})
	}
}

func fence(id string, lat, lon, radius float64, active bool) model.Geofence {
	return model.Geofence{
		ID:        uuid.MustParse(id),
		Name:      "fence-" + id[:8],
		Kind:      model.GeofenceKindPit,
		CenterLat: lat,
		CenterLon: lon,
		RadiusM:   radius,
		Active:    active,
	}
}

func TestMatcherLocate(t *testing.T) {
	pit := fence("11111111-1111-1111-1111-111111111111", 43.2400, 76.8900, 300, true)
	inactive := fence("22222222-2222-2222-2222-222222222222", 43.2400, 76.8900, 300, false)
	far := fence("33333333-3333-3333-3333-333333333333", 44.0000, 77.0000, 300, true)

	m := NewMatcher([]model.Geofence{pit, inactive, far})

	got := m.Locate(43.2401, 76.8901)
	if len(got) != 1 || got[0].ID != pit.ID {
		t.Fatalf("Locate() matched %d fences, want only the active pit", len(got))
	}

	if got := m.Locate(40.0, 70.0); len(got) != 0 {
		t.Errorf("Locate() far outside = %d matches, want 0", len(got))
	}
}

func TestMatcherBestTieBreak(t *testing.T) {
	// two overlapping fences around the same point; the smaller radius wins
	// regardless of insertion order
	big := fence("99999999-9999-9999-9999-999999999999", 43.2400, 76.8900, 500, true)
	small := fence("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", 43.2405, 76.8905, 200, true)

	for _, order := range [][]model.Geofence{{big, small}, {small, big}} {
		m := NewMatcher(order)
		best := m.Best(43.2403, 76.8903)
		if best == nil || best.ID != small.ID {
			t.Fatalf("Best() = %v, want the smaller fence regardless of order", best)
		}
	}

	// equal radii: lowest id wins
	a := fence("11111111-0000-0000-0000-000000000000", 43.2400, 76.8900, 400, true)
	b := fence("22222222-0000-0000-0000-000000000000", 43.2401, 76.8901, 400, true)
	m := NewMatcher([]model.Geofence{b, a})
	best := m.Best(43.2400, 76.8900)
	if best == nil || best.ID != a.ID {
		t.Fatalf("Best() with equal radii = %v, want lowest id", best)
	}
}

func TestMatcherBestOutside(t *testing.T) {
	m := NewMatcher([]model.Geofence{fence("11111111-1111-1111-1111-111111111111", 43.24, 76.89, 100, true)})
	if best := m.Best(10.0, 10.0); best != nil {
		t.Errorf("Best() outside all fences = %v, want nil", best)
	}
}
