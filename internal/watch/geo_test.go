package watch

import (
	"math"
	"testing"
)

func TestHaversineSymmetry(t *testing.T) {
	t.Parallel()
	pairs := [][4]float64{
		{10.3763016, -75.4999534, 10.4, -75.5},
		{0, 0, 0, 1},
		{51.5, -0.12, 48.85, 2.35},
		{-33.86, 151.2, 35.68, 139.69},
	}
	for _, p := range pairs {
		ab := HaversineMeters(p[0], p[1], p[2], p[3])
		ba := HaversineMeters(p[2], p[3], p[0], p[1])
		if ab != ba {
			t.Fatalf("not symmetric: %v vs %v for %v", ab, ba, p)
		}
	}
}

func TestHaversineZeroDistance(t *testing.T) {
	t.Parallel()
	if d := HaversineMeters(10.3763016, -75.4999534, 10.3763016, -75.4999534); d != 0 {
		t.Fatalf("distance to self = %v, want 0", d)
	}
}

func TestHaversineKnownDistances(t *testing.T) {
	t.Parallel()
	// One degree of latitude on the R=6371km sphere is ~111.195 km.
	d := HaversineMeters(0, 0, 1, 0)
	if math.Abs(d-111195) > 100 {
		t.Fatalf("1 deg latitude = %v m, want ~111195", d)
	}
	// Same for one degree of longitude at the equator.
	d = HaversineMeters(0, 0, 0, 1)
	if math.Abs(d-111195) > 100 {
		t.Fatalf("1 deg longitude at equator = %v m, want ~111195", d)
	}
	// Longitude degrees shrink with latitude.
	d = HaversineMeters(60, 0, 60, 1)
	if math.Abs(d-55597) > 100 {
		t.Fatalf("1 deg longitude at 60N = %v m, want ~55597", d)
	}
}
