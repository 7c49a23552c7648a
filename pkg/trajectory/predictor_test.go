package trajectory

import (
	"math"
	"testing"

	"github.com/ben-berube/plane-tracker/pkg/flight"
)

func fptr(v float64) *float64 { return &v }

// sfoApproach is a descending approach into the SF bay area, taken from a
// live OpenSky sample.
func sfoApproach() *flight.Flight {
	return &flight.Flight{
		ICAO24:       "a1b2c3",
		Callsign:     "UAL123",
		LastContact:  1700000000,
		Latitude:     fptr(37.5637),
		Longitude:    fptr(-122.2438),
		BaroAltitude: fptr(586.74),
		Velocity:     fptr(94.81),
		TrueTrack:    fptr(297.82),
		VerticalRate: fptr(-4.88),
	}
}

// TestPredictPointCount tests the inclusive sampling contract.
func TestPredictPointCount(t *testing.T) {
	cases := []struct {
		duration, step float64
		want           int
	}{
		{60, 2, 31},
		{60, 60, 2},
		{10, 3, 4},  // floor(10/3)+1
		{0, 2, 1},   // only the current position
		{60, -1, 31}, // invalid step falls back to the default
	}

	for _, c := range cases {
		points := Predict(sfoApproach(), c.duration, c.step)
		if len(points) != c.want {
			t.Errorf("duration=%f step=%f: expected %d points, got %d",
				c.duration, c.step, c.want, len(points))
		}
	}
}

// TestPredictSFOApproach pins the worked example end to end.
func TestPredictSFOApproach(t *testing.T) {
	points := Predict(sfoApproach(), 60, 2)

	if len(points) != 31 {
		t.Fatalf("Expected 31 points, got %d", len(points))
	}

	first := points[0]
	if first.TimeOffset != 0 {
		t.Errorf("Expected first time offset 0, got %f", first.TimeOffset)
	}
	if first.Latitude != 37.5637 || first.Longitude != -122.2438 {
		t.Errorf("First point should coincide with input position, got %f/%f",
			first.Latitude, first.Longitude)
	}
	if first.DistanceFromCurrent != 0 {
		t.Errorf("Expected zero distance at t=0, got %f", first.DistanceFromCurrent)
	}

	last := points[30]
	if last.TimeOffset != 60.0 {
		t.Errorf("Expected last time offset 60.0, got %f", last.TimeOffset)
	}
	if last.DistanceFromCurrent <= 0 {
		t.Errorf("Expected positive distance at t=60 with nonzero speed, got %f",
			last.DistanceFromCurrent)
	}

	// Roughly 95 m/s for 60 s: the final point should be within the same
	// order of magnitude of displacement
	if last.DistanceFromCurrent > 50000 {
		t.Errorf("Displacement %f m implausibly large for 60 s at 94.81 m/s",
			last.DistanceFromCurrent)
	}

	// Descending aircraft: no forecast point may fall below the surface
	for i, p := range points {
		if p.Altitude < -1e-6 {
			t.Errorf("Point %d below the surface: %f", i, p.Altitude)
		}
		if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) || math.IsNaN(p.Altitude) ||
			math.IsNaN(p.DistanceFromCurrent) || math.IsNaN(p.Bearing) {
			t.Errorf("Point %d has NaN fields: %+v", i, p)
		}
		if p.Bearing < 0 || p.Bearing >= 360 {
			t.Errorf("Point %d bearing %f outside [0,360)", i, p.Bearing)
		}
	}

	// Time offsets increase strictly
	for i := 1; i < len(points); i++ {
		if points[i].TimeOffset <= points[i-1].TimeOffset {
			t.Errorf("Time offsets not increasing at %d", i)
		}
	}
}

// TestPredictMissingPosition tests the single hard failure mode.
func TestPredictMissingPosition(t *testing.T) {
	f := &flight.Flight{
		ICAO24:       "ffffff",
		LastContact:  1700000000,
		Velocity:     fptr(200),
		TrueTrack:    fptr(90),
		BaroAltitude: fptr(10000),
	}

	if points := Predict(f, 60, 2); len(points) != 0 {
		t.Errorf("Expected empty trajectory without a position fix, got %d points", len(points))
	}
}

// TestPredictDefaults tests defaulting of missing kinematic fields.
func TestPredictDefaults(t *testing.T) {
	t.Run("Missing altitude defaults to cruise", func(t *testing.T) {
		f := &flight.Flight{
			ICAO24:      "ddd001",
			LastContact: 1700000000,
			Latitude:    fptr(37.5),
			Longitude:   fptr(-122.0),
		}

		points := Predict(f, 60, 2)
		if len(points) != 31 {
			t.Fatalf("Expected 31 points, got %d", len(points))
		}
		if points[0].Altitude != 35000 {
			t.Errorf("Expected default cruise altitude, got %f", points[0].Altitude)
		}
	})

	t.Run("Missing speed leaves the aircraft in place", func(t *testing.T) {
		f := &flight.Flight{
			ICAO24:       "ddd002",
			LastContact:  1700000000,
			Latitude:     fptr(37.5),
			Longitude:    fptr(-122.0),
			BaroAltitude: fptr(500),
		}

		points := Predict(f, 60, 2)
		last := points[len(points)-1]
		// Altitude band below 1000 m has a unit correction factor, so a
		// zero velocity vector yields no displacement at all
		if last.DistanceFromCurrent > 1.0 {
			t.Errorf("Expected stationary forecast, got displacement %f", last.DistanceFromCurrent)
		}
	})
}

// TestPredictSuppliedTrajectory tests the upstream pass-through path.
func TestPredictSuppliedTrajectory(t *testing.T) {
	f := sfoApproach()
	f.Trajectory = []flight.SuppliedPoint{
		{Latitude: 37.5637, Longitude: -122.2438, Altitude: 586.74, TimeOffset: 0},
		{Latitude: 37.57, Longitude: -122.25, Altitude: 550, TimeOffset: 30},
		{Latitude: 37.58, Longitude: -122.26, Altitude: 500, TimeOffset: 60},
	}

	points := Predict(f, 60, 2)

	if len(points) != 3 {
		t.Fatalf("Expected supplied 3 points passed through, got %d", len(points))
	}
	if points[1].Latitude != 37.57 || points[1].TimeOffset != 30 {
		t.Errorf("Supplied point altered: %+v", points[1])
	}
	if points[2].DistanceFromCurrent <= 0 {
		t.Errorf("Expected positive distance for displaced supplied point")
	}
}

// TestPredictSurfaceClamp tests radial projection back to the surface.
func TestPredictSurfaceClamp(t *testing.T) {
	f := &flight.Flight{
		ICAO24:       "clamp1",
		LastContact:  1700000000,
		Latitude:     fptr(37.5),
		Longitude:    fptr(-122.0),
		BaroAltitude: fptr(50),
		VerticalRate: fptr(-100), // dives below the surface within seconds
		Velocity:     fptr(10),
		TrueTrack:    fptr(0),
	}

	points := Predict(f, 60, 2)
	for i, p := range points {
		if p.Altitude < -1e-6 {
			t.Errorf("Point %d not clamped to surface: altitude %f", i, p.Altitude)
		}
	}
}

// TestAltitudeCorrectionFactor tests band boundaries and monotonicity.
func TestAltitudeCorrectionFactor(t *testing.T) {
	cases := []struct {
		altitude, want float64
	}{
		{0, 1.000},
		{999, 1.000},
		{1000, 1.001},
		{4999, 1.001},
		{5000, 1.002},
		{14999, 1.002},
		{15000, 1.003},
		{29999, 1.003},
		{30000, 1.004},
		{45000, 1.004},
	}

	prev := 0.0
	for _, c := range cases {
		got := altitudeCorrectionFactor(c.altitude)
		if got != c.want {
			t.Errorf("factor(%f): expected %f, got %f", c.altitude, c.want, got)
		}
		if got < prev {
			t.Errorf("factor(%f) not monotonic", c.altitude)
		}
		prev = got
	}
}
