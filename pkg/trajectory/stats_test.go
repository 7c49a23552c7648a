package trajectory

import (
	"math"
	"testing"
)

// TestStatistics tests trajectory aggregation.
func TestStatistics(t *testing.T) {
	t.Run("Empty trajectory", func(t *testing.T) {
		s := Statistics(nil)
		if s.TotalDistance != 0 || s.AverageSpeed != 0 || s.AverageBearingChange != 0 {
			t.Errorf("Expected zero stats, got %+v", s)
		}
	})

	t.Run("Single point has no derived rates", func(t *testing.T) {
		s := Statistics([]Point{{Altitude: 500}})
		if s.AverageSpeed != 0 {
			t.Errorf("Expected zero speed, got %f", s.AverageSpeed)
		}
		if s.AverageBearingChange != 0 {
			t.Errorf("Expected zero bearing change, got %f", s.AverageBearingChange)
		}
		if s.MaxAltitude != 500 || s.MinAltitude != 500 || s.AltitudeRange != 0 {
			t.Errorf("Unexpected altitude stats: %+v", s)
		}
	})

	t.Run("Derived values", func(t *testing.T) {
		points := []Point{
			{Altitude: 1000, TimeOffset: 0, DistanceFromCurrent: 0, Bearing: 0},
			{Altitude: 900, TimeOffset: 10, DistanceFromCurrent: 1000, Bearing: 90},
			{Altitude: 800, TimeOffset: 20, DistanceFromCurrent: 2000, Bearing: 100},
		}

		s := Statistics(points)

		if s.TotalDistance != 2000 {
			t.Errorf("Expected total distance 2000, got %f", s.TotalDistance)
		}
		if math.Abs(s.AverageSpeed-100) > 1e-9 {
			t.Errorf("Expected average speed 100, got %f", s.AverageSpeed)
		}
		if s.MaxAltitude != 1000 || s.MinAltitude != 800 || s.AltitudeRange != 200 {
			t.Errorf("Unexpected altitude stats: %+v", s)
		}
		// Bearing changes: |90-0| and |100-90| -> mean 50
		if math.Abs(s.AverageBearingChange-50) > 1e-9 {
			t.Errorf("Expected mean bearing change 50, got %f", s.AverageBearingChange)
		}
	})

	t.Run("Bearing wraparound does not inflate the change", func(t *testing.T) {
		points := []Point{
			{Bearing: 359, TimeOffset: 0},
			{Bearing: 1, TimeOffset: 2},
		}

		s := Statistics(points)
		if math.Abs(s.AverageBearingChange-2) > 1e-9 {
			t.Errorf("Expected change 2 across north, got %f", s.AverageBearingChange)
		}
	})

	t.Run("Full prediction is self-consistent", func(t *testing.T) {
		points := Predict(sfoApproach(), 60, 2)
		s := Statistics(points)

		if s.TotalDistance != points[len(points)-1].DistanceFromCurrent {
			t.Errorf("Total distance should equal the final point's distance")
		}
		if s.AverageSpeed <= 0 {
			t.Errorf("Expected positive average speed, got %f", s.AverageSpeed)
		}
		if s.MinAltitude > s.MaxAltitude {
			t.Errorf("Inverted altitude bounds: %+v", s)
		}
		if math.IsNaN(s.AverageBearingChange) {
			t.Error("NaN bearing change")
		}
	})
}
