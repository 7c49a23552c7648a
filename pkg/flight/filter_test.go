package flight

import (
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func testFleet() []Flight {
	return []Flight{
		{ICAO24: "a1", Callsign: "UAL100", OriginCountry: "United States",
			BaroAltitude: fptr(11000), Velocity: fptr(240)},
		{ICAO24: "a2", Callsign: "SWA200", OriginCountry: "United States",
			GeoAltitude: fptr(2500), Velocity: fptr(120)},
		{ICAO24: "a3", Callsign: "AFR300", OriginCountry: "France",
			BaroAltitude: fptr(12000)},
		{ICAO24: "a4", Callsign: "N123AB", OriginCountry: "United States"},
	}
}

// TestFilterByAltitude tests the altitude band filter.
func TestFilterByAltitude(t *testing.T) {
	flights := testFleet()

	t.Run("Band keeps only in-range flights", func(t *testing.T) {
		got := FilterByAltitude(flights, 10000, 50000)
		if len(got) != 2 {
			t.Fatalf("Expected 2 flights, got %d", len(got))
		}
		if got[0].ICAO24 != "a1" || got[1].ICAO24 != "a3" {
			t.Errorf("Unexpected flights: %s, %s", got[0].ICAO24, got[1].ICAO24)
		}
	})

	t.Run("Geometric altitude counts when barometric is absent", func(t *testing.T) {
		got := FilterByAltitude(flights, 2000, 3000)
		if len(got) != 1 || got[0].ICAO24 != "a2" {
			t.Fatalf("Expected only a2, got %d flights", len(got))
		}
	})

	t.Run("No altitude data excludes the flight", func(t *testing.T) {
		got := FilterByAltitude(flights, 0, 50000)
		for _, f := range got {
			if f.ICAO24 == "a4" {
				t.Error("Flight without altitude should be excluded")
			}
		}
	})
}

// TestFilterByAirline tests callsign prefix filtering.
func TestFilterByAirline(t *testing.T) {
	flights := testFleet()

	t.Run("Single code", func(t *testing.T) {
		got := FilterByAirline(flights, []string{"UAL"})
		if len(got) != 1 || got[0].Callsign != "UAL100" {
			t.Fatalf("Expected UAL100, got %d flights", len(got))
		}
	})

	t.Run("Multiple codes", func(t *testing.T) {
		got := FilterByAirline(flights, []string{"UAL", "AFR"})
		if len(got) != 2 {
			t.Fatalf("Expected 2 flights, got %d", len(got))
		}
	})

	t.Run("No match", func(t *testing.T) {
		if got := FilterByAirline(flights, []string{"DLH"}); len(got) != 0 {
			t.Errorf("Expected no flights, got %d", len(got))
		}
	})
}

// TestComputeStatistics tests the fleet aggregation.
func TestComputeStatistics(t *testing.T) {
	t.Run("Empty input", func(t *testing.T) {
		stats := ComputeStatistics(nil)
		if stats.TotalFlights != 0 {
			t.Errorf("Expected 0 flights, got %d", stats.TotalFlights)
		}
		if stats.AltitudeStats.Avg != 0 {
			t.Errorf("Expected zero stats, got %+v", stats.AltitudeStats)
		}
	})

	t.Run("Aggregates altitude, velocity and countries", func(t *testing.T) {
		stats := ComputeStatistics(testFleet())

		if stats.TotalFlights != 4 {
			t.Errorf("Expected 4 flights, got %d", stats.TotalFlights)
		}
		if stats.AltitudeStats.Min != 2500 || stats.AltitudeStats.Max != 12000 {
			t.Errorf("Unexpected altitude range: %+v", stats.AltitudeStats)
		}
		expectedAvg := (11000.0 + 2500.0 + 12000.0) / 3.0
		if math.Abs(stats.AltitudeStats.Avg-expectedAvg) > 1e-9 {
			t.Errorf("Expected avg %f, got %f", expectedAvg, stats.AltitudeStats.Avg)
		}
		if stats.VelocityStats.Min != 120 || stats.VelocityStats.Max != 240 {
			t.Errorf("Unexpected velocity range: %+v", stats.VelocityStats)
		}
		if stats.Countries["United States"] != 3 || stats.Countries["France"] != 1 {
			t.Errorf("Unexpected country histogram: %v", stats.Countries)
		}
	})
}
