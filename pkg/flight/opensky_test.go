package flight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// sampleStatesJSON is a trimmed /states/all response: one valid airborne
// flight, one on the ground, one with no position, and one short vector.
const sampleStatesJSON = `{
	"time": 1700000000,
	"states": [
		["abc123", "UAL123  ", "United States", 1700000000, 1700000000, -122.2438, 37.5637, 586.74, false, 94.81, 297.82, -4.88, null, 601.2, "1200", false, 0],
		["def456", "SWA456", "United States", 1700000000, 1700000000, -122.38, 37.62, 0.0, true, 5.2, 120.0, 0.0, null, 2.0, "", false, 0],
		["0a1b2c", "AFR009", "France", 1700000000, 1700000000, null, null, 10000.0, false, 240.0, 90.0, 0.0, null, 10050.0, "", false, 0],
		["short1", "X"]
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenSkyClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewOpenSkyClient(srv.URL, SFBayBounds)
	// No throttling against the local test server
	c.limiter.SetLimit(1e9)
	return c
}

// TestGetFlights tests fetching and parsing the states endpoint.
func TestGetFlights(t *testing.T) {
	t.Run("Parses valid flights and drops invalid ones", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/states/all" {
				t.Errorf("Unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("lamin") == "" {
				t.Error("Expected bounding box query parameters")
			}
			w.Write([]byte(sampleStatesJSON))
		})

		flights, err := client.GetFlights(context.Background())
		if err != nil {
			t.Fatalf("GetFlights failed: %v", err)
		}

		if len(flights) != 1 {
			t.Fatalf("Expected 1 valid flight, got %d", len(flights))
		}

		f := flights[0]
		if f.ICAO24 != "abc123" {
			t.Errorf("Expected ICAO24 abc123, got %s", f.ICAO24)
		}
		if f.Callsign != "UAL123" {
			t.Errorf("Expected trimmed callsign UAL123, got %q", f.Callsign)
		}
		if f.Latitude == nil || *f.Latitude != 37.5637 {
			t.Errorf("Expected latitude 37.5637, got %v", f.Latitude)
		}
		if f.BaroAltitude == nil || *f.BaroAltitude != 586.74 {
			t.Errorf("Expected baro altitude 586.74, got %v", f.BaroAltitude)
		}
		if f.VerticalRate == nil || *f.VerticalRate != -4.88 {
			t.Errorf("Expected vertical rate -4.88, got %v", f.VerticalRate)
		}
		if f.OnGround {
			t.Error("Expected airborne flight")
		}
	})

	t.Run("Empty states list", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"time": 1700000000, "states": null}`))
		})

		flights, err := client.GetFlights(context.Background())
		if err != nil {
			t.Fatalf("GetFlights failed: %v", err)
		}
		if len(flights) != 0 {
			t.Errorf("Expected no flights, got %d", len(flights))
		}
	})

	t.Run("HTTP 429 returns RateLimitError", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := client.GetFlights(context.Background())
		rle, ok := IsRateLimitError(err)
		if !ok {
			t.Fatalf("Expected RateLimitError, got %v", err)
		}
		if rle.RetryAfter.Seconds() != 30 {
			t.Errorf("Expected 30s Retry-After, got %v", rle.RetryAfter)
		}
	})

	t.Run("Server error surfaces status code", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		if _, err := client.GetFlights(context.Background()); err == nil {
			t.Fatal("Expected error for HTTP 502")
		}
	})
}

// TestGetFlight tests single-flight lookup.
func TestGetFlight(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleStatesJSON))
	})

	t.Run("Known flight is found", func(t *testing.T) {
		f, err := client.GetFlight(context.Background(), "abc123")
		if err != nil {
			t.Fatalf("GetFlight failed: %v", err)
		}
		if f == nil || f.ICAO24 != "abc123" {
			t.Fatalf("Expected flight abc123, got %v", f)
		}
	})

	t.Run("Unknown flight returns nil", func(t *testing.T) {
		f, err := client.GetFlight(context.Background(), "zzz999")
		if err != nil {
			t.Fatalf("GetFlight failed: %v", err)
		}
		if f != nil {
			t.Errorf("Expected nil, got %+v", f)
		}
	})
}

// TestFlightHelpers tests the optional-field accessors.
func TestFlightHelpers(t *testing.T) {
	baro := 1000.0
	geo := 1020.0

	t.Run("BestAltitude prefers barometric", func(t *testing.T) {
		f := Flight{BaroAltitude: &baro, GeoAltitude: &geo}
		alt, ok := f.BestAltitude()
		if !ok || alt != baro {
			t.Errorf("Expected %f, got %f (ok=%v)", baro, alt, ok)
		}
	})

	t.Run("BestAltitude falls back to geometric", func(t *testing.T) {
		f := Flight{GeoAltitude: &geo}
		alt, ok := f.BestAltitude()
		if !ok || alt != geo {
			t.Errorf("Expected %f, got %f (ok=%v)", geo, alt, ok)
		}
	})

	t.Run("BestAltitude reports absence", func(t *testing.T) {
		f := Flight{}
		if _, ok := f.BestAltitude(); ok {
			t.Error("Expected no altitude")
		}
	})
}
