package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ben-berube/plane-tracker/internal/auth"
	"github.com/ben-berube/plane-tracker/pkg/config"
	"github.com/ben-berube/plane-tracker/pkg/estimation"
	"github.com/ben-berube/plane-tracker/pkg/flight"
)

func fptr(v float64) *float64 { return &v }

// newTestServer builds a server around a pre-seeded tracker with no
// upstream feed and no database.
func newTestServer() *server {
	log := logrus.New()
	log.SetOutput(io.Discard)

	tr := &tracker{
		log:     log,
		flights: make(map[string]*trackedFlight),
		history: make(map[string][]flight.Flight),
	}
	tr.flights["a12345"] = &trackedFlight{
		Flight: flight.Flight{
			ICAO24:       "a12345",
			Callsign:     "UAL123",
			LastContact:  1700000000,
			Latitude:     fptr(37.5637),
			Longitude:    fptr(-122.2438),
			BaroAltitude: fptr(586.74),
			Velocity:     fptr(94.81),
			TrueTrack:    fptr(297.82),
			VerticalRate: fptr(-4.88),
		},
		Estimate: estimation.Result{
			Altitude:   586.74,
			Confidence: 1.0,
			Source:     estimation.SourceMeasured,
		},
		SeenAt: time.Now().UTC(),
	}

	authSvc := auth.NewService(auth.Config{JWTSecret: "test-secret"})
	return newServer(config.Default(), tr, newHub(log), authSvc, nil, log)
}

func TestGetFlights(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/flights", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Flights []flightJSON `json:"flights"`
		Count   int          `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Count != 1 || len(resp.Flights) != 1 {
		t.Fatalf("count = %d, flights = %d, want 1 each", resp.Count, len(resp.Flights))
	}

	f := resp.Flights[0]
	if f.ICAO24 != "a12345" {
		t.Errorf("icao24 = %q, want a12345", f.ICAO24)
	}
	if f.AltitudeSource != "measured" {
		t.Errorf("altitude_source = %q, want measured", f.AltitudeSource)
	}
}

func TestGetFlightsFiltered(t *testing.T) {
	srv := newTestServer()

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"altitude excludes", "?min_altitude=1000", 0},
		{"altitude includes", "?min_altitude=100&max_altitude=1000", 1},
		{"airline matches", "?airline=UAL", 1},
		{"airline misses", "?airline=DAL", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/flights"+tc.query, nil)
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}

			var resp struct {
				Count int `json:"count"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.Count != tc.want {
				t.Errorf("count = %d, want %d", resp.Count, tc.want)
			}
		})
	}
}

func TestGetFlight(t *testing.T) {
	srv := newTestServer()

	t.Run("known aircraft", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/flights/a12345", nil)
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("unknown aircraft", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/flights/ffffff", nil)
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestGetAltitude(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/flights/a12345/altitude", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		ICAO24     string  `json:"icao24"`
		Altitude   float64 `json:"altitude"`
		Confidence float64 `json:"confidence"`
		Source     string  `json:"source"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Altitude != 586.74 || resp.Confidence != 1.0 || resp.Source != "measured" {
		t.Errorf("unexpected altitude payload: %+v", resp)
	}
}

func TestGetTrajectory(t *testing.T) {
	srv := newTestServer()

	t.Run("default horizon", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/flights/a12345/trajectory", nil)
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var resp struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Count != 31 {
			t.Errorf("count = %d, want 31", resp.Count)
		}
	})

	t.Run("custom horizon", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/flights/a12345/trajectory?time=10&step=5", nil)
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)

		var resp struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Count != 3 {
			t.Errorf("count = %d, want 3", resp.Count)
		}
	})

	t.Run("invalid step", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/flights/a12345/trajectory?step=abc", nil)
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestGetStatus(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Tracker  trackerStatus `json:"tracker"`
		Database bool          `json:"database"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Tracker.TrackedFlights != 1 {
		t.Errorf("tracked_flights = %d, want 1", resp.Tracker.TrackedFlights)
	}
	if resp.Database {
		t.Error("database = true, want false")
	}
}

func TestLoginWithoutDatabase(t *testing.T) {
	srv := newTestServer()

	body := strings.NewReader(`{"username":"admin","password":"admin"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHistoryRequiresAuth(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/history/a12345", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
