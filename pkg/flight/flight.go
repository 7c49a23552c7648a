// Package flight defines the kinematic report model for tracked aircraft
// and the data source abstraction that feeds it.
package flight

import (
	"context"
	"time"
)

// Flight represents one kinematic report for a tracked aircraft.
// Physical fields that the transponder may omit are pointers; nil means
// "not reported". Only ICAO24 and LastContact are always present.
// All units are SI: meters, meters per second, degrees.
type Flight struct {
	// ICAO24 is the unique 24-bit ICAO aircraft address (e.g., "a12345")
	ICAO24 string

	// Callsign is the flight number or aircraft registration
	Callsign string

	// OriginCountry is the country of registration reported by the feed
	OriginCountry string

	// TimePosition is the Unix timestamp of the last position report (0 if unknown)
	TimePosition int64

	// LastContact is the Unix timestamp of the last received message
	LastContact int64

	// Longitude in decimal degrees (-180 to +180), nil if no position fix
	Longitude *float64

	// Latitude in decimal degrees (-90 to +90), nil if no position fix
	Latitude *float64

	// BaroAltitude is the barometric altitude in meters MSL
	BaroAltitude *float64

	// GeoAltitude is the geometric (GNSS) altitude in meters MSL
	GeoAltitude *float64

	// OnGround reports whether the aircraft is on the surface
	OnGround bool

	// Velocity is the ground speed in m/s
	Velocity *float64

	// TrueTrack is the ground track in degrees from true north, clockwise
	TrueTrack *float64

	// VerticalRate in m/s, positive = climbing
	VerticalRate *float64

	// Squawk is the assigned transponder code, if any
	Squawk string

	// PositionSource identifies the feed's position source (ADS-B, MLAT, ...)
	PositionSource int

	// PredictedAltitude is an altitude supplied by an upstream estimator,
	// in meters. When present and positive it takes priority over every
	// local estimation tier.
	PredictedAltitude *float64

	// AltitudeConfidence is the upstream estimator's confidence in [0,1],
	// meaningful only alongside PredictedAltitude.
	AltitudeConfidence *float64

	// Trajectory is an externally supplied forecast. When non-empty the
	// local predictor passes it through instead of computing its own.
	Trajectory []SuppliedPoint
}

// SuppliedPoint is one point of an externally provided trajectory.
type SuppliedPoint struct {
	Latitude   float64
	Longitude  float64
	Altitude   float64
	TimeOffset float64
}

// HasPosition reports whether the flight carries a usable lat/lon fix.
func (f *Flight) HasPosition() bool {
	return f.Latitude != nil && f.Longitude != nil
}

// BestAltitude returns the preferred direct altitude measurement:
// barometric first, then geometric. The second return is false when
// neither is reported.
func (f *Flight) BestAltitude() (float64, bool) {
	if f.BaroAltitude != nil {
		return *f.BaroAltitude, true
	}
	if f.GeoAltitude != nil {
		return *f.GeoAltitude, true
	}
	return 0, false
}

// ContactTime returns LastContact as a time.Time.
func (f *Flight) ContactTime() time.Time {
	return time.Unix(f.LastContact, 0).UTC()
}

// DataSource is the interface all flight data providers implement.
// This abstraction allows switching between the OpenSky network, other
// online services, and local receivers without touching the estimation
// or prediction code.
type DataSource interface {
	// GetFlights returns all currently tracked flights in the provider's
	// configured region.
	GetFlights(ctx context.Context) ([]Flight, error)

	// GetFlight returns a specific flight by its ICAO24 address.
	// Returns nil if the aircraft is not currently tracked.
	GetFlight(ctx context.Context, icao24 string) (*Flight, error)

	// Close cleanly shuts down the data source.
	Close() error
}
