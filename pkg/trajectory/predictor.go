// Package trajectory forecasts short-horizon 3D flight paths for spatial
// overlay, and filters them against a viewer's field of view.
package trajectory

import (
	"math"

	"github.com/ben-berube/plane-tracker/pkg/coordinates"
	"github.com/ben-berube/plane-tracker/pkg/flight"
)

// Default forecast horizon and sampling interval, seconds.
const (
	DefaultDuration = 60.0
	DefaultStep     = 2.0
)

// Point is one sample of a predicted trajectory. Points are immutable
// values produced fresh per prediction call.
type Point struct {
	// Latitude in decimal degrees
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees
	Longitude float64 `json:"longitude"`

	// Altitude in meters MSL
	Altitude float64 `json:"altitude"`

	// TimeOffset is seconds from "now" (the prediction epoch), >= 0
	TimeOffset float64 `json:"time_offset"`

	// DistanceFromCurrent is the straight-line 3D distance in meters
	// from the aircraft's current position
	DistanceFromCurrent float64 `json:"distance_from_current"`

	// Bearing from the current position in degrees [0, 360)
	Bearing float64 `json:"bearing"`
}

// Predict forecasts an aircraft's path over the given horizon, sampled
// every step seconds inclusive of both endpoints (floor(duration/step)+1
// points).
//
// An externally supplied trajectory on the flight takes priority and is
// passed through without physics. Otherwise the forecast is computed by
// dead reckoning: a constant velocity vector built from ground speed,
// track and vertical rate, applied in the Earth-centered frame, with an
// altitude-band correction factor and a clamp that keeps every point at
// or above the surface.
//
// A flight without a position fix yields an empty (nil) trajectory; that
// is the only failure mode, expressed as a degraded result rather than
// an error.
func Predict(f *flight.Flight, duration, step float64) []Point {
	if len(f.Trajectory) > 0 {
		return convertSupplied(f)
	}

	if !f.HasPosition() {
		return nil
	}

	if step <= 0 {
		step = DefaultStep
	}
	if duration < 0 {
		duration = 0
	}

	lat := *f.Latitude
	lon := *f.Longitude
	alt, ok := f.BestAltitude()
	if !ok {
		alt = 35000
	}

	speed, track, verticalRate := 0.0, 0.0, 0.0
	if f.Velocity != nil {
		speed = *f.Velocity
	}
	if f.TrueTrack != nil {
		track = *f.TrueTrack
	}
	if f.VerticalRate != nil {
		verticalRate = *f.VerticalRate
	}

	current := coordinates.Geographic{Latitude: lat, Longitude: lon, Altitude: alt}
	initial := coordinates.GeodeticToCartesian(current)
	velocity := velocityVector(speed, track, verticalRate)
	factor := altitudeCorrectionFactor(alt)

	count := int(math.Floor(duration/step)) + 1
	points := make([]Point, 0, count)

	for i := 0; i < count; i++ {
		t := float64(i) * step

		if t == 0 {
			// The first sample is the current position itself.
			points = append(points, Point{
				Latitude:   lat,
				Longitude:  lon,
				Altitude:   alt,
				TimeOffset: 0,
			})
			continue
		}

		pos := initial.Add(velocity.Scale(t)).Scale(factor)

		// Keep the point at or above the surface: project radially
		// outward if the prediction fell inside the Earth.
		if r := pos.Norm(); r < coordinates.EarthRadiusMeters && r > 0 {
			pos = pos.Scale(coordinates.EarthRadiusMeters / r)
		}

		g := coordinates.CartesianToGeodetic(pos)
		points = append(points, Point{
			Latitude:            g.Latitude,
			Longitude:           g.Longitude,
			Altitude:            g.Altitude,
			TimeOffset:          t,
			DistanceFromCurrent: coordinates.Distance3D(current, g),
			Bearing:             coordinates.InitialBearing(current, g),
		})
	}

	return points
}

// convertSupplied passes an upstream-provided trajectory through,
// computing distances and bearings against the flight's current position
// (or the first supplied point when no fix is available).
func convertSupplied(f *flight.Flight) []Point {
	origin := coordinates.Geographic{
		Latitude:  f.Trajectory[0].Latitude,
		Longitude: f.Trajectory[0].Longitude,
		Altitude:  f.Trajectory[0].Altitude,
	}
	if f.HasPosition() {
		origin.Latitude = *f.Latitude
		origin.Longitude = *f.Longitude
		if alt, ok := f.BestAltitude(); ok {
			origin.Altitude = alt
		}
	}

	points := make([]Point, 0, len(f.Trajectory))
	for _, sp := range f.Trajectory {
		g := coordinates.Geographic{
			Latitude:  sp.Latitude,
			Longitude: sp.Longitude,
			Altitude:  sp.Altitude,
		}
		points = append(points, Point{
			Latitude:            sp.Latitude,
			Longitude:           sp.Longitude,
			Altitude:            sp.Altitude,
			TimeOffset:          sp.TimeOffset,
			DistanceFromCurrent: coordinates.Distance3D(origin, g),
			Bearing:             coordinates.InitialBearing(origin, g),
		})
	}

	return points
}

// velocityVector decomposes speed/track/verticalRate into the
// [north, east, up] components used by the dead-reckoning step. Track is
// a compass bearing: 0 = north, clockwise.
func velocityVector(speed, track, verticalRate float64) coordinates.Vec3 {
	trackRad := track * coordinates.DegreesToRadians
	return coordinates.Vec3{
		X: speed * math.Cos(trackRad),
		Y: speed * math.Sin(trackRad),
		Z: verticalRate,
	}
}

// altitudeCorrectionFactor returns the radial scale multiplier applied to
// predicted positions, rising monotonically with the flight's altitude
// band.
func altitudeCorrectionFactor(altitude float64) float64 {
	switch {
	case altitude < 1000:
		return 1.000
	case altitude < 5000:
		return 1.001
	case altitude < 15000:
		return 1.002
	case altitude < 30000:
		return 1.003
	default:
		return 1.004
	}
}
