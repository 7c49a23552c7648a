package coordinates

import "math"

// Constants for coordinate calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// EarthRadiusMeters is the Earth's mean radius in meters (spherical model)
	EarthRadiusMeters = 6371000.0

	// MetersPerDegreeLatitude is the surface distance covered by one degree
	// of latitude, constant over the globe in the spherical model.
	MetersPerDegreeLatitude = 111000.0

	// MetersPerDegreeLongitudeEquator is the surface distance covered by one
	// degree of longitude at the equator. Scale by cos(latitude) elsewhere.
	MetersPerDegreeLongitudeEquator = 111320.0
)

// Geographic represents a position on or above Earth's surface.
// Uses the WGS84 coordinate system (same as GPS).
type Geographic struct {
	// Latitude in decimal degrees (-90 to +90)
	// Positive = North, Negative = South
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	// Positive = East, Negative = West
	Longitude float64

	// Altitude in meters above mean sea level (MSL)
	Altitude float64
}

// Vec3 is a 3D Cartesian vector. Depending on context it holds either an
// Earth-centered position (meters from the core) or a direction.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns the component-wise sum v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns the component-wise difference v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v multiplied by the scalar s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns the unit vector in the direction of v.
// The zero vector normalizes to itself rather than producing NaN components.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return Vec3{}
	}
	return v.Scale(1.0 / n)
}

// GeodeticToCartesian converts a geographic position to Earth-centered
// Cartesian coordinates using the spherical Earth model.
//
// The frame has its origin at Earth's core: X points toward (lat 0, lon 0),
// Y toward (lat 0, lon 90°E) and Z toward the north pole. All components
// are in meters.
func GeodeticToCartesian(g Geographic) Vec3 {
	latRad := g.Latitude * DegreesToRadians
	lonRad := g.Longitude * DegreesToRadians
	r := EarthRadiusMeters + g.Altitude

	return Vec3{
		X: r * math.Cos(latRad) * math.Cos(lonRad),
		Y: r * math.Cos(latRad) * math.Sin(lonRad),
		Z: r * math.Sin(latRad),
	}
}

// CartesianToGeodetic converts an Earth-centered Cartesian position back to
// geographic coordinates. Inverse of GeodeticToCartesian.
//
// The zero vector (Earth's core) maps to (0, 0, -EarthRadiusMeters) rather
// than dividing by zero.
func CartesianToGeodetic(v Vec3) Geographic {
	r := v.Norm()
	if r == 0 {
		return Geographic{Altitude: -EarthRadiusMeters}
	}

	return Geographic{
		Latitude:  math.Asin(v.Z/r) * RadiansToDegrees,
		Longitude: math.Atan2(v.Y, v.X) * RadiansToDegrees,
		Altitude:  r - EarthRadiusMeters,
	}
}

// HaversineMeters calculates the great-circle surface distance between two
// points using the Haversine formula. Returns distance in meters.
func HaversineMeters(from, to Geographic) float64 {
	lat1Rad := from.Latitude * DegreesToRadians
	lat2Rad := to.Latitude * DegreesToRadians
	dLat := (to.Latitude - from.Latitude) * DegreesToRadians
	dLon := (to.Longitude - from.Longitude) * DegreesToRadians

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// Distance3D calculates the straight-line distance between two positions,
// combining the great-circle surface distance with the altitude difference
// in quadrature. Returns distance in meters.
func Distance3D(from, to Geographic) float64 {
	horizontal := HaversineMeters(from, to)
	vertical := to.Altitude - from.Altitude
	return math.Sqrt(horizontal*horizontal + vertical*vertical)
}

// InitialBearing calculates the initial bearing (forward azimuth) from one
// point to another along a great circle.
// Returns bearing in degrees [0, 360), where 0 = North, 90 = East.
// Coincident points yield 0 by the atan2(0, 0) convention.
func InitialBearing(from, to Geographic) float64 {
	lat1 := from.Latitude * DegreesToRadians
	lat2 := to.Latitude * DegreesToRadians
	dLon := (to.Longitude - from.Longitude) * DegreesToRadians

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * RadiansToDegrees

	return NormalizeBearing(bearing)
}

// NormalizeBearing ensures a bearing is in the range [0, 360).
func NormalizeBearing(bearing float64) float64 {
	b := math.Mod(bearing, 360.0)
	if b < 0 {
		b += 360.0
	}
	return b
}
