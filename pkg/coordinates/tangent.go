package coordinates

import "math"

// TangentPlane is a local flat-Earth approximation frame centered on a
// chosen origin (typically the viewer's position). It is used for
// short-range relative placement of overlay points, where the
// equirectangular approximation is accurate enough and much cheaper than
// a full geodetic transform.
//
// Axes: X = east offset, Y = altitude offset (scaled), Z = north offset.
type TangentPlane struct {
	// Origin is the center of the local frame.
	Origin Geographic

	// AltitudeScale multiplies the altitude offset. Renderers use values
	// below 1 to compress vertical separation into the visible scene; 1
	// keeps true meters.
	AltitudeScale float64

	// metersPerDegreeLon is precomputed from the origin latitude.
	metersPerDegreeLon float64
}

// NewTangentPlane creates a local tangent-plane frame centered on origin.
//
// The longitude scale is derived from the origin latitude
// (111,320·cos(lat) meters per degree) rather than a fixed constant, so
// the frame stays geometrically correct away from mid latitudes.
func NewTangentPlane(origin Geographic, altitudeScale float64) TangentPlane {
	return TangentPlane{
		Origin:             origin,
		AltitudeScale:      altitudeScale,
		metersPerDegreeLon: MetersPerDegreeLongitudeEquator * math.Cos(origin.Latitude*DegreesToRadians),
	}
}

// ToLocal converts a geographic position to an offset in the local frame.
func (p TangentPlane) ToLocal(g Geographic) Vec3 {
	return Vec3{
		X: (g.Longitude - p.Origin.Longitude) * p.metersPerDegreeLon,
		Y: (g.Altitude - p.Origin.Altitude) * p.AltitudeScale,
		Z: (g.Latitude - p.Origin.Latitude) * MetersPerDegreeLatitude,
	}
}

// FromLocal converts a local-frame offset back to a geographic position.
// Inverse of ToLocal. A frame at a pole has a zero longitude scale; the
// longitude offset is then dropped rather than divided by zero.
func (p TangentPlane) FromLocal(v Vec3) Geographic {
	lon := p.Origin.Longitude
	if p.metersPerDegreeLon != 0 {
		lon += v.X / p.metersPerDegreeLon
	}

	alt := p.Origin.Altitude
	if p.AltitudeScale != 0 {
		alt += v.Y / p.AltitudeScale
	}

	return Geographic{
		Latitude:  p.Origin.Latitude + v.Z/MetersPerDegreeLatitude,
		Longitude: lon,
		Altitude:  alt,
	}
}
