package trajectory

import (
	"math"

	"github.com/ben-berube/plane-tracker/pkg/coordinates"
)

// ViewFrustum describes a viewer for visibility filtering: a position in
// the Earth-centered frame, a forward direction, and the half-angle of
// the field of view. It is consumed read-only.
type ViewFrustum struct {
	// Position of the viewer in Earth-centered Cartesian coordinates.
	Position coordinates.Vec3

	// Forward is the viewing direction. It does not need to be
	// pre-normalized.
	Forward coordinates.Vec3

	// HalfFOVDegrees is the half-angle of the view cone. 180 degrees
	// degenerates to a full sphere and keeps everything.
	HalfFOVDegrees float64
}

// FrustumForObserver builds a view frustum from an observer's geographic
// position looking toward a target bearing and elevation. Convenience for
// callers that know the viewer in geodetic terms.
func FrustumForObserver(observer coordinates.Geographic, target coordinates.Geographic, halfFovDegrees float64) ViewFrustum {
	pos := coordinates.GeodeticToCartesian(observer)
	return ViewFrustum{
		Position:       pos,
		Forward:        coordinates.GeodeticToCartesian(target).Sub(pos),
		HalfFOVDegrees: halfFovDegrees,
	}
}

// FilterByView returns the trajectory points that fall inside the view
// cone: those whose angle between (point − viewer) and the forward
// direction is at most the half field of view.
//
// Degenerate geometry never produces NaN: a point coincident with the
// viewer, or a zero forward vector, is treated as visible.
func FilterByView(points []Point, view ViewFrustum) []Point {
	forward := view.Forward.Normalize()

	visible := make([]Point, 0, len(points))
	for _, p := range points {
		pos := coordinates.GeodeticToCartesian(coordinates.Geographic{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Altitude:  p.Altitude,
		})

		if angleBetween(pos.Sub(view.Position), forward) <= view.HalfFOVDegrees {
			visible = append(visible, p)
		}
	}

	return visible
}

// angleBetween returns the angle in degrees between two vectors.
// Zero-length inputs yield 0 rather than NaN.
func angleBetween(a, b coordinates.Vec3) float64 {
	an := a.Normalize()
	bn := b.Normalize()
	if an.Norm() == 0 || bn.Norm() == 0 {
		return 0
	}

	dot := an.Dot(bn)
	// Floating point can push the dot product just outside [-1, 1]
	if dot > 1 {
		dot = 1
	}
	if dot < -1 {
		dot = -1
	}

	return math.Acos(dot) * coordinates.RadiansToDegrees
}
