package trajectory

import "math"

// Stats summarizes a predicted trajectory for presentation and decision
// purposes. All values are derived, stateless, and recomputed per call.
type Stats struct {
	// TotalDistance is the 3D distance in meters from the current
	// position to the final forecast point.
	TotalDistance float64 `json:"total_distance"`

	// AverageSpeed is TotalDistance over the forecast horizon, m/s.
	AverageSpeed float64 `json:"average_speed"`

	// MaxAltitude and MinAltitude bound the forecast, meters.
	MaxAltitude float64 `json:"max_altitude"`
	MinAltitude float64 `json:"min_altitude"`

	// AltitudeRange is MaxAltitude - MinAltitude.
	AltitudeRange float64 `json:"altitude_range"`

	// AverageBearingChange is the mean absolute change between
	// consecutive point bearings, degrees. Zero for fewer than two
	// points.
	AverageBearingChange float64 `json:"average_bearing_change"`
}

// Statistics derives aggregate statistics from a trajectory. An empty
// trajectory yields the zero Stats; no input divides by zero.
func Statistics(points []Point) Stats {
	if len(points) == 0 {
		return Stats{}
	}

	last := points[len(points)-1]
	s := Stats{
		TotalDistance: last.DistanceFromCurrent,
		MaxAltitude:   points[0].Altitude,
		MinAltitude:   points[0].Altitude,
	}

	if last.TimeOffset > 0 {
		s.AverageSpeed = last.DistanceFromCurrent / last.TimeOffset
	}

	for _, p := range points {
		if p.Altitude > s.MaxAltitude {
			s.MaxAltitude = p.Altitude
		}
		if p.Altitude < s.MinAltitude {
			s.MinAltitude = p.Altitude
		}
	}
	s.AltitudeRange = s.MaxAltitude - s.MinAltitude

	if len(points) >= 2 {
		sum := 0.0
		for i := 1; i < len(points); i++ {
			sum += math.Abs(bearingDiff(points[i].Bearing, points[i-1].Bearing))
		}
		s.AverageBearingChange = sum / float64(len(points)-1)
	}

	return s
}

// bearingDiff returns a-b normalized to [-180, 180] so wraparound at
// north does not inflate the change.
func bearingDiff(a, b float64) float64 {
	d := math.Mod(a-b, 360.0)
	if d > 180 {
		d -= 360
	}
	if d < -180 {
		d += 360
	}
	return d
}
