package estimation

import (
	"math"
	"sync"

	"github.com/ben-berube/plane-tracker/pkg/coordinates"
	"github.com/ben-berube/plane-tracker/pkg/flight"
)

// Source identifies which estimation tier produced a result. Tiers are
// ordered from most direct to most heuristic; confidence never increases
// down the ladder.
type Source string

const (
	SourceUpstream     Source = "upstream"      // externally supplied prediction
	SourceMeasured     Source = "measured"      // direct baro/geo altitude
	SourceGround       Source = "ground"        // on-ground flag
	SourceFilter       Source = "filter"        // filter-only propagation
	SourceRateIntegral Source = "rate-integral" // vertical rate over history
	SourceVelocityBand Source = "velocity-band" // ground speed heuristic
	SourceFlightPhase  Source = "flight-phase"  // final phase heuristic
)

// Fixed confidence for each heuristic tier. The filter tier derives its
// confidence from the covariance, clamped between these bounds so the
// ladder stays monotonic.
const (
	MeasuredConfidence     = 1.0
	filterConfidenceCeil   = 0.8
	filterConfidenceFloor  = 0.6
	rateIntegralConfidence = 0.5
	velocityBandConfidence = 0.4
	flightPhaseConfidence  = 0.3
)

// Result is one altitude estimate with its provenance.
type Result struct {
	// Altitude in meters, always within the IsReasonable bounds.
	Altitude float64

	// Confidence in [0,1]; 1.0 denotes a direct measurement.
	Confidence float64

	// Source is the tier that produced the estimate.
	Source Source
}

// Estimator owns the per-aircraft filter states, keyed by ICAO24 address.
// Reports for a single aircraft must be serialized by the caller (one
// batch per refresh cycle); estimation for different aircraft may run
// concurrently, so the track map itself is guarded.
type Estimator struct {
	mu     sync.Mutex
	tracks map[string]*TrackState
}

// NewEstimator creates an empty estimator.
func NewEstimator() *Estimator {
	return &Estimator{tracks: make(map[string]*TrackState)}
}

// Track returns the filter state for an aircraft, creating it on first use.
func (e *Estimator) Track(icao24 string) *TrackState {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.tracks[icao24]
	if !ok {
		s = NewTrackState()
		e.tracks[icao24] = s
	}
	return s
}

// Remove retires an aircraft's filter state. Callers decide retirement
// policy (typically after a feed staleness window).
func (e *Estimator) Remove(icao24 string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.tracks, icao24)
}

// TrackCount returns the number of aircraft currently tracked.
func (e *Estimator) TrackCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tracks)
}

// Estimate produces a best-estimate altitude and confidence for a report,
// walking a strict fallback ladder. Each tier is tried only if every
// earlier tier was inapplicable, and every tier's output is gated by
// IsReasonable, so the result is always finite and in range. recent holds
// prior reports for the same aircraft, oldest first; it may be empty.
func (e *Estimator) Estimate(f *flight.Flight, recent []flight.Flight) Result {
	s := e.Track(f.ICAO24)
	now := f.ContactTime()
	rate := verticalRateOf(f)

	// Tier 1: externally supplied prediction wins outright. Feed it into
	// the filter so later filter-only predictions stay continuous.
	if f.PredictedAltitude != nil && *f.PredictedAltitude > 0 && IsReasonable(*f.PredictedAltitude) {
		alt := *f.PredictedAltitude
		s.Update(alt, rate, now)

		conf := MeasuredConfidence
		if f.AltitudeConfidence != nil {
			conf = clamp01(*f.AltitudeConfidence)
		}
		return Result{Altitude: alt, Confidence: conf, Source: SourceUpstream}
	}

	// Tier 2: direct measurement, barometric preferred.
	if f.BaroAltitude != nil && *f.BaroAltitude > 0 && IsReasonable(*f.BaroAltitude) {
		s.Update(*f.BaroAltitude, rate, now)
		return Result{Altitude: *f.BaroAltitude, Confidence: MeasuredConfidence, Source: SourceMeasured}
	}
	if f.GeoAltitude != nil && *f.GeoAltitude > 0 && IsReasonable(*f.GeoAltitude) {
		s.Update(*f.GeoAltitude, rate, now)
		return Result{Altitude: *f.GeoAltitude, Confidence: MeasuredConfidence, Source: SourceMeasured}
	}

	// Tier 3: the ground flag is definitional, not filtered.
	if f.OnGround {
		return Result{Altitude: 0, Confidence: MeasuredConfidence, Source: SourceGround}
	}

	// Tier 4: filter-only propagation from the last measurement.
	if s.hasMeasurements() {
		alt, _ := s.PredictTo(now)
		if IsReasonable(alt) {
			return Result{Altitude: alt, Confidence: filterConfidence(s), Source: SourceFilter}
		}
	}

	// Tier 5: integrate vertical rate from the most recent report that
	// carried a direct measurement.
	if alt, ok := integrateFromHistory(recent, rate); ok {
		s.Update(alt, rate, now)
		return Result{Altitude: alt, Confidence: rateIntegralConfidence, Source: SourceRateIntegral}
	}

	// Tier 6: ground speed maps to a typical altitude band.
	if f.Velocity != nil {
		alt := velocityBandAltitude(*f.Velocity)
		s.Update(alt, rate, now)
		return Result{Altitude: alt, Confidence: velocityBandConfidence, Source: SourceVelocityBand}
	}

	// Tier 7: flight-phase heuristic. Always yields an in-range value, so
	// the ladder never runs out.
	alt := phaseAltitude(recent)
	s.Update(alt, rate, now)
	return Result{Altitude: alt, Confidence: flightPhaseConfidence, Source: SourceFlightPhase}
}

// filterConfidence maps the track covariance to the filter tier's
// confidence band.
func filterConfidence(s *TrackState) float64 {
	c := s.Confidence()
	if c > filterConfidenceCeil {
		return filterConfidenceCeil
	}
	if c < filterConfidenceFloor {
		return filterConfidenceFloor
	}
	return c
}

func verticalRateOf(f *flight.Flight) float64 {
	if f.VerticalRate != nil {
		return *f.VerticalRate
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// integrateFromHistory scans prior reports, most recent first, for the
// last direct altitude measurement and extrapolates it by the vertical
// rate times the number of elapsed samples. The result is clamped at the
// surface; values above the sanity ceiling cause fallthrough.
func integrateFromHistory(recent []flight.Flight, currentRate float64) (float64, bool) {
	for i := len(recent) - 1; i >= 0; i-- {
		alt, ok := recent[i].BestAltitude()
		if !ok || alt <= 0 {
			continue
		}

		rate := currentRate
		if recent[i].VerticalRate != nil {
			rate = *recent[i].VerticalRate
		}

		elapsed := float64(len(recent) - i)
		estimate := alt + rate*elapsed
		if estimate < 0 {
			estimate = 0
		}
		if !IsReasonable(estimate) {
			return 0, false
		}
		return estimate, true
	}
	return 0, false
}

// velocityBandAltitude maps ground speed (m/s) to a typical altitude for
// that speed regime, from taxiing up through high-altitude cruise.
func velocityBandAltitude(speed float64) float64 {
	switch {
	case speed < 50:
		return 0 // ground operations
	case speed < 150:
		return 5000 // climb-out
	case speed < 250:
		return 15000
	case speed < 350:
		return 25000
	case speed < 450:
		return 35000 // typical cruise
	default:
		return 40000
	}
}

// Flight-phase altitudes for the final heuristic tier.
const (
	climbPhaseAltitude   = 20000.0
	descentPhaseAltitude = 30000.0
	cruisePhaseAltitude  = 35000.0

	// phaseDriftThreshold is the mean bearing change per sample (degrees)
	// above which the track is considered turning rather than level.
	phaseDriftThreshold = 5.0
)

// phaseAltitude is the ladder's terminal tier: classify the recent
// positional history by bearing drift and map the phase to a fixed
// altitude band. With fewer than two positioned reports it defaults to
// cruise.
func phaseAltitude(recent []flight.Flight) float64 {
	positions := make([]coordinates.Geographic, 0, len(recent))
	for i := range recent {
		if recent[i].HasPosition() {
			positions = append(positions, coordinates.Geographic{
				Latitude:  *recent[i].Latitude,
				Longitude: *recent[i].Longitude,
			})
		}
	}
	if len(positions) < 2 {
		return cruisePhaseAltitude
	}

	bearings := make([]float64, 0, len(positions)-1)
	for i := 1; i < len(positions); i++ {
		bearings = append(bearings, coordinates.InitialBearing(positions[i-1], positions[i]))
	}
	if len(bearings) < 2 {
		return cruisePhaseAltitude
	}

	drift := 0.0
	for i := 1; i < len(bearings); i++ {
		drift += signedAngleDiff(bearings[i], bearings[i-1])
	}
	drift /= float64(len(bearings) - 1)

	switch {
	case drift > phaseDriftThreshold:
		return climbPhaseAltitude
	case drift < -phaseDriftThreshold:
		return descentPhaseAltitude
	default:
		return cruisePhaseAltitude
	}
}

// signedAngleDiff returns a-b normalized to [-180, 180].
func signedAngleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 360.0)
	if d > 180 {
		d -= 360
	}
	if d < -180 {
		d += 360
	}
	return d
}
