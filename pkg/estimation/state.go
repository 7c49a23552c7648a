// Package estimation produces best-estimate altitudes with confidence
// scores for tracked aircraft, even when direct measurements are missing.
//
// Each aircraft carries a small recursive filter over the state vector
// [altitude, verticalRate]. The filter is deliberately simplified: a
// constant-velocity propagation step followed by direct assignment of the
// incoming measurement, with the covariance inflated additively by fixed
// process noise. No innovation-weighted gain is computed. The covariance
// still feeds the confidence score, and the exact output sequence is
// pinned by tests.
package estimation

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

const (
	// MaxReasonableAltitude is the upper bound of the sanity gate, meters.
	MaxReasonableAltitude = 50000.0

	// measurementHistoryCap bounds the per-track measurement ring.
	measurementHistoryCap = 20

	// initialAltitude seeds a fresh track at a typical cruise altitude.
	initialAltitude = 35000.0

	// Initial state uncertainty (variance) for altitude and vertical rate.
	initialAltitudeVariance = 1000.0
	initialRateVariance     = 100.0

	// Process noise added to the covariance diagonal on every propagation.
	processNoiseAltitude = 1.0
	processNoiseRate     = 0.1
)

// IsReasonable reports whether an altitude passes the universal sanity
// gate applied across every estimation tier: 0 ≤ altitude ≤ 50000 m.
func IsReasonable(altitude float64) bool {
	return altitude >= 0 && altitude <= MaxReasonableAltitude
}

// Measurement is one entry of a track's bounded measurement history.
type Measurement struct {
	Time         time.Time
	Altitude     float64
	VerticalRate float64
}

// TrackState is the per-aircraft filter state. It is owned exclusively by
// the Estimator's track map and mutated only on that aircraft's update
// path; callers never hold one across updates.
type TrackState struct {
	// state is the 2-vector [altitude, verticalRate].
	state *mat.VecDense

	// cov is the 2×2 state covariance.
	cov *mat.Dense

	// lastUpdate is the time of the last measurement assignment.
	// Zero until the first measurement arrives.
	lastUpdate time.Time

	// history is the bounded ring of recent measurements, oldest first.
	history []Measurement
}

// NewTrackState creates a fresh track seeded at cruise altitude with the
// initial uncertainty.
func NewTrackState() *TrackState {
	return &TrackState{
		state: mat.NewVecDense(2, []float64{initialAltitude, 0}),
		cov: mat.NewDense(2, 2, []float64{
			initialAltitudeVariance, 0,
			0, initialRateVariance,
		}),
	}
}

// Altitude returns the current altitude estimate.
func (s *TrackState) Altitude() float64 {
	return s.state.AtVec(0)
}

// VerticalRate returns the current vertical rate estimate.
func (s *TrackState) VerticalRate() float64 {
	return s.state.AtVec(1)
}

// LastUpdate returns the time of the last measurement, zero if none.
func (s *TrackState) LastUpdate() time.Time {
	return s.lastUpdate
}

// History returns the bounded measurement ring, oldest first. The returned
// slice aliases internal storage and must not be mutated.
func (s *TrackState) History() []Measurement {
	return s.history
}

// hasMeasurements reports whether the filter has been fed at least once.
// A track that has never seen a measurement still holds the cruise seed,
// which must not masquerade as a filtered prediction.
func (s *TrackState) hasMeasurements() bool {
	return !s.lastUpdate.IsZero()
}

// propagate advances the state by dt seconds using the constant-velocity
// transition F = [[1, dt], [0, 1]] and inflates the covariance additively
// with the fixed process noise.
func (s *TrackState) propagate(dt float64) {
	f := mat.NewDense(2, 2, []float64{
		1, dt,
		0, 1,
	})

	var next mat.VecDense
	next.MulVec(f, s.state)
	s.state.CopyVec(&next)

	// cov = F·cov·Fᵀ + Q
	var fp, fpft mat.Dense
	fp.Mul(f, s.cov)
	fpft.Mul(&fp, f.T())
	fpft.Set(0, 0, fpft.At(0, 0)+processNoiseAltitude)
	fpft.Set(1, 1, fpft.At(1, 1)+processNoiseRate)
	s.cov.Copy(&fpft)
}

// Update feeds a measurement into the filter at the given time: propagate
// by the elapsed interval, then directly assign the measured values over
// the propagated state, and record the measurement in the bounded ring.
func (s *TrackState) Update(altitude, verticalRate float64, now time.Time) {
	dt := 1.0
	if s.hasMeasurements() {
		dt = now.Sub(s.lastUpdate).Seconds()
		if dt < 0 {
			dt = 0
		}
	}

	s.propagate(dt)

	// Direct assignment, not a gain-weighted update.
	s.state.SetVec(0, altitude)
	s.state.SetVec(1, verticalRate)

	s.history = append(s.history, Measurement{
		Time:         now,
		Altitude:     altitude,
		VerticalRate: verticalRate,
	})
	if len(s.history) > measurementHistoryCap {
		// Evict oldest
		s.history = s.history[len(s.history)-measurementHistoryCap:]
	}

	s.lastUpdate = now
}

// PredictTo propagates the state forward to the given time without a
// measurement and returns the predicted altitude and vertical rate. The
// state and timestamp advance so repeated prediction does not re-apply
// the same interval.
func (s *TrackState) PredictTo(now time.Time) (altitude, verticalRate float64) {
	dt := now.Sub(s.lastUpdate).Seconds()
	if dt < 0 {
		dt = 0
	}

	s.propagate(dt)
	s.lastUpdate = now

	return s.state.AtVec(0), s.state.AtVec(1)
}

// Confidence derives a confidence score in [0,1] from the altitude
// variance: full confidence at zero variance, none at 1000 m² and above.
func (s *TrackState) Confidence() float64 {
	variance := s.cov.At(0, 0)
	c := 1.0 - variance/1000.0
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// Reset returns the track to its initial seed state.
func (s *TrackState) Reset() {
	s.state.SetVec(0, initialAltitude)
	s.state.SetVec(1, 0)
	s.cov.Set(0, 0, initialAltitudeVariance)
	s.cov.Set(0, 1, 0)
	s.cov.Set(1, 0, 0)
	s.cov.Set(1, 1, initialRateVariance)
	s.lastUpdate = time.Time{}
	s.history = nil
}
