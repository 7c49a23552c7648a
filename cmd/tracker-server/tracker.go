package main

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ben-berube/plane-tracker/internal/db"
	"github.com/ben-berube/plane-tracker/pkg/estimation"
	"github.com/ben-berube/plane-tracker/pkg/flight"
)

const (
	// reportHistoryCap bounds the per-aircraft report history the
	// estimation heuristics draw on.
	reportHistoryCap = 20

	// staleAfter is how long an aircraft may be absent from the feed
	// before its filter state is retired.
	staleAfter = 2 * time.Minute
)

// trackedFlight pairs the latest report with its altitude estimate.
type trackedFlight struct {
	Flight   flight.Flight     `json:"flight"`
	Estimate estimation.Result `json:"estimate"`
	SeenAt   time.Time         `json:"seen_at"`
}

// tracker owns the background poll loop: it refreshes the flight cache
// from the upstream feed, runs the altitude estimator over each report,
// and fans results out to the WebSocket hub and the database.
type tracker struct {
	source    flight.DataSource
	hub       *hub
	estimator *estimation.Estimator
	log       *logrus.Logger
	interval  time.Duration

	estimateRepo *db.EstimateRepository

	mu        sync.RWMutex
	flights   map[string]*trackedFlight
	history   map[string][]flight.Flight
	refreshed time.Time
	lastErr   error
}

func newTracker(source flight.DataSource, h *hub, database *db.DB, log *logrus.Logger, interval time.Duration) *tracker {
	t := &tracker{
		source:    source,
		hub:       h,
		estimator: estimation.NewEstimator(),
		log:       log,
		interval:  interval,
		flights:   make(map[string]*trackedFlight),
		history:   make(map[string][]flight.Flight),
	}
	if database != nil {
		t.estimateRepo = db.NewEstimateRepository(database.DB)
	}
	return t
}

// run polls the feed until the context is cancelled. The first refresh
// happens immediately so the API has data as soon as the feed answers.
func (t *tracker) run(ctx context.Context) {
	t.refresh(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.refresh(ctx)
		}
	}
}

func (t *tracker) refresh(ctx context.Context) {
	flights, err := flight.RetryWithBackoff(ctx, flight.DefaultRetryConfig(), func() ([]flight.Flight, error) {
		return t.source.GetFlights(ctx)
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		t.log.WithError(err).Warn("Flight refresh failed")
		t.mu.Lock()
		t.lastErr = err
		t.mu.Unlock()
		return
	}

	now := time.Now().UTC()

	t.mu.Lock()
	t.lastErr = nil
	t.refreshed = now

	seen := make(map[string]bool, len(flights))
	for i := range flights {
		f := flights[i]
		seen[f.ICAO24] = true

		est := t.estimator.Estimate(&f, t.history[f.ICAO24])

		t.flights[f.ICAO24] = &trackedFlight{
			Flight:   f,
			Estimate: est,
			SeenAt:   now,
		}

		h := append(t.history[f.ICAO24], f)
		if len(h) > reportHistoryCap {
			h = h[len(h)-reportHistoryCap:]
		}
		t.history[f.ICAO24] = h
	}

	// Retire aircraft that have left the feed.
	for icao, tf := range t.flights {
		if seen[icao] || now.Sub(tf.SeenAt) < staleAfter {
			continue
		}
		delete(t.flights, icao)
		delete(t.history, icao)
		t.estimator.Remove(icao)
	}

	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	t.log.WithFields(logrus.Fields{
		"flights": len(flights),
		"tracked": len(snapshot),
	}).Debug("Flight cache refreshed")

	t.hub.broadcastFlights(snapshot)
	t.persist(ctx, snapshot)
}

// persist writes the latest estimates to the database, when configured.
// Persistence failures are logged, never fatal.
func (t *tracker) persist(ctx context.Context, snapshot []*trackedFlight) {
	if t.estimateRepo == nil {
		return
	}

	for _, tf := range snapshot {
		e := &db.Estimate{
			ICAO24:     tf.Flight.ICAO24,
			Callsign:   tf.Flight.Callsign,
			Altitude:   tf.Estimate.Altitude,
			Confidence: tf.Estimate.Confidence,
			Source:     string(tf.Estimate.Source),
			Latitude:   tf.Flight.Latitude,
			Longitude:  tf.Flight.Longitude,
		}
		if err := t.estimateRepo.Save(ctx, e); err != nil {
			t.log.WithError(err).WithField("icao24", e.ICAO24).Warn("Failed to persist estimate")
			return
		}
	}
}

// snapshot returns the current tracked flights, unordered.
func (t *tracker) snapshot() []*trackedFlight {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *tracker) snapshotLocked() []*trackedFlight {
	out := make([]*trackedFlight, 0, len(t.flights))
	for _, tf := range t.flights {
		out = append(out, tf)
	}
	return out
}

// get returns one tracked flight, nil if the aircraft is unknown.
func (t *tracker) get(icao24 string) *trackedFlight {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.flights[icao24]
}

// status describes the tracker's health for the status endpoint.
type trackerStatus struct {
	TrackedFlights int       `json:"tracked_flights"`
	LastRefresh    time.Time `json:"last_refresh"`
	LastError      string    `json:"last_error,omitempty"`
	PollSeconds    float64   `json:"poll_seconds"`
}

func (t *tracker) status() trackerStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := trackerStatus{
		TrackedFlights: len(t.flights),
		LastRefresh:    t.refreshed,
		PollSeconds:    t.interval.Seconds(),
	}
	if t.lastErr != nil {
		s.LastError = t.lastErr.Error()
	}
	return s
}
