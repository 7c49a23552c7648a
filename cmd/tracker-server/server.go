package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/ben-berube/plane-tracker/internal/auth"
	"github.com/ben-berube/plane-tracker/internal/db"
	"github.com/ben-berube/plane-tracker/pkg/config"
	"github.com/ben-berube/plane-tracker/pkg/coordinates"
	"github.com/ben-berube/plane-tracker/pkg/estimation"
	"github.com/ben-berube/plane-tracker/pkg/flight"
	"github.com/ben-berube/plane-tracker/pkg/trajectory"
)

// server wires the HTTP API to the tracker, the hub and the optional
// database.
type server struct {
	router  *chi.Mux
	cfg     *config.Config
	tracker *tracker
	hub     *hub
	authSvc *auth.Service
	log     *logrus.Logger

	userRepo     *db.UserRepository
	estimateRepo *db.EstimateRepository
	database     *db.DB
}

func newServer(cfg *config.Config, t *tracker, h *hub, authSvc *auth.Service, database *db.DB, log *logrus.Logger) *server {
	s := &server{
		router:   chi.NewRouter(),
		cfg:      cfg,
		tracker:  t,
		hub:      h,
		authSvc:  authSvc,
		log:      log,
		database: database,
	}
	if database != nil {
		s.userRepo = db.NewUserRepository(database.DB)
		s.estimateRepo = db.NewEstimateRepository(database.DB)
	}
	s.setupRoutes()
	return s
}

func (s *server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Get("/flights", s.handleGetFlights)
		r.Get("/flights/stats", s.handleGetFlightStats)
		r.Get("/flights/{icao}", s.handleGetFlight)
		r.Get("/flights/{icao}/altitude", s.handleGetAltitude)
		r.Get("/flights/{icao}/trajectory", s.handleGetTrajectory)

		r.Get("/status", s.handleGetStatus)
		r.Get("/rate-limit", s.handleGetRateLimit)

		// History endpoints need the database and a valid token.
		r.Group(func(r chi.Router) {
			r.Use(s.authSvc.Middleware)
			r.Get("/history/{icao}", s.handleGetHistory)
			r.Get("/db/stats", s.handleGetDBStats)
		})
	})

	r.Get("/ws", s.hub.serveWS)
}

// flightJSON is the wire representation of one tracked flight.
type flightJSON struct {
	ICAO24        string   `json:"icao24"`
	Callsign      string   `json:"callsign"`
	OriginCountry string   `json:"origin_country"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	BaroAltitude  *float64 `json:"baro_altitude"`
	GeoAltitude   *float64 `json:"geo_altitude"`
	Velocity      *float64 `json:"velocity"`
	TrueTrack     *float64 `json:"true_track"`
	VerticalRate  *float64 `json:"vertical_rate"`
	OnGround      bool     `json:"on_ground"`
	LastContact   int64    `json:"last_contact"`

	EstimatedAltitude  float64 `json:"estimated_altitude"`
	AltitudeConfidence float64 `json:"altitude_confidence"`
	AltitudeSource     string  `json:"altitude_source"`
}

func toFlightJSON(tf *trackedFlight) flightJSON {
	f := &tf.Flight
	return flightJSON{
		ICAO24:        f.ICAO24,
		Callsign:      f.Callsign,
		OriginCountry: f.OriginCountry,
		Latitude:      f.Latitude,
		Longitude:     f.Longitude,
		BaroAltitude:  f.BaroAltitude,
		GeoAltitude:   f.GeoAltitude,
		Velocity:      f.Velocity,
		TrueTrack:     f.TrueTrack,
		VerticalRate:  f.VerticalRate,
		OnGround:      f.OnGround,
		LastContact:   f.LastContact,

		EstimatedAltitude:  tf.Estimate.Altitude,
		AltitudeConfidence: tf.Estimate.Confidence,
		AltitudeSource:     string(tf.Estimate.Source),
	}
}

func flightsJSON(snapshot []*trackedFlight) []flightJSON {
	out := make([]flightJSON, len(snapshot))
	for i, tf := range snapshot {
		out[i] = toFlightJSON(tf)
	}
	return out
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.userRepo == nil {
		http.Error(w, "Persistence is not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := s.userRepo.GetByUsername(r.Context(), req.Username)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := s.authSvc.CheckPassword(user.PasswordHash, req.Password); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		http.Error(w, "Account is disabled", http.StatusForbidden)
		return
	}

	token, err := s.authSvc.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	_ = s.userRepo.UpdateLastLogin(r.Context(), user.ID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user": map[string]interface{}{
			"id":       user.ID,
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

func (s *server) handleGetFlights(w http.ResponseWriter, r *http.Request) {
	snapshot := s.tracker.snapshot()

	q := r.URL.Query()
	if q.Get("min_altitude") != "" || q.Get("max_altitude") != "" || q.Get("airline") != "" {
		minAlt, err := queryFloat(r, "min_altitude", 0)
		if err != nil {
			http.Error(w, "Invalid min_altitude parameter", http.StatusBadRequest)
			return
		}
		maxAlt, err := queryFloat(r, "max_altitude", estimation.MaxReasonableAltitude)
		if err != nil {
			http.Error(w, "Invalid max_altitude parameter", http.StatusBadRequest)
			return
		}

		flights := make([]flight.Flight, len(snapshot))
		byICAO := make(map[string]*trackedFlight, len(snapshot))
		for i, tf := range snapshot {
			flights[i] = tf.Flight
			byICAO[tf.Flight.ICAO24] = tf
		}

		flights = flight.FilterByAltitude(flights, minAlt, maxAlt)
		if airlines := q.Get("airline"); airlines != "" {
			flights = flight.FilterByAirline(flights, strings.Split(airlines, ","))
		}

		snapshot = make([]*trackedFlight, len(flights))
		for i := range flights {
			snapshot[i] = byICAO[flights[i].ICAO24]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"flights": flightsJSON(snapshot),
		"count":   len(snapshot),
	})
}

func (s *server) handleGetFlightStats(w http.ResponseWriter, r *http.Request) {
	snapshot := s.tracker.snapshot()

	flights := make([]flight.Flight, len(snapshot))
	for i, tf := range snapshot {
		flights[i] = tf.Flight
	}

	respondJSON(w, http.StatusOK, flight.ComputeStatistics(flights))
}

func (s *server) handleGetFlight(w http.ResponseWriter, r *http.Request) {
	tf := s.tracker.get(chi.URLParam(r, "icao"))
	if tf == nil {
		http.Error(w, "Aircraft not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, toFlightJSON(tf))
}

func (s *server) handleGetAltitude(w http.ResponseWriter, r *http.Request) {
	tf := s.tracker.get(chi.URLParam(r, "icao"))
	if tf == nil {
		http.Error(w, "Aircraft not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"icao24":     tf.Flight.ICAO24,
		"altitude":   tf.Estimate.Altitude,
		"confidence": tf.Estimate.Confidence,
		"source":     string(tf.Estimate.Source),
	})
}

func (s *server) handleGetTrajectory(w http.ResponseWriter, r *http.Request) {
	tf := s.tracker.get(chi.URLParam(r, "icao"))
	if tf == nil {
		http.Error(w, "Aircraft not found", http.StatusNotFound)
		return
	}

	duration, err := queryFloat(r, "time", trajectory.DefaultDuration)
	if err != nil {
		http.Error(w, "Invalid time parameter", http.StatusBadRequest)
		return
	}
	step, err := queryFloat(r, "step", trajectory.DefaultStep)
	if err != nil {
		http.Error(w, "Invalid step parameter", http.StatusBadRequest)
		return
	}

	// Predict against the estimated altitude when the report itself
	// carries none.
	f := tf.Flight
	if _, ok := f.BestAltitude(); !ok {
		alt := tf.Estimate.Altitude
		f.BaroAltitude = &alt
	}

	points := trajectory.Predict(&f, duration, step)

	if r.URL.Query().Get("fov") == "true" && f.HasPosition() {
		observer := coordinates.Geographic{
			Latitude:  s.cfg.Observer.Latitude,
			Longitude: s.cfg.Observer.Longitude,
			Altitude:  s.cfg.Observer.Elevation,
		}
		target := coordinates.Geographic{
			Latitude:  *f.Latitude,
			Longitude: *f.Longitude,
			Altitude:  tf.Estimate.Altitude,
		}
		frustum := trajectory.FrustumForObserver(observer, target, s.cfg.Observer.HalfFOVDegrees)
		points = trajectory.FilterByView(points, frustum)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"icao24": tf.Flight.ICAO24,
		"points": points,
		"count":  len(points),
		"stats":  trajectory.Statistics(points),
	})
}

func (s *server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tracker":  s.tracker.status(),
		"database": s.database != nil,
		"time":     time.Now().UTC(),
	})
}

func (s *server) handleGetRateLimit(w http.ResponseWriter, r *http.Request) {
	st := s.tracker.status()

	// OpenSky anonymous access allows roughly one request every ten
	// seconds; the poller and its client-side limiter stay under that.
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"upstream_interval_seconds": 10.0,
		"poll_interval_seconds":     st.PollSeconds,
		"last_refresh":              st.LastRefresh,
		"last_error":                st.LastError,
	})
}

func (s *server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.estimateRepo == nil {
		http.Error(w, "Persistence is not configured", http.StatusServiceUnavailable)
		return
	}

	icao := chi.URLParam(r, "icao")

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}

	estimates, err := s.estimateRepo.Recent(r.Context(), icao, limit)
	if err != nil {
		s.log.WithError(err).Error("Failed to load estimate history")
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"icao24":    icao,
		"estimates": estimates,
		"count":     len(estimates),
	})
}

func (s *server) handleGetDBStats(w http.ResponseWriter, r *http.Request) {
	if s.database == nil {
		http.Error(w, "Persistence is not configured", http.StatusServiceUnavailable)
		return
	}

	stats, err := s.database.GetStats(r.Context())
	if err != nil {
		s.log.WithError(err).Error("Failed to load database stats")
		http.Error(w, "Failed to load stats", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
