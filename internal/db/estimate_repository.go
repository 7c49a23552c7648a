package db

import (
	"context"
	"database/sql"
	"time"
)

// Estimate is a persisted altitude estimate for one aircraft at one
// point in time.
type Estimate struct {
	ID          int64     `json:"id"`
	ICAO24      string    `json:"icao24"`
	Callsign    string    `json:"callsign,omitempty"`
	Altitude    float64   `json:"altitude_meters"`
	Confidence  float64   `json:"confidence"`
	Source      string    `json:"source"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	EstimatedAt time.Time `json:"estimated_at"`
}

// EstimateRepository provides methods for estimate history operations
type EstimateRepository struct {
	db *sql.DB
}

// NewEstimateRepository creates a new estimate repository
func NewEstimateRepository(db *sql.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

// Save inserts an estimate record, filling in its ID and timestamp.
func (r *EstimateRepository) Save(ctx context.Context, e *Estimate) error {
	query := `
		INSERT INTO altitude_estimates
			(icao24, callsign, altitude_meters, confidence, source, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, estimated_at
	`

	return r.db.QueryRowContext(
		ctx,
		query,
		e.ICAO24,
		e.Callsign,
		e.Altitude,
		e.Confidence,
		e.Source,
		e.Latitude,
		e.Longitude,
	).Scan(&e.ID, &e.EstimatedAt)
}

// Recent returns the most recent estimates for one aircraft, newest
// first, up to limit records.
func (r *EstimateRepository) Recent(ctx context.Context, icao24 string, limit int) ([]*Estimate, error) {
	query := `
		SELECT id, icao24, callsign, altitude_meters, confidence, source,
		       latitude, longitude, estimated_at
		FROM altitude_estimates
		WHERE icao24 = $1
		ORDER BY estimated_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, icao24, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEstimates(rows)
}

// Latest returns the newest estimate for each aircraft seen within
// maxAge, for status and history endpoints.
func (r *EstimateRepository) Latest(ctx context.Context, maxAge time.Duration) ([]*Estimate, error) {
	cutoff := time.Now().UTC().Add(-maxAge)

	query := `
		SELECT DISTINCT ON (icao24)
		       id, icao24, callsign, altitude_meters, confidence, source,
		       latitude, longitude, estimated_at
		FROM altitude_estimates
		WHERE estimated_at >= $1
		ORDER BY icao24, estimated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEstimates(rows)
}

func scanEstimates(rows *sql.Rows) ([]*Estimate, error) {
	var estimates []*Estimate
	for rows.Next() {
		e := &Estimate{}
		err := rows.Scan(
			&e.ID,
			&e.ICAO24,
			&e.Callsign,
			&e.Altitude,
			&e.Confidence,
			&e.Source,
			&e.Latitude,
			&e.Longitude,
			&e.EstimatedAt,
		)
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return estimates, nil
}
