package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ben-berube/plane-tracker/pkg/config"
	"github.com/ben-berube/plane-tracker/pkg/coordinates"
	"github.com/ben-berube/plane-tracker/pkg/estimation"
	"github.com/ben-berube/plane-tracker/pkg/flight"
	"github.com/ben-berube/plane-tracker/pkg/trajectory"
)

// main implements a one-shot tracking run for a single aircraft:
// fetch its current state from the feed, estimate its altitude, and
// print a short-horizon trajectory forecast.
func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	icao := flag.String("icao", "", "ICAO24 hex address of the aircraft (e.g., a12345)")
	horizon := flag.Float64("time", trajectory.DefaultDuration, "Forecast horizon in seconds")
	step := flag.Float64("step", trajectory.DefaultStep, "Sampling interval in seconds")
	fov := flag.Bool("fov", false, "Only print forecast points inside the observer's field of view")
	list := flag.Bool("list", false, "List tracked aircraft in the configured region and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client := flight.NewOpenSkyClient(cfg.Feed.BaseURL, flight.BoundingBox{
		LatMin: cfg.Feed.LatMin,
		LatMax: cfg.Feed.LatMax,
		LonMin: cfg.Feed.LonMin,
		LonMax: cfg.Feed.LonMax,
	})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *list {
		listFlights(ctx, client)
		return
	}

	if *icao == "" {
		log.Fatal("Error: -icao is required (or use -list to see tracked aircraft)")
	}

	f, err := flight.RetryWithBackoff(ctx, flight.DefaultRetryConfig(), func() (*flight.Flight, error) {
		return client.GetFlight(ctx, *icao)
	})
	if err != nil {
		log.Fatalf("Failed to fetch flight data: %v", err)
	}
	if f == nil {
		log.Fatalf("Aircraft %s is not currently tracked in the configured region", *icao)
	}

	printFlight(f)

	estimator := estimation.NewEstimator()
	est := estimator.Estimate(f, nil)
	fmt.Printf("\nEstimated altitude: %.0fm (confidence %.2f, source %s)\n",
		est.Altitude, est.Confidence, est.Source)

	// Forecast against the estimate when the feed reported no altitude.
	if _, ok := f.BestAltitude(); !ok {
		alt := est.Altitude
		f.BaroAltitude = &alt
	}

	points := trajectory.Predict(f, *horizon, *step)
	if len(points) == 0 {
		log.Fatal("No position fix; cannot forecast a trajectory")
	}

	if *fov {
		observer := coordinates.Geographic{
			Latitude:  cfg.Observer.Latitude,
			Longitude: cfg.Observer.Longitude,
			Altitude:  cfg.Observer.Elevation,
		}
		target := coordinates.Geographic{
			Latitude:  *f.Latitude,
			Longitude: *f.Longitude,
			Altitude:  est.Altitude,
		}
		frustum := trajectory.FrustumForObserver(observer, target, cfg.Observer.HalfFOVDegrees)
		points = trajectory.FilterByView(points, frustum)
		fmt.Printf("\nForecast (%d points within %.0f° of the observer's view):\n",
			len(points), cfg.Observer.HalfFOVDegrees)
	} else {
		fmt.Printf("\nForecast (%d points over %.0fs):\n", len(points), *horizon)
	}

	for _, p := range points {
		fmt.Printf("  t=%5.1fs  lat=%9.4f  lon=%9.4f  alt=%7.0fm  dist=%7.0fm  brg=%5.1f°\n",
			p.TimeOffset, p.Latitude, p.Longitude, p.Altitude, p.DistanceFromCurrent, p.Bearing)
	}

	stats := trajectory.Statistics(points)
	fmt.Printf("\nTotal distance: %.0fm  avg speed: %.1fm/s  altitude range: %.0fm (%.0f-%.0fm)\n",
		stats.TotalDistance, stats.AverageSpeed, stats.AltitudeRange,
		stats.MinAltitude, stats.MaxAltitude)
}

func listFlights(ctx context.Context, client *flight.OpenSkyClient) {
	flights, err := flight.RetryWithBackoff(ctx, flight.DefaultRetryConfig(), func() ([]flight.Flight, error) {
		return client.GetFlights(ctx)
	})
	if err != nil {
		log.Fatalf("Failed to fetch flight data: %v", err)
	}

	fmt.Printf("%d aircraft tracked:\n", len(flights))
	for i := range flights {
		f := &flights[i]
		alt := "      -"
		if a, ok := f.BestAltitude(); ok {
			alt = fmt.Sprintf("%6.0fm", a)
		}
		fmt.Printf("  %s  %-8s %s  %s\n", f.ICAO24, f.Callsign, alt, f.OriginCountry)
	}

	stats := flight.ComputeStatistics(flights)
	if stats.TotalFlights > 0 {
		fmt.Printf("\nAltitude: %.0f-%.0fm (avg %.0fm)  velocity: %.0f-%.0fm/s (avg %.0fm/s)\n",
			stats.AltitudeStats.Min, stats.AltitudeStats.Max, stats.AltitudeStats.Avg,
			stats.VelocityStats.Min, stats.VelocityStats.Max, stats.VelocityStats.Avg)
	}
}

func printFlight(f *flight.Flight) {
	fmt.Printf("Aircraft %s (%s) from %s\n", f.ICAO24, f.Callsign, f.OriginCountry)
	if f.HasPosition() {
		fmt.Printf("  Position:      %.4f, %.4f\n", *f.Latitude, *f.Longitude)
	}
	if f.BaroAltitude != nil {
		fmt.Printf("  Baro altitude: %.0fm\n", *f.BaroAltitude)
	}
	if f.GeoAltitude != nil {
		fmt.Printf("  Geo altitude:  %.0fm\n", *f.GeoAltitude)
	}
	if f.Velocity != nil {
		fmt.Printf("  Ground speed:  %.1fm/s\n", *f.Velocity)
	}
	if f.TrueTrack != nil {
		fmt.Printf("  Track:         %.1f°\n", *f.TrueTrack)
	}
	if f.VerticalRate != nil {
		fmt.Printf("  Vertical rate: %.1fm/s\n", *f.VerticalRate)
	}
	fmt.Printf("  Last contact:  %s\n", f.ContactTime().Format(time.RFC3339))
}
