// Plane Tracker API server.
// Polls the upstream flight feed, estimates altitudes, and serves the
// REST + WebSocket API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ben-berube/plane-tracker/internal/auth"
	"github.com/ben-berube/plane-tracker/internal/db"
	"github.com/ben-berube/plane-tracker/pkg/config"
	"github.com/ben-berube/plane-tracker/pkg/flight"
)

var (
	configPath = flag.String("config", "configs/config.json", "Path to configuration file")
	portFlag   = flag.Int("port", 0, "HTTP server port (overrides config)")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *portFlag != 0 {
		cfg.Server.Port = *portFlag
	}

	// Persistence is optional; the tracker runs in-memory without it.
	var database *db.DB
	if cfg.Database.Enabled() {
		database, err = db.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.InitSchema(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		cancel()
		log.Info("Connected to database")
	} else {
		log.Info("No database configured, running in-memory only")
	}

	authSvc := auth.NewService(auth.Config{
		JWTSecret:     getEnvOrDefault("JWT_SECRET", "dev-secret-change-in-production"),
		TokenDuration: time.Duration(cfg.Auth.TokenHours) * time.Hour,
	})

	source := flight.NewOpenSkyClient(cfg.Feed.BaseURL, flight.BoundingBox{
		LatMin: cfg.Feed.LatMin,
		LatMax: cfg.Feed.LatMax,
		LonMin: cfg.Feed.LonMin,
		LonMax: cfg.Feed.LonMax,
	})
	defer source.Close()

	hub := newHub(log)
	tracker := newTracker(source, hub, database, log, time.Duration(cfg.Feed.PollSeconds)*time.Second)

	srv := newServer(cfg, tracker, hub, authSvc, database, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.run(ctx)
	go tracker.run(ctx)

	go func() {
		log.Infof("Server listening on http://%s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
