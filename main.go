package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "spaceblaster:", err)
		os.Exit(1)
	}
}

// loadConfig reads the optional config file and applies explicitly set flags
func loadConfig(args []string) (Config, error) {
	fset := flag.NewFlagSet("spaceblaster", flag.ContinueOnError)
	configPath := fset.String("config", "", "Path to YAML config file")
	addr := fset.String("addr", "", "HTTP listen address")
	clientDir := fset.String("client", "", "Path to client directory (default: ../client)")
	dbPath := fset.String("db", "", "SQLite database path, empty string disables persistence")
	publicURL := fset.String("public-url", "", "Base URL used in controller QR codes")
	logLevel := fset.String("log-level", "", "Log level (debug, info, warn, error)")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return cfg, err
	}
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "client":
			cfg.ClientDir = *clientDir
		case "db":
			cfg.DBPath = *dbPath
		case "public-url":
			cfg.PublicURL = *publicURL
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	if cfg.ClientDir == DefaultConfig().ClientDir {
		exe, _ := os.Executable()
		dir := filepath.Join(filepath.Dir(exe), "..", "client")
		if _, err := os.Stat(dir); err == nil {
			cfg.ClientDir = dir
		}
	}
	return cfg, cfg.Validate()
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	log, err := NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		db   *DB
		auth *Auth
	)
	if cfg.DBPath != "" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		auth = NewAuth(db, log.Named("auth"))
	} else {
		log.Warn("running without a database, runs and accounts are not kept")
	}
	analytics := NewAnalytics(db, log.Named("analytics"))

	sessions := NewSessionManager(ctx, SessionOptions{
		MaxSessions: cfg.MaxSessions,
		IdleTimeout: cfg.IdleTimeout,
		TickRate:    cfg.TickRate,
		MaxDelta:    cfg.MaxFrameDelta,
		Drops:       cfg.PowerupDrops,
	}, db, analytics, log.Named("sessions"))
	hub := NewHub(sessions, db, auth, analytics, log.Named("hub"))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           SetupRoutes(hub, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// analytics outlives the sessions so their final events are written
	analyticsCtx, stopAnalytics := context.WithCancel(context.Background())
	defer stopAnalytics()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return sessions.RunReaper(gctx) })
	g.Go(func() error { return analytics.Run(analyticsCtx) })
	g.Go(func() error {
		log.Info("server starting", zap.String("addr", cfg.Addr), zap.String("client", cfg.ClientDir))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return shutdown(shutdownCtx, server, sessions, stopAnalytics)
	})
	return g.Wait()
}

// shutdown stops accepting connections, then stops every session, then lets
// the analytics writer drain.
func shutdown(ctx context.Context, server *http.Server, sessions *SessionManager, stopAnalytics context.CancelFunc) error {
	err := server.Shutdown(ctx)
	sessions.StopAll()
	stopAnalytics()
	return err
}
