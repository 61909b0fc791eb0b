package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sentryline/spc-cusum-engine/internal/api"
	"github.com/sentryline/spc-cusum-engine/internal/database"
	"github.com/sentryline/spc-cusum-engine/internal/telemetry"
	"github.com/sentryline/spc-cusum-engine/pkg/manager"
)

// checkpointInterval and recordRetention implement spec.md §5's
// background tasks: periodic state checkpoint every 24h, record log
// pruning of entries older than 30 days.
const (
	checkpointInterval = 24 * time.Hour
	recordRetention    = 30 * 24 * time.Hour
	pruneInterval      = 24 * time.Hour
)

func main() {
	var (
		dbPath = flag.String("db", "spc.db", "Path to SQLite database file")
		port   = flag.String("port", "8080", "Port to run the API server on")
	)
	flag.Parse()

	dbDir := filepath.Dir(*dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	log.Printf("Connecting to database at %s", *dbPath)
	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	configStore := database.NewConfigRepository(db)
	stateStore := database.NewStateRepository(db)
	recordLog := database.NewRecordRepository(db)

	mgr := manager.New(configStore, stateStore, recordLog)
	if err := mgr.LoadAllStates(); err != nil {
		log.Printf("Warning: failed to restore persisted detector states: %v", err)
	}

	metrics, registry := telemetry.New()

	stopBackground := make(chan struct{})
	go runCheckpointLoop(mgr, stopBackground)
	go runPruneLoop(recordLog, stopBackground)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	server := api.NewServer(mgr, recordLog, metrics, registry, *port)
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Starting SPC detection API on port %s", *port)
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		close(stopBackground)
		log.Fatalf("Server exited: %v", err)
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down", sig)
		close(stopBackground)
		if err := mgr.SaveAllStates(); err != nil {
			log.Printf("Warning: final checkpoint failed: %v", err)
		}
	}
}

// runCheckpointLoop issues a full-state checkpoint every checkpointInterval
// until stop is closed. Running detector steps are unaffected: SaveAllStates
// only reads each entry under its own per-key lock.
func runCheckpointLoop(mgr *manager.Manager, stop <-chan struct{}) {
	ticker := time.NewTicker(checkpointInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := mgr.SaveAllStates(); err != nil {
				log.Printf("periodic checkpoint failed: %v", err)
			}
		case <-stop:
			return
		}
	}
}

// runPruneLoop deletes record log entries older than recordRetention on a
// pruneInterval cadence. A prune failure is logged, never fatal: the
// record log is non-authoritative for detector correctness.
func runPruneLoop(records *database.RecordRepository, stop <-chan struct{}) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-recordRetention)
			if err := records.PruneOlderThan(cutoff); err != nil {
				log.Printf("record log prune failed: %v", err)
			}
		case <-stop:
			return
		}
	}
}
