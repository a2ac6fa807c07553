// beacond is the telemetry collector daemon.
//
// Producers hold a persistent connection and stream samples; beacond
// records them in an embedded SQLite database and answers statistics
// requests with per-client rolling-window aggregates.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xtxerr/beacon/internal/archive"
	"github.com/xtxerr/beacon/internal/handler"
	"github.com/xtxerr/beacon/internal/loader"
	"github.com/xtxerr/beacon/internal/logging"
	"github.com/xtxerr/beacon/internal/metrics"
	"github.com/xtxerr/beacon/internal/server"
	"github.com/xtxerr/beacon/internal/stats"
	"github.com/xtxerr/beacon/internal/store"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// CLI flags
	cfgPath := flag.String("config", "config.yaml", "config file path")
	listen := flag.String("listen", "", "listen address (overrides config)")
	dbPath := flag.String("db", "", "database path (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", false, "log in JSON format")
	export := flag.String("export", "", "dump stored samples to a Parquet file and exit")
	flag.Parse()

	// Load config
	cfg, err := loader.Load(*cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = loader.DefaultConfig()
		} else {
			logging.Init(logging.ParseLevel("info"), *logJSON)
			logging.Logger.Error("load config", "path", *cfgPath, "error", err)
			os.Exit(1)
		}
	}

	// CLI overrides
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logJSON {
		cfg.Log.JSON = true
	}

	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.JSON)
	log := logging.Component("main")
	log.Info("beacond starting", "version", Version)

	// Open store and declare schema
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Error("open store", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := store.CreateSchema(st); err != nil {
		log.Error("create schema", "error", err)
		os.Exit(1)
	}

	// Export mode: dump and exit
	if *export != "" {
		n, err := archive.Export(st, *export)
		if err != nil {
			log.Error("export", "path", *export, "error", err)
			os.Exit(1)
		}
		log.Info("export complete", "path", *export, "rows", n)
		return
	}

	// Wire up the collector
	ingest := metrics.NewIngest()
	engine := stats.New(st)
	h := handler.New(st, engine, ingest)

	srv := server.New(&server.Config{
		Listen:          cfg.Listen,
		Handler:         h,
		Ingest:          ingest,
		MetricsInterval: time.Duration(cfg.Metrics.IntervalSec) * time.Second,
	})

	// Interrupt sets the shutdown flag; Run completes the shutdown by
	// joining every live session.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		srv.Shutdown()
	}()

	if err := srv.Run(); err != nil {
		log.Error("server", "error", err)
		os.Exit(1)
	}
}
