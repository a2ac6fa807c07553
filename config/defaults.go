// Package config provides configuration defaults and utilities
// for the beacon collector.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml or CLI flags.
package config

import "time"

// =============================================================================
// Network Defaults
// =============================================================================

const (
	// DefaultListenAddress is the default server listen address.
	// Override via config: listen
	DefaultListenAddress = "0.0.0.0:8080"

	// DefaultMaxMessageSize limits wire message size to prevent OOM.
	// Packets are tiny; 1 MiB leaves ample headroom for large statistics
	// responses.
	// Override via config: server.max_message_size
	DefaultMaxMessageSize = 1 * 1024 * 1024

	// DefaultAcceptPollInterval is the accept loop's polling cadence.
	// The listener deadline expires at this interval so the loop can
	// observe the shutdown flag between accepts.
	DefaultAcceptPollInterval = 200 * time.Millisecond
)

// =============================================================================
// Storage Defaults
// =============================================================================

const (
	// DefaultDatabasePath is the SQLite database file.
	// Override via config: database.path
	DefaultDatabasePath = "beacon.db"

	// ClientsTable holds one row per known producer identity.
	ClientsTable = "clients"

	// PacketsTable holds one row per ingested telemetry sample.
	PacketsTable = "packets"
)

// =============================================================================
// Aggregation Defaults
// =============================================================================

const (
	// ShortWindow is the short trailing statistics window.
	ShortWindow = 1 * time.Minute

	// LongWindow is the long trailing statistics window. Samples inside
	// ShortWindow also count toward this window.
	LongWindow = 5 * time.Minute
)

// =============================================================================
// Metrics Defaults
// =============================================================================

const (
	// DefaultMetricsInterval is how often the server logs an ingest
	// latency summary. Zero disables the summary loop.
	// Override via config: metrics.interval_sec
	DefaultMetricsIntervalSec = 60

	// DefaultSketchAccuracy is the DDSketch relative accuracy used for
	// latency percentiles.
	DefaultSketchAccuracy = 0.01
)

// =============================================================================
// Probe Defaults
// =============================================================================

const (
	// ProbeIntervalMin is the minimum delay between samples from one
	// simulated producer.
	ProbeIntervalMin = 5 * time.Second

	// ProbeIntervalMax is the maximum delay between samples from one
	// simulated producer.
	ProbeIntervalMax = 30 * time.Second

	// ProbeWalkBound bounds the simulated random walk; coordinates stay
	// within [-ProbeWalkBound, ProbeWalkBound].
	ProbeWalkBound = 90.0
)
