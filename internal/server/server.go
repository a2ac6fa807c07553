// Package server provides the collector's connection acceptor.
//
// The acceptor owns the listening socket and the session registry. It polls
// for connections on a fixed cadence so the shutdown flag is observed
// between accepts, hands each accepted connection to a new session, and on
// shutdown stops accepting and joins every live session before returning.
package server

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/xtxerr/beacon/config"
	"github.com/xtxerr/beacon/internal/handler"
	"github.com/xtxerr/beacon/internal/logging"
	"github.com/xtxerr/beacon/internal/metrics"
)

var log = logging.Component("server")

// Config holds server configuration.
type Config struct {
	// Listen is the address to listen on (e.g., "0.0.0.0:8080").
	Listen string

	// Handler dispatches decoded packets (required).
	Handler *handler.Handler

	// Ingest, when set, is summarized to the log every MetricsInterval.
	Ingest *metrics.Ingest

	// MetricsInterval is the summary cadence. Zero disables the loop.
	MetricsInterval time.Duration

	// AcceptPollInterval bounds how long one accept attempt blocks before
	// the shutdown flag is rechecked. Defaults to 200ms.
	AcceptPollInterval time.Duration
}

// Server is the connection acceptor.
type Server struct {
	cfg      *Config
	registry *handler.Registry

	shutdown atomic.Bool
	quit     chan struct{}
	listener atomic.Pointer[net.TCPListener]
}

// New creates a server.
func New(cfg *Config) *Server {
	if cfg.AcceptPollInterval == 0 {
		cfg.AcceptPollInterval = config.DefaultAcceptPollInterval
	}
	return &Server{
		cfg:      cfg,
		registry: handler.NewRegistry(),
		quit:     make(chan struct{}),
	}
}

// Run binds the listener and blocks until shutdown completes.
//
// A bind failure is the one error that escalates to the process. After
// shutdown is requested, Run stops accepting and joins every live session;
// a session blocked in a read with no traffic stalls the return until its
// peer disconnects.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}
	tl := ln.(*net.TCPListener)
	s.listener.Store(tl)

	log.Info("listening", "address", tl.Addr())

	if s.cfg.Ingest != nil && s.cfg.MetricsInterval > 0 {
		go s.metricsLoop()
	}

	for !s.shutdown.Load() {
		tl.SetDeadline(time.Now().Add(s.cfg.AcceptPollInterval))

		conn, err := tl.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if s.shutdown.Load() {
				break
			}
			log.Error("accept", "error", err)
			continue
		}

		s.registry.Spawn(handler.NewSession(conn, s.cfg.Handler, s.shutdown.Load))
	}

	tl.Close()

	live := s.registry.Len()
	if live > 0 {
		log.Info("waiting for sessions to drain", "sessions", live)
	}
	s.registry.Join()

	s.logSummary()
	log.Info("shutdown complete")
	return nil
}

// Shutdown requests shutdown and returns immediately; Run completes it.
// Safe to call more than once.
func (s *Server) Shutdown() {
	if s.shutdown.Swap(true) {
		return
	}
	log.Info("shutting down")
	close(s.quit)
	if ln := s.listener.Load(); ln != nil {
		ln.Close()
	}
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	return s.registry.Len()
}

// Addr returns the bound listen address, or nil before Run has bound the
// listener. Useful when listening on port 0.
func (s *Server) Addr() net.Addr {
	ln := s.listener.Load()
	if ln == nil {
		return nil
	}
	return ln.Addr()
}

// metricsLoop logs an ingest summary on a fixed cadence until shutdown.
func (s *Server) metricsLoop() {
	ticker := time.NewTicker(s.cfg.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.logSummary()
		case <-s.quit:
			return
		}
	}
}

func (s *Server) logSummary() {
	if s.cfg.Ingest == nil {
		return
	}
	sum, ok := s.cfg.Ingest.Summary()
	if !ok {
		return
	}
	log.Info("ingest summary",
		"accepted", sum.Accepted,
		"failed", sum.Failed,
		"p50", sum.P50,
		"p95", sum.P95,
		"p99", sum.P99,
	)
}
