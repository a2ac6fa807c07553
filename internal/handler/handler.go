// Package handler provides request handling for the beacon protocol.
//
// This package contains the per-connection session, the session registry
// used for the shutdown join, and the dispatch targets for the two request
// shapes (DATA and STATISTICS).
package handler

import (
	"fmt"
	"time"

	"github.com/xtxerr/beacon/config"
	"github.com/xtxerr/beacon/internal/errors"
	"github.com/xtxerr/beacon/internal/metrics"
	"github.com/xtxerr/beacon/internal/stats"
	"github.com/xtxerr/beacon/internal/store"
	"github.com/xtxerr/beacon/internal/wire"
)

// Handler holds the dispatch targets shared by all sessions.
type Handler struct {
	store  *store.Store
	engine *stats.Engine
	ingest *metrics.Ingest
}

// New creates a handler over the given store and engine.
func New(st *store.Store, engine *stats.Engine, ingest *metrics.Ingest) *Handler {
	return &Handler{
		store:  st,
		engine: engine,
		ingest: ingest,
	}
}

// =============================================================================
// Ingest path
// =============================================================================

// IngestSample persists one telemetry sample, creating the client row
// lazily on first contact.
//
// Failures are wrapped with the producer identity and surfaced to the
// session loop, which logs and continues; an ingest failure never
// terminates the session.
func (h *Handler) IngestSample(d *wire.Data) (err error) {
	if h.ingest != nil {
		start := time.Now()
		defer func() {
			h.ingest.Observe(time.Since(start), err != nil)
		}()
	}

	clientID, err := h.resolveClient(d.UUID)
	if err != nil {
		return errors.Wrapf(err, "cannot save sample for client %s", d.UUID)
	}

	err = h.store.Insert(config.PacketsTable, []store.Value{
		store.Integer("client_id", clientID),
		store.Integer("timestamp", d.Timestamp),
		store.Real("x", d.X),
		store.Real("y", d.Y),
	})
	if err != nil {
		return errors.Wrapf(err, "cannot save sample for client %s", d.UUID)
	}
	return nil
}

// resolveClient returns the surrogate key for a producer uuid, inserting
// the client row if this is the first sample from it.
//
// The lookup-then-create-then-reselect sequence is not atomic across
// sessions. Two sessions racing on a brand-new uuid can both pass the
// absent check; the UNIQUE constraint on clients.uuid rejects the second
// insert, that ingest fails and is logged by the caller, and uniqueness
// holds.
func (h *Handler) resolveClient(uuid string) (int64, error) {
	row, found, err := h.store.SelectOne(config.ClientsTable, store.ClientColumns,
		store.WhereEq(store.Text("uuid", uuid)), nil)
	if err != nil {
		return 0, err
	}

	if !found {
		if err := h.store.Insert(config.ClientsTable, []store.Value{store.Text("uuid", uuid)}); err != nil {
			return 0, err
		}
		row, found, err = h.store.SelectOne(config.ClientsTable, store.ClientColumns,
			store.WhereEq(store.Text("uuid", uuid)), nil)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, fmt.Errorf("client %s missing after insert", uuid)
		}
	}

	id, ok := row.Get("id")
	if !ok {
		return 0, fmt.Errorf("client %s row has no id column", uuid)
	}
	return id.Int(), nil
}

// =============================================================================
// Statistics path
// =============================================================================

// CollectStatistics computes the rolling-window statistics response.
// A failure here is fatal to the requesting session; no partial response
// is ever sent.
func (h *Handler) CollectStatistics() (*wire.Statistics, error) {
	records, err := h.engine.Collect()
	if err != nil {
		return nil, err
	}

	resp := &wire.Statistics{Clients: make([]wire.ClientStats, len(records))}
	for i, r := range records {
		resp.Clients[i] = wire.ClientStats{
			UUID: r.UUID,
			X1:   r.X1,
			Y1:   r.Y1,
			X5:   r.X5,
			Y5:   r.Y5,
		}
	}
	return resp, nil
}
