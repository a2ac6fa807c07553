// Package stats computes per-client rolling statistics over the stored
// samples.
//
// Two trailing windows are maintained per request: 1 minute and 5 minutes.
// The short window is a subset of the long one; a sample inside the short
// window counts toward both. Both windows share a single observation of
// "now" taken at the start of the request.
package stats

import (
	"time"

	"github.com/xtxerr/beacon/config"
	"github.com/xtxerr/beacon/internal/store"
)

// ClientStatistics is the derived record for one client. It is never
// persisted.
type ClientStatistics struct {
	UUID string
	X1   float64 // mean of x, trailing 1 minute
	Y1   float64 // sum of |y|, trailing 1 minute
	X5   float64 // mean of x, trailing 5 minutes
	Y5   float64 // sum of |y|, trailing 5 minutes
}

// Engine computes statistics by reading through the typed store.
type Engine struct {
	store *store.Store
	now   func() int64
}

// New creates an engine over the given store using the system clock.
func New(st *store.Store) *Engine {
	return &Engine{
		store: st,
		now:   func() int64 { return time.Now().UnixNano() },
	}
}

// NewWithClock creates an engine with an injected clock returning
// nanoseconds since the Unix epoch. Used by tests.
func NewWithClock(st *store.Store, now func() int64) *Engine {
	return &Engine{store: st, now: now}
}

// window accumulates one trailing window in a single pass.
type window struct {
	sumX    float64
	sumAbsY float64
	count   int64
}

func (w *window) add(x, y float64) {
	w.sumX += x
	if y < 0 {
		y = -y
	}
	w.sumAbsY += y
	w.count++
}

func (w *window) meanX() float64 {
	if w.count == 0 {
		return 0
	}
	return w.sumX / float64(w.count)
}

// Collect produces the statistics sequence for all known clients.
//
// Clients whose both windows are empty are omitted entirely; emission order
// follows client fetch order. The per-client sample fetch is unfiltered by
// time because the store's where clause carries a single predicate, so the
// window filter runs in memory.
func (e *Engine) Collect() ([]ClientStatistics, error) {
	now := e.now()
	cutoff1 := now - config.ShortWindow.Nanoseconds()
	cutoff5 := now - config.LongWindow.Nanoseconds()

	clients, err := e.store.SelectMany(config.ClientsTable, store.ClientColumns, nil, nil, 0)
	if err != nil {
		return nil, err
	}

	var out []ClientStatistics
	for _, row := range clients {
		id, ok := row.Get("id")
		if !ok {
			continue
		}
		uuid, ok := row.Get("uuid")
		if !ok {
			continue
		}

		samples, err := e.store.SelectMany(config.PacketsTable, store.SampleColumns,
			store.WhereEq(store.Integer("client_id", id.Int())), nil, 0)
		if err != nil {
			return nil, err
		}

		var w1, w5 window
		for _, s := range samples {
			ts, _ := s.Get("timestamp")
			x, _ := s.Get("x")
			y, _ := s.Get("y")

			if ts.Int() < cutoff5 {
				continue
			}
			w5.add(x.Real(), y.Real())
			if ts.Int() >= cutoff1 {
				w1.add(x.Real(), y.Real())
			}
		}

		if w1.count == 0 && w5.count == 0 {
			continue
		}

		out = append(out, ClientStatistics{
			UUID: uuid.Text(),
			X1:   w1.meanX(),
			Y1:   w1.sumAbsY,
			X5:   w5.meanX(),
			Y5:   w5.sumAbsY,
		})
	}

	return out, nil
}
