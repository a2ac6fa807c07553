// Table declarations for the collector's persisted state.
//
// Two tables: clients (one row per producer identity, created lazily on
// first sample) and packets (one row per ingested sample, immutable,
// retained indefinitely). Tables are created if absent at process start;
// there is no migration path for schema changes.

package store

import "github.com/xtxerr/beacon/config"

// ClientColumns is the full clients table shape:
// clients(id INTEGER PRIMARY KEY, uuid TEXT UNIQUE NOT NULL).
// id is the engine-assigned surrogate key.
var ClientColumns = []Column{
	{Name: "id", Kind: KindInteger, PrimaryKey: true},
	{Name: "uuid", Kind: KindText, Unique: true, NotNull: true},
}

// PacketColumns is the full packets table shape:
// packets(id INTEGER PRIMARY KEY, client_id INTEGER, timestamp INTEGER,
// x REAL, y REAL).
// client_id references clients.id by application logic only; there is no
// database-level foreign key.
var PacketColumns = []Column{
	{Name: "id", Kind: KindInteger, PrimaryKey: true},
	{Name: "client_id", Kind: KindInteger},
	{Name: "timestamp", Kind: KindInteger},
	{Name: "x", Kind: KindReal},
	{Name: "y", Kind: KindReal},
}

// SampleColumns is the subset of PacketColumns the aggregation and export
// paths read; the surrogate key is never consumed.
var SampleColumns = []Column{
	{Name: "client_id", Kind: KindInteger},
	{Name: "timestamp", Kind: KindInteger},
	{Name: "x", Kind: KindReal},
	{Name: "y", Kind: KindReal},
}

// CreateSchema declares both tables. Idempotent.
func CreateSchema(s *Store) error {
	if err := s.CreateTable(config.ClientsTable, ClientColumns); err != nil {
		return err
	}
	return s.CreateTable(config.PacketsTable, PacketColumns)
}
