package archive

import (
	"path/filepath"
	"testing"

	"github.com/xtxerr/beacon/config"
	"github.com/xtxerr/beacon/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := store.CreateSchema(st); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return st
}

func addClient(t *testing.T, st *store.Store, uuid string) int64 {
	t.Helper()

	if err := st.Insert(config.ClientsTable, []store.Value{store.Text("uuid", uuid)}); err != nil {
		t.Fatalf("insert client: %v", err)
	}
	row, found, err := st.SelectOne(config.ClientsTable, store.ClientColumns,
		store.WhereEq(store.Text("uuid", uuid)), nil)
	if err != nil || !found {
		t.Fatalf("select client: found=%v err=%v", found, err)
	}
	id, _ := row.Get("id")
	return id.Int()
}

func addSample(t *testing.T, st *store.Store, clientID, ts int64, x, y float64) {
	t.Helper()

	err := st.Insert(config.PacketsTable, []store.Value{
		store.Integer("client_id", clientID),
		store.Integer("timestamp", ts),
		store.Real("x", x),
		store.Real("y", y),
	})
	if err != nil {
		t.Fatalf("insert sample: %v", err)
	}
}

func TestExportRoundTrip(t *testing.T) {
	st := newTestStore(t)

	a := addClient(t, st, "a")
	b := addClient(t, st, "b")

	// Out-of-order timestamps; the export orders within each client.
	addSample(t, st, a, 300, 3, -3)
	addSample(t, st, a, 100, 1, -1)
	addSample(t, st, b, 200, 2, -2)

	path := filepath.Join(t.TempDir(), "samples.parquet")
	n, err := Export(st, path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows written, got %d", n)
	}

	records, err := ReadAll(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	byUUID := make(map[string][]SampleRecord)
	for _, r := range records {
		byUUID[r.UUID] = append(byUUID[r.UUID], r)
	}

	as := byUUID["a"]
	if len(as) != 2 || as[0].Timestamp != 100 || as[1].Timestamp != 300 {
		t.Errorf("client a not ordered by timestamp: %+v", as)
	}
	if as[0].X != 1 || as[0].Y != -1 {
		t.Errorf("client a values: %+v", as[0])
	}

	bs := byUUID["b"]
	if len(bs) != 1 || bs[0].Timestamp != 200 {
		t.Errorf("client b: %+v", bs)
	}
}

func TestExportEmptyStore(t *testing.T) {
	st := newTestStore(t)

	path := filepath.Join(t.TempDir(), "empty.parquet")
	n, err := Export(st, path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 rows, got %d", n)
	}

	records, err := ReadAll(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestExportSkipsSampleLessClients(t *testing.T) {
	st := newTestStore(t)

	addClient(t, st, "quiet")
	busy := addClient(t, st, "busy")
	addSample(t, st, busy, 1, 0.5, 0.5)

	path := filepath.Join(t.TempDir(), "samples.parquet")
	n, err := Export(st, path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}

	records, err := ReadAll(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 1 || records[0].UUID != "busy" {
		t.Errorf("unexpected records: %+v", records)
	}
}
