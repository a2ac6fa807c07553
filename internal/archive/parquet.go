// Package archive dumps stored samples to Parquet for offline analysis.
//
// The dump is a companion tool, not a retention mechanism: rows stay in the
// database after an export.
package archive

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/xtxerr/beacon/config"
	"github.com/xtxerr/beacon/internal/store"
)

// SampleRecord is one exported sample, joined with its producer identity.
type SampleRecord struct {
	UUID      string  `parquet:"uuid,zstd"`
	Timestamp int64   `parquet:"timestamp"`
	X         float64 `parquet:"x"`
	Y         float64 `parquet:"y"`
}

// Export writes every stored sample to a Parquet file at path, grouped by
// client and ordered by timestamp within each client. Returns the number of
// rows written.
func Export(st *store.Store, path string) (int, error) {
	clients, err := st.SelectMany(config.ClientsTable, store.ClientColumns, nil, nil, 0)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	w := parquet.NewGenericWriter[SampleRecord](f, parquet.Compression(&parquet.Zstd))

	total := 0
	for _, row := range clients {
		id, _ := row.Get("id")
		uuid, _ := row.Get("uuid")

		samples, err := st.SelectMany(config.PacketsTable, store.SampleColumns,
			store.WhereEq(store.Integer("client_id", id.Int())),
			&store.OrderBy{Column: "timestamp", Dir: store.Ascending}, 0)
		if err != nil {
			f.Close()
			return total, err
		}

		records := make([]SampleRecord, len(samples))
		for i, s := range samples {
			ts, _ := s.Get("timestamp")
			x, _ := s.Get("x")
			y, _ := s.Get("y")
			records[i] = SampleRecord{
				UUID:      uuid.Text(),
				Timestamp: ts.Int(),
				X:         x.Real(),
				Y:         y.Real(),
			}
		}

		if len(records) > 0 {
			n, err := w.Write(records)
			if err != nil {
				f.Close()
				return total, fmt.Errorf("write parquet: %w", err)
			}
			total += n
		}
	}

	if err := w.Close(); err != nil {
		f.Close()
		return total, fmt.Errorf("close parquet writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return total, fmt.Errorf("close %s: %w", path, err)
	}

	return total, nil
}

// ReadAll loads every record from an exported file.
func ReadAll(path string) ([]SampleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := parquet.NewGenericReader[SampleRecord](f)
	defer r.Close()

	records := make([]SampleRecord, r.NumRows())
	if len(records) == 0 {
		return nil, nil
	}

	n, err := r.Read(records)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return records[:n], nil
}
