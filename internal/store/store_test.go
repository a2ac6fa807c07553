package store

import (
	"path/filepath"
	"testing"

	"github.com/xtxerr/beacon/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

var testColumns = []Column{
	{Name: "id", Kind: KindInteger, PrimaryKey: true},
	{Name: "name", Kind: KindText, Unique: true, NotNull: true},
	{Name: "score", Kind: KindReal},
}

func TestCreateTableIdempotent(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateTable("things", testColumns); err != nil {
		t.Fatalf("create table: %v", err)
	}

	// Same shape again is a no-op.
	if err := s.CreateTable("things", testColumns); err != nil {
		t.Fatalf("create table again: %v", err)
	}
}

func TestCreateTableInvalidArgs(t *testing.T) {
	s := newTestStore(t)

	if err := s.CreateTable("", testColumns); !errors.IsInvalidArgument(err) {
		t.Errorf("empty table name: expected invalid argument, got %v", err)
	}
	if err := s.CreateTable("things", nil); !errors.IsInvalidArgument(err) {
		t.Errorf("no columns: expected invalid argument, got %v", err)
	}
}

func TestInsertAndSelectOne(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("things", testColumns); err != nil {
		t.Fatalf("create table: %v", err)
	}

	err := s.Insert("things", []Value{
		Text("name", "alpha"),
		Real("score", 1.5),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	row, found, err := s.SelectOne("things", testColumns, WhereEq(Text("name", "alpha")), nil)
	if err != nil {
		t.Fatalf("select one: %v", err)
	}
	if !found {
		t.Fatal("expected a row")
	}

	id, ok := row.Get("id")
	if !ok || id.Kind() != KindInteger || id.Int() == 0 {
		t.Errorf("expected engine-assigned surrogate key, got %+v", id)
	}
	if score, _ := row.Get("score"); score.Real() != 1.5 {
		t.Errorf("expected score=1.5, got %f", score.Real())
	}
}

func TestSelectOneAbsentIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("things", testColumns); err != nil {
		t.Fatalf("create table: %v", err)
	}

	row, found, err := s.SelectOne("things", testColumns, WhereEq(Text("name", "nobody")), nil)
	if err != nil {
		t.Fatalf("select one: %v", err)
	}
	if found || row != nil {
		t.Errorf("expected empty result, got found=%v row=%v", found, row)
	}
}

func TestInsertInvalidValueKind(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("things", testColumns); err != nil {
		t.Fatalf("create table: %v", err)
	}

	// A zero Value is outside the {Text, Integer, Real} union.
	err := s.Insert("things", []Value{{Column: "name"}})
	if !errors.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}

	// And no row was appended.
	rows, err := s.SelectMany("things", testColumns, nil, nil, 0)
	if err != nil {
		t.Fatalf("select many: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected zero rows, got %d", len(rows))
	}
}

func TestInsertEmptyArgs(t *testing.T) {
	s := newTestStore(t)

	if err := s.Insert("", []Value{Text("name", "x")}); !errors.IsInvalidArgument(err) {
		t.Errorf("empty table: expected invalid argument, got %v", err)
	}
	if err := s.Insert("things", nil); !errors.IsInvalidArgument(err) {
		t.Errorf("empty values: expected invalid argument, got %v", err)
	}
}

func TestTextWithQuotesRoundTrips(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("things", testColumns); err != nil {
		t.Fatalf("create table: %v", err)
	}

	tricky := `it's a "quoted"; DROP TABLE things; --`
	if err := s.Insert("things", []Value{Text("name", tricky), Real("score", 0)}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	row, found, err := s.SelectOne("things", testColumns, WhereEq(Text("name", tricky)), nil)
	if err != nil || !found {
		t.Fatalf("select one: found=%v err=%v", found, err)
	}
	if name, _ := row.Get("name"); name.Text() != tricky {
		t.Errorf("round trip mismatch: %q", name.Text())
	}

	// The table survived.
	if err := s.Insert("things", []Value{Text("name", "after"), Real("score", 0)}); err != nil {
		t.Fatalf("insert after tricky value: %v", err)
	}
}

func TestSelectManyWhereOrderLimit(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("things", testColumns); err != nil {
		t.Fatalf("create table: %v", err)
	}

	for i, name := range []string{"a", "b", "c", "d"} {
		err := s.Insert("things", []Value{
			Text("name", name),
			Real("score", float64(i)),
		})
		if err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}

	rows, err := s.SelectMany("things", testColumns,
		WhereGreater(Real("score", 0.5)),
		&OrderBy{Column: "score", Dir: Descending}, 2)
	if err != nil {
		t.Fatalf("select many: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	first, _ := rows[0].Get("name")
	second, _ := rows[1].Get("name")
	if first.Text() != "d" || second.Text() != "c" {
		t.Errorf("expected d,c got %s,%s", first.Text(), second.Text())
	}
}

func TestSelectManyUnboundedByDefault(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("things", testColumns); err != nil {
		t.Fatalf("create table: %v", err)
	}

	for _, name := range []string{"a", "b", "c"} {
		if err := s.Insert("things", []Value{Text("name", name), Real("score", 0)}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	rows, err := s.SelectMany("things", testColumns, nil, nil, 0)
	if err != nil {
		t.Fatalf("select many: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}
}

func TestUniqueConstraintRejectsDuplicate(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("things", testColumns); err != nil {
		t.Fatalf("create table: %v", err)
	}

	if err := s.Insert("things", []Value{Text("name", "dup"), Real("score", 0)}); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := s.Insert("things", []Value{Text("name", "dup"), Real("score", 1)})
	if !errors.IsStore(err) {
		t.Fatalf("expected store error on duplicate, got %v", err)
	}
}

func TestClosedStore(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateTable("things", testColumns); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Idempotent.
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	if err := s.Insert("things", []Value{Text("name", "x"), Real("score", 0)}); !errors.Is(err, errors.ErrClosed) {
		t.Errorf("expected closed error, got %v", err)
	}
}

func TestCreateSchema(t *testing.T) {
	s := newTestStore(t)

	if err := CreateSchema(s); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	// Idempotent at process restart.
	if err := CreateSchema(s); err != nil {
		t.Fatalf("create schema again: %v", err)
	}
}
