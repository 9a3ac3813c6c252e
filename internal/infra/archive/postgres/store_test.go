package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"seqprov/internal/archive/core"
	"seqprov/internal/journal"
	"seqprov/pkg/provenance"
)

// stubConn emulates just enough of a Postgres connection for the archive
// store: ping, DDL, the runs upsert, and the two read queries.
type stubConn struct {
	rows       []runRow
	ddl        []string
	failPing   bool
	failExec   bool
	failSelect bool
}

type runRow struct {
	id                     string
	started, finished      time.Time
	trans, hits, incidents int64
	payload                []byte
}

func newStubDB(conn *stubConn) *sql.DB {
	name := fmt.Sprintf("stubarchive%d", time.Now().UnixNano())
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db
}

type stubDriver struct{ conn *stubConn }

func (d *stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return nil, fmt.Errorf("not implemented") }

func (c *stubConn) Ping(context.Context) error {
	if c.failPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if c.failExec {
		return nil, fmt.Errorf("exec fail")
	}
	trimmed := strings.ToUpper(strings.TrimSpace(query))
	if strings.HasPrefix(trimmed, "CREATE TABLE") {
		c.ddl = append(c.ddl, query)
		return driver.RowsAffected(0), nil
	}
	if strings.HasPrefix(trimmed, "INSERT INTO RUNS") {
		row := runRow{
			id:        args[0].Value.(string),
			started:   args[1].Value.(time.Time),
			finished:  args[2].Value.(time.Time),
			trans:     args[3].Value.(int64),
			hits:      args[4].Value.(int64),
			incidents: args[5].Value.(int64),
			payload:   append([]byte(nil), args[6].Value.([]byte)...),
		}
		for i, existing := range c.rows {
			if existing.id == row.id {
				c.rows[i] = row
				return driver.RowsAffected(1), nil
			}
		}
		c.rows = append(c.rows, row)
		return driver.RowsAffected(1), nil
	}
	return nil, fmt.Errorf("unexpected exec: %s", query)
}

func (c *stubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if c.failSelect {
		return nil, fmt.Errorf("query fail")
	}
	if strings.Contains(query, "SELECT payload") {
		id := args[0].Value.(string)
		for _, row := range c.rows {
			if row.id == id {
				return &stubRows{cols: []string{"payload"}, rows: [][]driver.Value{{row.payload}}}, nil
			}
		}
		return &stubRows{cols: []string{"payload"}}, nil
	}
	sorted := append([]runRow(nil), c.rows...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].started.Equal(sorted[j].started) {
			return sorted[i].started.Before(sorted[j].started)
		}
		return sorted[i].id < sorted[j].id
	})
	out := make([][]driver.Value, 0, len(sorted))
	for _, row := range sorted {
		out = append(out, []driver.Value{row.id, row.started, row.finished, row.trans, row.hits, row.incidents})
	}
	return &stubRows{cols: []string{"id", "started_at", "finished_at", "transitions", "memo_hits", "incidents"}, rows: out}, nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func stubStore(t *testing.T, conn *stubConn) *Store {
	t.Helper()
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		if driverName != defaultDriver {
			t.Fatalf("driver = %q, want %q", driverName, defaultDriver)
		}
		return newStubDB(conn), nil
	})
	t.Cleanup(restore)
	s, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func record(id string, started time.Time) journal.RunRecord {
	return journal.RunRecord{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(time.Second),
		Transitions: []journal.TransitionRecord{
			{Seq: 0, Prev: 1, Op: provenance.RemoveOne(3), Next: 2, At: started},
		},
		Counters: journal.Counters{Transitions: 1},
	}
}

func TestOpenEnsuresRunsTable(t *testing.T) {
	conn := &stubConn{}
	stubStore(t, conn)
	if len(conn.ddl) != 1 || !strings.Contains(conn.ddl[0], "CREATE TABLE IF NOT EXISTS runs") {
		t.Fatalf("ddl = %v", conn.ddl)
	}
}

func TestSaveGetRoundTrip(t *testing.T) {
	conn := &stubConn{}
	s := stubStore(t, conn)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := s.SaveRun(ctx, record("run-1", started)); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "run-1" || len(got.Transitions) != 1 {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.Transitions[0].Op.Kind != provenance.OpRemoveOne || got.Transitions[0].Op.At != 3 {
		t.Fatalf("payload mangled: %+v", got.Transitions[0].Op)
	}
}

func TestSaveUpserts(t *testing.T) {
	conn := &stubConn{}
	s := stubStore(t, conn)
	ctx := context.Background()
	started := time.Now().UTC()
	if err := s.SaveRun(ctx, record("run-1", started)); err != nil {
		t.Fatalf("first save: %v", err)
	}
	updated := record("run-1", started)
	updated.Counters.Transitions = 4
	if err := s.SaveRun(ctx, updated); err != nil {
		t.Fatalf("second save: %v", err)
	}
	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 || runs[0].Counters.Transitions != 4 {
		t.Fatalf("upsert did not replace: %+v", runs)
	}
}

func TestListOrdering(t *testing.T) {
	conn := &stubConn{}
	s := stubStore(t, conn)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, r := range []journal.RunRecord{
		record("run-b", base.Add(time.Minute)),
		record("run-a", base),
	} {
		if err := s.SaveRun(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.ID, err)
		}
	}
	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-a" || runs[1].ID != "run-b" {
		t.Fatalf("order: %+v", runs)
	}
}

func TestErrors(t *testing.T) {
	conn := &stubConn{}
	s := stubStore(t, conn)
	ctx := context.Background()
	if _, err := s.GetRun(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing run error = %v", err)
	}
	if err := s.SaveRun(ctx, journal.RunRecord{}); err == nil {
		t.Fatalf("record without id accepted")
	}
	if s.Driver() != core.DriverPostgres {
		t.Fatalf("driver = %q", s.Driver())
	}

	conn.failExec = true
	if err := s.SaveRun(ctx, record("run-x", time.Now())); err == nil {
		t.Fatalf("exec failure swallowed")
	}
	conn.failExec = false
	conn.failSelect = true
	if _, err := s.ListRuns(ctx); err == nil {
		t.Fatalf("select failure swallowed")
	}
}

func TestOpenFailures(t *testing.T) {
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) {
		return nil, fmt.Errorf("open fail")
	})
	if _, err := NewStore(context.Background(), ""); err == nil {
		t.Fatalf("open failure swallowed")
	}
	restore()

	restore = OverrideSQLOpen(func(string, string) (*sql.DB, error) {
		return newStubDB(&stubConn{failPing: true}), nil
	})
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://example/db"); err == nil {
		t.Fatalf("ping failure swallowed")
	}
}
