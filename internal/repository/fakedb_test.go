package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"

	"github.com/jmoiron/sqlx"
)

// fakeDB is a database/sql driver that answers every statement from
// respond and records what it was sent.
type fakeDB struct {
	respond func(query string) ([]string, [][]driver.Value)
	queries []string
	args    [][]driver.Value
}

func newFakeDB(respond func(query string) ([]string, [][]driver.Value)) (*fakeDB, *sqlx.DB) {
	f := &fakeDB{respond: respond}
	return f, sqlx.NewDb(sql.OpenDB(f), "postgres")
}

func (f *fakeDB) Connect(context.Context) (driver.Conn, error) { return fakeConn{db: f}, nil }
func (f *fakeDB) Driver() driver.Driver                       { return fakeDriver{db: f} }

type fakeDriver struct{ db *fakeDB }

func (d fakeDriver) Open(string) (driver.Conn, error) { return fakeConn{db: d.db}, nil }

type fakeConn struct{ db *fakeDB }

func (c fakeConn) Prepare(query string) (driver.Stmt, error) {
	return fakeStmt{db: c.db, query: query}, nil
}
func (c fakeConn) Close() error              { return nil }
func (c fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions not supported") }

type fakeStmt struct {
	db    *fakeDB
	query string
}

func (s fakeStmt) Close() error  { return nil }
func (s fakeStmt) NumInput() int { return -1 }

func (s fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.record(args)
	return driver.RowsAffected(1), nil
}

func (s fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.record(args)
	columns, rows := s.db.respond(s.query)
	return &fakeRows{columns: columns, rows: rows}, nil
}

func (s fakeStmt) record(args []driver.Value) {
	s.db.queries = append(s.db.queries, s.query)
	s.db.args = append(s.db.args, args)
}

type fakeRows struct {
	columns []string
	rows    [][]driver.Value
	next    int
}

func (r *fakeRows) Columns() []string { return r.columns }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}
