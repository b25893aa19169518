package invitation

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
	"time"
)

// captureConn records the bind args of the last query so tests can see
// exactly what would hit the database.
type captureConn struct {
	args *[]driver.Value
}

func (c *captureConn) Prepare(query string) (driver.Stmt, error) { return &captureStmt{c: c}, nil }
func (c *captureConn) Close() error                              { return nil }
func (c *captureConn) Begin() (driver.Tx, error)                 { return nil, errors.New("unsupported") }

type captureStmt struct {
	c *captureConn
}

func (s *captureStmt) Close() error  { return nil }
func (s *captureStmt) NumInput() int { return -1 }

func (s *captureStmt) Exec(args []driver.Value) (driver.Result, error) {
	*s.c.args = append([]driver.Value(nil), args...)
	return driver.RowsAffected(1), nil
}

func (s *captureStmt) Query(args []driver.Value) (driver.Rows, error) {
	*s.c.args = append([]driver.Value(nil), args...)
	return &createdAtRow{}, nil
}

type createdAtRow struct {
	done bool
}

func (r *createdAtRow) Columns() []string { return []string{"created_at"} }
func (r *createdAtRow) Close() error      { return nil }

func (r *createdAtRow) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	dest[0] = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	r.done = true
	return nil
}

type captureConnector struct {
	conn *captureConn
}

func (c captureConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c captureConnector) Driver() driver.Driver                        { return captureDriver{conn: c.conn} }

type captureDriver struct {
	conn *captureConn
}

func (d captureDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func captureDB(args *[]driver.Value) *sql.DB {
	return sql.OpenDB(captureConnector{conn: &captureConn{args: args}})
}

// An invitation typed with a mixed-case address must be stored in the
// same lowercased form acceptance looks it up with, otherwise it can
// never be redeemed.
func TestInsertStoresLowercasedEmail(t *testing.T) {
	var args []driver.Value
	repo := NewRepository(captureDB(&args))

	inv, err := repo.Insert(context.Background(), Invitation{
		Email: "  Ahmad@Example.com ",
		Name:  " Ahmad Fauzi ",
		Phone: "0812000",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if inv.Email != "ahmad@example.com" {
		t.Fatalf("returned email = %q, want %q", inv.Email, "ahmad@example.com")
	}
	if inv.Name != "Ahmad Fauzi" {
		t.Fatalf("returned name = %q, want trimmed", inv.Name)
	}
	if len(args) != 5 {
		t.Fatalf("bind args = %d, want 5", len(args))
	}
	// Args are (id, token, email, name, phone).
	if got := args[2]; got != "ahmad@example.com" {
		t.Fatalf("stored email = %v, want %q", got, "ahmad@example.com")
	}
	if inv.ID == "" || inv.Token == "" {
		t.Fatalf("expected generated id and token, got %q %q", inv.ID, inv.Token)
	}
}

func TestInsertKeepsProvidedToken(t *testing.T) {
	var args []driver.Value
	repo := NewRepository(captureDB(&args))

	inv, err := repo.Insert(context.Background(), Invitation{
		Token: "tok-123",
		Email: "Budi@Example.com",
		Name:  "Budi",
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if inv.Token != "tok-123" {
		t.Fatalf("token = %q, want tok-123", inv.Token)
	}
	if got := args[2]; got != "budi@example.com" {
		t.Fatalf("stored email = %v, want lowercase", got)
	}
}
