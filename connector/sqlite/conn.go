package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/quelldb/quell"
)

// conn adapts one *sql.Conn to the quell.Conn surface. Statements run
// against the open transaction when one was started with Begin, against
// the autocommit connection otherwise.
type conn struct {
	mu     sync.Mutex
	sc     *sql.Conn
	tx     *sql.Tx
	closed bool
}

func (c *conn) target() (interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("sqlite conn: %w: connection closed", quell.ErrInvalidInput)
	}
	if c.tx != nil {
		return c.tx, nil
	}
	return c.sc, nil
}

func (c *conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	t, err := c.target()
	if err != nil {
		return 0, err
	}
	res, err := t.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("exec: rows affected: %w", err)
	}
	return n, nil
}

func (c *conn) Query(ctx context.Context, query string, args ...any) (quell.Rows, error) {
	t, err := c.target()
	if err != nil {
		return nil, err
	}
	rows, err := t.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rows, nil
}

func (c *conn) QueryRow(ctx context.Context, query string, args ...any) quell.Row {
	t, err := c.target()
	if err != nil {
		return errRow{err}
	}
	return t.QueryRowContext(ctx, query, args...)
}

func (c *conn) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("begin: %w: connection closed", quell.ErrInvalidInput)
	}
	if c.tx != nil {
		return fmt.Errorf("begin: %w: transaction already open", quell.ErrInvalidInput)
	}
	tx, err := c.sc.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	c.tx = tx
	return nil
}

func (c *conn) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx == nil {
		return fmt.Errorf("commit: %w: no open transaction", quell.ErrInvalidInput)
	}
	err := c.tx.Commit()
	c.tx = nil
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (c *conn) Rollback(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tx == nil {
		return fmt.Errorf("rollback: %w: no open transaction", quell.ErrInvalidInput)
	}
	err := c.tx.Rollback()
	c.tx = nil
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (c *conn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("ping: %w: connection closed", quell.ErrInvalidInput)
	}
	return c.sc.PingContext(ctx)
}

// Close rolls back any open transaction and returns the connection to
// the handle. Closing twice is a no-op.
func (c *conn) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	if err := c.sc.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// errRow defers a connection-state error to Scan, matching the
// sql.Row contract.
type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

var _ quell.Conn = (*conn)(nil)
var _ quell.Rows = (*sql.Rows)(nil)
