package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quelldb/quell"
)

// conn adapts one pooled pgx connection to the quell.Conn surface.
// Close releases the connection back to the pool rather than tearing it
// down.
type conn struct {
	mu       sync.Mutex
	pc       *pgxpool.Conn
	tx       pgx.Tx
	released bool
}

func (c *conn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return 0, fmt.Errorf("postgres conn: %w: connection released", quell.ErrInvalidInput)
	}
	tx := c.tx
	pc := c.pc
	c.mu.Unlock()

	var ct pgconn.CommandTag
	var err error
	if tx != nil {
		ct, err = tx.Exec(ctx, query, args...)
	} else {
		ct, err = pc.Exec(ctx, query, args...)
	}
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (c *conn) Query(ctx context.Context, query string, args ...any) (quell.Rows, error) {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil, fmt.Errorf("postgres conn: %w: connection released", quell.ErrInvalidInput)
	}
	tx := c.tx
	pc := c.pc
	c.mu.Unlock()

	var rows pgx.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(ctx, query, args...)
	} else {
		rows, err = pc.Query(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return pgxRows{rows}, nil
}

func (c *conn) QueryRow(ctx context.Context, query string, args ...any) quell.Row {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return errRow{fmt.Errorf("postgres conn: %w: connection released", quell.ErrInvalidInput)}
	}
	tx := c.tx
	pc := c.pc
	c.mu.Unlock()

	if tx != nil {
		return tx.QueryRow(ctx, query, args...)
	}
	return pc.QueryRow(ctx, query, args...)
}

func (c *conn) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return fmt.Errorf("begin: %w: connection released", quell.ErrInvalidInput)
	}
	if c.tx != nil {
		return fmt.Errorf("begin: %w: transaction already open", quell.ErrInvalidInput)
	}
	tx, err := c.pc.Begin(ctx)
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
	err := c.tx.Commit(ctx)
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
	err := c.tx.Rollback(ctx)
	c.tx = nil
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (c *conn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return fmt.Errorf("ping: %w: connection released", quell.ErrInvalidInput)
	}
	return c.pc.Ping(ctx)
}

// Close rolls back any open transaction and releases the connection
// back to the pool. Closing twice is a no-op.
func (c *conn) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil
	}
	c.released = true
	if c.tx != nil {
		_ = c.tx.Rollback(ctx)
		c.tx = nil
	}
	c.pc.Release()
	return nil
}

// pgxRows narrows pgx.Rows to the quell.Rows surface; pgx's Close has
// no error to report.
type pgxRows struct {
	rows pgx.Rows
}

func (r pgxRows) Next() bool             { return r.rows.Next() }
func (r pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r pgxRows) Err() error             { return r.rows.Err() }
func (r pgxRows) Close() error           { r.rows.Close(); return nil }

type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

var _ quell.Conn = (*conn)(nil)
