package quell

import "context"

// Rows is the minimal result-set surface shared by all connectors.
// Callers must call Close when done iterating.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Row is a single-row result; Scan reports the query error, if any.
type Row interface {
	Scan(dest ...any) error
}

// Conn is a live database connection handed out by a Connector.
//
// A fresh connection runs in autocommit mode: every Exec is its own
// transaction. Begin switches the connection to manual-transaction mode;
// all statements issued until Commit or Rollback belong to that
// transaction, after which the connection returns to autocommit.
//
// Connections are not safe for concurrent use; each caller works on its
// own connection obtained from the Manager.
type Conn interface {
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Query runs a statement returning rows.
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	// QueryRow runs a statement expected to return at most one row.
	QueryRow(ctx context.Context, query string, args ...any) Row
	// Begin starts a manual transaction on this connection. Beginning a
	// second transaction before the first ended is an error.
	Begin(ctx context.Context) error
	// Commit commits the open transaction and restores autocommit.
	Commit(ctx context.Context) error
	// Rollback discards the open transaction and restores autocommit.
	Rollback(ctx context.Context) error
	// Ping reports whether the connection is still usable.
	Ping(ctx context.Context) error
	// Close releases the connection. Closing twice is a no-op.
	Close(ctx context.Context) error
}

// Connector turns configuration into live physical connections for one
// vendor.
//
// Lifecycle: a connector is constructed unconfigured, becomes ready
// after Configure, and terminal after Shutdown. Conn fails
// deterministically before Configure and after Shutdown; a shut-down
// connector must not be configured again (build a new one instead).
// Shutdown is idempotent.
type Connector interface {
	Vendor() Vendor
	Configure(settings Settings) error
	Conn(ctx context.Context) (Conn, error)
	Shutdown(ctx context.Context) error
}
