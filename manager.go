package quell

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Tx is an explicit handle for a manually managed transaction. It is
// returned by Manager.Begin and passed back to Manager.Conn by callers
// that want their statements to run inside the transaction. A handle is
// live between Begin and the first End call.
type Tx struct {
	id   uuid.UUID
	conn Conn

	mu   sync.Mutex
	done bool
}

// ID returns the handle's correlation id, used in logs.
func (t *Tx) ID() uuid.UUID {
	return t.id
}

// Active reports whether the transaction has not yet ended.
func (t *Tx) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.done
}

// finish marks the handle as ended and reports whether this call was the
// one that ended it.
func (t *Tx) finish() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Manager is the top-level facade over one configured vendor. It owns a
// Connector, configures it exactly once, and hands out connections and
// transaction handles.
//
// Manager is safe for concurrent use. Individual connections are not;
// each caller obtains its own via Conn.
type Manager struct {
	connector Connector

	mu        sync.Mutex
	connected bool
	active    map[Conn]*Tx
}

// NewManager returns a manager owning the given connector. The
// connector must be unconfigured; Connect configures it.
func NewManager(c Connector) *Manager {
	return &Manager{
		connector: c,
		active:    make(map[Conn]*Tx),
	}
}

// Vendor returns the vendor of the owned connector.
func (m *Manager) Vendor() Vendor {
	return m.connector.Vendor()
}

// Connect configures the owned connector. Calling Connect on an already
// connected manager is an error and does not reconfigure anything.
func (m *Manager) Connect(settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("connect %s: %w", m.connector.Vendor(), ErrAlreadyConnected)
	}

	if err := m.connector.Configure(settings); err != nil {
		return fmt.Errorf("connect %s: %w", m.connector.Vendor(), err)
	}

	m.connected = true
	slog.Info("connected", "vendor", m.connector.Vendor().String())
	return nil
}

// Disconnect shuts the connector down. It is an error to disconnect a
// manager that was never connected.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return fmt.Errorf("disconnect %s: %w", m.connector.Vendor(), ErrNotConnected)
	}

	if n := len(m.active); n > 0 {
		slog.Warn("disconnecting with live transactions", "vendor", m.connector.Vendor().String(), "count", n)
	}

	if err := m.connector.Shutdown(ctx); err != nil {
		return fmt.Errorf("disconnect %s: %w", m.connector.Vendor(), err)
	}

	m.connected = false
	return nil
}

// Conn returns a connection for the caller. If tx is a live transaction
// handle, the transaction's connection is returned (same instance on
// every call, manual-transaction mode still on), so statements issued
// through it automatically take part in the transaction. Otherwise a
// fresh autocommit connection is acquired from the connector. Either
// way the manager must be connected.
func (m *Manager) Conn(ctx context.Context, tx *Tx) (Conn, error) {
	m.mu.Lock()
	connected := m.connected
	m.mu.Unlock()
	if !connected {
		return nil, fmt.Errorf("conn %s: %w", m.connector.Vendor(), ErrNotConnected)
	}

	if tx != nil && tx.Active() {
		return tx.conn, nil
	}

	c, err := m.connector.Conn(ctx)
	if err != nil {
		slog.Error("connection acquisition failed", "vendor", m.connector.Vendor().String(), "err", err)
		return nil, fmt.Errorf("conn %s: %w", m.connector.Vendor(), err)
	}
	return c, nil
}

// Release closes a connection obtained from Conn, unless it belongs to
// a live transaction: ending the transaction owns that close, so
// releasing its connection early is a warn-level no-op, not an error.
func (m *Manager) Release(ctx context.Context, conn Conn) error {
	if conn == nil {
		return nil
	}

	m.mu.Lock()
	tx, owned := m.active[conn]
	m.mu.Unlock()
	if owned {
		slog.Warn("release ignored for live transaction connection", "vendor", m.connector.Vendor().String(), "tx", tx.ID())
		return nil
	}

	if err := conn.Close(ctx); err != nil {
		return fmt.Errorf("release %s: %w", m.connector.Vendor(), err)
	}
	return nil
}

// Begin acquires a connection, switches it to manual-transaction mode
// and returns the handle. The caller must finish the transaction with
// End; the handle's connection is reachable through Conn.
func (m *Manager) Begin(ctx context.Context) (*Tx, error) {
	m.mu.Lock()
	connected := m.connected
	m.mu.Unlock()
	if !connected {
		return nil, fmt.Errorf("begin %s: %w", m.connector.Vendor(), ErrNotConnected)
	}

	c, err := m.connector.Conn(ctx)
	if err != nil {
		slog.Error("connection acquisition failed", "vendor", m.connector.Vendor().String(), "err", err)
		return nil, fmt.Errorf("begin %s: %w", m.connector.Vendor(), err)
	}

	if err := c.Begin(ctx); err != nil {
		// Connectors that share one physical connection can hand back a
		// connection a live transaction already owns. Only End may close
		// that one.
		m.mu.Lock()
		_, owned := m.active[c]
		m.mu.Unlock()
		if owned {
			slog.Warn("begin refused: connection owned by a live transaction", "vendor", m.connector.Vendor().String())
		} else {
			_ = c.Close(ctx)
		}
		return nil, fmt.Errorf("begin %s: %w", m.connector.Vendor(), err)
	}

	tx := &Tx{id: uuid.New(), conn: c}

	m.mu.Lock()
	m.active[c] = tx
	m.mu.Unlock()

	slog.Debug("transaction started", "vendor", m.connector.Vendor().String(), "tx", tx.id)
	return tx, nil
}

// End finishes a transaction: commit when commit is true, roll back
// otherwise, then close the connection. Ending a nil or already ended
// handle is a warn-level no-op; higher layers sometimes double-call on
// teardown paths and that must not turn into an error.
func (m *Manager) End(ctx context.Context, tx *Tx, commit bool) error {
	if tx == nil || !tx.finish() {
		slog.Warn("end transaction without a live handle", "vendor", m.connector.Vendor().String())
		return nil
	}

	m.mu.Lock()
	delete(m.active, tx.conn)
	m.mu.Unlock()

	var err error
	if commit {
		err = tx.conn.Commit(ctx)
	} else {
		err = tx.conn.Rollback(ctx)
	}

	closeErr := tx.conn.Close(ctx)

	if err != nil {
		err = fmt.Errorf("end %s tx %s: %w", m.connector.Vendor(), tx.id, err)
	} else if closeErr != nil {
		err = fmt.Errorf("end %s tx %s: close: %w", m.connector.Vendor(), tx.id, closeErr)
	}
	if err != nil {
		return err
	}

	slog.Debug("transaction ended", "vendor", m.connector.Vendor().String(), "tx", tx.id, "commit", commit)
	return nil
}

// InTx runs fn inside a transaction, committing on success and rolling
// back when fn returns an error.
func (m *Manager) InTx(ctx context.Context, fn func(Conn) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx.conn); err != nil {
		if endErr := m.End(ctx, tx, false); endErr != nil {
			return errors.Join(err, endErr)
		}
		return err
	}

	return m.End(ctx, tx, true)
}
