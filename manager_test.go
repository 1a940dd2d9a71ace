package quell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quelldb/quell"
)

// fakeConn records lifecycle calls so manager tests need no database.
type fakeConn struct {
	begun      bool
	committed  bool
	rolledBack bool
	closed     bool
}

func (c *fakeConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return 0, nil
}

func (c *fakeConn) Query(ctx context.Context, query string, args ...any) (quell.Rows, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeConn) QueryRow(ctx context.Context, query string, args ...any) quell.Row {
	return nil
}

func (c *fakeConn) Begin(ctx context.Context) error {
	if c.begun {
		return errors.New("transaction already open")
	}
	c.begun = true
	return nil
}

func (c *fakeConn) Commit(ctx context.Context) error {
	c.committed = true
	c.begun = false
	return nil
}

func (c *fakeConn) Rollback(ctx context.Context) error {
	c.rolledBack = true
	c.begun = false
	return nil
}

func (c *fakeConn) Ping(ctx context.Context) error { return nil }

func (c *fakeConn) Close(ctx context.Context) error {
	c.closed = true
	return nil
}

// fakeConnector hands out a fresh fakeConn per call and tracks its
// lifecycle state. With shared set it mimics a file-backed connector
// and returns the same connection to every caller.
type fakeConnector struct {
	vendor     quell.Vendor
	configured bool
	shutdown   bool
	shared     bool
	conns      []*fakeConn
	connErr    error
}

func (f *fakeConnector) Vendor() quell.Vendor { return f.vendor }

func (f *fakeConnector) Configure(settings quell.Settings) error {
	if f.shutdown {
		return quell.ErrShutdown
	}
	if f.configured {
		return quell.ErrAlreadyConfigured
	}
	f.configured = true
	return nil
}

func (f *fakeConnector) Conn(ctx context.Context) (quell.Conn, error) {
	if f.connErr != nil {
		return nil, f.connErr
	}
	if f.shared && len(f.conns) > 0 {
		return f.conns[0], nil
	}
	c := &fakeConn{}
	f.conns = append(f.conns, c)
	return c, nil
}

func (f *fakeConnector) Shutdown(ctx context.Context) error {
	f.shutdown = true
	return nil
}

func newTestManager(t *testing.T) (*quell.Manager, *fakeConnector) {
	t.Helper()
	fc := &fakeConnector{vendor: quell.Vendor{Name: "fake", Version: 1}}
	m := quell.NewManager(fc)
	assert.NoError(t, m.Connect(quell.Settings{}))
	return m, fc
}

func TestManagerConnectTwice(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Connect(quell.Settings{})
	assert.ErrorIs(t, err, quell.ErrAlreadyConnected)
}

func TestManagerDisconnectWithoutConnect(t *testing.T) {
	m := quell.NewManager(&fakeConnector{vendor: quell.Vendor{Name: "fake"}})
	err := m.Disconnect(context.Background())
	assert.ErrorIs(t, err, quell.ErrNotConnected)
}

func TestManagerConnBeforeConnect(t *testing.T) {
	m := quell.NewManager(&fakeConnector{vendor: quell.Vendor{Name: "fake"}})
	_, err := m.Conn(context.Background(), nil)
	assert.ErrorIs(t, err, quell.ErrNotConnected)
}

func TestManagerConnFreshWithoutTransaction(t *testing.T) {
	ctx := context.Background()
	m, fc := newTestManager(t)

	c1, err := m.Conn(ctx, nil)
	assert.NoError(t, err)
	c2, err := m.Conn(ctx, nil)
	assert.NoError(t, err)

	assert.NotSame(t, c1, c2)
	assert.Len(t, fc.conns, 2)
}

func TestManagerTransactionConnStable(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	tx, err := m.Begin(ctx)
	assert.NoError(t, err)

	c1, err := m.Conn(ctx, tx)
	assert.NoError(t, err)
	c2, err := m.Conn(ctx, tx)
	assert.NoError(t, err)
	assert.Same(t, c1, c2)

	// A second owner gets its own connection during the transaction.
	other, err := m.Conn(ctx, nil)
	assert.NoError(t, err)
	assert.NotSame(t, c1, other)

	assert.NoError(t, m.End(ctx, tx, true))

	// After end, the handle no longer routes to the old connection.
	c3, err := m.Conn(ctx, tx)
	assert.NoError(t, err)
	assert.NotSame(t, c1, c3)
}

func TestManagerReleaseIgnoresTransactionConn(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	tx, err := m.Begin(ctx)
	assert.NoError(t, err)

	conn, err := m.Conn(ctx, tx)
	assert.NoError(t, err)

	assert.NoError(t, m.Release(ctx, conn))
	fc := conn.(*fakeConn)
	assert.False(t, fc.closed, "transaction connection must stay open after Release")

	assert.NoError(t, m.End(ctx, tx, true))
	assert.True(t, fc.closed, "End owns the close")
	assert.True(t, fc.committed)
}

func TestManagerReleaseClosesPlainConn(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	conn, err := m.Conn(ctx, nil)
	assert.NoError(t, err)
	assert.NoError(t, m.Release(ctx, conn))
	assert.True(t, conn.(*fakeConn).closed)
}

func TestManagerEndRollsBack(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	tx, err := m.Begin(ctx)
	assert.NoError(t, err)
	conn, err := m.Conn(ctx, tx)
	assert.NoError(t, err)

	assert.NoError(t, m.End(ctx, tx, false))

	fc := conn.(*fakeConn)
	assert.True(t, fc.rolledBack)
	assert.False(t, fc.committed)
	assert.True(t, fc.closed)
}

func TestManagerEndMisuseIsNoOp(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	// End without a handle.
	assert.NoError(t, m.End(ctx, nil, true))

	// Double end.
	tx, err := m.Begin(ctx)
	assert.NoError(t, err)
	assert.NoError(t, m.End(ctx, tx, true))
	assert.NoError(t, m.End(ctx, tx, true))
	assert.False(t, tx.Active())
}

func TestManagerBeginConnectorFailure(t *testing.T) {
	ctx := context.Background()
	m, fc := newTestManager(t)
	fc.connErr = errors.New("pool exhausted")

	_, err := m.Begin(ctx)
	assert.ErrorContains(t, err, "pool exhausted")
}

func TestManagerInTx(t *testing.T) {
	ctx := context.Background()
	m, fc := newTestManager(t)

	err := m.InTx(ctx, func(conn quell.Conn) error { return nil })
	assert.NoError(t, err)
	assert.True(t, fc.conns[0].committed)

	boom := errors.New("boom")
	err = m.InTx(ctx, func(conn quell.Conn) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, fc.conns[1].rolledBack)
}

func TestManagerBeginTwiceOnSharedConn(t *testing.T) {
	ctx := context.Background()

	fc := &fakeConnector{vendor: quell.Vendor{Name: "fake"}, shared: true}
	m := quell.NewManager(fc)
	assert.NoError(t, m.Connect(quell.Settings{}))

	tx1, err := m.Begin(ctx)
	assert.NoError(t, err)

	// The connector hands the second Begin the same connection; the
	// failed begin must leave the first transaction untouched.
	_, err = m.Begin(ctx)
	assert.ErrorContains(t, err, "transaction already open")

	c := fc.conns[0]
	assert.False(t, c.closed, "live transaction connection must survive a failed Begin")
	assert.False(t, c.rolledBack)
	assert.True(t, tx1.Active())

	assert.NoError(t, m.End(ctx, tx1, true))
	assert.True(t, c.committed)
	assert.True(t, c.closed)
}

func TestManagerConnWithLiveTxAfterDisconnect(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	tx, err := m.Begin(ctx)
	assert.NoError(t, err)

	assert.NoError(t, m.Disconnect(ctx))

	_, err = m.Conn(ctx, tx)
	assert.ErrorIs(t, err, quell.ErrNotConnected)
}

func TestManagerDisconnect(t *testing.T) {
	ctx := context.Background()
	m, fc := newTestManager(t)

	assert.NoError(t, m.Disconnect(ctx))
	assert.True(t, fc.shutdown)

	_, err := m.Conn(ctx, nil)
	assert.ErrorIs(t, err, quell.ErrNotConnected)
}
