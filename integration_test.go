package quell_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quelldb/quell"
	"github.com/quelldb/quell/catalog"
	"github.com/quelldb/quell/connector"
	"github.com/quelldb/quell/queries"

	_ "github.com/quelldb/quell/connector/sqlite"
)

const testCatalog = `
- vendor: sqlite
  impl: sqlite
  properties:
    url: "file:{path}"
  queries: statements
- vendor: CockroachDB
  version: 23
  impl: cockroach
`

const testStatements = `
create_users=CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)
insert_user=INSERT INTO users (name) VALUES (?)
count_users=SELECT count(*) FROM users
`

const testStatementsSqlite = `
count_users=SELECT count(id) FROM users
`

// TestSecondBeginKeepsFirstTransaction covers the file-backed case
// where every caller shares one physical connection: a second Begin
// while a transaction is live must fail without rolling back or
// closing the first transaction's connection.
func TestSecondBeginKeepsFirstTransaction(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	desc := quell.Descriptor{
		Vendor: quell.Vendor{Name: "sqlite"},
		Kind:   quell.KindDataSource,
		Impl:   "sqlite",
		Properties: map[string]string{
			"url": "file:{path}",
		},
	}

	conn, err := connector.New(desc)
	require.NoError(t, err)

	mgr := quell.NewManager(conn)
	require.NoError(t, mgr.Connect(quell.Settings{"path": filepath.Join(dir, "app.db")}))
	defer func() { _ = mgr.Disconnect(ctx) }()

	c, err := mgr.Conn(ctx, nil)
	require.NoError(t, err)
	_, err = c.Exec(ctx, `CREATE TABLE t (v INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, mgr.Release(ctx, c))

	tx1, err := mgr.Begin(ctx)
	require.NoError(t, err)
	txConn, err := mgr.Conn(ctx, tx1)
	require.NoError(t, err)
	_, err = txConn.Exec(ctx, `INSERT INTO t VALUES (1)`)
	require.NoError(t, err)

	_, err = mgr.Begin(ctx)
	require.Error(t, err)

	// The first transaction is still live and usable.
	assert.True(t, tx1.Active())
	_, err = txConn.Exec(ctx, `INSERT INTO t VALUES (2)`)
	require.NoError(t, err)
	require.NoError(t, mgr.End(ctx, tx1, true))

	c, err = mgr.Conn(ctx, nil)
	require.NoError(t, err)
	var n int
	require.NoError(t, c.QueryRow(ctx, `SELECT count(*) FROM t`).Scan(&n))
	assert.Equal(t, 2, n)
	require.NoError(t, mgr.Release(ctx, c))
}

// TestEndToEnd drives the full path: catalog load, connector
// construction, statement chain resolution and execution through the
// manager.
func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "statements.properties"), []byte(testStatements), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "statements_sqlite.properties"), []byte(testStatementsSqlite), 0o600))

	// The cockroach record has no registered implementation and must be
	// skipped without failing the load.
	cat, err := catalog.Load(strings.NewReader(testCatalog), catalog.FormatYAML, connector.KindOf)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())

	desc, ok := cat.Get(quell.Vendor{Name: "sqlite"})
	require.True(t, ok)
	assert.Equal(t, quell.KindDataSource, desc.Kind)

	head, err := queries.Chain(os.DirFS(dir), desc.QueriesRef, desc.Vendor)
	require.NoError(t, err)
	assert.Equal(t, "statements_sqlite.properties", head.Source())

	conn, err := connector.New(desc)
	require.NoError(t, err)

	mgr := quell.NewManager(conn)
	require.NoError(t, mgr.Connect(quell.Settings{"path": filepath.Join(dir, "app.db")}))
	defer func() { _ = mgr.Disconnect(ctx) }()

	create, err := head.Resolve("create_users")
	require.NoError(t, err)
	insert, err := head.Resolve("insert_user")
	require.NoError(t, err)
	count, err := head.Resolve("count_users")
	require.NoError(t, err)

	// The vendor override wins over the baseline definition.
	assert.Equal(t, "SELECT count(id) FROM users", count)

	c, err := mgr.Conn(ctx, nil)
	require.NoError(t, err)
	_, err = c.Exec(ctx, create)
	require.NoError(t, err)
	require.NoError(t, mgr.Release(ctx, c))

	// Committed transaction.
	err = mgr.InTx(ctx, func(conn quell.Conn) error {
		_, execErr := conn.Exec(ctx, insert, "alice")
		return execErr
	})
	require.NoError(t, err)

	// Rolled-back transaction leaves no trace.
	tx, err := mgr.Begin(ctx)
	require.NoError(t, err)
	txConn, err := mgr.Conn(ctx, tx)
	require.NoError(t, err)
	_, err = txConn.Exec(ctx, insert, "bob")
	require.NoError(t, err)
	require.NoError(t, mgr.End(ctx, tx, false))

	c, err = mgr.Conn(ctx, nil)
	require.NoError(t, err)
	var n int
	require.NoError(t, c.QueryRow(ctx, count).Scan(&n))
	assert.Equal(t, 1, n)
	require.NoError(t, mgr.Release(ctx, c))
}
