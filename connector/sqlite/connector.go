// Package sqlite implements the file-backed connector variant on
// modernc.org/sqlite.
//
// File-backed engines are single-writer and gain nothing from pooling,
// so the connector keeps one lazily-created physical connection and
// hands it out to every caller for as long as it stays alive. A dead or
// closed connection is replaced transparently on the next request.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/quelldb/quell"
	"github.com/quelldb/quell/connector"

	_ "modernc.org/sqlite" // SQLite driver
)

func init() {
	connector.Register("sqlite", quell.KindDataSource, func(d quell.Descriptor) quell.Connector {
		return New(d)
	})
}

type state int

const (
	stateNew state = iota
	stateReady
	stateShutdown
)

// Connector is the file-backed connector for one sqlite descriptor.
type Connector struct {
	desc quell.Descriptor

	mu    sync.Mutex
	state state
	dsn   string
	db    *sql.DB
	conn  *conn
}

// New returns an unconfigured connector for the descriptor.
func New(d quell.Descriptor) *Connector {
	return &Connector{desc: d}
}

// Vendor returns the configured vendor identity.
func (c *Connector) Vendor() quell.Vendor {
	return c.desc.Vendor
}

// Configure resolves the database location from the descriptor and the
// settings and prepares the connection handle. No I/O happens here; the
// physical connection is created lazily by Conn.
func (c *Connector) Configure(settings quell.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateReady:
		return fmt.Errorf("configure %s: %w", c.desc.Vendor, quell.ErrAlreadyConfigured)
	case stateShutdown:
		return fmt.Errorf("configure %s: %w", c.desc.Vendor, quell.ErrShutdown)
	}

	dsn := resolveDSN(c.desc, settings)
	if dsn == "" {
		return fmt.Errorf("configure %s: %w: no url or path configured", c.desc.Vendor, quell.ErrInvalidInput)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("configure %s: %w", c.desc.Vendor, err)
	}
	// One physical connection; see package comment.
	db.SetMaxOpenConns(1)

	c.dsn = dsn
	c.db = db
	c.state = stateReady
	return nil
}

// resolveDSN prefers the descriptor's templates over raw settings: the
// url template, then a url data-source property, then the url and path
// settings keys.
func resolveDSN(d quell.Descriptor, settings quell.Settings) string {
	if d.URL != "" {
		return d.ExpandURL(settings)
	}
	if props := d.ExpandProperties(settings); props["url"] != "" {
		return props["url"]
	}
	if url := settings.Get("url"); url != "" {
		return url
	}
	return settings.Get("path")
}

// Conn returns the shared connection, creating or replacing the
// physical connection when there is none or the cached one no longer
// answers a ping.
func (c *Connector) Conn(ctx context.Context) (quell.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateNew:
		return nil, fmt.Errorf("conn %s: %w", c.desc.Vendor, quell.ErrNotConfigured)
	case stateShutdown:
		return nil, fmt.Errorf("conn %s: %w", c.desc.Vendor, quell.ErrShutdown)
	}

	if c.conn != nil {
		if err := c.conn.Ping(ctx); err == nil {
			return c.conn, nil
		}
		slog.Debug("replacing dead sqlite connection", "vendor", c.desc.Vendor.String(), "target", c.dsn)
		c.conn = nil
	}

	sc, err := c.db.Conn(ctx)
	if err != nil {
		slog.Error("sqlite connection failed", "vendor", c.desc.Vendor.String(), "target", c.dsn, "err", err)
		return nil, fmt.Errorf("conn %s: %w", c.desc.Vendor, err)
	}

	c.conn = &conn{sc: sc}
	return c.conn, nil
}

// Shutdown closes the shared connection and the handle. It is
// idempotent; the connector is terminal afterwards.
func (c *Connector) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateReady {
		c.state = stateShutdown
		return nil
	}
	c.state = stateShutdown

	if c.conn != nil {
		_ = c.conn.Close(ctx)
		c.conn = nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("shutdown %s: %w", c.desc.Vendor, err)
	}
	return nil
}
