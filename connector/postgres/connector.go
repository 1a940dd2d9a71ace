// Package postgres implements the pooled connector variant on
// jackc/pgx. The pool is configured once from the settings and owns all
// concurrency control over physical connections; quell adds no pooling
// logic of its own on top.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quelldb/quell"
	"github.com/quelldb/quell/connector"
)

func init() {
	connector.Register("postgres", quell.KindDriver, func(d quell.Descriptor) quell.Connector {
		return New(d)
	})
}

type state int

const (
	stateNew state = iota
	stateReady
	stateShutdown
)

// Connector is the pooled connector for one postgres descriptor.
type Connector struct {
	desc quell.Descriptor

	mu    sync.Mutex
	state state
	pool  *pgxpool.Pool
}

// New returns an unconfigured connector for the descriptor.
func New(d quell.Descriptor) *Connector {
	return &Connector{desc: d}
}

// Vendor returns the configured vendor identity.
func (c *Connector) Vendor() quell.Vendor {
	return c.desc.Vendor
}

// Configure builds the pool configuration from the descriptor template
// and settings and creates the pool. Pool creation is lazy about
// physical connections, so a bad address surfaces on the first Conn,
// while a malformed configuration fails here before any I/O.
func (c *Connector) Configure(settings quell.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateReady:
		return fmt.Errorf("configure %s: %w", c.desc.Vendor, quell.ErrAlreadyConfigured)
	case stateShutdown:
		return fmt.Errorf("configure %s: %w", c.desc.Vendor, quell.ErrShutdown)
	}

	dsn := BuildDSN(c.desc, settings)
	if dsn == "" {
		return fmt.Errorf("configure %s: %w: no connection settings", c.desc.Vendor, quell.ErrInvalidInput)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("configure %s: %w", c.desc.Vendor, err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("configure %s: %w", c.desc.Vendor, err)
	}

	c.pool = pool
	c.state = stateReady
	return nil
}

// connKeys are emitted first and in this order so the generated DSN is
// stable for a given settings map.
var connKeys = []string{"host", "port", "database", "user", "password", "sslmode"}

// settingsKey maps quell's vendor-neutral settings names onto libpq
// parameter names.
var settingsKey = map[string]string{"database": "dbname"}

// BuildDSN turns a descriptor and settings into a pgx DSN. A url
// template on the descriptor wins, with its {key} placeholders expanded
// from the settings. Otherwise a keyword/value DSN is assembled from
// the settings: well-known connection keys first, every remaining key
// passed through untouched so pool tuning knobs (pool_max_conns,
// statement_cache_capacity, ...) reach pgx directly.
func BuildDSN(d quell.Descriptor, settings quell.Settings) string {
	if d.URL != "" {
		return d.ExpandURL(settings)
	}

	seen := make(map[string]bool, len(connKeys))
	var parts []string
	for _, k := range connKeys {
		seen[k] = true
		if v := settings.Get(k); v != "" {
			name := k
			if mapped, ok := settingsKey[k]; ok {
				name = mapped
			}
			parts = append(parts, name+"="+quoteValue(v))
		}
	}

	rest := make([]string, 0, len(settings))
	for k := range settings {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		parts = append(parts, k+"="+quoteValue(settings[k]))
	}

	return strings.Join(parts, " ")
}

// quoteValue quotes a keyword/value DSN value when it contains
// characters libpq would mis-parse.
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Conn acquires a connection from the pool, blocking until one is
// available or ctx is done.
func (c *Connector) Conn(ctx context.Context) (quell.Conn, error) {
	c.mu.Lock()
	st := c.state
	pool := c.pool
	c.mu.Unlock()

	switch st {
	case stateNew:
		return nil, fmt.Errorf("conn %s: %w", c.desc.Vendor, quell.ErrNotConfigured)
	case stateShutdown:
		return nil, fmt.Errorf("conn %s: %w", c.desc.Vendor, quell.ErrShutdown)
	}

	pc, err := pool.Acquire(ctx)
	if err != nil {
		slog.Error("postgres connection failed", "vendor", c.desc.Vendor.String(), "target", pool.Config().ConnConfig.Host, "err", err)
		return nil, fmt.Errorf("conn %s: %w", c.desc.Vendor, err)
	}

	return &conn{pc: pc}, nil
}

// Shutdown closes the pool. It is idempotent; the connector is terminal
// afterwards.
func (c *Connector) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateReady {
		c.pool.Close()
	}
	c.state = stateShutdown
	return nil
}
