package postgres_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/quelldb/quell"
	"github.com/quelldb/quell/connector/postgres"
)

var (
	testSettings     quell.Settings
	testSettingsOnce sync.Once
	testCleanup      func()
)

// getSharedTestSettings starts one postgres container for the whole
// test run and returns connection settings pointing at it.
func getSharedTestSettings(t *testing.T) quell.Settings {
	t.Helper()

	testSettingsOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}

		testCleanup = func() {
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				t.Logf("failed to terminate container: %s", err)
			}
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			testCleanup()
			t.Fatalf("failed to get connection string: %v", err)
		}

		cfg, err := pgxpool.ParseConfig(connectionStr)
		if err != nil {
			testCleanup()
			t.Fatalf("failed to parse connection string: %v", err)
		}

		testSettings = quell.Settings{
			"host":     cfg.ConnConfig.Host,
			"port":     strconv.Itoa(int(cfg.ConnConfig.Port)),
			"database": cfg.ConnConfig.Database,
			"user":     cfg.ConnConfig.User,
			"password": cfg.ConnConfig.Password,
			"sslmode":  "disable",
		}
	})

	return testSettings
}

// newTestConnector returns a configured connector against the shared
// container.
func newTestConnector(t *testing.T) *postgres.Connector {
	t.Helper()

	settings := getSharedTestSettings(t)

	desc := quell.Descriptor{
		Vendor: quell.Vendor{Name: "postgres", Version: 18},
		Kind:   quell.KindDriver,
		Impl:   "postgres",
	}

	c := postgres.New(desc)
	require.NoError(t, c.Configure(settings))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c
}

// getRandomString generates a random string for unique test identifiers.
func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}
