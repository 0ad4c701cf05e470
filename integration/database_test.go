//go:build database

package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestBidsimWithMySQL tests the bidsim CLI with a MySQL backend.
func TestBidsimWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "bidsim",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/bidsim?parseTime=true", host, port.Port())
	runBackendScenario(t, "mysql", connStr)
}

// TestBidsimWithPostgres tests the bidsim CLI with a PostgreSQL backend.
func TestBidsimWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	runBackendScenario(t, "postgresql", connStr)
}

// runBackendScenario drives the lot and run stores against one database.
func runBackendScenario(t *testing.T, backend, connStr string) {
	home := t.TempDir()
	env := []string{
		"BIDSIM_STORE_BACKEND=" + backend,
		"BIDSIM_STORE_DB_CONNECT=" + connStr,
		"BIDSIM_RUNS_BACKEND=" + backend,
		"BIDSIM_RUNS_DB_CONNECT=" + connStr,
	}

	// Start from empty stores
	_, err := runBidsim(t, home, env, "lot", "clear")
	require.NoError(t, err)
	_, err = runBidsim(t, home, env, "runs", "clear")
	require.NoError(t, err)

	// Import and score a stored lot
	_, err = runBidsim(t, home, env, "lot", "import", "lotto-1.yaml")
	require.NoError(t, err)
	out, err := runBidsim(t, home, env, "score", "lotto-1", "--inputs", "inputs.yaml", "--discount", "20", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"lot_name": "Lotto 1"`)

	// Simulate against the stored lot
	_, err = runBidsim(t, home, env,
		"simulate", "lotto-1", "--my-discount", "25", "--my-tech", "50",
		"--comp-discount-mean", "20", "--comp-tech-mean", "50", "--iterations", "500", "--seed", "3")
	require.NoError(t, err)

	// Check both stores report their contents
	out, err = runBidsim(t, home, env, "runs", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 2")

	out, err = runBidsim(t, home, env, "lot", "status")
	require.NoError(t, err)
	assert.Contains(t, out, backend)
}
