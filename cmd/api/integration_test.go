//go:build integration
// +build integration

package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/urna-cipa/internal/config"
	"github.com/gravadigital/urna-cipa/internal/storage/postgres"
)

// Integration tests that require a real PostgreSQL database
// Run with: go test -tags=integration ./cmd/api/

func testConfig() *config.Config {
	cfg := config.Load()
	if testDB := os.Getenv("TEST_DB_NAME"); testDB != "" {
		cfg.DB.Name = testDB
	}
	return cfg
}

func TestContainerBootstrap(t *testing.T) {
	container, err := postgres.NewContainer(testConfig())
	require.NoError(t, err, "Should be able to connect and migrate the test database")
	defer container.Close()

	assert.NoError(t, container.Health())

	exists, err := container.Candidates().NumberExists(t.Context(), 0)
	require.NoError(t, err)
	assert.True(t, exists, "blank vote should be seeded")
}

func TestMigrationsAreRepeatable(t *testing.T) {
	db, err := postgres.Connect(testConfig())
	require.NoError(t, err)
	defer postgres.Close(db)

	assert.NoError(t, postgres.AutoMigrate(db))
	assert.NoError(t, postgres.AutoMigrate(db))
}
