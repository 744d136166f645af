// internal/database/connection_test.go
package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	db := Wrap(sqlDB, nil)

	mock.ExpectPing()
	assert.NoError(t, db.HealthCheck(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection reset"))
	err = db.HealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database ping failed")

	mock.ExpectClose()
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStats(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	db := Wrap(sqlDB, nil)
	defer db.Close()

	stats := db.GetStats()
	for _, key := range []string{"open_connections", "in_use", "idle", "wait_count", "wait_duration"} {
		assert.Contains(t, stats, key)
	}
}
