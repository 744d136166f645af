// internal/repository/exchange_repository_test.go
package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"motion-service/internal/database"
	"motion-service/internal/model"
)

func newMockRepository(t *testing.T) (ExchangeRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewExchangeRepository(database.Wrap(sqlDB, zap.NewNop()), zap.NewNop()), mock
}

func TestExchangeRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepository(t)
	e := newExchange(2, "GroupStatusGet(G1,int *)", 0, 1, time.Now())

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exchanges")).
		WithArgs(e.ID, 2, "xps1", model.ExchangeSendAndReceive, e.Command, "0",
			sqlmock.AnyArg(), 0, 1, 0, nil, e.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExchangeRepositoryCreateError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exchanges")).WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), newExchange(0, "x", 0, 1, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create exchange")
}

func TestExchangeRepositoryListByChannel(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "channel", "port", "operation", "command", "reply", "reply_values",
		"status", "attempts", "duration_ms", "error_message", "created_at"}).
		AddRow(id.String(), 3, "xps1", "SEND_AND_RECEIVE", "GroupStatusGet(G1,int *)", "0,12", []byte(`["12"]`), 0, 2, 5, nil, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM exchanges")).
		WithArgs(3, DefaultListLimit).
		WillReturnRows(rows)

	exchanges, err := repo.ListByChannel(context.Background(), 3, 0)
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Equal(t, id, exchanges[0].ID)
	assert.Equal(t, model.JSONArray{"12"}, exchanges[0].Values)
	assert.Equal(t, 2, exchanges[0].Attempts)
	assert.Nil(t, exchanges[0].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExchangeRepositoryStats(t *testing.T) {
	repo, mock := newMockRepository(t)
	channel := 1

	rows := sqlmock.NewRows([]string{"operation", "count", "succeeded", "resent", "attempts", "duration"}).
		AddRow("SEND_AND_RECEIVE", 4, 3, 1, 7, 40).
		AddRow("SEND_ONLY", 1, 1, 0, 1, 30)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE channel = $1")).
		WithArgs(channel).
		WillReturnRows(rows)

	stats, err := repo.GetExchangeStats(context.Background(), &ExchangeStatsFilter{Channel: &channel})
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalExchanges)
	assert.Equal(t, 4, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.InDelta(t, 1.6, stats.AvgAttempts, 0.001)
	assert.InDelta(t, 14.0, stats.AvgDurationMs, 0.001)
	assert.Equal(t, 1, stats.ByOperation[model.ExchangeSendOnly])
}

func TestExchangeRepositoryDeleteOlderThan(t *testing.T) {
	repo, mock := newMockRepository(t)
	cutoff := time.Now().Add(-time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exchanges WHERE created_at < $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 7, deleted)
}

func TestStatsWhere(t *testing.T) {
	where, args := statsWhere(nil)
	assert.Empty(t, where)
	assert.Empty(t, args)

	channel := 4
	since := time.Now()
	where, args = statsWhere(&ExchangeStatsFilter{Channel: &channel, Since: &since})
	assert.Equal(t, " WHERE channel = $1 AND created_at >= $2", where)
	assert.Equal(t, []interface{}{4, since}, args)
}
