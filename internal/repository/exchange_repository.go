// internal/repository/exchange_repository.go
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"motion-service/internal/database"
	"motion-service/internal/model"
	"motion-service/internal/utils"
)

// exchangeRepository implements ExchangeRepository on postgres
type exchangeRepository struct {
	db     *database.DB
	logger *utils.ServiceLogger
}

// NewExchangeRepository creates a postgres exchange repository
func NewExchangeRepository(db *database.DB, logger *zap.Logger) ExchangeRepository {
	return &exchangeRepository{
		db:     db,
		logger: utils.NewServiceLogger(logger, "exchange-repository"),
	}
}

const exchangeColumns = `id, channel, port, operation, command, reply, reply_values,
	status, attempts, duration_ms, error_message, created_at`

// Create stores an exchange
func (r *exchangeRepository) Create(ctx context.Context, exchange *model.Exchange) error {
	query := `
		INSERT INTO exchanges (` + exchangeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	values := exchange.Values
	if values == nil {
		values = model.JSONArray{}
	}

	_, err := r.db.ExecContext(ctx, query,
		exchange.ID, exchange.Channel, exchange.Port, exchange.Operation,
		exchange.Command, exchange.Reply, values, exchange.Status,
		exchange.Attempts, exchange.DurationMs, exchange.Error, exchange.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create exchange", zap.Error(err))
		return fmt.Errorf("failed to create exchange: %w", err)
	}

	return nil
}

// List returns the most recent exchanges
func (r *exchangeRepository) List(ctx context.Context, limit int) ([]*model.Exchange, error) {
	query := `
		SELECT ` + exchangeColumns + `
		FROM exchanges
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.query(ctx, query, normalizeLimit(limit))
}

// ListByChannel returns the most recent exchanges of a channel
func (r *exchangeRepository) ListByChannel(ctx context.Context, channel int, limit int) ([]*model.Exchange, error) {
	query := `
		SELECT ` + exchangeColumns + `
		FROM exchanges
		WHERE channel = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.query(ctx, query, channel, normalizeLimit(limit))
}

func (r *exchangeRepository) query(ctx context.Context, query string, args ...interface{}) ([]*model.Exchange, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.logger.LogDatabaseQuery(query, args, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := []*model.Exchange{}
	for rows.Next() {
		exchange := &model.Exchange{}
		err := rows.Scan(
			&exchange.ID, &exchange.Channel, &exchange.Port, &exchange.Operation,
			&exchange.Command, &exchange.Reply, &exchange.Values, &exchange.Status,
			&exchange.Attempts, &exchange.DurationMs, &exchange.Error, &exchange.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan exchange row", zap.Error(err))
			continue
		}
		exchanges = append(exchanges, exchange)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exchanges: %w", err)
	}

	return exchanges, nil
}

// GetExchangeStats aggregates exchanges matching filter
func (r *exchangeRepository) GetExchangeStats(ctx context.Context, filter *ExchangeStatsFilter) (*ExchangeStats, error) {
	where, args := statsWhere(filter)

	query := `
		SELECT operation,
			   COUNT(*),
			   COUNT(*) FILTER (WHERE status >= 0 AND error_message IS NULL),
			   COUNT(*) FILTER (WHERE attempts > 1),
			   COALESCE(SUM(attempts), 0),
			   COALESCE(SUM(duration_ms), 0)
		FROM exchanges` + where + `
		GROUP BY operation
	`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.logger.LogDatabaseQuery(query, args, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange stats: %w", err)
	}
	defer rows.Close()

	stats := &ExchangeStats{ByOperation: make(map[model.ExchangeOperation]int)}
	var attempts, duration int64
	for rows.Next() {
		var (
			operation                  model.ExchangeOperation
			total, succeeded, resent   int
			sumAttempts, sumDurationMs int64
		)
		if err := rows.Scan(&operation, &total, &succeeded, &resent, &sumAttempts, &sumDurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan exchange stats: %w", err)
		}
		stats.ByOperation[operation] = total
		stats.TotalExchanges += total
		stats.Succeeded += succeeded
		stats.Resent += resent
		attempts += sumAttempts
		duration += sumDurationMs
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exchange stats: %w", err)
	}

	stats.Failed = stats.TotalExchanges - stats.Succeeded
	if stats.TotalExchanges > 0 {
		stats.AvgAttempts = float64(attempts) / float64(stats.TotalExchanges)
		stats.AvgDurationMs = float64(duration) / float64(stats.TotalExchanges)
	}
	return stats, nil
}

func statsWhere(filter *ExchangeStatsFilter) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	var conditions []string
	var args []interface{}
	if filter.Channel != nil {
		args = append(args, *filter.Channel)
		conditions = append(conditions, fmt.Sprintf("channel = $%d", len(args)))
	}
	if filter.Since != nil {
		args = append(args, *filter.Since)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// DeleteOlderThan removes exchanges created before olderThan
func (r *exchangeRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM exchanges WHERE created_at < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old exchanges: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	r.logger.Info("Old exchanges deleted", zap.Int64("count", deleted), zap.Time("older_than", olderThan))
	return deleted, nil
}
