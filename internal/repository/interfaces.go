// internal/repository/interfaces.go
package repository

import (
	"context"
	"time"

	"motion-service/internal/model"
)

// ExchangeRepository defines exchange journal operations
type ExchangeRepository interface {
	Create(ctx context.Context, exchange *model.Exchange) error

	// Listing, newest first
	List(ctx context.Context, limit int) ([]*model.Exchange, error)
	ListByChannel(ctx context.Context, channel int, limit int) ([]*model.Exchange, error)

	// Analytics
	GetExchangeStats(ctx context.Context, filter *ExchangeStatsFilter) (*ExchangeStats, error)

	// Cleanup
	DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error)
}

// ExchangeStatsFilter narrows exchange statistics
type ExchangeStatsFilter struct {
	Channel *int       `json:"channel,omitempty"`
	Since   *time.Time `json:"since,omitempty"`
}

// ExchangeStats summarizes journaled exchanges
type ExchangeStats struct {
	TotalExchanges int                             `json:"total_exchanges"`
	Succeeded      int                             `json:"succeeded"`
	Failed         int                             `json:"failed"`
	Resent         int                             `json:"resent"`
	AvgAttempts    float64                         `json:"average_attempts"`
	AvgDurationMs  float64                         `json:"average_duration_ms"`
	ByOperation    map[model.ExchangeOperation]int `json:"by_operation"`
}

// DefaultListLimit applies when callers pass a non-positive limit
const DefaultListLimit = 100

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
